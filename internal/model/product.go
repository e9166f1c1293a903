package model

import (
	"github.com/shopspring/decimal"
)

// Categories offered by the default catalog. Admins may use free-form values too.
const (
	CategoryFruits     = "fruits"
	CategoryVegetables = "vegetables"
	CategoryBakery     = "bakery"
	CategoryDairy      = "dairy"
)

// DefaultStock is the advisory stock counter assigned to new products.
const DefaultStock = 100

// Product represents a catalog entry.
type Product struct {
	ID       uint            `json:"id" gorm:"primaryKey"`
	Name     string          `json:"name" gorm:"size:100;not null;index"`
	Price    decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	Category string          `json:"category" gorm:"size:50;not null;index"`
	Icon     string          `json:"icon" gorm:"size:10;not null"`
	// Stock is advisory; no cart or checkout operation reads or decrements it.
	Stock int `json:"stock" gorm:"default:100"`
}
