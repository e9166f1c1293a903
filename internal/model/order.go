package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GuestCustomerName is recorded on orders placed without a display name.
const GuestCustomerName = "Guest"

// Order is the durable record produced by checkout. It keeps no live reference
// to the catalog: names and prices are copied from the cart snapshots.
type Order struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	UserID       *uint           `json:"user_id" gorm:"index"`
	CustomerName string          `json:"customer_name" gorm:"size:100"`
	Total        decimal.Decimal `json:"total" gorm:"type:decimal(20,2);not null"`
	// Items is the comma-joined list of item names shown on receipts and history.
	Items       string    `json:"items" gorm:"column:items;type:text"`
	CheckoutKey string    `json:"-" gorm:"size:36;uniqueIndex;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`

	// Relations
	Lines []OrderLine `json:"lines,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderLine is one frozen cart line persisted with its order.
type OrderLine struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	Position  int             `json:"position" gorm:"not null"`
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name" gorm:"size:100;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	Quantity  int             `json:"quantity" gorm:"not null;default:1"`
}
