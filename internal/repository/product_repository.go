package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"freshbasket/internal/model"
)

// ProductRepository defines catalog persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	CreateBatch(ctx context.Context, products []model.Product) error
	Delete(ctx context.Context, id uint) (bool, error)
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	ListByCategory(ctx context.Context, category string, limit int) ([]model.Product, error)
	SearchByName(ctx context.Context, substring string) ([]model.Product, error)
	Count(ctx context.Context) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// CreateBatch inserts products in one statement, preserving slice order as id order.
func (r *productRepository) CreateBatch(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(products, 100).Error
}

// Delete removes a product and reports whether a row existed.
func (r *productRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByID finds a product by ID.
func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns the whole catalog in insertion order.
func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListByCategory returns products whose category equals category exactly.
// A limit of zero or less returns every match.
func (r *productRepository) ListByCategory(ctx context.Context, category string, limit int) ([]model.Product, error) {
	var products []model.Product
	if err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Order("id").
		Find(&products).Error; err != nil {
		return nil, err
	}
	// Filter in Go: mysql collations may compare case-insensitively.
	out := products[:0]
	for _, p := range products {
		if p.Category != category {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// SearchByName returns products whose name contains substring, case-sensitively.
func (r *productRepository) SearchByName(ctx context.Context, substring string) ([]model.Product, error) {
	if substring == "" {
		return r.List(ctx)
	}
	var candidates []model.Product
	if err := r.db.WithContext(ctx).
		Where("name LIKE ? ESCAPE '!'", "%"+escapeLike(substring)+"%").
		Order("id").
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	// LIKE is case-insensitive on sqlite and most mysql collations.
	out := candidates[:0]
	for _, p := range candidates {
		if strings.Contains(p.Name, substring) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Count returns the number of catalog entries.
func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// escapeLike uses '!' as the escape character: mysql reads a backslash inside a
// string literal as an escape of its own.
func escapeLike(s string) string {
	return strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`).Replace(s)
}
