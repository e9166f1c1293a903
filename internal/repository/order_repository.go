package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"freshbasket/internal/model"
)

// OrderRepository defines order ledger persistence operations.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByCheckoutKey(ctx context.Context, key string) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	Delete(ctx context.Context, id uint) (bool, error)
	Count(ctx context.Context) (int64, error)
	// CreateOnce inserts order with its lines unless an order with the same
	// checkout key already exists, in which case that order is returned.
	CreateOnce(ctx context.Context, order *model.Order) (*model.Order, bool, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo OrderRepository) error) error
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts an order together with its lines.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID finds an order by ID, lines included.
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Preload("Lines", orderLinesByPosition).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByCheckoutKey finds the order written for a cart checkout key.
func (r *orderRepository) FindByCheckoutKey(ctx context.Context, key string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Preload("Lines", orderLinesByPosition).
		Where("checkout_key = ?", key).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns one user's orders, most recent first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAll returns every order, most recent first.
func (r *orderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Delete hard-deletes an order and its lines, reporting whether it existed.
func (r *orderRepository) Delete(ctx context.Context, id uint) (bool, error) {
	var existed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderLine{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		existed = res.RowsAffected > 0
		return nil
	})
	return existed, err
}

// Count returns the number of orders in the ledger.
func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// CreateOnce reports created=false when the checkout key was already used.
func (r *orderRepository) CreateOnce(ctx context.Context, order *model.Order) (*model.Order, bool, error) {
	var (
		result  *model.Order
		created bool
	)
	err := r.WithTransaction(ctx, func(ctx context.Context, txRepo OrderRepository) error {
		existing, err := txRepo.FindByCheckoutKey(ctx, order.CheckoutKey)
		if err == nil {
			result = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := txRepo.Create(ctx, order); err != nil {
			return err
		}
		result = order
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

// WithTransaction executes a function within a database transaction.
func (r *orderRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo OrderRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &orderRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

func orderLinesByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}
