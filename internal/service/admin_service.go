package service

import (
	"context"

	"github.com/shopspring/decimal"

	apperrors "freshbasket/internal/errors"
	"freshbasket/internal/model"
	"freshbasket/internal/session"
)

// Dashboard is the admin reporting view.
type Dashboard struct {
	Revenue      decimal.Decimal `json:"revenue"`
	OrderCount   int             `json:"order_count"`
	ProductCount int             `json:"product_count"`
	Products     []model.Product `json:"products"`
	Orders       []model.Order   `json:"orders"`
}

// AdminService guards privileged catalog and order operations.
type AdminService interface {
	// Authorize returns ErrUnauthenticated for anonymous sessions and
	// ErrForbidden for sessions without the admin capability.
	Authorize(sess *session.Session) error
	Dashboard(ctx context.Context, sess *session.Session) (*Dashboard, error)
	CreateProduct(ctx context.Context, sess *session.Session, input ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, sess *session.Session, productID uint) (bool, error)
	CancelOrder(ctx context.Context, sess *session.Session, orderID uint) (bool, error)
}

type adminService struct {
	catalog     CatalogService
	orders      OrderService
	legacyGrant bool
}

// NewAdminService creates a new admin service. With legacyGrant set, any
// authenticated session is treated as an administrator.
func NewAdminService(catalog CatalogService, orders OrderService, legacyGrant bool) AdminService {
	return &adminService{catalog: catalog, orders: orders, legacyGrant: legacyGrant}
}

func (s *adminService) Authorize(sess *session.Session) error {
	identity, ok := sess.Identity()
	if !ok {
		return apperrors.ErrUnauthenticated
	}
	if s.legacyGrant || identity.Role == model.RoleAdmin {
		return nil
	}
	return apperrors.ErrForbidden
}

func (s *adminService) Dashboard(ctx context.Context, sess *session.Session) (*Dashboard, error) {
	if err := s.Authorize(sess); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Revenue:      SumTotals(orders),
		OrderCount:   len(orders),
		ProductCount: len(products),
		Products:     products,
		Orders:       orders,
	}, nil
}

func (s *adminService) CreateProduct(ctx context.Context, sess *session.Session, input ProductInput) (*model.Product, error) {
	if err := s.Authorize(sess); err != nil {
		return nil, err
	}
	return s.catalog.Create(ctx, input)
}

func (s *adminService) DeleteProduct(ctx context.Context, sess *session.Session, productID uint) (bool, error) {
	if err := s.Authorize(sess); err != nil {
		return false, err
	}
	return s.catalog.Delete(ctx, productID)
}

func (s *adminService) CancelOrder(ctx context.Context, sess *session.Session, orderID uint) (bool, error) {
	if err := s.Authorize(sess); err != nil {
		return false, err
	}
	return s.orders.Cancel(ctx, orderID)
}
