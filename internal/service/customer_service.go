package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "freshbasket/internal/errors"
	"freshbasket/internal/model"
	"freshbasket/internal/repository"
	"freshbasket/internal/session"
)

// CustomerDetail is one registered user with their order history.
type CustomerDetail struct {
	User   model.User    `json:"user"`
	Orders []model.Order `json:"orders"`
}

// CustomerService lets administrators look up registered users.
type CustomerService interface {
	ListCustomers(ctx context.Context, sess *session.Session) ([]model.User, error)
	GetCustomer(ctx context.Context, sess *session.Session, id uint) (*CustomerDetail, error)
}

type customerService struct {
	repo   repository.UserRepository
	orders OrderService
	admin  AdminService
}

// NewCustomerService builds a CustomerService guarded by the admin capability check.
func NewCustomerService(repo repository.UserRepository, orders OrderService, admin AdminService) CustomerService {
	return &customerService{repo: repo, orders: orders, admin: admin}
}

func (s *customerService) ListCustomers(ctx context.Context, sess *session.Session) ([]model.User, error) {
	if err := s.admin.Authorize(sess); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *customerService) GetCustomer(ctx context.Context, sess *session.Session, id uint) (*CustomerDetail, error) {
	if err := s.admin.Authorize(sess); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListForUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return &CustomerDetail{User: *user, Orders: orders}, nil
}
