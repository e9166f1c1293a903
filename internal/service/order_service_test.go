package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"freshbasket/internal/logger"
	"freshbasket/internal/metrics"
	"freshbasket/internal/model"
	"freshbasket/internal/repository"
	"freshbasket/internal/session"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByCheckoutKey(ctx context.Context, key string) (*model.Order, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID uint) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CreateOnce(ctx context.Context, order *model.Order) (*model.Order, bool, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrderRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.OrderRepository) error) error {
	return fn(ctx, m)
}

// MockSessionStore is a mock implementation of session.Store.
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Load(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionStore) Save(ctx context.Context, s *session.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func cartSession() *session.Session {
	sess := session.New("")
	sess.AddLine(session.CartLine{ProductID: 1, Name: "Royal Gala Apple", Price: decimal.NewFromInt(180)})
	sess.AddLine(session.CartLine{ProductID: 7, Name: "Fresh Farm Milk", Price: decimal.NewFromInt(30)})
	return sess
}

func TestOrderService_Checkout(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(repo *MockOrderRepository, store *MockSessionStore)
		wantErr   bool
		wantLines int
	}{
		{
			name: "persist failure keeps the cart",
			setupMock: func(repo *MockOrderRepository, store *MockSessionStore) {
				repo.On("CreateOnce", mock.Anything, mock.Anything).Return(nil, false, errors.New("database is locked"))
			},
			wantErr:   true,
			wantLines: 2,
		},
		{
			name: "created order clears the cart",
			setupMock: func(repo *MockOrderRepository, store *MockSessionStore) {
				repo.On("CreateOnce", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
					return o.Items == "Royal Gala Apple, Fresh Farm Milk" && o.Total.Equal(decimal.NewFromInt(210)) &&
						o.CustomerName == model.GuestCustomerName && len(o.Lines) == 2
				})).Return(&model.Order{ID: 1}, true, nil)
				store.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantLines: 0,
		},
		{
			name: "clear failure is reported",
			setupMock: func(repo *MockOrderRepository, store *MockSessionStore) {
				repo.On("CreateOnce", mock.Anything, mock.Anything).Return(&model.Order{ID: 1}, true, nil)
				store.On("Save", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()
			},
			wantErr:   true,
			wantLines: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockOrderRepository)
			store := new(MockSessionStore)
			tt.setupMock(repo, store)
			svc := NewOrderService(repo, store, metrics.New(), logger.Nop())

			sess := cartSession()
			key := sess.Cart.CheckoutKey

			order, err := svc.Checkout(context.Background(), sess)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, order)
			} else {
				require.NoError(t, err)
				assert.Equal(t, uint(1), order.ID)
			}
			assert.Equal(t, tt.wantLines, sess.Cart.Len())
			if tt.wantLines > 0 {
				assert.Equal(t, key, sess.Cart.CheckoutKey, "the checkout key survives a failed write")
			}
			repo.AssertExpectations(t)
			store.AssertExpectations(t)
		})
	}
}

func TestOrderService_CheckoutPersistFailureNeverSaves(t *testing.T) {
	repo := new(MockOrderRepository)
	store := new(MockSessionStore)
	repo.On("CreateOnce", mock.Anything, mock.Anything).Return(nil, false, errors.New("database is locked"))
	svc := NewOrderService(repo, store, metrics.New(), logger.Nop())

	sess := cartSession()
	_, err := svc.Checkout(context.Background(), sess)
	require.Error(t, err)
	assert.Equal(t, 2, sess.Cart.Len())
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
