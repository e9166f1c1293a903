package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"freshbasket/internal/logger"
	"freshbasket/internal/metrics"
	"freshbasket/internal/repository"
	"freshbasket/internal/session"
)

// CartService manages the snapshot cart held in a visitor session.
type CartService interface {
	// AddItem appends a snapshot of the product's current fields. An unknown
	// product is silently ignored and reported as a nil line.
	AddItem(ctx context.Context, sess *session.Session, productID uint) (*session.CartLine, error)
	ListItems(sess *session.Session) []session.CartLine
	Count(sess *session.Session) int
	Total(sess *session.Session) decimal.Decimal
	Clear(sess *session.Session)
}

type cartService struct {
	productRepo repository.ProductRepository
	metrics     *metrics.Metrics
	log         *logger.Logger
}

// NewCartService creates a new cart service.
func NewCartService(productRepo repository.ProductRepository, m *metrics.Metrics, log *logger.Logger) CartService {
	return &cartService{productRepo: productRepo, metrics: m, log: log}
}

func (s *cartService) AddItem(ctx context.Context, sess *session.Session, productID uint) (*session.CartLine, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Zerolog(ctx).Debug().Uint("product_id", productID).Msg("add to cart: unknown product")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	line := session.CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Icon:      product.Icon,
	}
	sess.AddLine(line)
	s.metrics.CartItemAdded()
	return &line, nil
}

func (s *cartService) ListItems(sess *session.Session) []session.CartLine {
	out := make([]session.CartLine, len(sess.Cart.Lines))
	copy(out, sess.Cart.Lines)
	return out
}

func (s *cartService) Count(sess *session.Session) int {
	return sess.Cart.Len()
}

func (s *cartService) Total(sess *session.Session) decimal.Decimal {
	return sess.Cart.Total()
}

func (s *cartService) Clear(sess *session.Session) {
	sess.ClearCart()
}
