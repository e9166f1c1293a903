package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "freshbasket/internal/errors"
	"freshbasket/internal/logger"
	"freshbasket/internal/metrics"
	"freshbasket/internal/model"
	"freshbasket/internal/repository"
	"freshbasket/internal/session"
)

// ReceiptTimeLayout renders order timestamps on receipts.
const ReceiptTimeLayout = "2006-01-02 15:04:05.000000"

const receiptRule = "=============================="

// OrderService converts carts into orders and serves the order ledger.
type OrderService interface {
	// Checkout writes the cart as an order, then clears the cart. It returns
	// ErrEmptyCart, touching nothing, when the cart holds no lines.
	Checkout(ctx context.Context, sess *session.Session) (*model.Order, error)
	ListForUser(ctx context.Context, userID uint) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	Cancel(ctx context.Context, orderID uint) (bool, error)
	GenerateReceipt(ctx context.Context, orderID uint) (string, error)
	Count(ctx context.Context) (int64, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	sessions  session.Store
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service. sessions persists the cleared
// cart as part of checkout. Callers serialize checkouts of one session.
func NewOrderService(orderRepo repository.OrderRepository, sessions session.Store, m *metrics.Metrics, log *logger.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		sessions:  sessions,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

func (s *orderService) Checkout(ctx context.Context, sess *session.Session) (*model.Order, error) {
	if len(sess.Cart.Lines) == 0 {
		s.metrics.CheckoutCompleted(metrics.CheckoutEmpty)
		return nil, apperrors.ErrEmptyCart
	}
	if sess.Cart.CheckoutKey == "" {
		// Carts saved before checkout keys existed.
		sess.Cart.CheckoutKey = uuid.NewString()
	}

	saved, created, err := s.orderRepo.CreateOnce(ctx, s.buildOrder(sess))
	if err != nil {
		s.log.Error(ctx, "checkout: persist order", err)
		return nil, fmt.Errorf("persist order: %w", err)
	}

	if !created {
		s.metrics.CheckoutCompleted(metrics.CheckoutReplayed)
		s.log.Zerolog(ctx).Info().Uint("order_id", saved.ID).Msg("checkout replayed existing order")

		// The key was already used by an earlier checkout whose cart clear was
		// lost. Lines added since then still need an order of their own.
		rest := uncoveredLines(saved, sess.Cart.Lines)
		if len(rest) > 0 {
			sess.RetainLines(rest)
			if err := s.sessions.Save(ctx, sess); err != nil {
				s.log.Error(ctx, "checkout: rekey cart", err)
				return nil, fmt.Errorf("rekey cart: %w", err)
			}
			saved, created, err = s.orderRepo.CreateOnce(ctx, s.buildOrder(sess))
			if err != nil {
				s.log.Error(ctx, "checkout: persist order", err)
				return nil, fmt.Errorf("persist order: %w", err)
			}
		}
	}

	sess.ClearCart()
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.Error(ctx, "checkout: clear cart", err)
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if created {
		s.metrics.CheckoutCompleted(metrics.CheckoutCreated)
		s.log.Zerolog(ctx).Info().Uint("order_id", saved.ID).Str("total", saved.Total.String()).Msg("order created")
	}
	return saved, nil
}

func (s *orderService) buildOrder(sess *session.Session) *model.Order {
	lines := sess.Cart.Lines
	order := &model.Order{
		CustomerName: model.GuestCustomerName,
		Total:        sess.Cart.Total(),
		Items:        strings.Join(sess.Cart.Names(), ", "),
		CheckoutKey:  sess.Cart.CheckoutKey,
		CreatedAt:    s.now().UTC(),
		Lines:        make([]model.OrderLine, 0, len(lines)),
	}
	if identity, ok := sess.Identity(); ok {
		userID := identity.UserID
		order.UserID = &userID
		if identity.Name != "" {
			order.CustomerName = identity.Name
		}
	}
	for i, l := range lines {
		order.Lines = append(order.Lines, model.OrderLine{
			Position:  i,
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  1,
		})
	}
	return order
}

// uncoveredLines returns the cart lines past the prefix the order already holds.
// Lines match on position, product and price.
func uncoveredLines(order *model.Order, lines []session.CartLine) []session.CartLine {
	covered := 0
	for covered < len(lines) && covered < len(order.Lines) {
		ol, cl := order.Lines[covered], lines[covered]
		if ol.Position != covered || ol.ProductID != cl.ProductID || !ol.Price.Equal(cl.Price) {
			break
		}
		covered++
	}
	return lines[covered:]
}

// ListForUser returns the user's orders, newest first.
func (s *orderService) ListForUser(ctx context.Context, userID uint) ([]model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// ListAll returns every order, newest first.
func (s *orderService) ListAll(ctx context.Context) ([]model.Order, error) {
	return s.orderRepo.ListAll(ctx)
}

// Cancel hard-deletes an order. A missing id is a no-op reported as false.
func (s *orderService) Cancel(ctx context.Context, orderID uint) (bool, error) {
	deleted, err := s.orderRepo.Delete(ctx, orderID)
	if err != nil {
		return false, err
	}
	if deleted {
		s.metrics.OrderCancelled()
		s.log.Zerolog(ctx).Info().Uint("order_id", orderID).Msg("order cancelled")
	}
	return deleted, nil
}

func (s *orderService) GenerateReceipt(ctx context.Context, orderID uint) (string, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return FormatReceipt(order), nil
}

func (s *orderService) Count(ctx context.Context) (int64, error) {
	return s.orderRepo.Count(ctx)
}

// SumTotals adds up order totals.
func SumTotals(orders []model.Order) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(o.Total)
	}
	return sum
}

// FormatAmount renders an amount with at least one fractional digit: 210.0, 12.35.
func FormatAmount(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.StringFixed(1)
	}
	return d.String()
}

// FormatReceipt renders the plain-text receipt for an order.
func FormatReceipt(order *model.Order) string {
	var b strings.Builder
	b.WriteString("FRESHBASKET PREMIUM RECEIPT\n")
	b.WriteString(receiptRule + "\n")
	fmt.Fprintf(&b, "Order ID: #%d\n", order.ID)
	fmt.Fprintf(&b, "Date: %s\n", order.CreatedAt.UTC().Format(ReceiptTimeLayout))
	fmt.Fprintf(&b, "Customer: %s\n", order.CustomerName)
	fmt.Fprintf(&b, "Items: %s\n", order.Items)
	fmt.Fprintf(&b, "TOTAL: Rs.%s\n", FormatAmount(order.Total))
	b.WriteString(receiptRule + "\n")
	b.WriteString("Thank you for shopping!")
	return b.String()
}
