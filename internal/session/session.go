// Package session holds the per-visitor state carried between requests: the
// cart of price-frozen snapshots, pending flash notices and, when logged in,
// the visitor's identity.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Identity is the authenticated visitor attached to a session.
type Identity struct {
	UserID    uint
	Name      string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// CartLine is a snapshot of a product taken when it was added to the cart.
type CartLine struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Icon      string          `json:"icon"`
}

// Cart is an ordered, append-only sequence of snapshots.
// CheckoutKey identifies this incarnation of the cart; it is issued on the
// first append and dropped when the cart is cleared.
type Cart struct {
	Lines       []CartLine `json:"lines,omitempty"`
	CheckoutKey string     `json:"checkout_key,omitempty"`
}

// Len returns the number of lines.
func (c Cart) Len() int {
	return len(c.Lines)
}

// Total sums the snapshot prices.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Price)
	}
	return total
}

// Names returns the line names in insertion order.
func (c Cart) Names() []string {
	names := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		names = append(names, l.Name)
	}
	return names
}

// Session is one visitor's state for the duration of a request.
type Session struct {
	ID      string   `json:"-"`
	Cart    Cart     `json:"cart"`
	Notices []string `json:"flashes,omitempty"`

	identity    *Identity
	dirty       bool
	invalidated bool
}

// New creates an empty session. An empty id gets a random one.
func New(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{ID: id}
}

// Identity returns the logged-in visitor, if any.
func (s *Session) Identity() (Identity, bool) {
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// SetIdentity attaches or, with nil, detaches the visitor identity.
// Identity is request-scoped and never persisted with the session.
func (s *Session) SetIdentity(id *Identity) {
	s.identity = id
}

// Authenticated reports whether a visitor identity is attached.
func (s *Session) Authenticated() bool {
	return s.identity != nil
}

// AddLine appends a snapshot to the cart.
func (s *Session) AddLine(line CartLine) {
	if s.Cart.CheckoutKey == "" {
		s.Cart.CheckoutKey = uuid.NewString()
	}
	s.Cart.Lines = append(s.Cart.Lines, line)
	s.dirty = true
}

// ClearCart empties the cart. Clearing an empty cart changes nothing.
func (s *Session) ClearCart() {
	if len(s.Cart.Lines) == 0 && s.Cart.CheckoutKey == "" {
		return
	}
	s.Cart = Cart{}
	s.dirty = true
}

// RetainLines replaces the cart with lines under a fresh checkout key.
// An empty lines clears the cart.
func (s *Session) RetainLines(lines []CartLine) {
	if len(lines) == 0 {
		s.ClearCart()
		return
	}
	s.Cart = Cart{
		Lines:       append([]CartLine(nil), lines...),
		CheckoutKey: uuid.NewString(),
	}
	s.dirty = true
}

// Flash queues a notice for the next rendered page.
func (s *Session) Flash(msg string) {
	s.Notices = append(s.Notices, msg)
	s.dirty = true
}

// PopFlashes returns and clears the pending notices.
func (s *Session) PopFlashes() []string {
	if len(s.Notices) == 0 {
		return nil
	}
	out := s.Notices
	s.Notices = nil
	s.dirty = true
	return out
}

// Invalidate drops everything the session holds. The stored copy is deleted
// when the request completes.
func (s *Session) Invalidate() {
	s.Cart = Cart{}
	s.Notices = nil
	s.identity = nil
	s.invalidated = true
	s.dirty = true
}

// Dirty reports whether the session changed since it was loaded or saved.
func (s *Session) Dirty() bool {
	return s.dirty
}

// Invalidated reports whether Invalidate was called.
func (s *Session) Invalidated() bool {
	return s.invalidated
}

func (s *Session) markClean() {
	s.dirty = false
}
