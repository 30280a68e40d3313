package checkout

import (
	"context"
	"log/slog"
	"sync"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// sessionCart resolves the session's cart through the manager on every
// call, so a wizard never holds on to a store the manager has evicted.
type sessionCart struct {
	carts     *cart.Manager
	sessionID string
}

// SessionCart adapts the manager's cart for sessionID to Cart.
func SessionCart(carts *cart.Manager, sessionID string) Cart {
	return sessionCart{carts: carts, sessionID: sessionID}
}

func (c sessionCart) Items(ctx context.Context) ([]cart.LineItem, error) {
	s, err := c.carts.Get(ctx, c.sessionID)
	if err != nil {
		return nil, err
	}
	return s.Items(), nil
}

func (c sessionCart) Deduct(ctx context.Context, items []cart.LineItem) error {
	s, err := c.carts.Get(ctx, c.sessionID)
	if err != nil {
		return err
	}
	return s.Deduct(ctx, items)
}

// Sessions keeps one wizard per session, bounded like the cart manager.
// An idle wizard is dropped; the next request starts a fresh one.
type Sessions struct {
	carts     *cart.Manager
	history   order.History
	payments  PaymentProcessor
	publisher OrderPublisher
	loginPath string
	logger    *slog.Logger

	mu      sync.Mutex
	wizards *expirable.LRU[string, *Wizard]
}

func NewSessions(carts *cart.Manager, history order.History, payments PaymentProcessor, publisher OrderPublisher, loginPath string, logger *slog.Logger) *Sessions {
	size, ttl := carts.Limits()
	return &Sessions{
		carts:     carts,
		history:   history,
		payments:  payments,
		publisher: publisher,
		loginPath: loginPath,
		logger:    logger,
		wizards:   expirable.NewLRU[string, *Wizard](size, nil, ttl),
	}
}

// Current returns the session's wizard in whatever step it is, starting one
// if there is none.
func (s *Sessions) Current(ctx context.Context, sessionID string) (*Wizard, error) {
	return s.get(ctx, sessionID, false)
}

// Begin returns the session's open wizard, replacing a completed or
// cancelled one with a fresh wizard.
func (s *Sessions) Begin(ctx context.Context, sessionID string) (*Wizard, error) {
	return s.get(ctx, sessionID, true)
}

// Len is the number of wizards held in memory.
func (s *Sessions) Len() int {
	return s.wizards.Len()
}

func (s *Sessions) get(_ context.Context, sessionID string, restart bool) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.wizards.Get(sessionID); ok {
		if !restart || !w.Step().Terminal() {
			s.wizards.Add(sessionID, w)
			return w, nil
		}
	}

	w := New(sessionID, Deps{
		Cart:      SessionCart(s.carts, sessionID),
		History:   s.history,
		Payments:  s.payments,
		Publisher: s.publisher,
		LoginPath: s.loginPath,
		Logger:    s.logger,
	})
	s.wizards.Add(sessionID, w)
	return w, nil
}
