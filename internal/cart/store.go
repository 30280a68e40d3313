package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shopspring/decimal"
)

// Listener receives a copy of the items after every committed mutation.
type Listener func(items []LineItem)

// Store holds one session's cart. Every mutation is written to the port
// before it becomes visible to readers and listeners.
type Store struct {
	port   storage.Store
	key    string
	logger *slog.Logger

	mu        sync.Mutex
	items     []LineItem
	listeners map[int]Listener
	nextID    int
}

// Open rehydrates the cart for sessionID. A missing or unreadable snapshot
// gives an empty cart; only a failing backend is returned as an error.
func Open(ctx context.Context, port storage.Store, sessionID string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		port:      port,
		key:       storage.Key(storage.NamespaceCart, sessionID),
		logger:    logger,
		items:     []LineItem{},
		listeners: map[int]Listener{},
	}

	var items []LineItem
	err := storage.LoadJSON(ctx, port, s.key, &items)
	switch {
	case err == nil:
		s.items = normalize(items)
	case errors.Is(err, storage.ErrNotFound):
	case errors.Is(err, storage.ErrCorrupt):
		logger.WarnContext(ctx, "discarding unreadable cart snapshot", "key", s.key, "error", err)
	default:
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return s, nil
}

func (s *Store) Dispatch(ctx context.Context, a Action) error {
	s.mu.Lock()
	next := Reduce(s.items, a)
	if err := storage.SaveJSON(ctx, s.port, s.key, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist cart: %w", err)
	}
	s.items = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(clone(next))
	}
	return nil
}

// Subscribe registers fn and returns a func that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) AddItem(ctx context.Context, p catalog.Product) error {
	return s.Dispatch(ctx, Add{Item: FromProduct(p)})
}

func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	return s.Dispatch(ctx, Remove{ProductID: productID})
}

func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) error {
	return s.Dispatch(ctx, SetQuantity{ProductID: productID, Quantity: quantity})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.Dispatch(ctx, Clear{})
}

// Deduct removes the quantities in items, such as the lines of a placed
// order, leaving anything added since untouched.
func (s *Store) Deduct(ctx context.Context, items []LineItem) error {
	return s.Dispatch(ctx, Deduct{Items: items})
}

func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.items)
}

func (s *Store) Total() decimal.Decimal {
	return Total(s.Items())
}

func (s *Store) Count() int {
	return Count(s.Items())
}

const (
	DefaultMaxOpen = 10000
	DefaultIdleTTL = 30 * time.Minute
)

// Manager opens one Store per session on first use and keeps at most
// maxOpen of them in memory. A cart idle for longer than the TTL, or pushed
// out by newer sessions, is dropped and rehydrated from the port on the next
// Get.
type Manager struct {
	port   storage.Store
	logger *slog.Logger
	size   int
	ttl    time.Duration

	mu    sync.Mutex
	carts *expirable.LRU[string, *Store]
}

func NewManager(port storage.Store, logger *slog.Logger) *Manager {
	return NewManagerWithLimits(port, logger, DefaultMaxOpen, DefaultIdleTTL)
}

func NewManagerWithLimits(port storage.Store, logger *slog.Logger, maxOpen int, ttl time.Duration) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpen
	}
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Manager{
		port:   port,
		logger: logger,
		size:   maxOpen,
		ttl:    ttl,
		carts:  expirable.NewLRU[string, *Store](maxOpen, nil, ttl),
	}
}

// Limits reports the capacity and idle TTL, so per-session state kept
// alongside carts can use the same bounds.
func (m *Manager) Limits() (maxOpen int, ttl time.Duration) {
	return m.size, m.ttl
}

// Len is the number of carts held in memory.
func (m *Manager) Len() int {
	return m.carts.Len()
}

func (m *Manager) Get(ctx context.Context, sessionID string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.carts.Get(sessionID); ok {
		// Re-adding refreshes the idle deadline.
		m.carts.Add(sessionID, s)
		return s, nil
	}
	s, err := Open(ctx, m.port, sessionID, m.logger)
	if err != nil {
		return nil, err
	}
	s.Subscribe(func(items []LineItem) {
		m.logger.Debug("cart changed", "session_id", sessionID, "lines", len(items), "count", Count(items))
	})
	m.carts.Add(sessionID, s)
	return s, nil
}
