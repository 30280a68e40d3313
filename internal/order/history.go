package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

var (
	ErrNotFound  = errors.New("order not found")
	ErrDuplicate = errors.New("order already recorded")
)

// History is an append-only record of placed orders.
type History interface {
	Append(ctx context.Context, o Order) error
	List(ctx context.Context, owner string) ([]Order, error)
	Get(ctx context.Context, owner, id string) (Order, error)
	All(ctx context.Context) ([]Order, error)
}

// KVHistory keeps one JSON list per owner plus the store-wide ledger used by
// the admin dashboard.
type KVHistory struct {
	port   storage.Store
	logger *slog.Logger
	mu     sync.Mutex
}

func NewKVHistory(port storage.Store, logger *slog.Logger) *KVHistory {
	if logger == nil {
		logger = slog.Default()
	}
	return &KVHistory{port: port, logger: logger}
}

func (h *KVHistory) load(ctx context.Context, key string) ([]Order, error) {
	var orders []Order
	err := storage.LoadJSON(ctx, h.port, key, &orders)
	switch {
	case err == nil:
		return orders, nil
	case errors.Is(err, storage.ErrNotFound):
		return nil, nil
	case errors.Is(err, storage.ErrCorrupt):
		h.logger.WarnContext(ctx, "order history unreadable, treating as empty", "key", key, "error", err)
		return nil, nil
	}
	return nil, fmt.Errorf("load %s: %w", key, err)
}

func (h *KVHistory) Append(ctx context.Context, o Order) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ownerKey := storage.Key(storage.NamespaceOrders, o.Owner)
	mine, err := h.load(ctx, ownerKey)
	if err != nil {
		return err
	}
	for _, existing := range mine {
		if existing.ID == o.ID {
			return ErrDuplicate
		}
	}
	all, err := h.load(ctx, storage.KeyAllOrders)
	if err != nil {
		return err
	}

	if err := storage.SaveJSON(ctx, h.port, ownerKey, append(mine, o)); err != nil {
		return fmt.Errorf("append order: %w", err)
	}
	// Ledger write failures are logged only; the owner's list is authoritative.
	if err := storage.SaveJSON(ctx, h.port, storage.KeyAllOrders, append(all, o)); err != nil {
		h.logger.ErrorContext(ctx, "order ledger write failed", "order_id", o.ID, "error", err)
	}
	return nil
}

// List returns the owner's orders, newest first.
func (h *KVHistory) List(ctx context.Context, owner string) ([]Order, error) {
	orders, err := h.load(ctx, storage.Key(storage.NamespaceOrders, owner))
	if err != nil {
		return nil, err
	}
	newestFirst(orders)
	return orders, nil
}

func (h *KVHistory) Get(ctx context.Context, owner, id string) (Order, error) {
	orders, err := h.load(ctx, storage.Key(storage.NamespaceOrders, owner))
	if err != nil {
		return Order{}, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}

func (h *KVHistory) All(ctx context.Context) ([]Order, error) {
	orders, err := h.load(ctx, storage.KeyAllOrders)
	if err != nil {
		return nil, err
	}
	newestFirst(orders)
	return orders, nil
}

func newestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
