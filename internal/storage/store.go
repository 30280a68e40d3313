// Package storage is the durable key-value port behind carts, order history,
// the newsletter fallback list and UI preferences.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("storage: key not found")
	ErrCorrupt  = errors.New("storage: corrupt value")
)

// Store is implemented by Memory, Postgres and Redis.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}

const (
	NamespaceCart   = "cart"
	NamespaceOrders = "orders"
	NamespaceTheme  = "theme"
	NamespaceBrowse = "browse"
)

// Fixed keys carry no ':' so no Key(namespace, owner) can produce them.
const (
	KeyAllOrders   = "orders-ledger"
	KeySubscribers = "newsletter-subscribers"
)

// Key builds "<namespace>:<owner>".
func Key(namespace, owner string) string {
	return namespace + ":" + owner
}

// LoadJSON decodes the value under key into v. A value that does not decode
// is reported as ErrCorrupt.
func LoadJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, b)
}
