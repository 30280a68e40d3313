package preference

import (
	"context"
	"errors"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

// LastCriteria returns the catalog view the session looked at last. ok is
// false when there is none or it cannot be read.
func (s *Store) LastCriteria(ctx context.Context, sessionID string) (c catalog.Criteria, ok bool, err error) {
	err = storage.LoadJSON(ctx, s.port, storage.Key(storage.NamespaceBrowse, sessionID), &c)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return catalog.Criteria{}, false, nil
	case errors.Is(err, storage.ErrCorrupt):
		s.logger.WarnContext(ctx, "catalog view unreadable", "error", err)
		return catalog.Criteria{}, false, nil
	case err != nil:
		return catalog.Criteria{}, false, err
	}
	return c, true, nil
}

func (s *Store) SetLastCriteria(ctx context.Context, sessionID string, c catalog.Criteria) error {
	return storage.SaveJSON(ctx, s.port, storage.Key(storage.NamespaceBrowse, sessionID), c)
}
