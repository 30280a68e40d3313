package newsletter

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

// localList is the deduplicated, lower-cased fallback subscriber list.
type localList struct {
	port   storage.Store
	logger *slog.Logger
	mu     sync.Mutex
}

func (l *localList) load(ctx context.Context) ([]string, error) {
	var emails []string
	err := storage.LoadJSON(ctx, l.port, storage.KeySubscribers, &emails)
	switch {
	case err == nil:
		return emails, nil
	case errors.Is(err, storage.ErrNotFound):
		return nil, nil
	case errors.Is(err, storage.ErrCorrupt):
		l.logger.WarnContext(ctx, "local subscriber list unreadable, starting over", "error", err)
		return nil, nil
	}
	return nil, err
}

func (l *localList) add(ctx context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	emails, err := l.load(ctx)
	if err != nil {
		return err
	}
	for _, e := range emails {
		if e == email {
			return nil
		}
	}
	return storage.SaveJSON(ctx, l.port, storage.KeySubscribers, append(emails, email))
}

func (l *localList) remove(ctx context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	emails, err := l.load(ctx)
	if err != nil {
		return err
	}
	out := emails[:0]
	for _, e := range emails {
		if e != email {
			out = append(out, e)
		}
	}
	if len(out) == len(emails) {
		return nil
	}
	return storage.SaveJSON(ctx, l.port, storage.KeySubscribers, out)
}

func (l *localList) list(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	emails, err := l.load(ctx)
	if emails == nil {
		emails = []string{}
	}
	return emails, err
}
