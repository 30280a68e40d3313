package preference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

const DefaultTheme = ThemeSystem

var ErrUnknownTheme = errors.New("unknown theme")

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownTheme, s)
}

type record struct {
	Theme Theme `json:"theme"`
}

// Store keeps UI preferences per session.
type Store struct {
	port   storage.Store
	logger *slog.Logger
}

func NewStore(port storage.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{port: port, logger: logger}
}

// Theme returns the saved theme, or DefaultTheme when none is saved or the
// saved value is unreadable.
func (s *Store) Theme(ctx context.Context, sessionID string) (Theme, error) {
	var rec record
	err := storage.LoadJSON(ctx, s.port, storage.Key(storage.NamespaceTheme, sessionID), &rec)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return DefaultTheme, nil
	case errors.Is(err, storage.ErrCorrupt):
		s.logger.WarnContext(ctx, "theme preference unreadable", "error", err)
		return DefaultTheme, nil
	case err != nil:
		return "", err
	}
	t, err := ParseTheme(string(rec.Theme))
	if err != nil {
		return DefaultTheme, nil
	}
	return t, nil
}

func (s *Store) SetTheme(ctx context.Context, sessionID string, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	return storage.SaveJSON(ctx, s.port, storage.Key(storage.NamespaceTheme, sessionID), record{Theme: t})
}
