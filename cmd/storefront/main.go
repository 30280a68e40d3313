package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/newsletter"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/preference"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	port, history, err := openPersistence(ctx, cfg, logger, &closers)
	if err != nil {
		return err
	}

	products, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", "products", products.Len())

	var publisher checkout.OrderPublisher
	if cfg.RabbitMQURL != "" {
		p, err := events.Dial(cfg.RabbitMQURL, "")
		if err != nil {
			return err
		}
		closers = append(closers, p)
		publisher = p
		logger.Info("order events enabled")
	}

	client, err := newsletter.NewClient(cfg.BackendURL, &http.Client{Timeout: cfg.UpstreamTimeout}, cfg.BackendToken, port, logger)
	if err != nil {
		return err
	}

	carts := cart.NewManagerWithLimits(port, logger, cfg.MaxSessions, cfg.SessionIdleTTL)
	payments := checkout.SimulatedProcessor{Delay: cfg.PaymentDelay}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:      logger,
		Cfg:         cfg,
		Catalog:     products,
		Carts:       carts,
		Checkout:    checkout.NewSessions(carts, history, payments, publisher, cfg.LoginPath, logger),
		Orders:      history,
		Newsletter:  client,
		Preferences: preference.NewStore(port, logger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// openPersistence builds the key-value port and the order history for the
// configured backend.
func openPersistence(ctx context.Context, cfg config.Config, logger *slog.Logger, closers *[]io.Closer) (storage.Store, order.History, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
				return nil, nil, err
			}
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		*closers = append(*closers, closerFunc(func() error { pool.Close(); return nil }))

		sqlDB, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		*closers = append(*closers, sqlDB)
		return storage.NewPostgres(pool), order.NewSQLHistory(sqlDB), nil

	case config.BackendRedis:
		r, err := storage.DialRedis(ctx, cfg.RedisAddr, cfg.RedisNamespace)
		if err != nil {
			return nil, nil, err
		}
		*closers = append(*closers, r)
		return r, order.NewKVHistory(r, logger), nil
	}

	logger.Warn("using in-memory storage, carts and orders are lost on restart")
	mem := storage.NewMemory()
	return mem, order.NewKVHistory(mem, logger), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
