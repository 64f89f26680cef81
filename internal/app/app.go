package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shortlink/internal/adapter/cache"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/expiry"
	"github.com/vadimbarashkov/shortlink/internal/identity"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"golang.org/x/sync/errgroup"

	httpdelivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
	pgrepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/shortlink/pkg/postgres"
)

type linkStore interface {
	Exists(ctx context.Context, shortCode string) (bool, error)
	Insert(ctx context.Context, link *entity.ShortLink) (*entity.ShortLink, error)
	Lookup(ctx context.Context, shortCode string) (*entity.ShortLink, error)
	IncrementClicks(ctx context.Context, shortCode string) error
	ListByOwner(ctx context.Context, owner string, limit int) ([]*entity.ShortLink, error)
}

// Run wires the link store, use cases and router together and serves HTTP
// until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	handler, cleanup, err := newHandler(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer cleanup()

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        handler,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		logger.InfoContext(ctx, "starting server", "addr", server.Addr, "env", cfg.Env, "storage", cfg.Storage)

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.InfoContext(ctx, "shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

func newHandler(ctx context.Context, cfg *config.Config, logger *httplog.Logger) (http.Handler, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("failed to release resource", "err", err)
			}
		}
	}

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeStore)

	// Redirects and allocations go through the cache when it is enabled.
	// Owner queries read the store so that click counts are never stale.
	var hot linkStore = store
	if cfg.Redis.Enabled {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		closers = append(closers, rdb.Close)

		hot = cache.NewLinkCache(store, rdb, logger.Logger, cache.WithTTL(cfg.Redis.TTL))
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("jwt secret is not set, every bearer token will be rejected")
	}

	aliasValidator := shortcode.NewAliasValidator(cfg.Alias.MinLength)

	allocator := usecase.NewAllocator(
		hot,
		shortcode.NewGenerator(cfg.ShortCode.Alphabet),
		aliasValidator,
		expiry.New(cfg.Expiry.AnonDays, cfg.Expiry.AuthDays),
		usecase.WithCodeLength(cfg.ShortCode.Length),
		usecase.WithMaxAttempts(cfg.ShortCode.MaxAttempts),
	)
	redirector := usecase.NewRedirector(hot, logger.Logger)
	query := usecase.NewLinkQuery(store, aliasValidator)

	router := httpdelivery.NewRouter(
		logger,
		cfg.BaseURL,
		identity.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		httpdelivery.UseCases{
			Allocator:  allocator,
			Redirector: redirector,
			Query:      query,
		},
	)

	return router, cleanup, nil
}

func newStore(ctx context.Context, cfg *config.Config) (linkStore, func() error, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return memory.NewLinkRepository(), func() error { return nil }, nil
	case config.StoragePostgres:
		if err := postgres.RunMigrations(pgrepo.Migrations, pgrepo.MigrationsDir, cfg.Postgres.DSN()); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		db, err := postgres.New(
			ctx,
			cfg.Postgres.DSN(),
			postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		return pgrepo.NewLinkRepository(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}
