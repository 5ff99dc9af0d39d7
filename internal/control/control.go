package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/vetclinic/internal/clinic"
	"github.com/vietddude/vetclinic/internal/core/config"
	"github.com/vietddude/vetclinic/internal/core/session"
	"github.com/vietddude/vetclinic/internal/core/worker"
	"github.com/vietddude/vetclinic/internal/infra/api"
	"github.com/vietddude/vetclinic/internal/infra/api/fallback"
	"github.com/vietddude/vetclinic/internal/infra/api/retry"
	"github.com/vietddude/vetclinic/internal/infra/api/transport"
	"github.com/vietddude/vetclinic/internal/infra/kv"
)

// App wires the store, session, client and services for one process.
type App struct {
	cfg       *config.AppConfig
	store     kv.Store
	transport *transport.HTTPTransport
	log       *slog.Logger

	Session  *session.Session
	Cache    *fallback.Cache
	Client   *api.Client
	Services *clinic.Services
}

// Options overrides wiring for tests and one-off commands.
type Options struct {
	// Store replaces the configured kv backend.
	Store  kv.Store
	Clock  retry.Clock
	Logger *slog.Logger
}

// NewApp creates an App with all dependencies initialized. The persisted
// session is restored before returning.
func NewApp(ctx context.Context, cfg *config.AppConfig, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	// 1. Initialize Storage
	store := opts.Store
	if store == nil {
		var err error
		store, err = kv.Open(ctx, cfg.Store, cfg.Redis, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		log.Debug("Opened store", "driver", cfg.Store.Driver, "path", cfg.Store.Path)
	}

	// 2. Session and fallback cache share the store
	sess := session.New(store)
	if err := sess.Restore(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	var cache *fallback.Cache
	if !cfg.Fallback.Disabled {
		cache = fallback.New(store)
		cache.MaxStaleness = cfg.Fallback.MaxStaleness
		if _, err := worker.NewPruner(cache, cfg.Fallback.Retention, log).PruneOnce(ctx); err != nil {
			log.Warn("Fallback prune failed", "error", err)
		}
	}

	// 3. Transport and client
	baseURL := cfg.BaseURL()
	tr, err := transport.NewHTTPTransport(baseURL, cfg.API.Timeout)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to init transport: %w", err)
	}

	clientOpts := []api.Option{
		api.WithPolicy(cfg.Retry.Policy()),
		api.WithAnyFailureFallback(cfg.Fallback.AnyFailure),
		api.WithLogger(log),
		api.WithClock(opts.Clock),
	}
	if cache != nil {
		clientOpts = append(clientOpts, api.WithFallback(cache))
	}
	client := api.New(tr, sess, clientOpts...)

	log.Debug("Client ready", "base_url", baseURL, "mode", cfg.Mode)

	return &App{
		cfg:       cfg,
		store:     store,
		transport: tr,
		log:       log,
		Session:   sess,
		Cache:     cache,
		Client:    client,
		Services:  clinic.New(client, clinic.Options{LoginTimeout: cfg.API.LoginTimeout}),
	}, nil
}

// Config returns the configuration the app was built from.
func (a *App) Config() *config.AppConfig {
	return a.cfg
}

// StoreHealth checks that the store's server is reachable. Local stores
// always report nil.
func (a *App) StoreHealth(ctx context.Context) error {
	return kv.Health(ctx, a.store)
}

// Close releases the transport and the store.
func (a *App) Close() error {
	_ = a.transport.Close()
	return a.store.Close()
}
