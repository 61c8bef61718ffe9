// Package runtime assembles the service from configuration and manages its
// lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/agutierrezreginodev/potencia-agenda/internal/auth"
	"github.com/agutierrezreginodev/potencia-agenda/internal/config"
	"github.com/agutierrezreginodev/potencia-agenda/internal/frontdoor"
	"github.com/agutierrezreginodev/potencia-agenda/internal/generation"
	"github.com/agutierrezreginodev/potencia-agenda/internal/provider"
	"github.com/agutierrezreginodev/potencia-agenda/internal/server"
	"github.com/agutierrezreginodev/potencia-agenda/internal/storage"
	"github.com/agutierrezreginodev/potencia-agenda/internal/storage/memory"
	"github.com/agutierrezreginodev/potencia-agenda/internal/storage/sqldb"
	"github.com/agutierrezreginodev/potencia-agenda/internal/usage"
)

// App owns the generation service, the audit pipeline and the HTTP server.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    storage.AuditSink
	variants map[string]provider.Variant

	ownsStore bool
	service   *generation.Service
	recorder  *usage.Recorder
	server    *server.Server

	mu       sync.Mutex
	started  bool
	serveErr chan error
}

// New builds an App. Providers and the audit store come from the
// configuration unless supplied through options.
func New(opts ...Option) (*App, error) {
	app := &App{
		logger:   slog.Default(),
		serveErr: make(chan error, 1),
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if app.cfg == nil {
		return nil, errors.New("config required (use WithConfig or WithConfigFile)")
	}
	if err := app.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if app.variants == nil {
		variants, err := provider.NewRegistry(app.logger).CreateProviders(app.cfg)
		if err != nil {
			return nil, fmt.Errorf("create providers: %w", err)
		}
		app.variants = variants
	}

	if app.store == nil {
		store, err := OpenStore(app.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		app.store = store
		app.ownsStore = true
	}

	app.recorder = usage.NewRecorder(app.store, app.logger,
		usage.WithConcurrency(app.cfg.Generation.AuditConcurrency),
	)

	service, err := generation.NewServiceFromVariants(app.cfg.Generation.Provider, app.variants,
		generation.WithLengthLimits(app.cfg.Generation.MinRequestLength, app.cfg.Generation.MaxRequestLength),
		generation.WithRecorder(app.recorder),
		generation.WithLogger(app.logger),
	)
	if err != nil {
		app.closeStore()
		return nil, err
	}
	app.service = service

	var authenticator *auth.Authenticator
	if len(app.cfg.Users) > 0 {
		authenticator = auth.NewAuthenticator(app.cfg.Users)
	} else {
		app.logger.Warn("no users configured, API requests are not authenticated")
	}

	app.server = server.New(app.cfg.Server, app.logger, authenticator)
	handler := frontdoor.NewHandler(app.service, app.store, app.logger)
	app.server.Authenticated(handler.Routes)

	app.logger.Info("application assembled",
		slog.String("active_provider", service.Active()),
		slog.String("providers", strings.Join(service.Providers(), ",")),
		slog.String("storage", app.cfg.Storage.Type),
	)

	return app, nil
}

// OpenStore opens the audit store named by cfg.Type.
func OpenStore(cfg config.StorageConfig) (storage.AuditSink, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory":
		return memory.New(), nil
	case "sqlite", "":
		if dir := fileDir(cfg.Database.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		return sqldb.New(sqldb.Config{
			Driver: cfg.Database.Driver,
			DSN:    cfg.Database.DSN,
		})
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// fileDir returns the parent directory of a plain file DSN, or "" for URIs
// and in-memory databases.
func fileDir(dsn string) string {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return ""
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return ""
	}
	return dir
}

// Service returns the generation service.
func (a *App) Service() *generation.Service {
	return a.service
}

// Store returns the audit store.
func (a *App) Store() storage.AuditSink {
	return a.store
}

// Handler returns the HTTP handler with every route mounted.
func (a *App) Handler() http.Handler {
	return a.server.Router
}

// Start serves HTTP in the background. Serve errors are delivered on Errors.
func (a *App) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return
	}
	a.started = true

	go func() {
		if err := a.server.Start(); err != nil {
			a.serveErr <- err
		}
	}()
}

// Errors reports a failure of the HTTP listener.
func (a *App) Errors() <-chan error {
	return a.serveErr
}

// Shutdown stops the server, drains pending audit writes and closes the
// store if the App opened it.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.started {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.recorder.Close(ctx); err != nil {
		a.logger.Error("failed to drain usage writes", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeStore(); err != nil {
		a.logger.Error("failed to close storage", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Close releases resources without touching the server. Used by the CLI.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.recorder.Close(ctx), a.closeStore())
}

func (a *App) closeStore() error {
	if !a.ownsStore || a.store == nil {
		return nil
	}
	a.ownsStore = false
	return a.store.Close()
}
