package runtime

import (
	"fmt"
	"log/slog"

	"github.com/agutierrezreginodev/potencia-agenda/internal/config"
	"github.com/agutierrezreginodev/potencia-agenda/internal/provider"
	"github.com/agutierrezreginodev/potencia-agenda/internal/storage"
)

// Option is a functional option for configuring an App.
type Option func(*App) error

// WithConfig uses an already loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) error {
		a.cfg = cfg
		return nil
	}
}

// WithConfigFile loads configuration from a YAML file plus the environment.
// A missing file is not an error.
func WithConfigFile(path string) Option {
	return func(a *App) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		a.cfg = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) error {
		if logger != nil {
			a.logger = logger
		}
		return nil
	}
}

// WithStore sets the audit store instead of opening one from config.
// The caller keeps ownership and closes it.
func WithStore(store storage.AuditSink) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}

// WithProviders replaces the providers built from config.
func WithProviders(variants map[string]provider.Variant) Option {
	return func(a *App) error {
		a.variants = variants
		return nil
	}
}
