package provider

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/agutierrezreginodev/potencia-agenda/internal/config"
	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
	"github.com/agutierrezreginodev/potencia-agenda/internal/provider/registry"
)

// Variant is a constructed provider plus the settings its parser needs.
type Variant struct {
	Provider        domain.Provider
	Format          string
	StructuredCosts bool
}

// Registry creates providers from configuration.
// Providers are created using registered ProviderFactory instances.
type Registry struct {
	logger *slog.Logger
}

// NewRegistry creates a new provider registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// CreateProvider creates a provider instance from configuration.
func (r *Registry) CreateProvider(cfg config.ProviderConfig) (Variant, error) {
	p, err := registry.CreateFromFactory(cfg)
	if err != nil {
		return Variant{}, err
	}
	return Variant{
		Provider:        p,
		Format:          registry.FormatFor(cfg),
		StructuredCosts: cfg.StructuredCosts,
	}, nil
}

// CreateProviders builds the active provider and every other configured
// provider that has a credential. Failing to build the active one is fatal;
// the others are skipped with a warning.
func (r *Registry) CreateProviders(cfg *config.Config) (map[string]Variant, error) {
	active := cfg.Generation.Provider
	if _, ok := cfg.Providers[active]; !ok {
		return nil, fmt.Errorf("active provider %q is not configured", active)
	}

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	variants := make(map[string]Variant, len(names))
	for _, name := range names {
		pc := cfg.Providers[name]
		if name != active && pc.APIKey == "" {
			continue
		}

		v, err := r.CreateProvider(pc)
		if err != nil {
			if name == active {
				return nil, fmt.Errorf("failed to create provider %s: %w", name, err)
			}
			r.logger.Warn("skipping provider",
				slog.String("provider", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		variants[name] = v

		r.logger.Info("provider ready",
			slog.String("provider", name),
			slog.String("type", pc.Type),
			slog.String("model", pc.Model),
			slog.String("format", v.Format),
			slog.Duration("timeout", pc.Timeout),
		)
	}
	return variants, nil
}
