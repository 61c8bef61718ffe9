package anthropic

import (
	"fmt"

	"github.com/agutierrezreginodev/potencia-agenda/internal/config"
	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
	"github.com/agutierrezreginodev/potencia-agenda/internal/provider/registry"
	"github.com/agutierrezreginodev/potencia-agenda/internal/telemetry"
)

// ProviderType is the provider type identifier used in configuration.
const ProviderType = "anthropic"

// RegisterProviderFactory registers the Anthropic factory once.
func RegisterProviderFactory() {
	if registry.IsRegistered(ProviderType) {
		return
	}
	registry.RegisterFactory(registry.ProviderFactory{
		Type:           ProviderType,
		Description:    "Anthropic API provider (Claude models)",
		DefaultFormat:  registry.FormatMarkdown,
		Create:         CreateFromConfig,
		ValidateConfig: ValidateConfig,
	})
}

// CreateFromConfig creates a new Anthropic provider from configuration.
func CreateFromConfig(cfg config.ProviderConfig) (domain.Provider, error) {
	opts := []ProviderOption{
		WithName(cfg.Name),
		WithHTTPClient(telemetry.HTTPClient()),
		WithGeneration(cfg.MaxTokens, cfg.Temperature),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	return New(cfg.APIKey, cfg.Model, cfg.Timeout, opts...), nil
}

// ValidateConfig validates the provider configuration.
func ValidateConfig(cfg config.ProviderConfig) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if cfg.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}
