package gemini

import (
	"context"
	"fmt"

	"github.com/agutierrezreginodev/potencia-agenda/internal/config"
	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
	"github.com/agutierrezreginodev/potencia-agenda/internal/provider/registry"
	"github.com/agutierrezreginodev/potencia-agenda/internal/telemetry"
)

// ProviderType is the provider type identifier used in configuration.
const ProviderType = "gemini"

// RegisterProviderFactory registers the Gemini factory once.
func RegisterProviderFactory() {
	if registry.IsRegistered(ProviderType) {
		return
	}
	registry.RegisterFactory(registry.ProviderFactory{
		Type:           ProviderType,
		Description:    "Google Gemini API provider",
		DefaultFormat:  registry.FormatMarkdown,
		Create:         CreateFromConfig,
		ValidateConfig: ValidateConfig,
	})
}

// CreateFromConfig creates a new Gemini provider from configuration.
func CreateFromConfig(cfg config.ProviderConfig) (domain.Provider, error) {
	opts := []ProviderOption{
		WithName(cfg.Name),
		WithHTTPClient(telemetry.HTTPClient()),
		WithGeneration(cfg.MaxTokens, cfg.Temperature),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	return New(context.Background(), cfg.APIKey, cfg.Model, cfg.Timeout, opts...)
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
