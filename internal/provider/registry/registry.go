// Package registry provides provider factory registration and lookup.
//
// # Adding a New Provider
//
// Each provider package exposes an explicit registration function:
//
//	func RegisterProviderFactory() {
//	    if registry.IsRegistered(ProviderType) {
//	        return
//	    }
//	    registry.RegisterFactory(registry.ProviderFactory{
//	        Type:           ProviderType,
//	        Description:    "Google Gemini API provider",
//	        DefaultFormat:  registry.FormatMarkdown,
//	        Create:         CreateFromConfig,
//	        ValidateConfig: ValidateConfig,
//	    })
//	}
//
// and is wired from internal/registration.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agutierrezreginodev/potencia-agenda/internal/config"
	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

// Answer formats a provider can be asked for.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ProviderFactory defines how to create a provider of a specific type.
type ProviderFactory struct {
	// Type is the provider type identifier used in configuration
	// (e.g., "gemini", "openai", "anthropic")
	Type string

	// Description provides a human-readable description of the provider
	Description string

	// DefaultFormat is the answer format used when the config sets none.
	DefaultFormat string

	// Create instantiates a new provider from configuration.
	Create func(cfg config.ProviderConfig) (domain.Provider, error)

	// ValidateConfig performs provider-specific configuration validation.
	// Optional: if nil, no additional validation is performed.
	ValidateConfig func(cfg config.ProviderConfig) error
}

var (
	factoryMu   sync.RWMutex
	factoryMap  = make(map[string]ProviderFactory)
	factoryList []ProviderFactory
)

// RegisterFactory registers a provider factory for a specific type.
// Panics if a factory with the same type is already registered.
func RegisterFactory(f ProviderFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if f.Type == "" {
		panic("provider factory type cannot be empty")
	}
	if f.Create == nil {
		panic(fmt.Sprintf("provider factory %q must have a Create function", f.Type))
	}

	if _, exists := factoryMap[f.Type]; exists {
		panic(fmt.Sprintf("provider factory %q already registered", f.Type))
	}

	factoryMap[f.Type] = f
	factoryList = append(factoryList, f)
}

// GetFactory returns the factory for a provider type, if registered.
func GetFactory(providerType string) (ProviderFactory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factoryMap[providerType]
	return f, ok
}

// ListFactories returns all registered provider factories sorted by type.
func ListFactories() []ProviderFactory {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	result := make([]ProviderFactory, len(factoryList))
	copy(result, factoryList)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Type < result[j].Type
	})
	return result
}

// ListProviderTypes returns all registered provider type names.
func ListProviderTypes() []string {
	factories := ListFactories()
	types := make([]string, len(factories))
	for i, f := range factories {
		types[i] = f.Type
	}
	return types
}

// IsRegistered returns true if a provider type is registered.
func IsRegistered(providerType string) bool {
	_, ok := GetFactory(providerType)
	return ok
}

// FormatFor returns the answer format for cfg, falling back to the factory default.
func FormatFor(cfg config.ProviderConfig) string {
	if cfg.Format != "" {
		return cfg.Format
	}
	if f, ok := GetFactory(cfg.Type); ok && f.DefaultFormat != "" {
		return f.DefaultFormat
	}
	return FormatMarkdown
}

// ValidateProviderConfig validates a provider configuration using
// the registered factory's validation function.
func ValidateProviderConfig(cfg config.ProviderConfig) error {
	f, ok := GetFactory(cfg.Type)
	if !ok {
		return fmt.Errorf("unknown provider type: %s (registered types: %v)", cfg.Type, ListProviderTypes())
	}

	switch FormatFor(cfg) {
	case FormatMarkdown, FormatJSON:
	default:
		return fmt.Errorf("provider %s: unknown format %q", cfg.Name, cfg.Format)
	}

	if f.ValidateConfig != nil {
		return f.ValidateConfig(cfg)
	}
	return nil
}

// CreateFromFactory creates a provider using the registered factory.
func CreateFromFactory(cfg config.ProviderConfig) (domain.Provider, error) {
	f, ok := GetFactory(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s (registered types: %v)", cfg.Type, ListProviderTypes())
	}

	if err := ValidateProviderConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration for provider type %s: %w", cfg.Type, err)
	}

	return f.Create(cfg)
}

// ClearFactories removes all registered factories (for testing only).
func ClearFactories() {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	factoryMap = make(map[string]ProviderFactory)
	factoryList = nil
}
