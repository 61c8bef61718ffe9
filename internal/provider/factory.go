// Package provider builds the configured language-model providers.
//
// # Adding a New Provider
//
// Implement domain.Provider in a subpackage, expose a RegisterProviderFactory
// function that calls registry.RegisterFactory, and wire it from
// internal/registration so no init() side effects are needed.
package provider

import (
	"github.com/agutierrezreginodev/potencia-agenda/internal/provider/registry"
)

// Re-export types from registry for convenience
type ProviderFactory = registry.ProviderFactory

// RegisterFactory registers a provider factory (delegated to registry).
var RegisterFactory = registry.RegisterFactory

// GetFactory returns the factory for a provider type (delegated to registry).
var GetFactory = registry.GetFactory

// ListFactories returns all registered provider factories (delegated to registry).
var ListFactories = registry.ListFactories

// ListProviderTypes returns all registered provider type names (delegated to registry).
var ListProviderTypes = registry.ListProviderTypes

// IsRegistered returns true if a provider type is registered (delegated to registry).
var IsRegistered = registry.IsRegistered

// ValidateProviderConfig validates a provider configuration (delegated to registry).
var ValidateProviderConfig = registry.ValidateProviderConfig

// FormatFor returns the answer format for a provider config (delegated to registry).
var FormatFor = registry.FormatFor

// ClearFactories removes all registered factories (for testing only).
var ClearFactories = registry.ClearFactories
