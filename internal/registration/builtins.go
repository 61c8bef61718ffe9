// Package registration wires the built-in provider factories explicitly.
package registration

import (
	"github.com/agutierrezreginodev/potencia-agenda/internal/provider/anthropic"
	"github.com/agutierrezreginodev/potencia-agenda/internal/provider/gemini"
	"github.com/agutierrezreginodev/potencia-agenda/internal/provider/openai"
)

// RegisterBuiltins registers the built-in providers. It is idempotent and is
// called from the commands and from tests before building providers.
func RegisterBuiltins() {
	gemini.RegisterProviderFactory()
	openai.RegisterProviderFactory()
	anthropic.RegisterProviderFactory()
}
