// Package guide turns raw provider answers into a domain.Guide and renders a
// Guide back to Markdown.
package guide

import (
	"errors"
	"strings"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

// Formats accepted by NewParser.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Option configures a Parser.
type Option func(*Parser)

// WithStructuredCosts accepts estimated_costs as a {monthly:{min,max}} object
// in JSON answers and renders it to text.
func WithStructuredCosts(enabled bool) Option {
	return func(p *Parser) {
		p.structuredCosts = enabled
	}
}

// Parser implements domain.GuideParser with the strategy chosen at construction.
type Parser struct {
	format          string
	structuredCosts bool
}

var _ domain.GuideParser = (*Parser)(nil)

// NewParser returns a parser for format; anything but "json" parses Markdown.
func NewParser(format string, opts ...Option) *Parser {
	p := &Parser{format: format}
	if p.format != FormatJSON {
		p.format = FormatMarkdown
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Format returns the strategy in use.
func (p *Parser) Format() string {
	return p.format
}

// Parse converts raw into a Guide. Declined answers have no guide and must
// not be parsed.
func (p *Parser) Parse(raw *domain.RawCompletion, outOfScope bool) (*domain.Guide, error) {
	if outOfScope {
		return nil, errors.New("guide: declined answers cannot be parsed")
	}
	if raw == nil || strings.TrimSpace(raw.Text) == "" {
		return nil, domain.ErrInvalidModelOutput("empty completion")
	}

	if p.format == FormatJSON {
		return ParseJSON(raw.Text, p.structuredCosts)
	}
	return ParseMarkdown(raw.Text), nil
}
