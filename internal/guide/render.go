package guide

import (
	"fmt"
	"strings"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

// Headings written by Render. They use the prompt vocabulary so a rendered
// guide parses back to itself.
const (
	HeadingSummary          = "Resumen Ejecutivo"
	HeadingRequestAnalysis  = "Caso de Uso Específico"
	HeadingRecommendedItems = "Herramientas de IA a Utilizar"
	HeadingArchitecture     = "Arquitectura Simplificada (No Técnica)"
	HeadingSteps            = "Paso a Paso de Implementación (2 Horas o Menos)"
	HeadingTemplates        = "Plantillas Clave"
	HeadingCosts            = "Costos Estimados (USD)"
	HeadingRisks            = "Riesgos y Limitaciones"
	HeadingNextSteps        = "Casos de Uso Adicionales que se pueden crear con la misma estructura"
	HeadingTimeline         = "Cronograma Estimado"
	HeadingSuccessMetrics   = "Indicadores de Impacto Rápido"
)

// Render writes g as canonical Markdown. Empty fields are omitted.
func Render(g *domain.Guide) string {
	if g == nil {
		return ""
	}
	var b renderer

	b.text(HeadingSummary, g.Summary)
	b.text(HeadingRequestAnalysis, g.RequestAnalysis)

	if len(g.RecommendedItems) > 0 {
		b.heading(HeadingRecommendedItems)
		for _, it := range g.RecommendedItems {
			if it.Description == "" {
				b.line("* **%s**", it.Name)
			} else {
				b.line("* **%s**: %s", it.Name, it.Description)
			}
		}
	}

	if g.Architecture.Description != "" || len(g.Architecture.Components) > 0 {
		b.heading(HeadingArchitecture)
		if g.Architecture.Description != "" {
			b.line("%s", g.Architecture.Description)
		}
		for _, c := range g.Architecture.Components {
			b.line("* %s", c)
		}
	}

	if len(g.Steps) > 0 {
		b.heading(HeadingSteps)
		for i, s := range g.Steps {
			b.line("%d. **%s**", i+1, stepHead(s))
			for _, l := range strings.Split(s.Description, "\n") {
				if l = strings.TrimSpace(l); l != "" {
					b.line("   %s", l)
				}
			}
		}
	}

	b.text(HeadingTemplates, g.Templates)
	b.text(HeadingCosts, g.CostsSummary)

	if len(g.Risks) > 0 {
		b.heading(HeadingRisks)
		for _, r := range g.Risks {
			level := domain.ParseRiskLevel(string(r.Level)).Spanish()
			if r.Mitigation == "" {
				b.line("* **%s** (%s)", r.Description, level)
			} else {
				b.line("* **%s** (%s): %s", r.Description, level, r.Mitigation)
			}
		}
	}

	b.list(HeadingNextSteps, g.NextSteps)
	b.text(HeadingTimeline, g.TimelineLabel)
	b.list(HeadingSuccessMetrics, g.SuccessMetrics)

	return strings.TrimSpace(b.String()) + "\n"
}

type renderer struct {
	strings.Builder
}

func (r *renderer) heading(h string) {
	if r.Len() > 0 {
		r.WriteString("\n")
	}
	r.WriteString("## " + h + "\n")
}

func (r *renderer) line(format string, args ...any) {
	fmt.Fprintf(r, format+"\n", args...)
}

func (r *renderer) text(h, body string) {
	if body = strings.TrimSpace(body); body != "" {
		r.heading(h)
		r.WriteString(body + "\n")
	}
}

func (r *renderer) list(h string, items []string) {
	if len(items) == 0 {
		return
	}
	r.heading(h)
	for _, it := range items {
		r.line("* %s", it)
	}
}
