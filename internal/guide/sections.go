package guide

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// section is one "## heading" block of a Markdown answer.
type section struct {
	heading string
	body    string
}

var horizontalRule = regexp.MustCompile(`^\s*([-*_])(\s*([-*_])){2,}\s*$`)

// splitSections cuts text at level-two headings. Text before the first
// heading is discarded; "###" lines stay in the body.
func splitSections(text string) []section {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		sections []section
		current  *section
		body     []string
	)
	flush := func() {
		if current != nil {
			current.body = strings.TrimSpace(strings.Join(body, "\n"))
			sections = append(sections, *current)
		}
		body = body[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if horizontalRule.MatchString(line) {
			continue
		}
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "## ") {
			flush()
			current = &section{heading: cleanHeading(trimmed)}
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()
	return sections
}

func cleanHeading(line string) string {
	h := strings.TrimLeft(line, "#")
	h = strings.ReplaceAll(h, "**", "")
	h = strings.TrimSpace(h)
	h = strings.TrimSuffix(h, ":")
	return strings.TrimSpace(h)
}

// fold lowercases s and removes diacritics so "Específico" matches "especifico".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// field names the Guide fields resolvable from headings.
type field int

const (
	fieldSummary field = iota
	fieldRequestAnalysis
	fieldRecommendedItems
	fieldArchitecture
	fieldSteps
	fieldTemplates
	fieldCosts
	fieldRisks
	fieldNextSteps
	fieldTimeline
	fieldSuccessMetrics
)

// vocabulary lists, per field, the heading phrases in priority order.
var vocabulary = map[field][]string{
	fieldSummary:          {"Resumen Ejecutivo", "Executive Summary"},
	fieldRequestAnalysis:  {"Caso de Uso Específico", "Análisis de la Solicitud", "Request Analysis"},
	fieldRecommendedItems: {"Herramientas de IA", "Tecnologías Recomendadas", "Recommended Tools"},
	fieldArchitecture:     {"Arquitectura", "Architecture"},
	fieldSteps:            {"Paso a Paso", "Pasos de Implementación", "Implementation Steps"},
	fieldTemplates:        {"Plantillas", "Templates"},
	fieldCosts:            {"Costos Estimados", "Costos", "Costs"},
	fieldRisks:            {"Riesgos", "Risks"},
	fieldNextSteps:        {"Casos de Uso Adicionales", "Próximos Pasos", "Next Steps"},
	fieldTimeline:         {"Cronograma", "Timeline"},
	fieldSuccessMetrics:   {"Indicadores", "Métricas", "Success Metrics"},
}

// lookup returns the body for f: the first phrase that matches any heading
// wins, headings scanned in document order. Missing sections yield "".
func lookup(sections []section, f field) string {
	for _, phrase := range vocabulary[f] {
		p := fold(phrase)
		for _, s := range sections {
			if strings.Contains(fold(s.heading), p) {
				return s.body
			}
		}
	}
	return ""
}
