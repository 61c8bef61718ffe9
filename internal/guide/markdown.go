package guide

import (
	"strings"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

// Sequence caps applied by both strategies.
const (
	maxSteps      = 12
	maxItems      = 6
	maxComponents = 8
	maxRisks      = 5
	maxNextSteps  = 5
	maxMetrics    = 5
)

// ParseMarkdown builds a Guide from a heading-structured answer. It never
// fails: unmatched sections become empty fields.
func ParseMarkdown(text string) *domain.Guide {
	sections := splitSections(text)
	g := domain.NewGuide()

	g.Summary = lookup(sections, fieldSummary)
	g.RequestAnalysis = lookup(sections, fieldRequestAnalysis)
	g.Templates = lookup(sections, fieldTemplates)
	g.CostsSummary = lookup(sections, fieldCosts)
	g.TimelineLabel = lookup(sections, fieldTimeline)

	for _, b := range capStrings(bullets(lookup(sections, fieldRecommendedItems)), maxItems) {
		g.RecommendedItems = append(g.RecommendedItems, parseItem(b))
	}

	arch := lookup(sections, fieldArchitecture)
	g.Architecture.Description = strings.Join(nonBulletLines(arch), "\n")
	g.Architecture.Components = capStrings(bullets(arch), maxComponents)

	g.Steps = parseSteps(lookup(sections, fieldSteps))

	for _, b := range capStrings(bullets(lookup(sections, fieldRisks)), maxRisks) {
		g.Risks = append(g.Risks, parseRisk(b))
	}

	g.NextSteps = capStrings(listItems(lookup(sections, fieldNextSteps)), maxNextSteps)
	g.SuccessMetrics = capStrings(listItems(lookup(sections, fieldSuccessMetrics)), maxMetrics)

	return g
}
