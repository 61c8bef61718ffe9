package guide

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

// wireGuide is the snake_case JSON shape providers are asked to return.
type wireGuide struct {
	ExecutiveSummary    string            `json:"executive_summary"`
	RequestAnalysis     string            `json:"request_analysis"`
	RecommendedTechs    []wireItem        `json:"recommended_techs"`
	Architecture        *wireArchitecture `json:"architecture"`
	ImplementationSteps []wireStep        `json:"implementation_steps"`
	Templates           string            `json:"templates"`
	EstimatedCosts      json.RawMessage   `json:"estimated_costs"`
	Risks               []wireRisk        `json:"risks_and_challenges"`
	NextSteps           []string          `json:"next_steps"`
	EstimatedTimeline   string            `json:"estimated_timeline"`
	SuccessMetrics      []string          `json:"success_metrics"`
}

type wireItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type wireArchitecture struct {
	Description string   `json:"description"`
	Components  []string `json:"components"`
}

// wireStep omits "step": steps are reindexed by position and models send it
// as either a number or a string.
type wireStep struct {
	Tool              string `json:"tool"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	EstimatedDuration string `json:"estimated_duration"`
}

type wireRisk struct {
	Risk       string `json:"risk"`
	Level      string `json:"level"`
	Mitigation string `json:"mitigation"`
}

// wireCosts is the legacy structured cost shape.
type wireCosts struct {
	Currency string `json:"currency"`
	Monthly  *struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	} `json:"monthly"`
	Notes string `json:"notes"`
}

// ParseJSON decodes a JSON answer. Malformed JSON, a non-object document or
// an object with neither summary nor steps is invalid_model_output.
func ParseJSON(text string, structuredCosts bool) (*domain.Guide, error) {
	payload := extractObject(text)
	if payload == "" {
		return nil, domain.ErrInvalidModelOutput("answer is not a JSON object")
	}

	var w wireGuide
	dec := json.NewDecoder(strings.NewReader(payload))
	if err := dec.Decode(&w); err != nil {
		return nil, domain.ErrInvalidModelOutput(fmt.Sprintf("malformed JSON answer: %v", err)).WithCause(err)
	}

	if strings.TrimSpace(w.ExecutiveSummary) == "" && len(w.ImplementationSteps) == 0 {
		return nil, domain.ErrInvalidModelOutput("answer is not a guide: no executive_summary or implementation_steps")
	}

	costs, err := decodeCosts(w.EstimatedCosts, structuredCosts)
	if err != nil {
		return nil, err
	}

	g := domain.NewGuide()
	g.Summary = strings.TrimSpace(w.ExecutiveSummary)
	g.RequestAnalysis = strings.TrimSpace(w.RequestAnalysis)
	g.Templates = strings.TrimSpace(w.Templates)
	g.CostsSummary = costs
	g.TimelineLabel = strings.TrimSpace(w.EstimatedTimeline)

	for i, it := range w.RecommendedTechs {
		if i == maxItems {
			break
		}
		g.RecommendedItems = append(g.RecommendedItems, domain.RecommendedItem{
			Name:        strings.TrimSpace(it.Name),
			Description: strings.TrimSpace(it.Description),
		})
	}

	if w.Architecture != nil {
		g.Architecture.Description = strings.TrimSpace(w.Architecture.Description)
		g.Architecture.Components = capStrings(trimAll(w.Architecture.Components), maxComponents)
	}

	for i, s := range w.ImplementationSteps {
		if i == maxSteps {
			break
		}
		g.Steps = append(g.Steps, domain.Step{
			Index:         i + 1,
			Tool:          strings.TrimSpace(s.Tool),
			Title:         stepTitle(strings.TrimSpace(s.Title), i+1),
			Description:   strings.TrimSpace(s.Description),
			DurationLabel: strings.TrimSpace(s.EstimatedDuration),
		})
	}

	for i, r := range w.Risks {
		if i == maxRisks {
			break
		}
		g.Risks = append(g.Risks, domain.Risk{
			Description: strings.TrimSpace(r.Risk),
			Level:       domain.ParseRiskLevel(r.Level),
			Mitigation:  strings.TrimSpace(r.Mitigation),
		})
	}

	g.NextSteps = capStrings(trimAll(w.NextSteps), maxNextSteps)
	g.SuccessMetrics = capStrings(trimAll(w.SuccessMetrics), maxMetrics)

	return g, nil
}

// extractObject strips a ```json fence and any prose around the outermost
// braces. It returns "" when no object is present.
func extractObject(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}

// decodeCosts accepts free text; the {monthly:{min,max}} object only when
// structured costs are enabled.
func decodeCosts(raw json.RawMessage, structured bool) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}

	if !structured {
		return "", domain.ErrInvalidModelOutput("estimated_costs must be text")
	}

	var c wireCosts
	if err := json.Unmarshal(raw, &c); err != nil || c.Monthly == nil {
		return "", domain.ErrInvalidModelOutput("estimated_costs has an unknown shape")
	}
	return formatCosts(c), nil
}

func formatCosts(c wireCosts) string {
	currency := c.Currency
	if currency == "" {
		currency = "USD"
	}

	var out string
	switch lo, hi := c.Monthly.Min, c.Monthly.Max; {
	case lo != nil && hi != nil:
		out = fmt.Sprintf("%s %s - %s mensuales", currency, formatAmount(*lo), formatAmount(*hi))
	case lo != nil:
		out = fmt.Sprintf("Desde %s %s mensuales", currency, formatAmount(*lo))
	case hi != nil:
		out = fmt.Sprintf("Hasta %s %s mensuales", currency, formatAmount(*hi))
	default:
		out = "Sin costo mensual estimado"
	}
	if notes := strings.TrimSpace(c.Notes); notes != "" {
		out += ". " + notes
	}
	return out
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
