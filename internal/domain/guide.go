package domain

import "strings"

// RiskLevel grades a risk entry.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// ParseRiskLevel normalises Spanish and English level words. Unknown values
// map to medium.
func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alto", "alta", "high":
		return RiskLevelHigh
	case "bajo", "baja", "low":
		return RiskLevelLow
	default:
		return RiskLevelMedium
	}
}

// Spanish returns the level word used in the prompt vocabulary.
func (l RiskLevel) Spanish() string {
	switch l {
	case RiskLevelHigh:
		return "alto"
	case RiskLevelLow:
		return "bajo"
	default:
		return "medio"
	}
}

// Guide is the canonical implementation guide produced by the pipeline.
// Sequence fields are never nil once a Guide leaves a parser.
type Guide struct {
	Summary          string            `json:"executive_summary" yaml:"executive_summary"`
	RequestAnalysis  string            `json:"request_analysis" yaml:"request_analysis"`
	RecommendedItems []RecommendedItem `json:"recommended_techs" yaml:"recommended_techs"`
	Architecture     Architecture      `json:"architecture" yaml:"architecture"`
	Steps            []Step            `json:"implementation_steps" yaml:"implementation_steps"`
	Templates        string            `json:"templates" yaml:"templates"`
	CostsSummary     string            `json:"estimated_costs" yaml:"estimated_costs"`
	Risks            []Risk            `json:"risks_and_challenges" yaml:"risks_and_challenges"`
	NextSteps        []string          `json:"next_steps" yaml:"next_steps"`
	TimelineLabel    string            `json:"estimated_timeline" yaml:"estimated_timeline"`
	SuccessMetrics   []string          `json:"success_metrics" yaml:"success_metrics"`
}

// RecommendedItem is a tool or technology the guide relies on.
type RecommendedItem struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Architecture is the non-technical flow description.
type Architecture struct {
	Description string   `json:"description" yaml:"description"`
	Components  []string `json:"components" yaml:"components"`
}

// Step is one numbered implementation step. Index is 1-based.
type Step struct {
	Index         int    `json:"step" yaml:"step"`
	Tool          string `json:"tool" yaml:"tool"`
	Title         string `json:"title" yaml:"title"`
	Description   string `json:"description" yaml:"description"`
	DurationLabel string `json:"estimated_duration" yaml:"estimated_duration"`
}

// Risk is a risk with its mitigation.
type Risk struct {
	Description string    `json:"risk" yaml:"risk"`
	Level       RiskLevel `json:"level" yaml:"level"`
	Mitigation  string    `json:"mitigation" yaml:"mitigation"`
}

// NewGuide returns a Guide with every sequence field initialised.
func NewGuide() *Guide {
	g := &Guide{}
	g.Normalize()
	return g
}

// Normalize replaces nil sequences with empty ones so absence never
// propagates to callers.
func (g *Guide) Normalize() {
	if g.RecommendedItems == nil {
		g.RecommendedItems = []RecommendedItem{}
	}
	if g.Architecture.Components == nil {
		g.Architecture.Components = []string{}
	}
	if g.Steps == nil {
		g.Steps = []Step{}
	}
	if g.Risks == nil {
		g.Risks = []Risk{}
	}
	if g.NextSteps == nil {
		g.NextSteps = []string{}
	}
	if g.SuccessMetrics == nil {
		g.SuccessMetrics = []string{}
	}
}
