package guide

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

func fullGuide() *domain.Guide {
	return &domain.Guide{
		Summary:         "Automatizar la agenda de citas con IA.\n\nAhorra cinco horas semanales.",
		RequestAnalysis: "La clínica agenda todas las citas por teléfono.",
		RecommendedItems: []domain.RecommendedItem{
			{Name: "ChatGPT", Description: "Redacta las respuestas a pacientes."},
			{Name: "Calendly"},
		},
		Architecture: domain.Architecture{
			Description: "Paciente → Calendly → Recordatorio automático",
			Components:  []string{"Calendly", "Zapier"},
		},
		Steps: []domain.Step{
			{Index: 1, Tool: "Calendly", Title: "Crear cuenta", Description: "Registrarse.\nConfigurar horarios.", DurationLabel: "Minuto 0-20"},
			{Index: 2, Title: "Probar flujo", Description: "Agendar una cita de prueba."},
		},
		Templates:    "Hola {nombre}, tu cita es el {fecha}.",
		CostsSummary: "Plan gratuito suficiente para empezar.",
		Risks: []domain.Risk{
			{Description: "Ausencias de pacientes", Level: domain.RiskLevelHigh, Mitigation: "Recordatorios 24h antes."},
			{Description: "Adopción del equipo", Level: domain.RiskLevelMedium},
		},
		NextSteps:      []string{"Encuestas después de la cita"},
		TimelineLabel:  "2 horas",
		SuccessMetrics: []string{"Citas agendadas por semana", "Tasa de ausencias"},
	}
}

func TestRender_RoundTrip(t *testing.T) {
	g := fullGuide()

	got := ParseMarkdown(Render(g))

	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("ParseMarkdown(Render(g)) mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_RoundTripWithParenthesesAndColons(t *testing.T) {
	g := domain.NewGuide()
	g.RecommendedItems = []domain.RecommendedItem{
		{Name: "Zapier: plan Pro", Description: "Conecta: formularios y calendario"},
		{Name: "ChatGPT (Plus)"},
	}
	g.Steps = []domain.Step{
		{Index: 1, Tool: "ChatGPT", Title: "Crear prompt (GPT-4)", DurationLabel: "Minuto 0-15", Description: "Abrir chat."},
		{Index: 2, Title: "Abrir ChatGPT (plan Plus)", Description: "crear"},
		{Index: 3, Title: "[Borrador] Revisar", Description: "Leer (dos veces)."},
		{Index: 4, Tool: "Canva", Title: "Exportar", DurationLabel: "Minuto 15-30"},
	}
	g.Risks = []domain.Risk{
		{Description: "Privacidad: datos", Level: domain.RiskLevelHigh, Mitigation: "anonimizar: siempre"},
		{Description: "Costos (variables)", Level: domain.RiskLevelLow},
	}

	got := ParseMarkdown(Render(g))

	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("ParseMarkdown(Render(g)) mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_RoundTripOfLegacySteps(t *testing.T) {
	parsed := ParseMarkdown("## Paso a Paso de Implementación\n1. Abrir ChatGPT (plan Plus): crear\n2. Diseñar en Canva\n")
	if len(parsed.Steps) != 2 || parsed.Steps[0].Title != "Abrir ChatGPT (plan Plus)" {
		t.Fatalf("steps = %+v", parsed.Steps)
	}

	again := ParseMarkdown(Render(parsed))

	if diff := cmp.Diff(parsed, again); diff != "" {
		t.Errorf("re-parse mismatch (-want +got):\n%s", diff)
	}
}

func TestStepHead(t *testing.T) {
	tests := []struct {
		step domain.Step
		want string
	}{
		{domain.Step{Tool: "ChatGPT", Title: "Kickoff", DurationLabel: "Minuto 0-15"}, "[ChatGPT] Kickoff (Minuto 0-15)"},
		{domain.Step{Title: "Abrir ChatGPT (plan Plus)"}, `Abrir ChatGPT (plan Plus\)`},
		{domain.Step{Title: "Crear prompt (GPT-4)", DurationLabel: "10 min"}, "Crear prompt (GPT-4) (10 min)"},
		{domain.Step{Title: "[Borrador] Revisar"}, `\[Borrador] Revisar`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stepHead(tt.step))
	}
}

func TestRender_RoundTripOfParsedAnswer(t *testing.T) {
	parsed := ParseMarkdown(sampleAnswer)

	again := ParseMarkdown(Render(parsed))

	if diff := cmp.Diff(parsed, again); diff != "" {
		t.Errorf("re-parse mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_Format(t *testing.T) {
	g := domain.NewGuide()
	g.Summary = "Resumen."
	g.Steps = []domain.Step{{Index: 1, Tool: "ChatGPT", Title: "Kickoff", DurationLabel: "Minuto 0-15", Description: "Configure chat."}}
	g.Risks = []domain.Risk{{Description: "Costos", Level: domain.RiskLevelLow, Mitigation: "Plan gratuito"}}

	want := strings.Join([]string{
		"## Resumen Ejecutivo",
		"Resumen.",
		"",
		"## Paso a Paso de Implementación (2 Horas o Menos)",
		"1. **[ChatGPT] Kickoff (Minuto 0-15)**",
		"   Configure chat.",
		"",
		"## Riesgos y Limitaciones",
		"* **Costos** (bajo): Plan gratuito",
		"",
	}, "\n")

	assert.Equal(t, want, Render(g))
}

func TestRender_OmitsEmptyFields(t *testing.T) {
	assert.NotContains(t, Render(domain.NewGuide()), "##")
	assert.Equal(t, "", Render(nil))

	g := domain.NewGuide()
	g.TimelineLabel = "1 hora"
	out := Render(g)
	assert.Equal(t, 1, strings.Count(out, "## "))
	assert.Contains(t, out, "## "+HeadingTimeline)
}
