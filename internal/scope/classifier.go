// Package scope decides whether a provider answer declined the request.
package scope

import (
	"encoding/json"
	"strings"

	"github.com/agutierrezreginodev/potencia-agenda/internal/prompt"
)

// DefaultMessage is returned when a decline carries no explanation.
const DefaultMessage = "Este caso requiere desarrollo técnico o automatización estructural. " +
	"Debe escalarse como proyecto tecnológico formal con equipo de desarrollo, " +
	"arquitectura definida y evaluación de infraestructura."

// Verdict is the classifier result. Message is set only when OutOfScope.
type Verdict struct {
	OutOfScope bool
	Message    string
}

// declinePayload is the JSON shape of a decline.
type declinePayload struct {
	OutOfScope bool   `json:"out_of_scope"`
	Message    string `json:"message"`
}

// Classify reports whether raw text is a decline. It is pure.
func Classify(raw string) Verdict {
	payload, isJSON := parsePayload(raw)

	if !strings.Contains(raw, prompt.Sentinel) && !(isJSON && payload.OutOfScope) {
		return Verdict{}
	}

	var msg string
	if isJSON && strings.TrimSpace(payload.Message) != "" {
		msg = cleanMessage(payload.Message)
	} else if !isJSON {
		msg = cleanMessage(raw)
	}
	if msg == "" {
		msg = DefaultMessage
	}
	return Verdict{OutOfScope: true, Message: msg}
}

// parsePayload decodes raw as a JSON object, tolerating a ```json fence.
func parsePayload(raw string) (declinePayload, bool) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return declinePayload{}, false
	}

	var p declinePayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return declinePayload{}, false
	}
	return p, true
}

// cleanMessage removes the sentinel, trims the text and strips trailing
// whitespace from every line.
func cleanMessage(s string) string {
	s = strings.ReplaceAll(s, prompt.Sentinel, "")
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
