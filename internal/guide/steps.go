package guide

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

var (
	// strictStep matches `N. **[Tool] Title (Duration)**` with optional tool and
	// duration, plus any trailing text on the same line. The duration is the
	// last parenthesised group before the closing marker, so titles may carry
	// their own parentheses.
	strictStep = regexp.MustCompile(`^(\d+)[.)]\s*\*\*(?:\[([^\]]*)\]\s*)?(.*?)\s*(?:\(([^()\\]*)\))?\s*\*\*(.*)$`)

	// boldStep is a numbered line that opens a bold title but is otherwise malformed.
	boldStep = regexp.MustCompile(`^\d+[.)]\s*(\*\*.*)$`)

	titleEscapes = strings.NewReplacer(`\(`, "(", `\)`, ")", `\[`, "[", `\]`, "]")
)

func stepTitle(title string, index int) string {
	if title == "" {
		return fmt.Sprintf("Paso %d", index)
	}
	return title
}

// parseSteps reads the strict step format and falls back to plain numbered
// lines when no strict step is found. Steps are indexed by position.
func parseSteps(body string) []domain.Step {
	lines := strings.Split(body, "\n")

	steps := []domain.Step{}
	var current *domain.Step
	var desc []string
	flush := func() {
		if current != nil {
			current.Description = strings.Join(desc, "\n")
			steps = append(steps, *current)
		}
		current = nil
		desc = nil
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if m := strictStep.FindStringSubmatch(line); m != nil {
			flush()
			index := len(steps) + 1
			current = &domain.Step{
				Index:         index,
				Tool:          strings.TrimSpace(m[2]),
				Title:         stepTitle(titleEscapes.Replace(strings.TrimSpace(m[3])), index),
				DurationLabel: strings.TrimSpace(m[4]),
			}
			if rest := strings.TrimSpace(strings.TrimLeft(m[5], " :-–")); rest != "" {
				desc = append(desc, rest)
			}
			continue
		}
		if m := boldStep.FindStringSubmatch(line); m != nil {
			flush()
			step := legacyStep(m[1], len(steps)+1)
			if step.Description != "" {
				desc = append(desc, step.Description)
			}
			current = &step
			continue
		}
		if current != nil && line != "" {
			desc = append(desc, line)
		}
	}
	flush()

	if len(steps) == 0 {
		steps = parseLegacySteps(lines)
	}
	if len(steps) > maxSteps {
		steps = steps[:maxSteps]
	}
	return steps
}

// parseLegacySteps handles `N. Title: description` lines.
func parseLegacySteps(lines []string) []domain.Step {
	steps := []domain.Step{}
	for _, line := range lines {
		m := numberedPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		steps = append(steps, legacyStep(strings.TrimSpace(m[1]), len(steps)+1))
	}
	return steps
}

func legacyStep(text string, index int) domain.Step {
	step := domain.Step{Index: index}
	if i := strings.Index(text, ":"); i >= 0 {
		step.Title = stepTitle(stripBold(text[:i]), index)
		step.Description = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text[i+1:]), "**"))
	} else {
		step.Title = stepTitle("", index)
		step.Description = stripBold(text)
	}
	return step
}

// stepHead writes `[Tool] Title (Duration)` so that it reads back unchanged:
// brackets and parentheses in the title that would be taken for the tool or
// the duration are escaped.
func stepHead(s domain.Step) string {
	title := s.Title
	if s.Tool == "" && strings.HasPrefix(title, "[") {
		title = `\` + title
	}
	if s.DurationLabel == "" && strings.HasSuffix(title, ")") {
		title = title[:len(title)-1] + `\)`
	}

	var head strings.Builder
	if s.Tool != "" {
		fmt.Fprintf(&head, "[%s] ", s.Tool)
	}
	head.WriteString(title)
	if s.DurationLabel != "" {
		fmt.Fprintf(&head, " (%s)", s.DurationLabel)
	}
	return head.String()
}
