package guide

import (
	"regexp"
	"strings"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

var (
	bulletPattern   = regexp.MustCompile(`^[*\-•]\s+(.*)$`)
	numberedPattern = regexp.MustCompile(`^\d+[.)]\s+(.*)$`)

	// levelTag matches a trailing "(alto)" or "[high]" marker.
	levelTag = regexp.MustCompile(`(?i)\s*[(\[]\s*(alto|alta|medio|media|bajo|baja|high|medium|low)\s*[)\]]\s*$`)

	highWords = regexp.MustCompile(`(?i)\b(alto|alta|high)\b`)
	lowWords  = regexp.MustCompile(`(?i)\b(bajo|baja|low)\b`)
)

// bullets returns the text of every bullet line in body, markers stripped.
func bullets(body string) []string {
	out := []string{}
	for _, line := range strings.Split(body, "\n") {
		if m := bulletPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if text := strings.TrimSpace(m[1]); text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}

// listItems is bullets plus "N." numbered lines, in document order.
func listItems(body string) []string {
	out := []string{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		m := bulletPattern.FindStringSubmatch(line)
		if m == nil {
			m = numberedPattern.FindStringSubmatch(line)
		}
		if m != nil {
			if text := strings.TrimSpace(m[1]); text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}

// nonBulletLines returns the trimmed, non-empty lines that are not bullets.
func nonBulletLines(body string) []string {
	out := []string{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || bulletPattern.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// splitHeadTail splits "head: tail" on the first colon, else on the first
// spaced dash. A leading bold run is kept whole as the head, so separators
// inside it do not split. ok is false when no separator follows the head.
func splitHeadTail(text string) (head, tail string, ok bool) {
	if bold, rest, found := cutBold(text); found {
		// "**Name:** text"
		if name, isLabel := strings.CutSuffix(strings.TrimSpace(bold), ":"); isLabel && rest != "" {
			return strings.TrimSpace(name), rest, true
		}
		before, after, sep := cutSeparator(" " + rest)
		if !sep {
			return "", "", false
		}
		return strings.TrimSpace(bold + " " + strings.TrimSpace(before)), after, true
	}

	before, after, sep := cutSeparator(text)
	if !sep {
		return "", "", false
	}
	// "Name:** text" leaves the closing bold marker on the tail
	return stripBold(before), strings.TrimSpace(strings.TrimPrefix(after, "**")), true
}

// cutBold splits "**bold** rest". found is false unless text opens with a
// closed bold run.
func cutBold(text string) (bold, rest string, found bool) {
	inner, ok := strings.CutPrefix(text, "**")
	if !ok {
		return "", "", false
	}
	bold, rest, found = strings.Cut(inner, "**")
	return bold, strings.TrimSpace(rest), found
}

// cutSeparator cuts s at its first colon, else at its first spaced dash.
func cutSeparator(s string) (before, after string, found bool) {
	i, n := strings.Index(s, ":"), 1
	if i < 0 {
		i, n = strings.Index(s, " - "), len(" - ")
	}
	if i < 0 {
		i, n = strings.Index(s, " – "), len(" – ")
	}
	if i < 0 {
		return "", "", false
	}
	return s[:i], strings.TrimSpace(s[i+n:]), true
}

func stripBold(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "**", ""))
}

// takeLevelTag removes a trailing level tag from s.
func takeLevelTag(s string) (string, domain.RiskLevel, bool) {
	m := levelTag.FindStringSubmatchIndex(s)
	if m == nil {
		return s, "", false
	}
	return strings.TrimSpace(s[:m[0]]), domain.ParseRiskLevel(s[m[2]:m[3]]), true
}

// keywordLevel searches for level words; high wins over low, default medium.
func keywordLevel(s string) domain.RiskLevel {
	switch {
	case highWords.MatchString(s):
		return domain.RiskLevelHigh
	case lowWords.MatchString(s):
		return domain.RiskLevelLow
	default:
		return domain.RiskLevelMedium
	}
}

func parseItem(text string) domain.RecommendedItem {
	if head, tail, ok := splitHeadTail(text); ok {
		return domain.RecommendedItem{Name: head, Description: tail}
	}
	return domain.RecommendedItem{Name: stripBold(text)}
}

func parseRisk(text string) domain.Risk {
	head, tail, split := splitHeadTail(text)
	if !split {
		head = stripBold(text)
	}

	var level domain.RiskLevel
	var tagged bool
	if head, level, tagged = takeLevelTag(head); !tagged {
		if tail, level, tagged = takeLevelTag(tail); !tagged {
			level = keywordLevel(text)
		}
	}

	return domain.Risk{
		Description: stripBold(head),
		Level:       level,
		Mitigation:  tail,
	}
}

func capStrings(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
