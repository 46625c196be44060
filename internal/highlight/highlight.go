// Package highlight annotates source text with cached verdicts. Output is
// markup for the display collaborator; this package renders no panels and
// owns no styling beyond the severity color.
package highlight

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/segment"
)

// Lookup resolves a sentence to its cached verdict. *session.Cache
// satisfies this.
type Lookup interface {
	Lookup(sentence string) (model.Verdict, bool)
}

// severityColor maps a verdict severity to its highlight background
func severityColor(severity model.Severity) string {
	switch model.Severity(strings.ToLower(string(severity))) {
	case model.SeverityLow:
		return "rgba(46, 204, 113, 0.3)"
	case model.SeverityMedium:
		return "rgba(241, 196, 15, 0.3)"
	case model.SeverityHigh:
		return "rgba(231, 76, 60, 0.3)"
	default:
		return "rgba(189, 195, 199, 0.3)"
	}
}

// Annotate wraps every sentence of text that has a known verdict in a span
// carrying the severity color and the verdict's session-local id as a
// data-id attribute. Replacement is global and case-insensitive, so
// repeated identical sentences are all annotated with the same verdict —
// including sentences that only normalize to an already-checked one.
// Sentences without a verdict pass through unchanged.
func Annotate(text string, verdicts Lookup) string {
	annotated := text
	wrapped := make(map[string]bool)

	for _, sentence := range segment.Split(text) {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}

		key := strings.ToLower(trimmed)
		if wrapped[key] {
			continue
		}

		verdict, ok := verdicts.Lookup(trimmed)
		if !ok {
			continue
		}
		wrapped[key] = true

		pattern, err := regexp.Compile(`(?i)(` + regexp.QuoteMeta(trimmed) + `)`)
		if err != nil {
			continue
		}

		replacement := fmt.Sprintf(
			`<span style="background-color: %s;" class="fact-check" data-id="%d">$1</span>`,
			severityColor(verdict.Severity), verdict.LocalID,
		)
		annotated = pattern.ReplaceAllString(annotated, replacement)
	}

	return annotated
}
