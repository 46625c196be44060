package segment

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// sentencePattern matches a run of non-terminator characters followed by one
// or more terminators. Purely a punctuation heuristic: abbreviations, decimal
// numbers and quoted punctuation will split wrong, and that is accepted.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Split breaks text into ordered sentence spans on trailing ./!/? runs.
// Input without any terminator comes back as a single span. Rejoining the
// spans reproduces the input up to whitespace between spans.
func Split(text string) []string {
	spans := sentencePattern.FindAllString(text, -1)
	if len(spans) == 0 {
		return []string{text}
	}
	return spans
}

// nonPrintable strips control characters, zero-width characters and anything
// outside printable ASCII.
var nonPrintable = regexp.MustCompile("[^\x20-\x7E]")

// CleanText prepares pasted or page-extracted input for checking: strips
// HTML markup, collapses whitespace and removes quotes and non-printable
// characters.
func CleanText(input string) string {
	text := input
	if strings.ContainsAny(input, "<>") {
		if doc, err := html.Parse(strings.NewReader(input)); err == nil {
			text = visibleText(doc)
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	text = nonPrintable.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, `"`, "")
	text = strings.ReplaceAll(text, "'", "")
	return strings.TrimSpace(text)
}

// visibleText extracts text nodes from parsed HTML, skipping scripts/styles
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}
