package segment

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxLabelLength = 50
	labelWordLimit = 8
)

// typeKeywords maps class, id and tag tokens to section types. Entries
// are checked in order; the first keyword hit wins.
var typeKeywords = []struct {
	sectionType string
	keywords    []string
}{
	{"hero", []string{"hero", "banner", "jumbotron", "splash"}},
	{"nav", []string{"nav", "navigation", "menu"}},
	{"footer", []string{"footer", "copyright"}},
	{"pricing", []string{"pricing", "price", "plan"}},
	{"faq", []string{"faq", "question", "answer", "accordion"}},
}

// classify derives a section type from the root's tag, class and id.
// When no keyword matches, the root's tag name is the type; spans
// without a root element are unknown.
func classify(root segmentRoot) string {
	for _, entry := range typeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(root.haystack, kw) {
				return entry.sectionType
			}
		}
	}
	if root.tag != "" {
		return root.tag
	}
	return "unknown"
}

// deriveLabel produces a short human-readable label: the first heading
// if the section has one, otherwise the first few words of its text,
// otherwise "Untitled".
func deriveLabel(sel *goquery.Selection) string {
	heading := findInclusive(sel, "h1, h2, h3, h4, h5, h6").First()
	if heading.Length() > 0 {
		if text := normalizeSpace(heading.Text()); text != "" {
			return clipLabel(text)
		}
	}

	text := normalizeSpace(sel.Text())
	if text == "" {
		return "Untitled"
	}
	words := strings.Fields(text)
	label := text
	if len(words) > labelWordLimit {
		label = strings.Join(words[:labelWordLimit], " ") + truncationMarker
	}
	return clipLabel(label)
}

// clipLabel enforces the label length cap, marking clipped labels.
func clipLabel(s string) string {
	if utf8.RuneCountInString(s) <= maxLabelLength {
		return s
	}
	return string([]rune(s)[:maxLabelLength]) + truncationMarker
}
