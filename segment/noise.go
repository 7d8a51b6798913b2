package segment

import (
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// structuralNoise is stripped from every document regardless of
// configuration.
var structuralNoise = cascadia.MustCompile("script, style, noscript, iframe")

// Filter removes noise from parsed documents: scripts, styles and a
// configurable denylist of overlay, banner and ad selectors. Removal is
// in place and idempotent.
type Filter struct {
	matchers []cascadia.Selector
}

// NewFilter compiles the selector denylist. An invalid selector is
// logged and skipped rather than failing the whole filter.
func NewFilter(selectors []string) *Filter {
	f := &Filter{matchers: make([]cascadia.Selector, 0, len(selectors))}
	for _, raw := range selectors {
		m, err := cascadia.Compile(raw)
		if err != nil {
			slog.Warn("noise filter: skipping invalid selector", "selector", raw, "error", err)
			continue
		}
		f.matchers = append(f.matchers, m)
	}
	return f
}

// Clean strips noise elements from doc in place.
func (f *Filter) Clean(doc *goquery.Document) {
	doc.FindMatcher(structuralNoise).Remove()
	for _, m := range f.matchers {
		doc.FindMatcher(m).Remove()
	}
}
