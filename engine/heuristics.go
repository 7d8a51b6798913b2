package engine

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Thresholds for the render decision.
const (
	minVisibleChars = 500
	minTextRatio    = 0.03
)

// spaRootSelector matches mount points that client-side frameworks render
// into. Their presence means the static HTML is likely a shell.
var spaRootSelector = strings.Join([]string{
	"#root",
	"#app",
	"#__next",
	"#___gatsby",
	".react-root",
	"[data-reactroot]",
	"[data-react-helmet]",
	"[data-v-app]",
}, ", ")

// landmarkSelector matches the semantic elements a server-rendered content
// page is expected to carry.
const landmarkSelector = "main, article, [role='main']"

// jsRequiredPhrases are looked for inside noscript content.
var jsRequiredPhrases = []string{
	"enable javascript",
	"javascript is required",
	"requires javascript",
	"javascript disabled",
	"javascript is not enabled",
	"without javascript",
}

// probe carries everything the render checks look at, computed once per page.
type probe struct {
	doc          *goquery.Document
	rawLen       int
	visibleText  string
	noscriptText string
}

// renderCheck is one named, independently testable reason to fall back to
// the browser.
type renderCheck struct {
	name string
	hit  func(p *probe) bool
}

// renderChecks is the fixed decision table: a page needs rendering when any
// check fires. Every check answers "is the static HTML insufficient" in the
// positive direction only, so the combined verdict is monotone: adding SPA
// markers or removing landmarks can never flip a render verdict to static.
var renderChecks = []renderCheck{
	{"sparse-text", func(p *probe) bool {
		return len(p.visibleText) < minVisibleChars
	}},
	{"spa-root", func(p *probe) bool {
		return p.doc.Find(spaRootSelector).Length() > 0
	}},
	{"low-text-ratio", func(p *probe) bool {
		if p.rawLen == 0 {
			return true
		}
		return float64(len(p.visibleText))/float64(p.rawLen) < minTextRatio
	}},
	{"noscript-warning", func(p *probe) bool {
		for _, phrase := range jsRequiredPhrases {
			if strings.Contains(p.noscriptText, phrase) {
				return true
			}
		}
		return false
	}},
	{"no-landmark", func(p *probe) bool {
		return p.doc.Find(landmarkSelector).Length() == 0
	}},
}

// RenderReport is the render decision for one document.
type RenderReport struct {
	NeedsRender bool
	Triggered   []string // names of the checks that fired
}

// Reason joins the fired check names for log and error messages.
func (r RenderReport) Reason() string {
	return strings.Join(r.Triggered, ", ")
}

// EvaluateRender decides whether rawHTML needs a browser to become useful.
// doc must be the parse of rawHTML, before any noise filtering (the
// noscript check reads content the noise filter would strip).
func EvaluateRender(doc *goquery.Document, rawHTML string) RenderReport {
	p := &probe{
		doc:          doc,
		rawLen:       len(rawHTML),
		visibleText:  visibleText(rawHTML),
		noscriptText: strings.ToLower(doc.Find("noscript").Text()),
	}
	var report RenderReport
	for _, c := range renderChecks {
		if c.hit(p) {
			report.NeedsRender = true
			report.Triggered = append(report.Triggered, c.name)
		}
	}
	return report
}

// visibleText extracts whitespace-normalized text from the markup, skipping
// script, style and noscript content. Text outside an explicit <body> counts
// only when the markup never opens one (fragment input).
func visibleText(rawHTML string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	var all, body strings.Builder
	inBody := false
	sawBody := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if sawBody {
				return strings.TrimSpace(body.String())
			}
			return strings.TrimSpace(all.String())
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "body":
				inBody = true
				sawBody = true
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if skipDepth != 0 {
				continue
			}
			text := strings.TrimSpace(string(tokenizer.Text()))
			if text == "" {
				continue
			}
			all.WriteString(text)
			all.WriteByte(' ')
			if inBody {
				body.WriteString(text)
				body.WriteByte(' ')
			}
		}
	}
}
