// Package segment splits cleaned HTML documents into typed, labeled
// sections. Pages with semantic landmarks split along them, heading-led
// pages split at h1-h3 boundaries and anything else becomes a single
// body section. Extraction never fails a scrape: a document that defies
// every strategy simply yields fewer sections.
package segment

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pagesift/pagesift/models"
)

// maxRawHTML caps the raw markup stored per section.
const maxRawHTML = 5000

const truncationMarker = "..."

const landmarkSelector = "header, nav, main, article, section, aside, footer"

const topHeadingSelector = "h1, h2, h3"

// Segmenter turns documents into sections. It is stateless apart from
// the compiled noise filter and safe for concurrent use.
type Segmenter struct {
	noise *Filter
}

// New builds a Segmenter whose noise filter removes the given selectors
// on top of the always-stripped script and style elements.
func New(noiseSelectors []string) *Segmenter {
	return &Segmenter{noise: NewFilter(noiseSelectors)}
}

// segmentRoot is one prospective section: the nodes it spans plus the
// element whose tag and attributes drive classification. Heading spans
// have no single root element, so their tag is empty.
type segmentRoot struct {
	sel      *goquery.Selection
	tag      string
	haystack string
}

// Segment cleans doc in place and splits it into sections. Section ids
// continue from startIndex so sections from multiple documents of one
// scrape never collide. Sections with no extractable content are
// dropped; ids stay contiguous across the drops.
func (sg *Segmenter) Segment(doc *goquery.Document, sourceURL string, startIndex int) []models.Section {
	sg.noise.Clean(doc)

	base, err := url.Parse(sourceURL)
	if err != nil {
		base = nil
	}

	roots := landmarkRoots(doc)
	if len(roots) == 0 {
		roots = headingRoots(doc)
	}
	if len(roots) == 0 {
		roots = bodyRoot(doc)
	}

	sections := make([]models.Section, 0, len(roots))
	for _, root := range roots {
		content := extractContent(root.sel, base)
		if content.IsEmpty() {
			continue
		}
		raw, truncated := capHTML(renderNodes(root.sel))
		sections = append(sections, models.Section{
			ID:        fmt.Sprintf("section-%d", startIndex+len(sections)),
			Type:      classify(root),
			Label:     deriveLabel(root.sel),
			SourceURL: sourceURL,
			Content:   content,
			RawHTML:   raw,
			Truncated: truncated,
		})
	}
	return sections
}

// landmarkRoots returns each top-level semantic landmark as a root.
// A landmark nested inside another landmark is covered by its ancestor
// and skipped.
func landmarkRoots(doc *goquery.Document) []segmentRoot {
	var roots []segmentRoot
	doc.Find(landmarkSelector).Each(func(_ int, el *goquery.Selection) {
		if el.ParentsFiltered(landmarkSelector).Length() > 0 {
			return
		}
		roots = append(roots, elementRoot(el))
	})
	return roots
}

// headingRoots splits the document at h1-h3 boundaries. Each heading
// plus its following siblings up to the next heading forms one root;
// content before the first heading forms a leading root of its own.
func headingRoots(doc *goquery.Document) []segmentRoot {
	headings := doc.Find(topHeadingSelector)
	if headings.Length() == 0 {
		return nil
	}

	var roots []segmentRoot
	if lead := leadingSpan(headings.First()); lead != nil {
		roots = append(roots, segmentRoot{sel: lead})
	}
	headings.Each(func(_ int, h *goquery.Selection) {
		span := h.AddSelection(h.NextUntil(topHeadingSelector))
		roots = append(roots, spanRoot(h, span))
	})
	return roots
}

// bodyRoot treats the whole body as a single root.
func bodyRoot(doc *goquery.Document) []segmentRoot {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}
	return []segmentRoot{elementRoot(body)}
}

// leadingSpan returns the siblings before the first heading in document
// order, or nil when the heading opens its parent. PrevAll yields nodes
// closest-first, so they are reversed here.
func leadingSpan(first *goquery.Selection) *goquery.Selection {
	prev := first.PrevAll()
	n := prev.Length()
	if n == 0 {
		return nil
	}
	nodes := make([]*html.Node, n)
	for i, node := range prev.Nodes {
		nodes[n-1-i] = node
	}
	return prev.Slice(0, 0).AddNodes(nodes...)
}

func elementRoot(el *goquery.Selection) segmentRoot {
	return segmentRoot{
		sel:      el,
		tag:      goquery.NodeName(el),
		haystack: buildHaystack(el),
	}
}

// spanRoot classifies a heading-bounded span by its heading element.
func spanRoot(heading, span *goquery.Selection) segmentRoot {
	return segmentRoot{
		sel:      span,
		haystack: buildHaystack(heading),
	}
}

func buildHaystack(el *goquery.Selection) string {
	class, _ := el.Attr("class")
	id, _ := el.Attr("id")
	return strings.ToLower(goquery.NodeName(el) + " " + class + " " + id)
}

// renderNodes serializes every node of the selection in order.
func renderNodes(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		if err := html.Render(&b, n); err != nil {
			break
		}
	}
	return b.String()
}

// capHTML truncates raw markup to maxRawHTML characters, appending a
// marker when anything was cut.
func capHTML(raw string) (string, bool) {
	runes := []rune(raw)
	if len(runes) <= maxRawHTML {
		return raw, false
	}
	return string(runes[:maxRawHTML]) + truncationMarker, true
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
