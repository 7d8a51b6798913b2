package segment

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pagesift/pagesift/models"
)

// maxLinkDensity is the anchor-text share above which a section's prose
// is dropped as navigation chrome.
const maxLinkDensity = 0.6

var skippedHrefPrefixes = []string{"#", "javascript:", "mailto:", "tel:"}

// extractContent pulls the structured content out of one segment. Every
// slice is initialized so sections serialize with empty arrays instead
// of nulls.
func extractContent(sel *goquery.Selection, base *url.URL) models.SectionContent {
	return models.SectionContent{
		Headings: extractHeadings(sel),
		Text:     extractText(sel),
		Links:    extractLinks(sel, base),
		Images:   extractImages(sel, base),
		Lists:    extractLists(sel),
		Tables:   extractTables(sel),
	}
}

// findInclusive matches the selection's own nodes as well as their
// descendants. Heading spans hold their elements as siblings, so a
// plain Find would miss the span members themselves.
func findInclusive(sel *goquery.Selection, selector string) *goquery.Selection {
	return sel.Filter(selector).AddSelection(sel.Find(selector))
}

func extractHeadings(sel *goquery.Selection) []string {
	headings := []string{}
	findInclusive(sel, "h1, h2, h3, h4, h5, h6").Each(func(_ int, h *goquery.Selection) {
		if text := normalizeSpace(h.Text()); text != "" {
			headings = append(headings, text)
		}
	})
	return headings
}

// extractText returns the segment's visible prose. Table contents are
// covered by the table extractor and skipped here. Segments whose text
// is mostly anchor text are navigation blocks, not prose, and yield an
// empty string.
func extractText(sel *goquery.Selection) string {
	var parts []string
	for _, n := range sel.Nodes {
		collectText(n, &parts)
	}
	text := normalizeSpace(strings.Join(parts, " "))
	if text == "" {
		return ""
	}

	linkLen := 0
	findInclusive(sel, "a").Each(func(_ int, a *goquery.Selection) {
		if insideTable(a.Nodes[0]) {
			return
		}
		linkLen += len(normalizeSpace(a.Text()))
	})
	if float64(linkLen)/float64(len(text)) > maxLinkDensity {
		return ""
	}
	return text
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		*parts = append(*parts, n.Data)
		return
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "table", "script", "style", "noscript":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

func insideTable(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "table" {
			return true
		}
	}
	return false
}

// extractLinks returns the segment's links with hrefs resolved against
// base. Fragment, script, mail and phone links are skipped, duplicates
// collapse to their first occurrence and a link without text falls back
// to its raw href.
func extractLinks(sel *goquery.Selection, base *url.URL) []models.Link {
	links := []models.Link{}
	seen := make(map[string]struct{})

	findInclusive(sel, "a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		lower := strings.ToLower(href)
		for _, prefix := range skippedHrefPrefixes {
			if strings.HasPrefix(lower, prefix) {
				return
			}
		}

		abs := resolveURL(base, href)
		if abs == "" {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}

		text := normalizeSpace(a.Text())
		if text == "" {
			text = href
		}
		links = append(links, models.Link{Text: text, Href: abs})
	})
	return links
}

// extractImages returns the segment's images with sources resolved
// against base. Lazy-loaded images often carry their real source in
// data-src. Inline data URIs are skipped.
func extractImages(sel *goquery.Selection, base *url.URL) []models.Image {
	images := []models.Image{}
	seen := make(map[string]struct{})

	findInclusive(sel, "img").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(img.AttrOr("data-src", ""))
		}
		if src == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
			return
		}

		abs := resolveURL(base, src)
		if abs == "" {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}

		images = append(images, models.Image{
			Src: abs,
			Alt: strings.TrimSpace(img.AttrOr("alt", "")),
		})
	})
	return images
}

// extractLists returns the items of top-level lists. Nested lists are
// already part of their parent's items and are not repeated.
func extractLists(sel *goquery.Selection) [][]string {
	lists := [][]string{}
	findInclusive(sel, "ul, ol").Each(func(_ int, list *goquery.Selection) {
		if list.ParentsFiltered("ul, ol").Length() > 0 {
			return
		}
		items := []string{}
		list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			if text := normalizeSpace(li.Text()); text != "" {
				items = append(items, text)
			}
		})
		if len(items) > 0 {
			lists = append(lists, items)
		}
	})
	return lists
}

// extractTables returns the segment's tables as header and row string
// grids. Headers come from the first thead row; all other rows become
// data rows.
func extractTables(sel *goquery.Selection) []models.Table {
	tables := []models.Table{}
	findInclusive(sel, "table").Each(func(_ int, t *goquery.Selection) {
		table := models.Table{Headers: []string{}, Rows: [][]string{}}

		t.Find("thead tr").First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			table.Headers = append(table.Headers, normalizeSpace(cell.Text()))
		})

		t.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if tr.ParentsFiltered("thead").Length() > 0 {
				return
			}
			row := []string{}
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				row = append(row, normalizeSpace(cell.Text()))
			})
			if len(row) > 0 {
				table.Rows = append(table.Rows, row)
			}
		})

		if len(table.Headers) > 0 || len(table.Rows) > 0 {
			tables = append(tables, table)
		}
	})
	return tables
}

// resolveURL makes ref absolute against base, returning "" for
// unresolvable or non-web URLs.
func resolveURL(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	resolved, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
