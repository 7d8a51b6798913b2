package segment

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagesift/pagesift/models"
)

// ExtractMeta reads page-level metadata from a parsed document. The
// strategy that produced the document is recorded alongside it.
func ExtractMeta(doc *goquery.Document, strategy string) models.Meta {
	m := models.Meta{Strategy: strategy, Language: "en"}

	if title := normalizeSpace(doc.Find("title").First().Text()); title != "" {
		m.Title = title
	} else if og := metaContent(doc, "meta[property='og:title']"); og != "" {
		m.Title = og
	} else {
		m.Title = "Untitled"
	}

	if desc := metaContent(doc, "meta[name='description']"); desc != "" {
		m.Description = desc
	} else {
		m.Description = metaContent(doc, "meta[property='og:description']")
	}

	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		if primary := strings.TrimSpace(strings.SplitN(lang, "-", 2)[0]); primary != "" {
			m.Language = strings.ToLower(primary)
		}
	}

	if canonical, ok := doc.Find("link[rel='canonical']").First().Attr("href"); ok {
		m.Canonical = strings.TrimSpace(canonical)
	}

	return m
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}
