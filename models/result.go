package models

import "time"

// Fetch strategies reported in Meta.Strategy.
const (
	FetchStatic  = "static"
	FetchDynamic = "dynamic"
)

// Phase identifies the pipeline stage that produced a recoverable error.
type Phase string

const (
	PhaseFetch       Phase = "fetch"
	PhaseRender      Phase = "render"
	PhaseInteraction Phase = "interaction"
	PhaseParse       Phase = "parse"
	PhaseFallback    Phase = "fallback"
)

// PhaseError is a recoverable error recorded on the result without
// aborting the scrape. The list on ScrapeResult is append-only and
// preserves encounter order.
type PhaseError struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
}

// ScrapeResult is the response for POST /api/v1/scrape. It is best-effort:
// whatever was fetched and segmented is returned even when some pipeline
// stages failed along the way.
type ScrapeResult struct {
	URL          string       `json:"url"`
	ScrapedAt    time.Time    `json:"scrapedAt"`
	Meta         Meta         `json:"meta"`
	Sections     []Section    `json:"sections"`
	Interactions Interactions `json:"interactions"`
	Errors       []PhaseError `json:"errors"`
}

// Meta holds page-level metadata plus the fetch strategy that produced
// the document ("static" or "dynamic").
type Meta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Canonical   string `json:"canonical,omitempty"`
	Strategy    string `json:"strategy"`
}

// Interactions summarizes what the interaction phases did. Pages always
// starts with the scraped URL; pagination appends each followed page.
type Interactions struct {
	Clicks  []string `json:"clicks"`
	Scrolls int      `json:"scrolls"`
	Pages   []string `json:"pages"`
}

// Section is one classified segment of a page.
type Section struct {
	// ID is "section-<n>" with n strictly increasing across the whole
	// result, including sections from paginated pages.
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Label     string         `json:"label"`
	SourceURL string         `json:"sourceUrl"`
	Content   SectionContent `json:"content"`

	// RawHTML is the segment's outer HTML, capped at 5000 characters.
	RawHTML   string `json:"rawHtml"`
	Truncated bool   `json:"truncated"`
}

// SectionContent is the structured content extracted from a section.
type SectionContent struct {
	Headings []string   `json:"headings"`
	Text     string     `json:"text"`
	Links    []Link     `json:"links"`
	Images   []Image    `json:"images"`
	Lists    [][]string `json:"lists"`
	Tables   []Table    `json:"tables"`
}

// IsEmpty reports whether the section carries no usable content.
func (c *SectionContent) IsEmpty() bool {
	return c.Text == "" && len(c.Headings) == 0 && len(c.Links) == 0 &&
		len(c.Images) == 0 && len(c.Lists) == 0 && len(c.Tables) == 0
}

// Link is a hyperlink extracted from a section.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Image is an image reference extracted from a section.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Table is a simple tabular extraction: header cells plus body rows.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}
