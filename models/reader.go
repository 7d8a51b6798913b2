package models

import "time"

// ReaderRequest is the payload for POST /api/v1/reader.
type ReaderRequest struct {
	// URL is the target page to distill. Required, absolute, http or https.
	URL string `json:"url" binding:"required"`
}

// ReaderResult is the distilled article for POST /api/v1/reader: the main
// body extracted by readability and converted to markdown.
type ReaderResult struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Byline    string    `json:"byline,omitempty"`
	Excerpt   string    `json:"excerpt,omitempty"`
	SiteName  string    `json:"siteName,omitempty"`
	Markdown  string    `json:"markdown"`
	Strategy  string    `json:"strategy"`
	Tokens    TokenInfo `json:"tokens"`
	ScrapedAt time.Time `json:"scrapedAt"`
}

// TokenInfo estimates token counts before and after distillation.
type TokenInfo struct {
	Original       int     `json:"original"`
	Cleaned        int     `json:"cleaned"`
	SavingsPercent float64 `json:"savingsPercent"`
}
