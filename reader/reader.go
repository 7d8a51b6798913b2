// Package reader distills a fetched page into Markdown for LLM and
// terminal consumption. It is the lightweight alternative to full
// segmentation: one clean document instead of typed sections.
package reader

import (
	"log/slog"
	"math"
	nurl "net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	readability "github.com/go-shiori/go-readability"

	"github.com/pagesift/pagesift/models"
)

// minContentLength is the minimum extracted text length (in characters)
// for readability output to be considered valid. Below this threshold
// the algorithm likely missed the main content and the raw HTML is used
// instead.
const minContentLength = 50

// Reader runs the readability-to-Markdown pipeline. The converter is
// created once and reused across requests (goroutine-safe).
type Reader struct {
	md *converter.Converter
}

// New initialises a Reader with a pre-configured Markdown converter.
func New() *Reader {
	return &Reader{md: newMarkdownConverter()}
}

// Convert turns rawHTML into a Markdown reader view. strategy records
// how the HTML was obtained and rides along into the result.
func (r *Reader) Convert(rawHTML, sourceURL, strategy string) (*models.ReaderResult, error) {
	originalTokens := EstimateTokens(rawHTML)

	article := extractArticle(rawHTML, sourceURL)

	markdown, err := toMarkdown(r.md, article.Content, sourceURL)
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeInternal,
			"markdown conversion failed",
			err,
		)
	}

	cleanedTokens := EstimateTokens(markdown)
	savings := 0.0
	if originalTokens > 0 {
		savings = float64(originalTokens-cleanedTokens) / float64(originalTokens) * 100
		savings = math.Round(savings*100) / 100
	}

	return &models.ReaderResult{
		URL:      sourceURL,
		Title:    article.Title,
		Byline:   article.Byline,
		Excerpt:  article.Excerpt,
		SiteName: article.SiteName,
		Markdown: markdown,
		Strategy: strategy,
		Tokens: models.TokenInfo{
			Original:       originalTokens,
			Cleaned:        cleanedTokens,
			SavingsPercent: savings,
		},
		ScrapedAt: time.Now().UTC(),
	}, nil
}

// extractArticle runs the Mozilla Readability algorithm on rawHTML.
// The reader must never fail just because readability choked, so every
// failure mode falls back to the raw HTML.
func extractArticle(rawHTML, sourceURL string) readability.Article {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source URL, falling back to raw HTML",
			"url", sourceURL, "error", err,
		)
		return fallbackArticle(rawHTML)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("readability: extraction failed, falling back to raw HTML",
			"url", sourceURL, "error", err,
		)
		return fallbackArticle(rawHTML)
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Warn("readability: extracted content too short, falling back to raw HTML",
			"url", sourceURL, "length", len(article.TextContent),
		)
		return fallbackArticle(rawHTML)
	}

	return article
}

// fallbackArticle wraps raw HTML into an Article so the pipeline can
// proceed uniformly regardless of whether readability succeeded.
func fallbackArticle(rawHTML string) readability.Article {
	return readability.Article{
		Content:     rawHTML,
		TextContent: rawHTML,
	}
}
