// Package scrape ties the fetch, interaction and segmentation stages
// into one orchestrated scrape with append-only error recording: every
// recoverable problem lands in the result's error list while the scrape
// carries on with whatever it has.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagesift/pagesift/browser"
	"github.com/pagesift/pagesift/config"
	"github.com/pagesift/pagesift/engine"
	"github.com/pagesift/pagesift/interact"
	"github.com/pagesift/pagesift/models"
	"github.com/pagesift/pagesift/segment"
)

// Orchestrator runs whole scrapes: robots gate, strategy selection,
// optional interactions, segmentation and result assembly. It is safe
// for concurrent use.
type Orchestrator struct {
	selector  *engine.Selector
	segmenter *segment.Segmenter
	robots    *robotsGate
	budget    time.Duration
}

// New wires an Orchestrator from the configuration and a running
// browser engine.
func New(cfg *config.Config, b *browser.Engine) *Orchestrator {
	static := engine.NewStatic(cfg.Fetch.StaticTimeout, cfg.Fetch.MaxBodyBytes, cfg.Browser.DefaultProxy)
	return &Orchestrator{
		selector:  engine.NewSelector(static, newRenderFunc(b, cfg.Interact)),
		segmenter: segment.New(cfg.Segment.NoiseSelectors),
		robots:    newRobotsGate(cfg.Robots),
		budget:    cfg.Fetch.RequestBudget,
	}
}

// newRenderFunc adapts the browser engine and the interaction machine
// into the selector's render callback.
func newRenderFunc(b *browser.Engine, icfg config.InteractConfig) engine.RenderFunc {
	return func(ctx context.Context, req *engine.FetchRequest) (*engine.RenderOutcome, error) {
		s, err := b.Open(ctx, req.URL)
		if err != nil {
			return nil, err
		}
		ok := false
		defer func() { s.Close(ok) }()

		s.WaitReady(ctx)

		out := &engine.RenderOutcome{}
		if req.EnableInteractions {
			rep := interact.Run(ctx, s, req.InteractionStrategy, interact.Budget{
				Depth:         icfg.MaxDepth,
				ActionTimeout: icfg.ActionTimeout,
			})
			out.Clicks = rep.Clicks
			out.Scrolls = rep.Scrolls
			out.Errors = rep.Errors
			for _, pg := range rep.Pages {
				out.Pages = append(out.Pages, engine.PageCapture{URL: pg.URL, HTML: pg.HTML})
			}
		} else {
			html, herr := s.HTML()
			if herr != nil {
				return nil, herr
			}
			out.Pages = append(out.Pages, engine.PageCapture{URL: s.URL(), HTML: html})
		}

		if len(out.Pages) == 0 {
			return nil, models.NewScrapeError(
				models.ErrCodeBrowserCrash,
				"browser returned no document",
				nil,
			)
		}
		ok = true
		return out, nil
	}
}

// Scrape runs one scrape end to end. A non-nil error means nothing
// usable was produced; partial results come back with a nil error and
// the problems recorded in the result's error list.
func (o *Orchestrator) Scrape(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResult, error) {
	req.Defaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.budget)
	defer cancel()

	start := time.Now()
	if err := o.robots.Allow(ctx, req.URL); err != nil {
		return nil, err
	}

	outcome, err := o.selector.SelectAndFetch(ctx, &engine.FetchRequest{
		URL:                 req.URL,
		EnableInteractions:  req.EnableInteractions,
		InteractionStrategy: req.InteractionStrategy,
	})
	if err != nil {
		return nil, categorize(err)
	}

	result := o.assemble(req.URL, outcome)
	slog.Info("scrape complete",
		"url", req.URL,
		"strategy", result.Meta.Strategy,
		"sections", len(result.Sections),
		"pages", len(result.Interactions.Pages),
		"errors", len(result.Errors),
		"duration", time.Since(start),
	)
	return result, nil
}

// assemble parses every captured page, segments it and folds the pieces
// into one result. Section ids continue across pages, the scraped URL
// is always the first entry of the visited pages and a page that fails
// to parse costs an error entry instead of the whole scrape.
func (o *Orchestrator) assemble(requestURL string, outcome *engine.Outcome) *models.ScrapeResult {
	result := &models.ScrapeResult{
		URL:       requestURL,
		ScrapedAt: time.Now().UTC(),
		Sections:  []models.Section{},
		Interactions: models.Interactions{
			Clicks:  []string{},
			Scrolls: outcome.Scrolls,
			Pages:   []string{requestURL},
		},
		Errors: []models.PhaseError{},
	}
	result.Interactions.Clicks = append(result.Interactions.Clicks, outcome.Clicks...)
	result.Errors = append(result.Errors, outcome.Errors...)

	metaSet := false
	for _, page := range outcome.Pages {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
		if err != nil {
			result.Errors = append(result.Errors, models.PhaseError{
				Phase:   models.PhaseParse,
				Message: fmt.Sprintf("document parse failed for %s: %v", page.URL, err),
			})
			continue
		}

		if !metaSet {
			result.Meta = segment.ExtractMeta(doc, outcome.Strategy)
			metaSet = true
		}

		pageURL := page.URL
		if pageURL == "" {
			pageURL = requestURL
		}
		sections := o.segmenter.Segment(doc, pageURL, len(result.Sections))
		result.Sections = append(result.Sections, sections...)

		if pageURL != requestURL && !containsString(result.Interactions.Pages, pageURL) {
			result.Interactions.Pages = append(result.Interactions.Pages, pageURL)
		}
	}

	if !metaSet {
		result.Meta = models.Meta{Title: "Untitled", Language: "en", Strategy: outcome.Strategy}
	}
	return result
}

// FetchPage runs the robots gate and strategy selection for rawURL and
// returns the first captured document, without interactions. The reader
// endpoint uses this to get one clean document to convert.
func (o *Orchestrator) FetchPage(ctx context.Context, rawURL string) (*engine.PageCapture, string, error) {
	if err := models.ValidateURL(rawURL); err != nil {
		return nil, "", err
	}

	ctx, cancel := context.WithTimeout(ctx, o.budget)
	defer cancel()

	if err := o.robots.Allow(ctx, rawURL); err != nil {
		return nil, "", err
	}

	outcome, err := o.selector.SelectAndFetch(ctx, &engine.FetchRequest{URL: rawURL})
	if err != nil {
		return nil, "", categorize(err)
	}
	if len(outcome.Pages) == 0 {
		return nil, "", models.NewScrapeError(models.ErrCodeInternal, "no document captured", nil)
	}
	return &outcome.Pages[0], outcome.Strategy, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// categorize maps raw failures to typed scrape errors, passing already
// typed errors through untouched.
func categorize(err error) error {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, "scrape timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeFetchFailed, "scrape failed", err)
	}
}
