package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagesift/pagesift/models"
)

// PageCapture is one fetched or rendered document plus the URL it came from.
type PageCapture struct {
	URL  string
	HTML string
}

// RenderOutcome is what the browser path returns: every captured page in
// visit order plus the interaction records that produced them.
type RenderOutcome struct {
	Pages   []PageCapture
	Clicks  []string
	Scrolls int
	Errors  []models.PhaseError
}

// RenderFunc runs the browser path for a request. It is injected by the
// caller so this package never depends on the browser stack.
type RenderFunc func(ctx context.Context, req *FetchRequest) (*RenderOutcome, error)

// Outcome is the selector verdict: which strategy produced the documents,
// the captured pages in visit order, interaction records, and every
// recoverable error met along the way.
type Outcome struct {
	Strategy string
	Pages    []PageCapture
	Clicks   []string
	Scrolls  int
	Errors   []models.PhaseError
}

// Selector implements the static-first fetch policy: try the cheap HTTP
// engine, inspect what came back, and fall back to the browser only when
// the static document cannot stand on its own. There is exactly one
// fallback; a failed render is never retried.
type Selector struct {
	static Engine
	render RenderFunc
}

// NewSelector wires the static engine and the render callback together.
func NewSelector(static Engine, render RenderFunc) *Selector {
	return &Selector{static: static, render: render}
}

// SelectAndFetch resolves req into captured pages. A nil error means at
// least one document was obtained; recoverable problems ride along in
// Outcome.Errors in the order they happened.
func (s *Selector) SelectAndFetch(ctx context.Context, req *FetchRequest) (*Outcome, error) {
	var errs []models.PhaseError
	var staticPage *PageCapture

	res, err := s.static.Fetch(ctx, req)
	switch {
	case err != nil:
		slog.Debug("static fetch failed", "url", req.URL, "error", err)
		errs = append(errs, models.PhaseError{
			Phase:   models.PhaseFetch,
			Message: fmt.Sprintf("static fetch failed: %v", err),
		})
	default:
		doc, perr := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
		if perr != nil {
			errs = append(errs, models.PhaseError{
				Phase:   models.PhaseParse,
				Message: fmt.Sprintf("static document parse failed: %v", perr),
			})
			break
		}
		report := EvaluateRender(doc, res.HTML)
		if !report.NeedsRender {
			slog.Debug("static document accepted", "url", req.URL)
			return &Outcome{
				Strategy: models.FetchStatic,
				Pages:    []PageCapture{{URL: res.FinalURL, HTML: res.HTML}},
				Errors:   errs,
			}, nil
		}
		// Keep the static capture: it is the result of last resort if the
		// browser path fails.
		staticPage = &PageCapture{URL: res.FinalURL, HTML: res.HTML}
		slog.Info("static HTML insufficient, rendering",
			"url", req.URL, "checks", report.Reason())
		errs = append(errs, models.PhaseError{
			Phase:   models.PhaseFallback,
			Message: fmt.Sprintf("static HTML insufficient (%s), rendering with browser", report.Reason()),
		})
	}

	out, rerr := s.render(ctx, req)
	if rerr != nil {
		if staticPage != nil {
			slog.Warn("render failed, keeping static document", "url", req.URL, "error", rerr)
			errs = append(errs, models.PhaseError{
				Phase:   models.PhaseRender,
				Message: fmt.Sprintf("dynamic fetch failed: %v", rerr),
			})
			return &Outcome{
				Strategy: models.FetchStatic,
				Pages:    []PageCapture{*staticPage},
				Errors:   errs,
			}, nil
		}
		return nil, fmt.Errorf("selector: no document obtained for %s: %w", req.URL, rerr)
	}

	errs = append(errs, out.Errors...)
	return &Outcome{
		Strategy: models.FetchDynamic,
		Pages:    out.Pages,
		Clicks:   out.Clicks,
		Scrolls:  out.Scrolls,
		Errors:   errs,
	}, nil
}
