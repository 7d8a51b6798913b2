package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pagesift/pagesift/models"
)

type fakeEngine struct {
	res   *FetchResult
	err   error
	calls int
}

func (f *fakeEngine) Name() string { return "static" }

func (f *fakeEngine) Fetch(_ context.Context, _ *FetchRequest) (*FetchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func staticResult(html string) *FetchResult {
	return &FetchResult{
		HTML:       html,
		StatusCode: 200,
		FinalURL:   "https://example.com/docs",
		EngineName: "static",
	}
}

func spaShell() string {
	return pageWithBody(`<div id="root"></div>`)
}

func TestSelectAndFetch_AcceptsServerRenderedPage(t *testing.T) {
	static := &fakeEngine{res: staticResult(pageWithBody(richBody()))}
	renderCalls := 0
	sel := NewSelector(static, func(_ context.Context, _ *FetchRequest) (*RenderOutcome, error) {
		renderCalls++
		return &RenderOutcome{}, nil
	})

	out, err := sel.SelectAndFetch(context.Background(), &FetchRequest{URL: "https://example.com/docs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Strategy != models.FetchStatic {
		t.Errorf("strategy = %q, want %q", out.Strategy, models.FetchStatic)
	}
	if renderCalls != 0 {
		t.Errorf("render was called %d times for a usable static page", renderCalls)
	}
	if static.calls != 1 {
		t.Errorf("static engine fetched %d times, want exactly one attempt", static.calls)
	}
	if len(out.Pages) != 1 || out.Pages[0].URL != "https://example.com/docs" {
		t.Errorf("unexpected pages: %+v", out.Pages)
	}
	if len(out.Errors) != 0 {
		t.Errorf("expected no recoverable errors, got %+v", out.Errors)
	}
}

func TestSelectAndFetch_FallsBackForShellPage(t *testing.T) {
	static := &fakeEngine{res: staticResult(spaShell())}
	rendered := pageWithBody(richBody())
	sel := NewSelector(static, func(_ context.Context, req *FetchRequest) (*RenderOutcome, error) {
		return &RenderOutcome{Pages: []PageCapture{{URL: req.URL, HTML: rendered}}}, nil
	})

	out, err := sel.SelectAndFetch(context.Background(), &FetchRequest{URL: "https://example.com/app"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Strategy != models.FetchDynamic {
		t.Errorf("strategy = %q, want %q", out.Strategy, models.FetchDynamic)
	}
	if len(out.Pages) != 1 || out.Pages[0].HTML != rendered {
		t.Errorf("expected the rendered page, got %+v", out.Pages)
	}
	if len(out.Errors) != 1 || out.Errors[0].Phase != models.PhaseFallback {
		t.Fatalf("expected a single fallback record, got %+v", out.Errors)
	}
	if !strings.Contains(out.Errors[0].Message, "spa-root") {
		t.Errorf("fallback record should name the checks that fired: %q", out.Errors[0].Message)
	}
}

func TestSelectAndFetch_RenderFailureKeepsStaticPage(t *testing.T) {
	shell := spaShell()
	static := &fakeEngine{res: staticResult(shell)}
	sel := NewSelector(static, func(_ context.Context, _ *FetchRequest) (*RenderOutcome, error) {
		return nil, errors.New("browser pool exhausted")
	})

	out, err := sel.SelectAndFetch(context.Background(), &FetchRequest{URL: "https://example.com/app"})
	if err != nil {
		t.Fatalf("a failed render with a static page in hand must not fail the scrape: %v", err)
	}
	if out.Strategy != models.FetchStatic {
		t.Errorf("strategy = %q, want %q", out.Strategy, models.FetchStatic)
	}
	if len(out.Pages) != 1 || out.Pages[0].HTML != shell {
		t.Errorf("expected the static shell to survive, got %+v", out.Pages)
	}
	if len(out.Errors) != 2 {
		t.Fatalf("expected fallback and render records, got %+v", out.Errors)
	}
	if out.Errors[0].Phase != models.PhaseFallback || out.Errors[1].Phase != models.PhaseRender {
		t.Errorf("unexpected error phases: %+v", out.Errors)
	}
}

func TestSelectAndFetch_StaticFailureEscalatesToRender(t *testing.T) {
	static := &fakeEngine{err: errors.New("connection refused")}
	rendered := pageWithBody(richBody())
	sel := NewSelector(static, func(_ context.Context, req *FetchRequest) (*RenderOutcome, error) {
		return &RenderOutcome{Pages: []PageCapture{{URL: req.URL, HTML: rendered}}}, nil
	})

	out, err := sel.SelectAndFetch(context.Background(), &FetchRequest{URL: "https://example.com/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Strategy != models.FetchDynamic {
		t.Errorf("strategy = %q, want %q", out.Strategy, models.FetchDynamic)
	}
	if len(out.Errors) != 1 || out.Errors[0].Phase != models.PhaseFetch {
		t.Errorf("expected a single fetch record, got %+v", out.Errors)
	}
}

func TestSelectAndFetch_FailsOnlyWithoutAnyDocument(t *testing.T) {
	static := &fakeEngine{err: errors.New("connection refused")}
	sel := NewSelector(static, func(_ context.Context, _ *FetchRequest) (*RenderOutcome, error) {
		return nil, errors.New("browser launch failed")
	})

	out, err := sel.SelectAndFetch(context.Background(), &FetchRequest{URL: "https://example.com/"})
	if err == nil {
		t.Fatal("expected an error when both strategies fail")
	}
	if out != nil {
		t.Errorf("expected no outcome, got %+v", out)
	}
	if !strings.Contains(err.Error(), "no document obtained") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestSelectAndFetch_CarriesInteractionRecords(t *testing.T) {
	static := &fakeEngine{res: staticResult(spaShell())}
	sel := NewSelector(static, func(_ context.Context, req *FetchRequest) (*RenderOutcome, error) {
		return &RenderOutcome{
			Pages: []PageCapture{
				{URL: req.URL, HTML: pageWithBody(richBody())},
				{URL: req.URL + "?page=2", HTML: pageWithBody(richBody())},
			},
			Clicks:  []string{"Tab clicked: Pricing"},
			Scrolls: 3,
			Errors: []models.PhaseError{
				{Phase: models.PhaseInteraction, Message: "load more phase aborted: click timed out"},
			},
		}, nil
	})

	out, err := sel.SelectAndFetch(context.Background(), &FetchRequest{URL: "https://example.com/app"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Pages) != 2 {
		t.Errorf("expected both captured pages, got %d", len(out.Pages))
	}
	if len(out.Clicks) != 1 || out.Scrolls != 3 {
		t.Errorf("interaction records lost: clicks=%v scrolls=%d", out.Clicks, out.Scrolls)
	}
	if len(out.Errors) != 2 {
		t.Fatalf("expected fallback plus interaction records, got %+v", out.Errors)
	}
	if out.Errors[0].Phase != models.PhaseFallback || out.Errors[1].Phase != models.PhaseInteraction {
		t.Errorf("unexpected error order: %+v", out.Errors)
	}
}
