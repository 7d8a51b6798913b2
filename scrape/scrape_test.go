package scrape

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pagesift/pagesift/engine"
	"github.com/pagesift/pagesift/models"
	"github.com/pagesift/pagesift/segment"
)

func newTestOrchestrator() *Orchestrator {
	return &Orchestrator{segmenter: segment.New(nil)}
}

func pageFixture(title, text string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head><body><main><p>%s</p></main></body></html>`, title, text)
}

func TestAssemble_RequestURLLeadsVisitedPages(t *testing.T) {
	o := newTestOrchestrator()
	out := &engine.Outcome{
		Strategy: models.FetchDynamic,
		Pages: []engine.PageCapture{
			{URL: "https://example.com/list", HTML: pageFixture("List", "first page")},
			{URL: "https://example.com/list?page=2", HTML: pageFixture("List", "second page")},
		},
	}

	result := o.assemble("https://example.com/list", out)
	if len(result.Interactions.Pages) != 2 {
		t.Fatalf("pages = %+v", result.Interactions.Pages)
	}
	if result.Interactions.Pages[0] != "https://example.com/list" {
		t.Errorf("first visited page must be the requested URL, got %q", result.Interactions.Pages[0])
	}
	if result.Interactions.Pages[1] != "https://example.com/list?page=2" {
		t.Errorf("second visited page = %q", result.Interactions.Pages[1])
	}
}

func TestAssemble_SectionIDsContinueAcrossPages(t *testing.T) {
	o := newTestOrchestrator()
	twoSections := `<html><body><main><p>Main text.</p></main><footer><p>Footer text.</p></footer></body></html>`
	out := &engine.Outcome{
		Strategy: models.FetchDynamic,
		Pages: []engine.PageCapture{
			{URL: "https://example.com/a", HTML: twoSections},
			{URL: "https://example.com/b", HTML: pageFixture("B", "more text")},
		},
	}

	result := o.assemble("https://example.com/a", out)
	if len(result.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(result.Sections))
	}
	for i, s := range result.Sections {
		want := fmt.Sprintf("section-%d", i)
		if s.ID != want {
			t.Errorf("section %d id = %q, want %q", i, s.ID, want)
		}
	}
	if result.Sections[0].SourceURL != "https://example.com/a" {
		t.Errorf("section 0 source = %q", result.Sections[0].SourceURL)
	}
	if result.Sections[2].SourceURL != "https://example.com/b" {
		t.Errorf("section 2 source = %q", result.Sections[2].SourceURL)
	}
}

func TestAssemble_MetaComesFromFirstPage(t *testing.T) {
	o := newTestOrchestrator()
	out := &engine.Outcome{
		Strategy: models.FetchStatic,
		Pages: []engine.PageCapture{
			{URL: "https://example.com/", HTML: pageFixture("First Title", "alpha")},
			{URL: "https://example.com/two", HTML: pageFixture("Second Title", "beta")},
		},
	}

	result := o.assemble("https://example.com/", out)
	if result.Meta.Title != "First Title" {
		t.Errorf("meta title = %q, want the first page's title", result.Meta.Title)
	}
	if result.Meta.Strategy != models.FetchStatic {
		t.Errorf("meta strategy = %q", result.Meta.Strategy)
	}
}

func TestAssemble_NoPagesStillYieldsMeta(t *testing.T) {
	o := newTestOrchestrator()
	out := &engine.Outcome{Strategy: models.FetchStatic}

	result := o.assemble("https://example.com/", out)
	if result.Meta.Title != "Untitled" || result.Meta.Language != "en" {
		t.Errorf("fallback meta = %+v", result.Meta)
	}
	if result.Meta.Strategy != models.FetchStatic {
		t.Errorf("strategy = %q", result.Meta.Strategy)
	}
	if len(result.Sections) != 0 {
		t.Errorf("sections = %+v", result.Sections)
	}
	if len(result.Interactions.Pages) != 1 || result.Interactions.Pages[0] != "https://example.com/" {
		t.Errorf("pages = %+v", result.Interactions.Pages)
	}
}

func TestAssemble_CarriesInteractionRecords(t *testing.T) {
	o := newTestOrchestrator()
	out := &engine.Outcome{
		Strategy: models.FetchDynamic,
		Pages: []engine.PageCapture{
			{URL: "https://example.com/", HTML: pageFixture("Home", "text")},
		},
		Clicks:  []string{"Tab clicked: Pricing", "Load more clicked (1)"},
		Scrolls: 2,
		Errors: []models.PhaseError{
			{Phase: models.PhaseFallback, Message: "static HTML insufficient"},
		},
	}

	result := o.assemble("https://example.com/", out)
	if len(result.Interactions.Clicks) != 2 || result.Interactions.Scrolls != 2 {
		t.Errorf("interactions = %+v", result.Interactions)
	}
	if len(result.Errors) != 1 || result.Errors[0].Phase != models.PhaseFallback {
		t.Errorf("errors = %+v", result.Errors)
	}
}

func TestAssemble_EmptyCaptureURLFallsBackToRequestURL(t *testing.T) {
	o := newTestOrchestrator()
	out := &engine.Outcome{
		Strategy: models.FetchStatic,
		Pages:    []engine.PageCapture{{URL: "", HTML: pageFixture("Home", "text")}},
	}

	result := o.assemble("https://example.com/", out)
	if len(result.Sections) == 0 {
		t.Fatal("expected sections")
	}
	if result.Sections[0].SourceURL != "https://example.com/" {
		t.Errorf("section source = %q", result.Sections[0].SourceURL)
	}
	if len(result.Interactions.Pages) != 1 {
		t.Errorf("empty capture URL must not add a visited page: %+v", result.Interactions.Pages)
	}
}

func TestCategorize(t *testing.T) {
	typed := models.NewScrapeError(models.ErrCodeRobotsDisallowed, "blocked", nil)

	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"typed error passes through", typed, models.ErrCodeRobotsDisallowed},
		{"deadline", context.DeadlineExceeded, models.ErrCodeTimeout},
		{"wrapped deadline", fmt.Errorf("selector: %w", context.DeadlineExceeded), models.ErrCodeTimeout},
		{"canceled", context.Canceled, models.ErrCodeTimeout},
		{"generic", errors.New("connection reset"), models.ErrCodeFetchFailed},
	}
	for _, tt := range tests {
		var se *models.ScrapeError
		if !errors.As(categorize(tt.err), &se) {
			t.Errorf("%s: categorize did not produce a ScrapeError", tt.name)
			continue
		}
		if se.Code != tt.wantCode {
			t.Errorf("%s: code = %q, want %q", tt.name, se.Code, tt.wantCode)
		}
	}
	if got := categorize(typed); got != typed {
		t.Errorf("typed error was rewrapped: %v", got)
	}
}
