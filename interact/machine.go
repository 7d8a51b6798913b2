// Package interact drives dynamic pages through a fixed sequence of
// interaction phases: activating tabs, clicking load-more buttons,
// scrolling for lazy content and following pagination links. Every phase
// is bounded by the same depth and per-action timeout budget, so a hostile
// or broken page can never keep a session busy indefinitely.
package interact

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pagesift/pagesift/models"
	"github.com/pagesift/pagesift/simhash"
)

const maxTextPreview = 50

// Settle pauses between actions, giving the page time to react.
var (
	tabSwapDelay     = 500 * time.Millisecond
	loadMoreSettle   = 2 * time.Second
	scrollSettle     = 2 * time.Second
	paginationSettle = time.Second
)

// Budget bounds one run of the machine. It is copied into every phase so
// no phase can stretch another's allowance.
type Budget struct {
	// Depth bounds clicks, scrolls and followed pages per phase.
	Depth int

	// ActionTimeout bounds each individual click or navigation.
	ActionTimeout time.Duration
}

// Capture is one page snapshot taken during the interaction phases.
type Capture struct {
	URL  string
	HTML string
}

// Report accumulates everything the phases did to a page: the clicks
// performed, scroll count, page snapshots in visit order and any
// recoverable errors.
type Report struct {
	Clicks  []string
	Scrolls int
	Pages   []Capture
	Errors  []models.PhaseError
}

type phaseSpec struct {
	name string
	only models.InteractionStrategy
	run  func(ctx context.Context, s Session, b Budget, rep *Report) error
}

// phasePlan is the machine's state sequence. Phases always run in this
// order; the strategy decides which of them are active.
var phasePlan = []phaseSpec{
	{name: "tabs", only: models.StrategyTabs, run: runTabs},
	{name: "load more", only: models.StrategyLoadMore, run: runLoadMore},
	{name: "scroll", only: models.StrategyScroll, run: runScroll},
	{name: "pagination", only: models.StrategyPagination, run: runPagination},
}

// Run drives the enabled phases against a live session. A phase that fails
// records an interaction error and is abandoned; later phases still run.
// The report always ends with at least one page snapshot unless even
// capturing the document fails.
func Run(ctx context.Context, s Session, strategy models.InteractionStrategy, b Budget) *Report {
	if b.Depth <= 0 {
		b.Depth = 3
	}
	if b.ActionTimeout <= 0 {
		b.ActionTimeout = 5 * time.Second
	}

	rep := &Report{}
	for _, ph := range phasePlan {
		if ctx.Err() != nil {
			break
		}
		if !enabled(strategy, ph.only) {
			continue
		}
		if err := ph.run(ctx, s, b, rep); err != nil {
			rep.Errors = append(rep.Errors, models.PhaseError{
				Phase:   models.PhaseInteraction,
				Message: fmt.Sprintf("%s phase: %v", ph.name, err),
			})
		}
	}
	if len(rep.Pages) == 0 {
		capture(s, rep)
	}
	return rep
}

func enabled(strategy, phase models.InteractionStrategy) bool {
	switch strategy {
	case models.StrategyAuto, models.StrategyAll, "":
		return true
	default:
		return strategy == phase
	}
}

// runTabs clicks through the tabs of the first tab group found, revealing
// the content behind each panel.
func runTabs(ctx context.Context, s Session, b Budget, rep *Report) error {
	for _, loc := range tabLocators {
		els := s.Query(loc.selector)
		if len(els) == 0 {
			continue
		}
		clicked := 0
		for _, el := range els {
			if clicked >= b.Depth {
				break
			}
			text := preview(el.Text())
			if err := clickWithTimeout(ctx, el, b.ActionTimeout); err != nil {
				return fmt.Errorf("tab click %q: %w", text, err)
			}
			rep.Clicks = append(rep.Clicks, fmt.Sprintf("Tab clicked: %s - %s", loc.selector, text))
			clicked++
			pause(ctx, tabSwapDelay)
		}
		if clicked > 0 {
			return nil
		}
	}
	return nil
}

// runLoadMore repeatedly clicks a load-more control while the click keeps
// growing the DOM. A click that adds no nodes is still recorded, but ends
// the phase.
func runLoadMore(ctx context.Context, s Session, b Budget, rep *Report) error {
	for attempt := 0; attempt < b.Depth; attempt++ {
		el, _ := findFirstVisible(s, loadMoreLocators)
		if el == nil {
			return nil
		}
		text := preview(el.Text())
		before := s.NodeCount()
		if err := clickWithTimeout(ctx, el, b.ActionTimeout); err != nil {
			return fmt.Errorf("load more click %q: %w", text, err)
		}
		rep.Clicks = append(rep.Clicks, fmt.Sprintf("Load more clicked (%d): %s", attempt+1, text))
		pause(ctx, loadMoreSettle)
		if s.NodeCount() <= before {
			return nil
		}
	}
	return nil
}

// runScroll scrolls to the bottom of the document while the scroll height
// keeps growing, triggering lazy loaders and infinite feeds.
func runScroll(ctx context.Context, s Session, b Budget, rep *Report) error {
	previous := 0
	for attempt := 0; attempt < b.Depth; attempt++ {
		height := s.ScrollHeight()
		if previous > 0 && height <= previous {
			return nil
		}
		previous = height
		if err := s.ScrollToBottom(); err != nil {
			return fmt.Errorf("scroll to bottom: %w", err)
		}
		// Some infinite feeds only react to keyboard events.
		_ = s.PressEnd()
		rep.Scrolls++
		pause(ctx, scrollSettle)
	}
	return nil
}

// runPagination snapshots the current page, then follows next-page links,
// snapshotting each new page. It stops when no link is found, when a link
// leads back to a visited address, when the new page carries the same
// content as the previous one, or after the depth budget is spent.
func runPagination(ctx context.Context, s Session, b Budget, rep *Report) error {
	if !capture(s, rep) {
		return nil
	}
	visited := map[string]bool{normalizeURL(s.URL()): true}
	for follow := 0; follow < b.Depth; follow++ {
		el, _ := findFirstVisible(s, paginationLocators)
		if el == nil {
			return nil
		}
		current := s.URL()
		next, err := followWithTimeout(ctx, s, el, b.ActionTimeout)
		if err != nil {
			return fmt.Errorf("follow next link: %w", err)
		}
		if next == current || visited[normalizeURL(next)] {
			return nil
		}
		visited[normalizeURL(next)] = true
		pause(ctx, paginationSettle)
		if !capture(s, rep) {
			return nil
		}
		// Same document under a new address means the pagination loops.
		// Drop the copy and stop following.
		n := len(rep.Pages)
		if n >= 2 && simhash.DuplicateDocuments(rep.Pages[n-2].HTML, rep.Pages[n-1].HTML) {
			rep.Pages = rep.Pages[:n-1]
			return nil
		}
	}
	return nil
}

// capture appends the session's current document to the report. A failed
// capture is recorded as a render error because it means the browser could
// not hand back the page at all.
func capture(s Session, rep *Report) bool {
	html, err := s.HTML()
	if err != nil {
		rep.Errors = append(rep.Errors, models.PhaseError{
			Phase:   models.PhaseRender,
			Message: fmt.Sprintf("page capture failed: %v", err),
		})
		return false
	}
	rep.Pages = append(rep.Pages, Capture{URL: s.URL(), HTML: html})
	return true
}

func clickWithTimeout(ctx context.Context, el Element, timeout time.Duration) error {
	actionCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return el.Click(actionCtx)
}

func followWithTimeout(ctx context.Context, s Session, el Element, timeout time.Duration) (string, error) {
	actionCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.FollowLink(actionCtx, el)
}

// pause sleeps for d or until ctx is canceled, whichever comes first.
func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func normalizeURL(u string) string {
	return strings.TrimRight(u, "/")
}

// preview collapses whitespace and caps the text used in click records.
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= maxTextPreview {
		return text
	}
	return string([]rune(text)[:maxTextPreview])
}
