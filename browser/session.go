package browser

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/pagesift/pagesift/interact"
	"github.com/pagesift/pagesift/models"
)

// contentLandmarks are the selectors whose appearance means the page has
// rendered its main content.
var contentLandmarks = []string{
	"main",
	"article",
	"[role='main']",
	"#content",
	".content",
	"#main",
}

// Session is a checked-out browser page navigated to a target URL. It
// implements interact.Session so the interaction phases can drive it.
//
// Lifecycle:
//
//	s, err := eng.Open(ctx, url)   // acquire page, mount hijack, navigate
//	defer s.Close(ok)              // about:blank + return page to pool
//	s.WaitReady(ctx)               // bounded render wait cascade
type Session struct {
	eng    *Engine
	handle *pageHandle
	raw    *rod.Page // unbound reference, used for cleanup and polling
	page   *rod.Page // bound to the request context
	router *rod.HijackRouter
	navURL string
}

// Open borrows a page from the pool, mounts the resource blocker and
// navigates to rawURL. The hijack router must be mounted before
// navigation or the blocked resources of the first load slip through.
func (e *Engine) Open(ctx context.Context, rawURL string) (*Session, error) {
	h, err := e.pool.Get(ctx)
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			err,
		)
	}

	router := setupHijack(h.page, e.cfg.BlockedResourceTypes)
	p := h.page.Context(ctx)

	// Same Accept-Language as the static fetch, so both strategies see
	// the same localized content.
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
		}),
	}.Call(p)

	if err := p.Navigate(rawURL); err != nil {
		if router != nil {
			_ = router.Stop()
		}
		_ = h.page.Navigate("about:blank")
		e.pool.Put(h, false)
		return nil, categorizeError(err, "navigation to target URL failed")
	}

	return &Session{
		eng:    e,
		handle: h,
		raw:    h.page,
		page:   p,
		router: router,
		navURL: rawURL,
	}, nil
}

// WaitReady runs the render wait cascade: let the DOM stop mutating,
// then poll briefly for a content landmark, then pause once more so
// late scripts can settle. Every stage is capped and none is fatal;
// whatever DOM exists afterwards is what gets extracted.
func (s *Session) WaitReady(ctx context.Context) {
	idleCtx, cancel := context.WithTimeout(ctx, s.eng.fetchCfg.NetworkIdleTimeout)
	if err := s.raw.Context(idleCtx).WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("render wait: DOM did not stabilize, proceeding", "error", err)
	}
	cancel()

	s.waitLandmark(ctx)
	sleepCtx(ctx, s.eng.fetchCfg.SettleDelay)
}

// waitLandmark polls for any known content landmark until the landmark
// budget runs out. Pages without landmarks simply spend the budget.
func (s *Session) waitLandmark(ctx context.Context) {
	deadline := time.Now().Add(s.eng.fetchCfg.LandmarkTimeout)
	for ctx.Err() == nil && time.Now().Before(deadline) {
		for _, sel := range contentLandmarks {
			if has, _, err := s.raw.Has(sel); err == nil && has {
				return
			}
		}
		sleepCtx(ctx, 200*time.Millisecond)
	}
}

// URL returns the page's current address, falling back to the address
// originally navigated to.
func (s *Session) URL() string {
	if u := evalStringOrEmpty(s.page, `() => window.location.href`); u != "" {
		return u
	}
	return s.navURL
}

// HTML returns the serialized live DOM.
func (s *Session) HTML() (string, error) {
	html, err := s.page.HTML()
	if err != nil {
		return "", categorizeError(err, "failed to extract page HTML")
	}
	return html, nil
}

// Query returns all elements matching the CSS selector, empty on failure.
func (s *Session) Query(selector string) []interact.Element {
	els, err := s.page.Elements(selector)
	if err != nil {
		return nil
	}
	out := make([]interact.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &pageElement{el: el})
	}
	return out
}

// NodeCount returns the number of DOM nodes on the page, 0 on failure.
func (s *Session) NodeCount() int {
	return evalInt(s.page, `() => document.querySelectorAll('*').length`)
}

// ScrollHeight returns the document scroll height, 0 on failure.
func (s *Session) ScrollHeight() int {
	return evalInt(s.page, `() => document.body.scrollHeight`)
}

// ScrollToBottom scrolls the viewport to the end of the document.
func (s *Session) ScrollToBottom() error {
	_, err := s.page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

// PressEnd sends an End keypress to the page.
func (s *Session) PressEnd() error {
	return s.page.Keyboard.Press(input.End)
}

// FollowLink clicks el and waits for the resulting navigation to settle,
// returning the page's new address. Single-page apps may swap content
// without a load event; the DOM-stable wait covers those.
func (s *Session) FollowLink(ctx context.Context, el interact.Element) (string, error) {
	if err := el.Click(ctx); err != nil {
		return "", err
	}
	p := s.page.Context(ctx)
	if err := p.WaitLoad(); err != nil {
		if ctx.Err() != nil {
			return "", categorizeError(ctx.Err(), "navigation after click timed out")
		}
		slog.Debug("follow link: load wait did not settle", "error", err)
	}
	_ = p.WaitDOMStable(300*time.Millisecond, 0.1)
	return s.URL(), nil
}

// Close parks the page on about:blank and returns it to the pool.
// ok reports whether the session's work succeeded and feeds the page's
// health score. The cleanup uses the unbound page reference so it works
// even after the request context has expired.
func (s *Session) Close(ok bool) {
	if s.router != nil {
		_ = s.router.Stop()
	}
	if err := s.raw.Navigate("about:blank"); err != nil {
		slog.Warn("cleanup: failed to navigate to about:blank", "error", err)
		ok = false
	}
	s.eng.pool.Put(s.handle, ok)
}

// pageElement adapts a live page element to interact.Element.
type pageElement struct {
	el *rod.Element
}

func (e *pageElement) Text() string {
	t, err := e.el.Text()
	if err != nil {
		return ""
	}
	return t
}

func (e *pageElement) Visible() bool {
	v, err := e.el.Visible()
	return err == nil && v
}

func (e *pageElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// evalStringOrEmpty evaluates a JS expression and returns the string
// result, swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func evalInt(page *rod.Page, js string) int {
	res, err := page.Eval(js)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders
// type (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// categorizeError wraps raw browser errors into typed ScrapeErrors so
// callers can map them to appropriate responses.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeFetchFailed, msg, err)
	}
}
