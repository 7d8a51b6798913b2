package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/pagesift/pagesift/config"
	"github.com/pagesift/pagesift/models"
)

// maxRobotsBody caps how much of a robots.txt file is read.
const maxRobotsBody = 512 << 10

// robotsCacheTTL is how long a fetched robots.txt stays cached per host.
const robotsCacheTTL = time.Hour

// robotsEntry is a cached per-host robots.txt. A nil data means the
// file was unreachable or malformed, which allows everything.
type robotsEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// robotsGate checks robots.txt before a scrape. An unreachable or
// malformed robots file fails open; only an explicit disallow blocks
// the scrape.
type robotsGate struct {
	cfg    config.RobotsConfig
	client *http.Client

	mu    sync.RWMutex
	cache map[string]*robotsEntry // keyed by scheme://host
}

func newRobotsGate(cfg config.RobotsConfig) *robotsGate {
	return &robotsGate{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  make(map[string]*robotsEntry),
	}
}

// Allow returns nil when the configured agent may fetch rawURL, and a
// typed error when robots.txt disallows it.
func (g *robotsGate) Allow(ctx context.Context, rawURL string) error {
	if !g.cfg.Respect {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	data := g.hostData(ctx, u)
	if data == nil {
		return nil
	}
	if data.TestAgent(u.RequestURI(), g.cfg.UserAgent) {
		return nil
	}
	return models.NewScrapeError(
		models.ErrCodeRobotsDisallowed,
		fmt.Sprintf("robots.txt disallows scraping %s", rawURL),
		nil,
	)
}

// hostData returns the parsed robots.txt for a URL's host, from cache
// when fresh, fetching otherwise.
func (g *robotsGate) hostData(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	host := u.Scheme + "://" + strings.ToLower(u.Host)

	g.mu.RLock()
	entry, ok := g.cache[host]
	g.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < robotsCacheTTL {
		return entry.data
	}

	data := g.fetch(ctx, host+"/robots.txt")

	g.mu.Lock()
	g.cache[host] = &robotsEntry{data: data, fetchedAt: time.Now()}
	g.mu.Unlock()

	return data
}

// fetch retrieves and parses one robots.txt. Any failure returns nil,
// which callers treat as allow-all.
func (g *robotsGate) fetch(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		slog.Debug("robots.txt unreachable, allowing", "url", robotsURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBody))
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data
}
