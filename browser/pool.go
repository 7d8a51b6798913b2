package browser

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"

	"github.com/pagesift/pagesift/config"
	"github.com/pagesift/pagesift/models"
)

// pageHandle wraps a pooled page with health tracking metadata. Pages
// accumulate an error score over their lifetime; unhealthy, old or
// heavily used pages are retired instead of being reused.
type pageHandle struct {
	page    *rod.Page
	created time.Time

	mu       sync.Mutex
	errScore float64
	useCount int
}

func (h *pageHandle) recordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.useCount++
	h.errScore = math.Max(0, h.errScore-0.5)
}

func (h *pageHandle) recordFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.useCount++
	h.errScore += 1.0
}

func (h *pageHandle) shouldRetire(cfg config.PoolConfig) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.errScore >= float64(cfg.MaxErrScore) {
		return true
	}
	if h.useCount >= cfg.MaxUses {
		return true
	}
	return time.Since(h.created) >= cfg.MaxAge
}

// pagePool is a bounded pool of browser pages with health scoring.
// Pages are created lazily up to MaxPages; a retired page is destroyed
// and replaced with a fresh one so waiters never starve.
type pagePool struct {
	cfg     config.PoolConfig
	factory func() (*rod.Page, error)

	idle    chan *pageHandle
	mu      sync.Mutex
	live    map[*pageHandle]struct{}
	closed  bool
	inUse   atomic.Int32
	retired atomic.Int64
}

func newPagePool(cfg config.PoolConfig, factory func() (*rod.Page, error)) *pagePool {
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	return &pagePool{
		cfg:     cfg,
		factory: factory,
		idle:    make(chan *pageHandle, cfg.MaxPages),
		live:    make(map[*pageHandle]struct{}),
	}
}

// Get acquires a page handle. It reuses an idle page when one is
// available, creates a new one while under capacity, and otherwise
// blocks until a page is returned or ctx expires.
func (p *pagePool) Get(ctx context.Context) (*pageHandle, error) {
	select {
	case h := <-p.idle:
		p.inUse.Add(1)
		return h, nil
	default:
	}

	p.mu.Lock()
	if len(p.live) < p.cfg.MaxPages {
		h, err := p.createLocked()
		p.mu.Unlock()
		if err != nil {
			return nil, err
		}
		p.inUse.Add(1)
		return h, nil
	}
	p.mu.Unlock()

	select {
	case h := <-p.idle:
		p.inUse.Add(1)
		return h, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put returns a page to the pool, recording whether its checkout ended
// well. A page that crossed any retirement threshold is destroyed and
// replaced with a fresh one.
func (p *pagePool) Put(h *pageHandle, success bool) {
	p.inUse.Add(-1)

	if success {
		h.recordSuccess()
	} else {
		h.recordFailure()
	}

	p.mu.Lock()
	if p.closed {
		delete(p.live, h)
		p.mu.Unlock()
		_ = h.page.Close()
		return
	}
	p.mu.Unlock()

	if h.shouldRetire(p.cfg) {
		h.mu.Lock()
		slog.Debug("pool: retiring page",
			"uses", h.useCount, "errScore", h.errScore, "age", time.Since(h.created))
		h.mu.Unlock()
		p.retired.Add(1)
		p.destroy(h)

		p.mu.Lock()
		replacement, err := p.createLocked()
		p.mu.Unlock()
		if err != nil {
			slog.Warn("pool: failed to replace retired page", "error", err)
			return
		}
		p.idle <- replacement
		return
	}

	p.idle <- h
}

// Stats returns a snapshot of the pool's current state.
func (p *pagePool) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages: p.cfg.MaxPages,
		InUse:    int(p.inUse.Load()),
		Idle:     len(p.idle),
		Retired:  int(p.retired.Load()),
	}
}

// Stop closes every tracked page. Pages checked out at the time of the
// call are closed when they come back.
func (p *pagePool) Stop() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

drain:
	for {
		select {
		case h := <-p.idle:
			p.destroy(h)
		default:
			break drain
		}
	}

	p.mu.Lock()
	for h := range p.live {
		_ = h.page.Close()
		delete(p.live, h)
	}
	p.mu.Unlock()
}

// createLocked creates a page and starts tracking it. Caller holds p.mu.
func (p *pagePool) createLocked() (*pageHandle, error) {
	page, err := p.factory()
	if err != nil {
		return nil, err
	}
	h := &pageHandle{page: page, created: time.Now()}
	p.live[h] = struct{}{}
	return h, nil
}

func (p *pagePool) destroy(h *pageHandle) {
	p.mu.Lock()
	delete(p.live, h)
	p.mu.Unlock()
	_ = h.page.Close()
}
