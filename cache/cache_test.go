package cache

import (
	"testing"
	"time"

	"github.com/pagesift/pagesift/models"
)

func TestKey_VariesWithInputs(t *testing.T) {
	base := Key("https://example.com", false, models.StrategyAuto)

	if Key("https://example.com", false, models.StrategyAuto) != base {
		t.Error("key is not deterministic")
	}
	if Key("https://example.com/other", false, models.StrategyAuto) == base {
		t.Error("different URLs must not collide")
	}
	if Key("https://example.com", true, models.StrategyAuto) == base {
		t.Error("interaction flag must change the key")
	}
	if Key("https://example.com", false, models.StrategyScroll) == base {
		t.Error("strategy must change the key")
	}
	if len(base) != 64 {
		t.Errorf("key length = %d, want a hex sha256", len(base))
	}
}

func TestCache_GetSet(t *testing.T) {
	c := New(10, time.Minute)
	result := &models.ScrapeResult{URL: "https://example.com"}

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache reported a hit")
	}

	key := Key("https://example.com", false, models.StrategyAuto)
	c.Set(key, result)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("stored entry not found")
	}
	if got.URL != "https://example.com" {
		t.Errorf("got %+v", got)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(10, 20*time.Millisecond)
	c.Set("k", &models.ScrapeResult{URL: "https://example.com"})

	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry should hit")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestCache_ZeroTTLNeverHits(t *testing.T) {
	c := New(10, 0)
	c.Set("k", &models.ScrapeResult{URL: "https://example.com"})

	time.Sleep(time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("zero TTL should disable the cache")
	}
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(2, time.Minute)
	c.Set("a", &models.ScrapeResult{URL: "https://example.com/a"})
	c.Set("b", &models.ScrapeResult{URL: "https://example.com/b"})
	c.Set("c", &models.ScrapeResult{URL: "https://example.com/c"})

	c.mu.RLock()
	size := len(c.store)
	c.mu.RUnlock()
	if size != 2 {
		t.Errorf("cache size = %d, want the 2 entry cap", size)
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry should survive eviction")
	}
}
