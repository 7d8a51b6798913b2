package reader

import (
	"strings"
	"testing"
)

const articleFixture = `<!DOCTYPE html>
<html><head><title>Growing Guide</title>
<script>window.trackingPixel = "abc123";</script>
</head><body>
<article>
<h1>Growing Guide</h1>
<p>Hardy perennial vegetables survive the winter and come back on their own
every spring, which makes them the lowest-effort corner of any kitchen garden.
Most of them want a deep initial planting and a thick layer of mulch before
the first hard frost arrives.</p>
<p>Timing matters more than variety. See the <a href="/docs/mulching">mulching
guide</a> for how deep to cover each crop once the soil cools down.</p>
<ul><li>Asparagus</li><li>Rhubarb</li><li>Sorrel</li></ul>
</article>
</body></html>`

func TestConvert_ProducesMarkdown(t *testing.T) {
	res, err := New().Convert(articleFixture, "https://example.com/guide", "static")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(res.Markdown, "Hardy perennial vegetables") {
		t.Errorf("prose missing from markdown:\n%s", res.Markdown)
	}
	if !strings.Contains(res.Markdown, "Asparagus") {
		t.Errorf("list items missing from markdown:\n%s", res.Markdown)
	}
	if strings.Contains(res.Markdown, "trackingPixel") {
		t.Error("script content leaked into markdown")
	}
	if res.URL != "https://example.com/guide" || res.Strategy != "static" {
		t.Errorf("result envelope = url %q strategy %q", res.URL, res.Strategy)
	}
	if res.ScrapedAt.IsZero() {
		t.Error("scraped timestamp not set")
	}
}

func TestConvert_ResolvesRelativeLinks(t *testing.T) {
	res, err := New().Convert(articleFixture, "https://example.com/guide", "static")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Markdown, "https://example.com/docs/mulching") {
		t.Errorf("relative link not resolved:\n%s", res.Markdown)
	}
}

func TestConvert_ReportsTokenSavings(t *testing.T) {
	res, err := New().Convert(articleFixture, "https://example.com/guide", "static")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Tokens.Original <= 0 || res.Tokens.Cleaned <= 0 {
		t.Fatalf("token counts = %+v", res.Tokens)
	}
	if res.Tokens.Cleaned >= res.Tokens.Original {
		t.Errorf("markdown should be smaller than the page: %+v", res.Tokens)
	}
	if res.Tokens.SavingsPercent <= 0 {
		t.Errorf("savings = %v", res.Tokens.SavingsPercent)
	}
}

func TestConvert_ShortContentFallsBackToRawHTML(t *testing.T) {
	res, err := New().Convert("<html><body><p>tiny</p></body></html>", "https://example.com/", "static")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Markdown, "tiny") {
		t.Errorf("fallback content lost: %q", res.Markdown)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"ab", 1},
		{"abcdef", 2},
		{strings.Repeat("x", 30), 10},
		{"日本語", 1},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
