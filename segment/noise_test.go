package segment

import (
	"strings"
	"testing"
)

func TestFilter_RemovesStructuralNoise(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<p>Visible paragraph.</p>
		<script>var tracked = true;</script>
		<style>.hidden{display:none}</style>
		<noscript>Enable JavaScript.</noscript>
		<iframe src="https://ads.example.com/slot"></iframe>
	</body></html>`)

	NewFilter(nil).Clean(doc)

	out, err := doc.Html()
	if err != nil {
		t.Fatalf("failed to serialize: %v", err)
	}
	for _, gone := range []string{"<script", "<style", "<noscript", "<iframe"} {
		if strings.Contains(out, gone) {
			t.Errorf("%s survived cleaning", gone)
		}
	}
	if !strings.Contains(out, "Visible paragraph.") {
		t.Error("content was removed along with the noise")
	}
}

func TestFilter_RemovesConfiguredSelectors(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<div class="cookie-banner">Accept cookies</div>
		<div id="newsletter-modal">Subscribe now</div>
		<p>Article text.</p>
	</body></html>`)

	NewFilter([]string{".cookie-banner", "#newsletter-modal"}).Clean(doc)

	out, _ := doc.Html()
	if strings.Contains(out, "Accept cookies") || strings.Contains(out, "Subscribe now") {
		t.Errorf("configured noise survived: %s", out)
	}
	if !strings.Contains(out, "Article text.") {
		t.Error("content was removed along with the noise")
	}
}

func TestFilter_SkipsInvalidSelector(t *testing.T) {
	f := NewFilter([]string{"[[broken", ".overlay"})
	if len(f.matchers) != 1 {
		t.Fatalf("expected the invalid selector to be dropped, got %d matchers", len(f.matchers))
	}

	doc := mustDoc(t, `<html><body><div class="overlay">Popup</div><p>Text.</p></body></html>`)
	f.Clean(doc)
	out, _ := doc.Html()
	if strings.Contains(out, "Popup") {
		t.Error("valid selector stopped working because of an invalid one")
	}
}

func TestFilter_CleanIsIdempotent(t *testing.T) {
	doc := mustDoc(t, `<html><body><script>x()</script><p>Text.</p></body></html>`)

	f := NewFilter([]string{".ad"})
	f.Clean(doc)
	first, _ := doc.Html()
	f.Clean(doc)
	second, _ := doc.Html()

	if first != second {
		t.Errorf("second clean changed the document:\n%s\nvs\n%s", first, second)
	}
}
