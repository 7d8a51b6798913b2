package segment

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, htmlStr string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func TestSegment_SplitsOnLandmarks(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<header><h1>Acme Widgets</h1></header>
		<nav><ul><li><a href="/home">Home</a></li><li><a href="/docs">Docs</a></li></ul></nav>
		<main><h2>Features</h2><p>Widgets ship with batteries included and a full manual.</p></main>
		<footer><p>Questions? Write to support at example dot com.</p></footer>
	</body></html>`)

	sections := New(nil).Segment(doc, "https://example.com/", 0)
	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d: %+v", len(sections), sections)
	}
	for i, s := range sections {
		want := "section-" + string(rune('0'+i))
		if s.ID != want {
			t.Errorf("section %d id = %q, want %q", i, s.ID, want)
		}
	}
	wantTypes := []string{"header", "nav", "main", "footer"}
	for i, want := range wantTypes {
		if sections[i].Type != want {
			t.Errorf("section %d type = %q, want %q", i, sections[i].Type, want)
		}
	}
	if sections[0].Label != "Acme Widgets" {
		t.Errorf("header label = %q", sections[0].Label)
	}
	if len(sections[1].Content.Links) != 2 {
		t.Errorf("nav should carry its links, got %+v", sections[1].Content.Links)
	}
	if sections[2].SourceURL != "https://example.com/" {
		t.Errorf("source URL = %q", sections[2].SourceURL)
	}
}

func TestSegment_SkipsNestedLandmarks(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<main><article><h2>Story</h2><p>Body text of the story.</p></article></main>
	</body></html>`)

	sections := New(nil).Segment(doc, "https://example.com/", 0)
	if len(sections) != 1 {
		t.Fatalf("nested article should fold into main, got %d sections", len(sections))
	}
	if sections[0].Type != "main" {
		t.Errorf("type = %q, want main", sections[0].Type)
	}
	if len(sections[0].Content.Headings) != 1 || sections[0].Content.Headings[0] != "Story" {
		t.Errorf("headings = %+v", sections[0].Content.Headings)
	}
}

func TestSegment_HeadingFallback(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<p>Release notes for the spring cycle, covering every change.</p>
		<h2>Installation</h2><p>Download the archive and run the installer.</p>
		<h2>Configuration</h2><p>Edit the settings file to taste.</p>
	</body></html>`)

	sections := New(nil).Segment(doc, "https://example.com/notes", 0)
	if len(sections) != 3 {
		t.Fatalf("expected leading span plus two heading spans, got %d", len(sections))
	}
	if sections[0].Label == "Untitled" || !strings.HasPrefix(sections[0].Label, "Release notes") {
		t.Errorf("leading section label = %q", sections[0].Label)
	}
	if sections[1].Label != "Installation" || sections[2].Label != "Configuration" {
		t.Errorf("heading labels = %q, %q", sections[1].Label, sections[2].Label)
	}
	if !strings.Contains(sections[1].Content.Text, "run the installer") {
		t.Errorf("installation text = %q", sections[1].Content.Text)
	}
	if strings.Contains(sections[1].Content.Text, "settings file") {
		t.Errorf("installation span leaked into the next: %q", sections[1].Content.Text)
	}
}

func TestSegment_BodyFallback(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<p>A page with no landmarks and no headings at all.</p>
		<p>Just paragraphs from top to bottom.</p>
	</body></html>`)

	sections := New(nil).Segment(doc, "https://example.com/", 0)
	if len(sections) != 1 {
		t.Fatalf("expected a single body section, got %d", len(sections))
	}
	if sections[0].Type != "body" {
		t.Errorf("type = %q, want body", sections[0].Type)
	}
	if !strings.Contains(sections[0].Content.Text, "no landmarks") {
		t.Errorf("text = %q", sections[0].Content.Text)
	}
}

func TestSegment_DropsEmptySectionsKeepsIDsContiguous(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<main><p>Something worth keeping around.</p></main>
		<aside></aside>
		<footer><p>Footer text.</p></footer>
	</body></html>`)

	sections := New(nil).Segment(doc, "https://example.com/", 0)
	if len(sections) != 2 {
		t.Fatalf("empty aside should be dropped, got %d sections", len(sections))
	}
	if sections[0].ID != "section-0" || sections[1].ID != "section-1" {
		t.Errorf("ids not contiguous: %q, %q", sections[0].ID, sections[1].ID)
	}
	if sections[1].Type != "footer" {
		t.Errorf("second section type = %q, want footer", sections[1].Type)
	}
}

func TestSegment_StartIndexContinuesIDs(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<main><p>Follow-up page content.</p></main>
		<footer><p>Footer text.</p></footer>
	</body></html>`)

	sections := New(nil).Segment(doc, "https://example.com/page2", 5)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].ID != "section-5" || sections[1].ID != "section-6" {
		t.Errorf("ids = %q, %q, want section-5 and section-6", sections[0].ID, sections[1].ID)
	}
}

func TestSegment_CapsRawHTML(t *testing.T) {
	doc := mustDoc(t, "<html><body><main>"+strings.Repeat("<p>0123456789</p>", 400)+"</main></body></html>")

	sections := New(nil).Segment(doc, "https://example.com/", 0)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	s := sections[0]
	if !s.Truncated {
		t.Error("oversized section should be marked truncated")
	}
	if got := len([]rune(s.RawHTML)); got != maxRawHTML+len(truncationMarker) {
		t.Errorf("raw HTML length = %d, want %d", got, maxRawHTML+len(truncationMarker))
	}
	if !strings.HasSuffix(s.RawHTML, truncationMarker) {
		t.Error("truncated raw HTML should end with the marker")
	}
}

func TestSegment_SmallSectionNotTruncated(t *testing.T) {
	doc := mustDoc(t, `<html><body><main><p>Short and sweet.</p></main></body></html>`)

	sections := New(nil).Segment(doc, "https://example.com/", 0)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Truncated {
		t.Error("small section should not be marked truncated")
	}
	if !strings.Contains(sections[0].RawHTML, "<p>Short and sweet.</p>") {
		t.Errorf("raw HTML = %q", sections[0].RawHTML)
	}
}

func TestSegment_KeywordClassBeatsTag(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<section class="hero-banner"><h1>Ship faster</h1><p>One tagline.</p></section>
		<section class="pricing-table"><h2>Plans</h2><p>Starter and team tiers.</p></section>
		<section class="faq-accordion"><h2>Common questions</h2><p>Answers below.</p></section>
	</body></html>`)

	sections := New(nil).Segment(doc, "https://example.com/", 0)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	wantTypes := []string{"hero", "pricing", "faq"}
	for i, want := range wantTypes {
		if sections[i].Type != want {
			t.Errorf("section %d type = %q, want %q", i, sections[i].Type, want)
		}
	}
}

func TestSegment_CleansNoiseFirst(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<main>
			<div class="cookie-banner">We value your privacy. Accept all cookies.</div>
			<p>Actual article text.</p>
		</main>
	</body></html>`)

	sections := New([]string{".cookie-banner"}).Segment(doc, "https://example.com/", 0)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if strings.Contains(sections[0].Content.Text, "cookies") {
		t.Errorf("noise survived into section text: %q", sections[0].Content.Text)
	}
	if !strings.Contains(sections[0].Content.Text, "Actual article text.") {
		t.Errorf("content lost: %q", sections[0].Content.Text)
	}
}
