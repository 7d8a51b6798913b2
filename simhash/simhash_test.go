package simhash

import (
	"testing"
)

func TestFingerprint_Deterministic(t *testing.T) {
	for _, text := range []string{
		"the quick brown fox jumps over the lazy dog",
		"hello",
	} {
		if Fingerprint(text) != Fingerprint(text) {
			t.Errorf("fingerprint of %q is not deterministic", text)
		}
	}
}

func TestFingerprint_EmptyAndWhitespace(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "   \t\n  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if fp := Fingerprint(tt.text); fp != 0 {
				t.Errorf("Fingerprint(%q) = %064b, want 0", tt.text, fp)
			}
		})
	}

	if Fingerprint("hello") == 0 {
		t.Error("a single word should produce a non-zero fingerprint")
	}
}

func TestFingerprint_OneWordChangeStaysClose(t *testing.T) {
	fp1 := Fingerprint("the quick brown fox jumps over the lazy dog")
	fp2 := Fingerprint("the quick brown fox leaps over the lazy dog")

	if dist := Distance(fp1, fp2); dist > 10 {
		t.Errorf("one changed word moved the fingerprint %d bits", dist)
	}
}

func TestFingerprint_UnrelatedTextsDiverge(t *testing.T) {
	fp1 := Fingerprint("the quick brown fox jumps over the lazy dog")
	fp2 := Fingerprint("completely unrelated content about quantum physics and mathematics")

	if dist := Distance(fp1, fp2); dist < 5 {
		t.Errorf("unrelated texts are only %d bits apart", dist)
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xFF, 0xFF, 0},
		{"all bits flipped", 0, ^uint64(0), 64},
		{"one bit", 0, 1, 1},
		{"disjoint nibbles", 0b1010, 0b0101, 4},
		{"both zero", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%#x, %#x) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilar_ThresholdBoundary(t *testing.T) {
	fp1 := Fingerprint("the quick brown fox")
	if !Similar(fp1, Fingerprint("the quick brown fox"), 0) {
		t.Error("identical fingerprints should be similar at threshold 0")
	}

	fp2 := Fingerprint("a completely different text about nothing related")
	dist := Distance(fp1, fp2)
	if Similar(fp1, fp2, dist-1) {
		t.Errorf("should not be similar one bit below the distance (%d)", dist)
	}
	if !Similar(fp1, fp2, dist) {
		t.Errorf("should be similar at threshold equal to the distance (%d)", dist)
	}
}

func TestFingerprintText_IgnoresMarkup(t *testing.T) {
	page1 := `<html><body><div class="a"><p>some listing of items here</p></div></body></html>`
	page2 := `<html><body><section id="b"><span>some listing of items here</span></section></body></html>`

	if FingerprintText(page1) != FingerprintText(page2) {
		t.Error("the same text under different markup should fingerprint identically")
	}
}

func TestFingerprintText_SkipsScriptAndStyle(t *testing.T) {
	bare := `<body><p>visible words only</p></body>`
	noisy := `<body><script>var state = {"x": 12345};</script><style>.a{color:red}</style><p>visible words only</p></body>`

	if FingerprintText(bare) != FingerprintText(noisy) {
		t.Error("script and style bodies should not affect the text fingerprint")
	}
}

func TestDuplicateDocuments(t *testing.T) {
	page1 := `<html><body><h1>Results</h1><ul><li>alpha item</li><li>beta item</li><li>gamma item</li></ul></body></html>`
	page1Again := `<html><body><h1>Results</h1><ul><li>alpha item</li><li>beta item</li><li>gamma item</li></ul></body></html>`
	page2 := `<html><body><h1>Results</h1><ul><li>delta entry</li><li>epsilon entry</li><li>zeta entry</li></ul></body></html>`

	if !DuplicateDocuments(page1, page1Again) {
		t.Error("identical documents should be detected as duplicates")
	}
	if DuplicateDocuments(page1, page2) {
		t.Error("a page with different listing content is not a duplicate")
	}
}

func TestDuplicateDocuments_EmptyDocuments(t *testing.T) {
	if DuplicateDocuments("", "") {
		t.Error("empty documents should never count as duplicates")
	}
	if DuplicateDocuments("<body><p>text</p></body>", "") {
		t.Error("an empty document should never count as a duplicate")
	}
}

func TestFingerprintDOM_SameStructureSameFingerprint(t *testing.T) {
	page1 := `<html><head><title>Page 1</title></head><body><div><h1>Hello</h1><p>World</p></div></body></html>`
	page2 := `<html><head><title>Page 2</title></head><body><div><h1>Hi</h1><p>Earth</p></div></body></html>`

	fp1 := FingerprintDOM(page1)
	fp2 := FingerprintDOM(page2)
	if fp1 != fp2 {
		t.Errorf("identical structures are %d bits apart", Distance(fp1, fp2))
	}
}

func TestFingerprintDOM_DifferentStructuresDiverge(t *testing.T) {
	prose := `<html><body><div><h1>Title</h1><p>Text</p><p>More text</p></div></body></html>`
	table := `<html><body><table><tr><td>A</td><td>B</td></tr><tr><td>C</td><td>D</td></tr></table></body></html>`

	fp1 := FingerprintDOM(prose)
	fp2 := FingerprintDOM(table)
	if dist := Distance(fp1, fp2); dist < 3 {
		t.Errorf("structurally different pages are only %d bits apart", dist)
	}
}

func TestFingerprintDOM_DegenerateInputs(t *testing.T) {
	if fp := FingerprintDOM(""); fp != 0 {
		t.Errorf("empty HTML should fingerprint to 0, got %064b", fp)
	}
	if fp := FingerprintDOM("just some plain text with no tags"); fp != 0 {
		t.Errorf("tagless input should fingerprint to 0, got %064b", fp)
	}
	if FingerprintDOM("<br/>") == 0 {
		t.Error("a single self-closing tag should produce a non-zero fingerprint")
	}
}

func TestFingerprintDOM_NestingDepthMatters(t *testing.T) {
	deep := `<div><div><div><p>Deep</p></div></div></div>`
	shallow := `<div><p>Shallow</p></div>`

	if FingerprintDOM(deep) == FingerprintDOM(shallow) {
		t.Error("different nesting depths should produce different fingerprints")
	}
}

func TestExtractTags(t *testing.T) {
	tags := extractTags(`<html><head><title>Test</title></head><body><div><p>Hello</p></div></body></html>`)

	want := []string{"html", "head", "title", "body", "div", "p"}
	if len(tags) != len(want) {
		t.Fatalf("extracted %d tags %v, want %d", len(tags), tags, len(want))
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tag[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestMakeShingles(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		n      int
		want   []string
	}{
		{"two shingles", []string{"a", "b", "c", "d"}, 3, []string{"a_b_c", "b_c_d"}},
		{"exact fit", []string{"a", "b", "c"}, 3, []string{"a_b_c"}},
		{"too few tokens", []string{"a", "b"}, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := makeShingles(tt.tokens, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("makeShingles(%v, %d) = %v, want %v", tt.tokens, tt.n, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("shingle[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
