package simhash

import (
	"strings"

	"golang.org/x/net/html"
)

// duplicateBits is the Hamming tolerance for DuplicateDocuments. A couple
// of flipped bits absorbs trivial differences like timestamps or view
// counters while genuinely new result pages stay well above it.
const duplicateBits = 2

// DuplicateDocuments reports whether two HTML documents carry essentially
// the same visible text. Structure is deliberately ignored: consecutive
// pages of a listing share their template, so only the text tells them
// apart.
func DuplicateDocuments(a, b string) bool {
	fpA := FingerprintText(a)
	fpB := FingerprintText(b)
	if fpA == 0 || fpB == 0 {
		return false
	}
	return Similar(fpA, fpB, duplicateBits)
}

// FingerprintText computes a SimHash over the text nodes of an HTML
// document, skipping script and style bodies.
func FingerprintText(htmlStr string) uint64 {
	return Fingerprint(extractText(htmlStr))
}

// FingerprintDOM computes a SimHash fingerprint of the DOM structure.
// Only considers tag names in sequence, ignoring text content, attributes, etc.
// Useful for comparing whether two captures of the same page have rendered
// the same layout.
func FingerprintDOM(htmlStr string) uint64 {
	tags := extractTags(htmlStr)
	if len(tags) == 0 {
		return 0
	}

	shingles := makeShingles(tags, 3)
	if len(shingles) == 0 {
		// Fall back to the tag sequence itself if too few tags for shingles.
		return Fingerprint(strings.Join(tags, " "))
	}

	return Fingerprint(strings.Join(shingles, " "))
}

// extractText walks HTML with the tokenizer and collects text content,
// skipping script and style elements.
func extractText(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	var sb strings.Builder
	skip := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if name := string(tn); name == "script" || name == "style" {
				skip++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if name := string(tn); (name == "script" || name == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(tokenizer.Text())
				sb.WriteByte(' ')
			}
		}
	}
}

// extractTags walks HTML with the tokenizer and collects open tag names in order.
func extractTags(htmlStr string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	var tags []string

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			tags = append(tags, string(tn))
		}
	}
}

// makeShingles creates n-gram shingles from a slice of tokens.
func makeShingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}

	shingles := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+n], "_"))
	}
	return shingles
}
