package reader

import "unicode/utf8"

// EstimateTokens provides a fast token count estimate without a real
// tokenizer.
//
// Heuristic: utf8 rune count / 3. English text averages ~4 chars/token
// and CJK text ~1.5, so dividing by 3 is a reasonable middle ground for
// mixed-language content.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / 3
	if est < 1 {
		return 1
	}
	return est
}
