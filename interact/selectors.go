package interact

import "strings"

// locator pairs a CSS selector with optional text phrases the element must
// contain. Phrase matching is case-insensitive, like the text selectors of
// browser automation tools.
type locator struct {
	selector string
	phrases  []string
}

func (l locator) match(el Element) bool {
	if len(l.phrases) == 0 {
		return true
	}
	text := strings.ToLower(el.Text())
	for _, p := range l.phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// Locator tables are ordered by specificity. The first locator that yields
// a usable element wins.
var (
	tabLocators = []locator{
		{selector: "[role='tab']"},
		{selector: ".tab"},
		{selector: "[class*='tab-']"},
		{selector: "button[aria-selected]"},
	}

	loadMoreLocators = []locator{
		{selector: "button", phrases: []string{"load more"}},
		{selector: "button", phrases: []string{"show more"}},
		{selector: "a", phrases: []string{"load more"}},
		{selector: "[class*='load-more']"},
		{selector: "[class*='show-more']"},
	}

	paginationLocators = []locator{
		{selector: "a", phrases: []string{"next"}},
		{selector: "button", phrases: []string{"next"}},
		{selector: "[rel='next']"},
		{selector: "[class*='next']"},
		{selector: "[class*='pagination'] a"},
	}
)

// findFirstVisible returns the first visible element matched by the ordered
// locators, along with the selector that found it.
func findFirstVisible(s Session, locs []locator) (Element, string) {
	for _, loc := range locs {
		for _, el := range s.Query(loc.selector) {
			if !loc.match(el) {
				continue
			}
			if !el.Visible() {
				continue
			}
			return el, loc.selector
		}
	}
	return nil, ""
}
