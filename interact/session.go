package interact

import "context"

// Element is a clickable node on a live page.
type Element interface {
	// Text returns the element's visible text, empty on failure.
	Text() string

	// Visible reports whether the element is displayed.
	Visible() bool

	// Click clicks the element, honoring ctx for cancellation.
	Click(ctx context.Context) error
}

// Session is the live browser page the interaction phases drive.
// Implementations wrap a real automation page; tests substitute fakes.
type Session interface {
	// URL returns the page's current address.
	URL() string

	// HTML returns the full serialized document.
	HTML() (string, error)

	// Query returns all elements matching the CSS selector.
	Query(selector string) []Element

	// NodeCount returns the number of DOM nodes, 0 on failure.
	NodeCount() int

	// ScrollHeight returns the document scroll height, 0 on failure.
	ScrollHeight() int

	// ScrollToBottom scrolls the viewport to the end of the document.
	ScrollToBottom() error

	// PressEnd sends an End keypress.
	PressEnd() error

	// FollowLink clicks el and waits for the resulting navigation,
	// returning the new address.
	FollowLink(ctx context.Context, el Element) (string, error)
}
