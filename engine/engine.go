package engine

import (
	"context"
	"time"

	"github.com/pagesift/pagesift/models"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "static", "browser").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Timeout time.Duration

	// EnableInteractions and InteractionStrategy are carried through to
	// the render path; the static engine ignores them.
	EnableInteractions  bool
	InteractionStrategy models.InteractionStrategy
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	StatusCode int
	FinalURL   string
	EngineName string
}
