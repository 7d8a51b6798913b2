package models

import (
	"fmt"
	"net/url"
)

// InteractionStrategy selects which interaction phases run on a rendered page.
type InteractionStrategy string

const (
	StrategyAuto       InteractionStrategy = "auto"
	StrategyTabs       InteractionStrategy = "tabs"
	StrategyLoadMore   InteractionStrategy = "load_more"
	StrategyScroll     InteractionStrategy = "scroll"
	StrategyPagination InteractionStrategy = "pagination"
	StrategyAll        InteractionStrategy = "all"
)

// Valid reports whether s is a known strategy value.
func (s InteractionStrategy) Valid() bool {
	switch s {
	case StrategyAuto, StrategyTabs, StrategyLoadMore, StrategyScroll, StrategyPagination, StrategyAll:
		return true
	}
	return false
}

// MaxURLLength caps accepted target URLs.
const MaxURLLength = 2048

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the target page to scrape. Required, absolute, http or https.
	URL string `json:"url" binding:"required"`

	// EnableInteractions turns on the interaction phases (tab switching,
	// load-more clicking, infinite scroll, pagination) after a rendered
	// fetch. Has no effect when the static document is already sufficient.
	// Default: false.
	EnableInteractions bool `json:"enableInteractions,omitempty"`

	// InteractionStrategy picks which interaction phases run.
	// Allowed: "auto" (default), "tabs", "load_more", "scroll",
	// "pagination", "all". "auto" and "all" run every phase.
	InteractionStrategy InteractionStrategy `json:"interactionStrategy,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.InteractionStrategy == "" {
		r.InteractionStrategy = StrategyAuto
	}
}

// Validate checks the request after Defaults has been applied.
func (r *ScrapeRequest) Validate() error {
	if err := ValidateURL(r.URL); err != nil {
		return err
	}
	if !r.InteractionStrategy.Valid() {
		return NewScrapeError(ErrCodeInvalidInput,
			fmt.Sprintf("unknown interaction strategy %q", r.InteractionStrategy), nil)
	}
	return nil
}

// ValidateURL checks that raw is an absolute http(s) URL of acceptable length.
func ValidateURL(raw string) error {
	if raw == "" {
		return NewScrapeError(ErrCodeInvalidInput, "url is required", nil)
	}
	if len(raw) > MaxURLLength {
		return NewScrapeError(ErrCodeInvalidInput,
			fmt.Sprintf("url exceeds %d characters", MaxURLLength), nil)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return NewScrapeError(ErrCodeInvalidInput, "url is not parseable", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewScrapeError(ErrCodeInvalidInput, "url scheme must be http or https", nil)
	}
	if u.Host == "" {
		return NewScrapeError(ErrCodeInvalidInput, "url has no host", nil)
	}
	return nil
}
