package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pagesift/pagesift/cache"
	"github.com/pagesift/pagesift/models"
	"github.com/pagesift/pagesift/scrape"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Flow:
//  1. Parse and validate the request, apply defaults.
//  2. Cache lookup keyed on URL and interaction settings.
//  3. Orchestrator.Scrape runs the full pipeline.
//  4. Store in cache, return 200 with the result.
//
// Recoverable problems ride inside the result's error list; only a
// scrape that produced no document at all maps to an error status.
func Scrape(o *scrape.Orchestrator, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()
		if err := req.Validate(); err != nil {
			respondError(c, err)
			return
		}

		cacheKey := cache.Key(req.URL, req.EnableInteractions, req.InteractionStrategy)
		if cc != nil {
			if cached, hit := cc.Get(cacheKey); hit {
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		result, err := o.Scrape(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		if cc != nil {
			cc.Set(cacheKey, result)
		}
		c.JSON(http.StatusOK, result)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{
		Error: scrapeErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeFetchFailed, models.ErrCodeBrowserCrash:
		return http.StatusBadGateway // 502
	case models.ErrCodeRobotsDisallowed:
		return http.StatusForbidden // 403
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
