package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pagesift/pagesift/models"
	"github.com/pagesift/pagesift/reader"
	"github.com/pagesift/pagesift/scrape"
)

// Reader returns a handler for POST /api/v1/reader.
//
// It fetches the page through the same static-first strategy selection
// as a scrape, then converts the document to Markdown instead of
// segmenting it.
func Reader(o *scrape.Orchestrator, rd *reader.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ReaderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		page, strategy, err := o.FetchPage(c.Request.Context(), req.URL)
		if err != nil {
			respondError(c, err)
			return
		}

		result, err := rd.Convert(page.HTML, page.URL, strategy)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
