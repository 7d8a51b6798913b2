package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pagesift/pagesift/models"
)

// contextKeyAPIKey is where Auth stores the authenticated key so later
// middleware can use it as the caller's identity.
const contextKeyAPIKey = "api_key"

// Auth returns middleware that checks each request against the configured
// API keys. A key may arrive as an X-API-Key header or as an
// Authorization bearer token. An empty key list disables the check.
func Auth(apiKeys []string) gin.HandlerFunc {
	valid := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			valid[k] = struct{}{}
		}
	}
	if len(valid) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := requestKey(c)
		if key == "" {
			unauthorized(c, "missing API key: provide X-API-Key header or Authorization: Bearer <key>")
			return
		}
		if _, ok := valid[key]; !ok {
			unauthorized(c, "invalid API key")
			return
		}
		c.Set(contextKeyAPIKey, key)
		c.Next()
	}
}

// requestKey pulls the API key from the request, preferring the dedicated
// header over the Authorization form.
func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	const bearer = "Bearer "
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, bearer) {
		return auth[len(bearer):]
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}
