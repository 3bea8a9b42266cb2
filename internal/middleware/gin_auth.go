package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinSession runs the session middleware inside a Gin chain. A session
// backend failure aborts the chain with 503.
func GinSession(m *SessionMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, done, err := m.begin(c.Writer, c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "session unavailable",
			})
			return
		}
		defer done()

		c.Request = r
		c.Next()
	}
}
