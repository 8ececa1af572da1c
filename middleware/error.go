package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/geo/logging"
)

// ErrorHandler middleware recovers from any panics and handles errors
func ErrorHandler(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error(c.Request.Context(), "panic recovered",
					logging.String("path", c.Request.URL.Path),
					logging.String("panic", fmt.Sprint(err)),
					logging.String("stack", string(debug.Stack())))

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "An unexpected error occurred",
				})
			}
		}()

		c.Next()

		// handlers report failures through c.Error; the last one wins
		if len(c.Errors) == 0 {
			return
		}
		last := c.Errors.Last()
		log.Warn(c.Request.Context(), "request failed",
			logging.String("path", c.Request.URL.Path),
			logging.Err(last.Err))
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": last.Error()})
		}
	}
}
