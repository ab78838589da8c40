// README: Gin middleware: owner scoping and request logging.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const ownerKey = "owner_id"

// RequireOwner pulls the caller identity from the X-User-ID header. Upstream
// auth is expected to have populated it; requests without one are rejected.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-User-ID")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing X-User-ID header"})
			return
		}
		c.Set(ownerKey, id)
		c.Next()
	}
}

func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Info("request")
	}
}
