package middleware

import (
	"net/http"

	"multisweeper/internal/logger"
	"multisweeper/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit blocks clients that exceed the limiter's budget, keyed by client
// IP. Limiter errors fail open.
func RateLimit(l *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), c.FullPath(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter error", "error", err, "path", c.FullPath())
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
