package ratelimit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware returns a gin middleware that applies per-category rate
// limits based on the request path.
func Middleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		limitType := classify(c.Request.URL.Path)

		result, err := limiter.IsAllowed(c.Request.Context(), c.ClientIP(), limitType)
		if err != nil {
			// Redis trouble should not take requests down with it.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime, 10))

		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": result.ResetTime,
			})
			return
		}

		c.Next()
	}
}

// classify maps a request path to a rate limit category.
func classify(path string) RateLimitType {
	switch {
	case strings.Contains(path, "/orders"):
		return RateLimitTypeOrder
	case strings.Contains(path, "/admin"), strings.Contains(path, "/staff"):
		return RateLimitTypeAdmin
	case strings.Contains(path, "/events"), strings.Contains(path, "/tiers"),
		path == "/health", path == "/ping", path == "/status":
		return RateLimitTypePublic
	default:
		return RateLimitTypeDefault
	}
}
