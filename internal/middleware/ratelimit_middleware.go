package middleware

import (
	"context"
	"net/http"
	"strconv"

	"clip-share/internal/redis"
	"clip-share/internal/services"
	"clip-share/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// UploadLimiter is satisfied by *redis.RateLimiter.
type UploadLimiter interface {
	AllowUpload(ctx context.Context, userID string) (*redis.RateLimitResult, error)
}

// ResolveLimiter is satisfied by *redis.RateLimiter.
type ResolveLimiter interface {
	AllowResolve(ctx context.Context, ip string) (*redis.RateLimitResult, error)
}

// UploadRateLimitMiddleware limits how many publications a user may start.
// Should be applied after auth middleware.
func UploadRateLimitMiddleware(limiter UploadLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := services.UserIDFromContext(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		result, err := limiter.AllowUpload(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("rate limit error", "INTERNAL_ERROR"))
			c.Abort()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("upload rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// ResolveRateLimitMiddleware limits public clip lookups per client IP.
func ResolveRateLimitMiddleware(limiter ResolveLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.AllowResolve(c.Request.Context(), c.ClientIP())
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("rate limit error", "INTERNAL_ERROR"))
			c.Abort()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
