package middleware

import (
	"fmt"
	"log"
	"time"

	"billdesk/internal/caching"
	"billdesk/internal/common"

	"github.com/labstack/echo/v4"
)

// RateLimit allows at most limit requests per window for each owner (or
// client IP for anonymous requests) under the given bucket name. Cache
// failures let the request through.
func RateLimit(cache caching.CacheService, bucket string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limit <= 0 {
				return next(c)
			}

			subject, ok := common.GetOwnerIDFromContext(c.Request().Context())
			if !ok {
				subject = "ip:" + c.RealIP()
			}
			key := fmt.Sprintf("%s:%s", bucket, subject)

			limited, err := cache.IsRateLimited(c.Request().Context(), key, limit, window)
			if err != nil {
				log.Printf("WARN: rate limit check failed for %s: %v", key, err)
				return next(c)
			}
			if limited {
				return common.SendTooManyRequestsError(c)
			}
			return next(c)
		}
	}
}
