package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github/chapool/transfer-relay/internal/api/httperrors"
	"github/chapool/transfer-relay/internal/util"
)

// Limiter is satisfied by api.RateLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

type RateLimitConfig struct {
	Skipper middleware.Skipper
	Limiter Limiter
	// KeyFunc identifies the client, the real IP by default.
	KeyFunc func(c echo.Context) string
}

// RateLimitWithConfig rejects clients over their budget with 429. Limiter
// errors let the request through.
func RateLimitWithConfig(config RateLimitConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = middleware.DefaultSkipper
	}

	if config.KeyFunc == nil {
		config.KeyFunc = func(c echo.Context) string { return c.RealIP() }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) || config.Limiter == nil {
				return next(c)
			}

			ctx := c.Request().Context()

			allowed, retryAfter, err := config.Limiter.Allow(ctx, config.KeyFunc(c))
			if err != nil {
				util.LogFromContext(ctx).Warn().Err(err).Msg("Rate limiter unavailable, allowing request")
				return next(c)
			}

			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
				return httperrors.ErrTooManyRequests
			}

			return next(c)
		}
	}
}
