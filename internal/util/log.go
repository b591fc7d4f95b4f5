package util

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogFromContext returns a request-scoped logger if one is attached to ctx and
// falls back to the global logger otherwise.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	l := log.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		if shouldDisableLogger(ctx) {
			return l
		}

		l = &log.Logger
	}

	return l
}

// LogFromEchoContext returns the request-scoped logger of an echo request.
func LogFromEchoContext(c interface{ Request() *http.Request }) *zerolog.Logger {
	return LogFromContext(c.Request().Context())
}

type disableLoggerKey struct{}

// DisableLogger marks ctx so LogFromContext returns a disabled logger instead
// of falling back to the global one.
func DisableLogger(ctx context.Context, shouldDisable bool) context.Context {
	return context.WithValue(ctx, disableLoggerKey{}, shouldDisable)
}

func shouldDisableLogger(ctx context.Context) bool {
	s, ok := ctx.Value(disableLoggerKey{}).(bool)
	return ok && s
}
