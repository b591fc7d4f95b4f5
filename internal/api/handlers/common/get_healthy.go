package common

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github/chapool/transfer-relay/internal/api"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// Liveness check
// This endpoint always runs a live RPC check and reports every probe as a
// line of plain text. Any failing probe turns the status into 521.
func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if s.Config.Management.LivenessTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.Config.Management.LivenessTimeout)
			defer cancel()
		}

		var str strings.Builder
		healthy := true

		if s.Ready() {
			fmt.Fprintln(&str, "Ready: OK.")
		} else {
			healthy = false
			fmt.Fprintln(&str, "Ready: not ready.")
		}

		status := s.Probe.Check(ctx)
		switch {
		case !status.Connected:
			healthy = false
			fmt.Fprintf(&str, "RPC: unreachable (%s).\n", status.Error)
		case !status.Synced:
			fmt.Fprintf(&str, "RPC: block %d, syncing.\n", status.BlockNumber)
		default:
			fmt.Fprintf(&str, "RPC: block %d, synced.\n", status.BlockNumber)
		}

		if s.Redis != nil {
			if err := s.Redis.Ping(ctx).Err(); err != nil {
				healthy = false
				fmt.Fprintf(&str, "Redis: unreachable (%v).\n", err)
			} else {
				fmt.Fprintln(&str, "Redis: OK.")
			}
		}

		if !healthy {
			return c.String(StatusNotReady, str.String())
		}

		return c.String(http.StatusOK, str.String())
	}
}
