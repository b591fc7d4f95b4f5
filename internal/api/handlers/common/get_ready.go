package common

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/transfer-relay/internal/api"
	"github/chapool/transfer-relay/internal/util"
)

// StatusNotReady is returned by the probes when a check fails.
const StatusNotReady = 521

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// Readiness check
// This endpoint returns 200 when our Service is ready to serve traffic (i.e. respond to queries).
// Does read-only probes apart from the general server ready state.
// Note that /-/ready is typically public (and not shielded by a mgmt-secret), we thus prevent information leakage here and only return `"Ready."`.
func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return c.String(StatusNotReady, "Not ready.")
		}

		ctx := c.Request().Context()
		if s.Config.Management.ReadinessTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.Config.Management.ReadinessTimeout)
			defer cancel()
		}

		if !s.Probe.Ready(ctx) {
			util.LogFromContext(ctx).Warn().Msg("Readiness probe failed, RPC endpoint is not reachable")
			return c.String(StatusNotReady, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
