package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/transfer-relay/internal/api"
	"github/chapool/transfer-relay/internal/api/handlers/common"
	"github/chapool/transfer-relay/internal/api/handlers/relay"
)

func AttachAllRoutes(s *api.Server) {
	// attach our routes
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetMetricsRoute(s),
		common.GetReadyRoute(s),
		relay.GetCheckRPCRoute(s),
		relay.GetTokenRoute(s),
		relay.PostBroadcastRoute(s),
		relay.PostPrepareRoute(s),
	}
}
