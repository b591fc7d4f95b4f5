package relay

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/transfer-relay/internal/api"
	"github/chapool/transfer-relay/internal/i18n"
	"github/chapool/transfer-relay/internal/types"
)

func GetCheckRPCRoute(s *api.Server) *echo.Route {
	return s.Router.Root.GET("/check-rpc", getCheckRPCHandler(s))
}

// getCheckRPCHandler always answers 200, an unreachable node is reported in
// the body.
func getCheckRPCHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		lang := requestLanguage(s, c)

		status := s.Probe.Check(ctx)

		res := types.CheckRPCResponse{
			Connected:   status.Connected,
			Error:       status.Error,
			Synced:      status.Synced,
			BlockNumber: status.BlockNumber,
		}

		if status.Connected {
			res.Message = s.I18n.Translate("rpc.connected", lang, i18n.Data{"BlockNumber": status.BlockNumber})
		} else {
			res.Message = s.I18n.Translate("rpc.disconnected", lang)
		}

		return c.JSON(http.StatusOK, res)
	}
}
