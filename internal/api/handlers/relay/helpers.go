package relay

import (
	"context"

	"github.com/labstack/echo/v4"
	"github/chapool/transfer-relay/internal/api"
	"golang.org/x/text/language"
)

func requestLanguage(s *api.Server, c echo.Context) language.Tag {
	return s.I18n.ParseAcceptLanguage(c.Request().Header.Get("Accept-Language"))
}

// rpcContext bounds the RPC calls of one request by the configured timeout.
func rpcContext(s *api.Server, c echo.Context) (context.Context, context.CancelFunc) {
	ctx := c.Request().Context()
	if s.Config.Relay.RPCTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.Config.Relay.RPCTimeout)
}
