package relay

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/transfer-relay/internal/api"
	"github/chapool/transfer-relay/internal/api/httperrors"
	"github/chapool/transfer-relay/internal/relay"
	"github/chapool/transfer-relay/internal/transfer"
	"github/chapool/transfer-relay/internal/types"
	"github/chapool/transfer-relay/internal/util"
	"golang.org/x/text/language"
)

const resultSuccess = "success"

func PostBroadcastRoute(s *api.Server) *echo.Route {
	return s.Router.Relay.POST("/broadcast", postBroadcastHandler(s))
}

// postBroadcastHandler answers every failure with 500 and the error kind in
// code, clients branch on code and show error.
func postBroadcastHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := rpcContext(s, c)
		defer cancel()

		lang := requestLanguage(s, c)
		log := util.LogFromContext(ctx)

		var env relay.Envelope
		if err := c.Bind(&env); err != nil {
			log.Debug().Err(err).Msg("Failed to bind broadcast envelope")
			return respondBroadcastFailure(s, c, lang, transfer.WrapError(err, transfer.KindMissingField, "request body is not valid JSON"))
		}

		res, err := s.Gateway.Process(ctx, &env)
		if err != nil {
			return respondBroadcastFailure(s, c, lang, err)
		}

		s.Metrics.ObserveBroadcast(resultSuccess)

		return c.JSON(http.StatusOK, types.BroadcastResponse{
			Success: true,
			TxHash:  res.TxHash,
		})
	}
}

func respondBroadcastFailure(s *api.Server, c echo.Context, lang language.Tag, err error) error {
	body := httperrors.NewRelayErrorResponse(s.I18n, lang, err)
	s.Metrics.ObserveBroadcast(body.Code)

	return c.JSON(http.StatusInternalServerError, types.BroadcastResponse{
		Success: false,
		Error:   body.Error,
		Code:    body.Code,
	})
}
