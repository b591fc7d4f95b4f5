package relay

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/transfer-relay/internal/api"
	"github/chapool/transfer-relay/internal/api/httperrors"
	"github/chapool/transfer-relay/internal/transfer"
	"github/chapool/transfer-relay/internal/types"
	"github/chapool/transfer-relay/internal/util"
)

func PostPrepareRoute(s *api.Server) *echo.Route {
	return s.Router.Relay.POST("/prepare", postPrepareHandler(s))
}

// postPrepareHandler builds the unsigned transfer for thin clients that have
// no RPC access of their own.
func postPrepareHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := rpcContext(s, c)
		defer cancel()

		var body types.PostPreparePayload
		if err := c.Bind(&body); err != nil {
			util.LogFromContext(ctx).Debug().Err(err).Msg("Failed to bind prepare payload")
			return respondPrepareFailure(s, c, transfer.WrapError(err, transfer.KindMissingField, "request body is not valid JSON"))
		}

		prepared, err := s.Builder.Build(ctx, transfer.TransferRequest{
			From:      body.From,
			Recipient: body.To,
			Token:     body.Token,
			Amount:    body.Amount,
		})
		if err != nil {
			return respondPrepareFailure(s, c, err)
		}

		s.Metrics.ObservePrepare(resultSuccess)

		return c.JSON(http.StatusOK, types.PrepareResponse{
			Transaction: prepared.Transaction.ToJSON(),
			TxHash:      prepared.Hash.Hex(),
			Message:     prepared.Message,
			Amount:      prepared.Amount,
			BaseUnits:   prepared.BaseUnits.String(),
			Decimals:    prepared.Decimals,
		})
	}
}

func respondPrepareFailure(s *api.Server, c echo.Context, err error) error {
	body := httperrors.NewRelayErrorResponse(s.I18n, requestLanguage(s, c), err)
	s.Metrics.ObservePrepare(body.Code)

	return c.JSON(httperrors.StatusForKind(transfer.KindOf(err)), body)
}
