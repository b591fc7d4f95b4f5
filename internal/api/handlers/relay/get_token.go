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

func GetTokenRoute(s *api.Server) *echo.Route {
	return s.Router.Root.GET("/token/:address", getTokenHandler(s))
}

// getTokenHandler returns token metadata and, with ?owner=, a balance.
// Missing metadata degrades to the default decimals like the builder does.
func getTokenHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := rpcContext(s, c)
		defer cancel()

		log := util.LogFromContext(ctx)
		lang := requestLanguage(s, c)

		token, err := transfer.ParseAddress("token", c.Param("address"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, httperrors.NewRelayErrorResponse(s.I18n, lang, err))
		}

		res := types.TokenResponse{
			Address:  token.Hex(),
			Decimals: s.Config.Relay.DefaultDecimals,
		}
		if res.Decimals == 0 {
			res.Decimals = transfer.DefaultDecimals
		}

		info, err := s.Chain.TokenInfo(ctx, token)
		if err != nil {
			log.Warn().Err(err).Str("token", token.Hex()).Msg("Failed to read token metadata, using default decimals")
		} else {
			res.Name = info.Name
			res.Symbol = info.Symbol
			res.Decimals = info.Decimals
		}

		owner := c.QueryParam("owner")
		if owner == "" {
			return c.JSON(http.StatusOK, res)
		}

		ownerAddress, err := transfer.ParseAddress("owner", owner)
		if err != nil {
			return c.JSON(http.StatusBadRequest, httperrors.NewRelayErrorResponse(s.I18n, lang, err))
		}

		balance, err := s.Chain.TokenBalance(ctx, token, ownerAddress)
		if err != nil {
			rpcErr := transfer.WrapError(err, transfer.KindRPCUnavailable, "failed to read token balance")
			return c.JSON(http.StatusServiceUnavailable, httperrors.NewRelayErrorResponse(s.I18n, lang, rpcErr))
		}

		res.Balance = balance.String()
		res.FormattedBalance = transfer.FormatBaseUnits(balance, res.Decimals)

		return c.JSON(http.StatusOK, res)
	}
}
