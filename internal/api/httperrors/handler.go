package httperrors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/transfer-relay/internal/types"
	"github/chapool/transfer-relay/internal/util"
)

// NewErrorHandler renders every error returned by a handler as JSON. Unknown
// errors become a 500, their message is only exposed when hideInternal is
// false.
func NewErrorHandler(hideInternal bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		log := util.LogFromEchoContext(c)

		var httpErr *HTTPError
		var echoErr *echo.HTTPError

		switch {
		case errors.As(err, &httpErr):
		case errors.As(err, &echoErr):
			httpErr = NewFromEcho(echoErr)
		default:
			httpErr = NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeInternalServer, http.StatusText(http.StatusInternalServerError))
			if !hideInternal {
				httpErr.Detail = err.Error()
			}
			httpErr.Internal = err
		}

		if httpErr.Code >= http.StatusInternalServerError {
			log.Error().Err(err).Int("status", httpErr.Code).Msg("Request failed")
		} else {
			log.Debug().Err(err).Int("status", httpErr.Code).Msg("Request rejected")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(httpErr.Code)
		} else {
			err = c.JSON(httpErr.Code, httpErr)
		}

		if err != nil {
			log.Warn().Err(err).Msg("Failed to write error response")
		}
	}
}
