package httperrors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github/chapool/transfer-relay/internal/types"
)

var (
	ErrBadRequestInvalidJSON = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeBadRequest, "Request body is not valid JSON.")
	ErrTooManyRequests       = NewHTTPError(http.StatusTooManyRequests, types.PublicHTTPErrorTypeRateLimited, "Too many requests.")
)

// HTTPError is returned by handlers and rendered by the error handler.
type HTTPError struct {
	types.PublicHTTPError
	Internal error `json:"-"`
}

func NewHTTPError(code int, errorType string, title string) *HTTPError {
	return &HTTPError{
		PublicHTTPError: types.PublicHTTPError{
			Code:  code,
			Type:  errorType,
			Title: title,
		},
	}
}

func NewHTTPErrorWithDetail(code int, errorType string, title string, detail string) *HTTPError {
	e := NewHTTPError(code, errorType, title)
	e.Detail = detail

	return e
}

// NewFromEcho converts an echo error into an HTTPError.
func NewFromEcho(e *echo.HTTPError) *HTTPError {
	title := http.StatusText(e.Code)
	if msg, ok := e.Message.(string); ok && msg != "" {
		title = msg
	}

	return &HTTPError{
		PublicHTTPError: types.PublicHTTPError{
			Code:  e.Code,
			Type:  strings.ReplaceAll(strings.ToLower(http.StatusText(e.Code)), " ", "_"),
			Title: title,
		},
		Internal: e.Internal,
	}
}

func (e *HTTPError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "HTTPError %d (%s): %s", e.Code, e.Type, e.Title)

	if e.Detail != "" {
		fmt.Fprintf(&b, " - %s", e.Detail)
	}

	if e.Internal != nil {
		fmt.Fprintf(&b, ", %v", e.Internal)
	}

	return b.String()
}

func (e *HTTPError) Unwrap() error {
	return e.Internal
}
