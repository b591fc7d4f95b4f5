package httperrors_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/transfer-relay/internal/api/httperrors"
	"github/chapool/transfer-relay/internal/config"
	"github/chapool/transfer-relay/internal/i18n"
	"github/chapool/transfer-relay/internal/transfer"
	"golang.org/x/text/language"
)

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, httperrors.StatusForKind(transfer.KindInvalidAddress))
	assert.Equal(t, http.StatusBadRequest, httperrors.StatusForKind(transfer.KindInvalidAmountFormat))
	assert.Equal(t, http.StatusServiceUnavailable, httperrors.StatusForKind(transfer.KindRPCUnavailable))
	assert.Equal(t, http.StatusInternalServerError, httperrors.StatusForKind(transfer.KindBroadcastFailed))
	assert.Equal(t, http.StatusInternalServerError, httperrors.StatusForKind(transfer.KindUnknown))
}

func TestNewRelayErrorResponse(t *testing.T) {
	svc, err := i18n.New(config.Server{})
	require.NoError(t, err)

	res := httperrors.NewRelayErrorResponse(svc, language.English, transfer.NewError(transfer.KindSignatureInvalid, "signed by 0x01"))
	assert.False(t, res.Success)
	assert.Equal(t, "SignatureInvalid", res.Code)
	assert.Equal(t, "The signature does not belong to the sender. (signed by 0x01)", res.Error)

	res = httperrors.NewRelayErrorResponse(svc, language.Chinese, &transfer.Error{Kind: transfer.KindReplayed})
	assert.Equal(t, "该交易已提交过。", res.Error)

	res = httperrors.NewRelayErrorResponse(svc, language.English, errors.New("dial tcp 10.0.0.1:8545: refused"))
	assert.Equal(t, httperrors.CodeUnknown, res.Code)
	assert.Equal(t, "An unexpected error occurred.", res.Error)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		hideInternal bool
		status       int
		contains     string
		notContains  string
	}{
		{"http error", httperrors.ErrTooManyRequests, true, http.StatusTooManyRequests, "Too many requests.", ""},
		{"echo error", echo.ErrNotFound, true, http.StatusNotFound, `"status":404`, ""},
		{"internal shown", errors.New("boom"), false, http.StatusInternalServerError, "boom", ""},
		{"internal hidden", errors.New("boom"), true, http.StatusInternalServerError, "Internal Server Error", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			httperrors.NewErrorHandler(tt.hideInternal)(tt.err, c)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
			if tt.notContains != "" {
				assert.NotContains(t, rec.Body.String(), tt.notContains)
			}
		})
	}
}
