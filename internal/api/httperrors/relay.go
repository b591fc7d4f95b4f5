package httperrors

import (
	"net/http"

	"github/chapool/transfer-relay/internal/i18n"
	"github/chapool/transfer-relay/internal/transfer"
	"github/chapool/transfer-relay/internal/types"
	"golang.org/x/text/language"
)

// CodeUnknown is reported for errors without a kind.
const CodeUnknown = "Unknown"

// StatusForKind maps an error kind to the status of the /prepare and /token
// endpoints. /broadcast always answers failures with 500.
func StatusForKind(kind transfer.ErrorKind) int {
	switch kind {
	case transfer.KindInvalidAmountFormat,
		transfer.KindInvalidAddress,
		transfer.KindMissingField,
		transfer.KindInvalidTransaction:
		return http.StatusBadRequest
	case transfer.KindRPCUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// LocalizedMessage renders err as the user facing status message in lang.
// Unclassified errors never expose their text.
func LocalizedMessage(svc *i18n.Service, lang language.Tag, err error) string {
	kind := transfer.KindOf(err)
	if kind == transfer.KindUnknown {
		return svc.Translate("status.Unknown", lang)
	}

	msg := svc.Translate("status."+string(kind), lang)

	reason := transfer.ReasonOf(err)
	if reason == "" {
		return msg
	}

	return svc.Translate("status.detail", lang, i18n.Data{
		"Message": msg,
		"Reason":  reason,
	})
}

// NewRelayErrorResponse builds the {success, error, code} body for err.
func NewRelayErrorResponse(svc *i18n.Service, lang language.Tag, err error) types.ErrorResponse {
	code := string(transfer.KindOf(err))
	if code == "" {
		code = CodeUnknown
	}

	return types.ErrorResponse{
		Success: false,
		Error:   LocalizedMessage(svc, lang, err),
		Code:    code,
	}
}
