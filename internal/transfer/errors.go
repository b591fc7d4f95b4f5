package transfer

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure of the transfer/relay protocol.
type ErrorKind string

const (
	KindUnknown             ErrorKind = ""
	KindInvalidAmountFormat ErrorKind = "InvalidAmountFormat"
	KindInvalidAddress      ErrorKind = "InvalidAddress"
	KindMissingField        ErrorKind = "MissingField"
	KindInvalidTransaction  ErrorKind = "InvalidTransaction"
	KindHashMismatch        ErrorKind = "HashMismatch"
	KindSignatureInvalid    ErrorKind = "SignatureInvalid"
	KindReplayed            ErrorKind = "Replayed"
	KindRPCUnavailable      ErrorKind = "RPCUnavailable"
	KindBroadcastFailed     ErrorKind = "BroadcastFailed"
	// KindWalletRejected is client-local, the relay never produces it.
	KindWalletRejected ErrorKind = "WalletRejected"
)

// Error is a classified protocol error. Reason is safe to show to end users,
// Err carries the underlying cause for logs only.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrHashMismatch) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind && t.Reason == "" && t.Err == nil
}

// NewError returns a classified error without cause.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// WrapError classifies err under kind.
func WrapError(err error, kind ErrorKind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf extracts the ErrorKind of err, KindUnknown if err is not classified.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// ReasonOf returns the user-facing reason of a classified error.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}

	return ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidAmountFormat = &Error{Kind: KindInvalidAmountFormat}
	ErrInvalidAddress      = &Error{Kind: KindInvalidAddress}
	ErrMissingField        = &Error{Kind: KindMissingField}
	ErrInvalidTransaction  = &Error{Kind: KindInvalidTransaction}
	ErrHashMismatch        = &Error{Kind: KindHashMismatch}
	ErrSignatureInvalid    = &Error{Kind: KindSignatureInvalid}
	ErrReplayed            = &Error{Kind: KindReplayed}
	ErrRPCUnavailable      = &Error{Kind: KindRPCUnavailable}
	ErrBroadcastFailed     = &Error{Kind: KindBroadcastFailed}
	ErrWalletRejected      = &Error{Kind: KindWalletRejected}
)
