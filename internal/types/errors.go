package types

// PublicHTTPError is the body of generic API errors such as unknown routes or
// malformed requests.
type PublicHTTPError struct {
	// HTTP status code
	Code int `json:"status"`
	// Type of error
	Type string `json:"type"`
	// Short, human-readable description
	Title string `json:"title"`
	// More detailed description, may be omitted
	Detail string `json:"detail,omitempty"`
}

const (
	PublicHTTPErrorTypeGeneric        = "generic"
	PublicHTTPErrorTypeBadRequest     = "bad_request"
	PublicHTTPErrorTypeNotFound       = "not_found"
	PublicHTTPErrorTypeRateLimited    = "rate_limited"
	PublicHTTPErrorTypeNotReady       = "not_ready"
	PublicHTTPErrorTypeInternalServer = "internal_server_error"
)
