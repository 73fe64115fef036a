package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for caller mistakes detected before any request is sent.
var (
	// ErrNoAPIKey is returned by New when no API key is configured.
	ErrNoAPIKey = errors.New("sintel: no API key configured")

	// ErrBestCategory is returned when a best-match lookup is attempted
	// with a category outside the whois/geoloc/inetnum/threatlist set.
	ErrBestCategory = errors.New("sintel: category not supported by best-match lookups")

	// ErrNoBulkData is returned when a bulk operation is invoked with an
	// empty needle list.
	ErrNoBulkData = errors.New("sintel: bulk request requires needle data")
)

// ErrorKind classifies an API failure.
type ErrorKind string

const (
	// ErrorKindRateLimited means the server answered 429. The client does
	// not retry; callers must back off.
	ErrorKindRateLimited ErrorKind = "rate_limited"

	// ErrorKindBadRequest means the server rejected the request with 400
	// and a diagnostic body.
	ErrorKindBadRequest ErrorKind = "bad_request"

	// ErrorKindUnexpectedStatus covers every other status >= 300.
	ErrorKindUnexpectedStatus ErrorKind = "unexpected_status"

	// ErrorKindProxyUnreachable means the configured proxy could not be
	// reached at the transport level.
	ErrorKindProxyUnreachable ErrorKind = "proxy_unreachable"

	// ErrorKindDecode means a response body was malformed or lacked an
	// expected field.
	ErrorKindDecode ErrorKind = "decode"
)

// APIError is the terminal failure of one API call. Kind selects which of
// the remaining fields carry information.
type APIError struct {
	Kind       ErrorKind
	StatusCode int    // HTTP status that produced the error, when applicable
	Text       string // server diagnostic text for bad_request
	Code       int    // server numeric error code for bad_request
	Err        error  // underlying transport or decode error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case ErrorKindRateLimited:
		return "sintel: rate limiting triggered"
	case ErrorKindBadRequest:
		return fmt.Sprintf("sintel: server refused to process the request: %s (err=%d)", e.Text, e.Code)
	case ErrorKindUnexpectedStatus:
		return fmt.Sprintf("sintel: unexpected response status %d", e.StatusCode)
	case ErrorKindProxyUnreachable:
		return fmt.Sprintf("sintel: proxy connection failed: %v", e.Err)
	case ErrorKindDecode:
		if e.Err != nil {
			return fmt.Sprintf("sintel: %s: %v", e.Text, e.Err)
		}
		return fmt.Sprintf("sintel: %s", e.Text)
	default:
		return fmt.Sprintf("sintel: api error (%s)", e.Kind)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error { return e.Err }

func newRateLimited() *APIError {
	return &APIError{Kind: ErrorKindRateLimited, StatusCode: 429}
}

func newBadRequest(text string, code int) *APIError {
	return &APIError{Kind: ErrorKindBadRequest, StatusCode: 400, Text: text, Code: code}
}

func newUnexpectedStatus(status int) *APIError {
	return &APIError{Kind: ErrorKindUnexpectedStatus, StatusCode: status}
}

func newProxyUnreachable(err error) *APIError {
	return &APIError{Kind: ErrorKindProxyUnreachable, Err: err}
}

func newDecodeError(what string, err error) *APIError {
	return &APIError{Kind: ErrorKindDecode, Text: what, Err: err}
}
