package handler

import (
	"errors"
	"net/http"
)

var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError carries a status, a stable machine-readable code and the
// message shown to clients.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	cause   error
}

// NewHTTPError wraps cause with a client-facing status, code and message.
// cause may be nil.
func NewHTTPError(status int, code, message string, cause error) HTTPError {
	return HTTPError{Status: status, Code: code, Message: message, cause: cause}
}

func (e HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

func (e HTTPError) Unwrap() error { return e.cause }
