package handler

import (
	"errors"
	"net/http"
)

// HTTPError carries a status code, a machine-readable key and a message that
// is safe to show to clients.
type HTTPError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

func (e HTTPError) Error() string {
	if e.Err != nil {
		return e.Key + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Key + ": " + e.Message
	}
	return e.Key
}

func (e HTTPError) Unwrap() error { return e.Err }

// Is matches another HTTPError by status code and key.
func (e HTTPError) Is(target error) bool {
	var t HTTPError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Key == t.Key
}

// NewHTTPError builds an HTTPError whose message defaults to the status text.
func NewHTTPError(code int, key, message string, cause error) HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	return HTTPError{Code: code, Key: key, Message: message, Err: cause}
}

var (
	ErrBadRequest   = HTTPError{Code: http.StatusBadRequest, Key: "bad_request", Message: "malformed request"}
	ErrUnauthorized = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized", Message: "authentication required"}
	ErrForbidden    = HTTPError{Code: http.StatusForbidden, Key: "forbidden", Message: "access denied"}
	ErrNotFound     = HTTPError{Code: http.StatusNotFound, Key: "not_found", Message: "resource not found"}
	ErrConflict     = HTTPError{Code: http.StatusConflict, Key: "conflict", Message: "resource conflict"}
	ErrTooMany      = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests", Message: "too many requests, try again later"}
	ErrInternal     = HTTPError{Code: http.StatusInternalServerError, Key: "internal_error", Message: "internal error"}
)
