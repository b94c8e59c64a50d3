package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/acmeworks/identity/pkg/validator"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// JSONResponse is the envelope of every JSON response.
type JSONResponse struct {
	Status string         `json:"status"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
	Error  *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail contains error information. Details lists field messages for
// validation failures.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures JSON response
type JSONOption func(*jsonResponse)

// WithJSONStatus sets custom HTTP status code
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// WithJSONMeta adds metadata to response
func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) {
		r.body.Meta = meta
	}
}

// JSON creates a success envelope around v. A nil v yields
// {"status":"success"}.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{
		status: http.StatusOK,
		body:   JSONResponse{Status: StatusSuccess, Data: v},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError creates an error envelope. Only HTTPError messages and
// validation details reach the client; anything else renders as a generic
// internal error.
func JSONError(err error, opts ...JSONOption) Response {
	status, detail := ErrorToDetail(err)
	r := &jsonResponse{
		status: status,
		body:   JSONResponse{Status: StatusError, Error: detail},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ErrorToDetail classifies err into a status code and client-facing detail.
func ErrorToDetail(err error) (int, *ErrorDetail) {
	if ve, ok := validator.Extract(err); ok {
		return http.StatusBadRequest, &ErrorDetail{
			Code:    "validation_error",
			Message: "request validation failed",
			Details: ve.Fields(),
		}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		message := httpErr.Message
		if message == "" {
			message = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: message}
	}

	return ErrInternal.Code, &ErrorDetail{Code: ErrInternal.Key, Message: ErrInternal.Message}
}
