package account

import (
	"errors"
	"net/http"

	"github.com/acmeworks/identity/handler"
	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/file"
	"github.com/acmeworks/identity/pkg/validator"
)

var (
	errInvalidUpload       = handler.HTTPError{Code: http.StatusBadRequest, Key: "bad_request", Message: "invalid file type or size"}
	errAvatarMissing       = handler.HTTPError{Code: http.StatusBadRequest, Key: "bad_request", Message: "avatar has not been uploaded"}
	errAvatarOutsideBucket = handler.HTTPError{Code: http.StatusBadRequest, Key: "bad_request", Message: "avatar must be uploaded through the upload url"}
	errForeignAvatar       = handler.HTTPError{Code: http.StatusForbidden, Key: "forbidden", Message: "avatar belongs to another user"}
	errMissingSubject      = handler.HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized", Message: "invalid or expired access token"}
)

var kindStatus = map[auth.Kind]int{
	auth.KindUnauthorized: http.StatusUnauthorized,
	auth.KindForbidden:    http.StatusForbidden,
	auth.KindConflict:     http.StatusConflict,
	auth.KindNotFound:     http.StatusNotFound,
	auth.KindBadRequest:   http.StatusBadRequest,
	auth.KindInternal:     http.StatusInternalServerError,
}

// mapError turns a service error into something handler.JSONError renders
// with the right status. Validation failures pass through untouched so their
// field details survive.
func mapError(err error) error {
	if _, ok := validator.Extract(err); ok {
		return err
	}

	var ae *auth.Error
	if errors.As(err, &ae) {
		status, ok := kindStatus[ae.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		return handler.NewHTTPError(status, string(ae.Kind), ae.Message, err)
	}

	switch {
	case errors.Is(err, file.ErrMIMETypeNotAllowed),
		errors.Is(err, file.ErrInvalidSize),
		errors.Is(err, file.ErrInvalidKey):
		return errors.Join(errInvalidUpload, err)
	}
	return err
}
