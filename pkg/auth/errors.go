package auth

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure for callers.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
	KindBadRequest   Kind = "bad_request"
	KindInternal     Kind = "internal"
)

// Error is the only error type returned by Service operations. Message is
// safe to show to an end user; Err keeps the cause for logs and errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind and message, so the package-level
// errors below work as sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Operation errors. Messages are deliberately generic where they guard
// against account enumeration.
var (
	ErrInvalidCredentials  = &Error{Kind: KindUnauthorized, Message: "invalid email or password"}
	ErrInvalidRefreshToken = &Error{Kind: KindUnauthorized, Message: "invalid or missing refresh token"}
	ErrInvalidAccessToken  = &Error{Kind: KindUnauthorized, Message: "invalid or expired access token"}
	ErrOAuthFailed         = &Error{Kind: KindUnauthorized, Message: "could not verify external identity"}
	ErrWrongPassword       = &Error{Kind: KindUnauthorized, Message: "current password is incorrect"}
	ErrEmailNotVerified    = &Error{Kind: KindForbidden, Message: "email address is not verified"}
	ErrProviderUnverified  = &Error{Kind: KindForbidden, Message: "provider has not verified this email address"}
	ErrEmailTaken          = &Error{Kind: KindConflict, Message: "email already exists"}
	ErrAccountLinked       = &Error{Kind: KindConflict, Message: "external account is linked to another user"}
	ErrProviderAlreadyUsed = &Error{Kind: KindConflict, Message: "another account of this provider is already linked"}
	ErrLinkMissing         = &Error{Kind: KindNotFound, Message: "no linked account for this provider"}
	ErrIdentityMissing     = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrInvalidEphemeral    = &Error{Kind: KindBadRequest, Message: "invalid or expired token"}
	ErrUnsupportedProvider = &Error{Kind: KindBadRequest, Message: "unsupported provider"}
	ErrLastSignInMethod    = &Error{Kind: KindBadRequest, Message: "cannot remove the last sign-in method"}
	ErrInvalidInput        = &Error{Kind: KindBadRequest, Message: "invalid input"}
	ErrMissingAssertion    = &Error{Kind: KindBadRequest, Message: "id token or authorization code is required"}
	ErrInternal            = &Error{Kind: KindInternal, Message: "internal error"}
)

// Storage sentinels. Store implementations return these; Service maps them
// at the operation boundary and never lets them through unchanged.
var (
	ErrIdentityNotFound       = errors.New("identity not found")
	ErrDuplicateEmail         = errors.New("duplicate email")
	ErrDuplicateLink          = errors.New("duplicate external account link")
	ErrLinkNotFound           = errors.New("external account link not found")
	ErrLastAuthMethod         = errors.New("identity would be left without a sign-in method")
	ErrSessionNotFound        = errors.New("session not found")
	ErrEphemeralTokenNotFound = errors.New("ephemeral token not found")
)

// Verifier sentinels.
var (
	ErrNoIDToken         = errors.New("token response carries no id_token")
	ErrMissingEmailClaim = errors.New("id token carries no email claim")
)
