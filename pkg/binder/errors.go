package binder

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrFailedToParsePath    = errors.New("failed to parse path parameters")
	ErrMissingContentType   = errors.New("missing content type")

	// ErrBinderNotApplicable tells the caller to skip the binder for this
	// request, e.g. a JSON binder facing an empty optional body.
	ErrBinderNotApplicable = errors.New("binder not applicable")
)
