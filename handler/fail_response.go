package handler

import "net/http"

type failResponse struct {
	err error
}

func (f failResponse) Render(http.ResponseWriter, *http.Request) error {
	return f.err
}

// Fail hands err to the ErrorHandler configured on Wrap instead of writing
// a body itself, so every failure is logged and rendered in one place.
func Fail(err error) Response {
	if err == nil {
		err = ErrInternal
	}
	return failResponse{err: err}
}
