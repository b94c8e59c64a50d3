package session

import "errors"

var ErrTokenNotFound = errors.New("session.token_not_found")
