package session

import (
	"net/http"
	"strings"
	"time"
)

const DefaultHeaderName = "X-Refresh-Token"

// HeaderTransport reads the token from a request header and echoes new
// tokens in a response header of the same name.
type HeaderTransport struct {
	name string
}

func NewHeaderTransport(name string) *HeaderTransport {
	if name == "" {
		name = DefaultHeaderName
	}
	return &HeaderTransport{name: name}
}

func (t *HeaderTransport) GetToken(r *http.Request) (string, error) {
	value := strings.TrimSpace(r.Header.Get(t.name))
	if value == "" {
		return "", ErrTokenNotFound
	}
	return value, nil
}

func (t *HeaderTransport) SetToken(w http.ResponseWriter, token string, expiresAt time.Time) error {
	w.Header().Set(t.name, token)
	w.Header().Set(t.name+"-Expires", expiresAt.UTC().Format(time.RFC3339))
	return nil
}

func (t *HeaderTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del(t.name)
	w.Header().Del(t.name + "-Expires")
	return nil
}
