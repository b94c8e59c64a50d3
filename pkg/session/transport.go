package session

import (
	"net/http"
	"time"
)

// Transport moves a refresh token between client and server.
type Transport interface {
	GetToken(r *http.Request) (string, error)
	SetToken(w http.ResponseWriter, token string, expiresAt time.Time) error
	ClearToken(w http.ResponseWriter) error
}
