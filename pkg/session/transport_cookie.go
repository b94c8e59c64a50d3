package session

import (
	"net/http"
	"time"

	"github.com/acmeworks/identity/pkg/cookie"
)

const DefaultCookieName = "refresh_token"

// CookieTransport keeps the token in an encrypted HttpOnly cookie.
type CookieTransport struct {
	mgr     *cookie.Manager
	name    string
	options []cookie.Option
	now     func() time.Time
}

// NewCookieTransport stores the token under name. Options such as
// cookie.WithPath("/auth") apply to both set and clear.
func NewCookieTransport(mgr *cookie.Manager, name string, opts ...cookie.Option) *CookieTransport {
	if name == "" {
		name = DefaultCookieName
	}
	return &CookieTransport{mgr: mgr, name: name, options: opts, now: time.Now}
}

func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	token, err := t.mgr.GetEncrypted(r, t.name)
	if err != nil || token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, expiresAt time.Time) error {
	maxAge := int(expiresAt.Sub(t.now()).Seconds())
	if maxAge <= 0 {
		return t.ClearToken(w)
	}
	opts := append([]cookie.Option{cookie.WithHTTPOnly(true)}, t.options...)
	opts = append(opts, cookie.WithMaxAge(maxAge))
	return t.mgr.SetEncrypted(w, t.name, token, opts...)
}

func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.mgr.Delete(w, t.name, t.options...)
	return nil
}
