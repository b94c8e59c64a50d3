package session_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmeworks/identity/pkg/cookie"
	"github.com/acmeworks/identity/pkg/session"
)

func newCookies(t *testing.T) *cookie.Manager {
	t.Helper()
	m, err := cookie.New([]string{strings.Repeat("k", 32)})
	require.NoError(t, err)
	return m
}

func TestCookieTransport(t *testing.T) {
	t.Parallel()

	tr := session.NewCookieTransport(newCookies(t), "", cookie.WithPath("/auth"))

	rec := httptest.NewRecorder()
	require.NoError(t, tr.SetToken(rec, "tok", time.Now().Add(time.Hour)))

	c := rec.Result().Cookies()[0]
	assert.Equal(t, session.DefaultCookieName, c.Name)
	assert.Equal(t, "/auth", c.Path)
	assert.True(t, c.HttpOnly)
	assert.InDelta(t, 3600, c.MaxAge, 2)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(c)
	got, err := tr.GetToken(req)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	_, err = tr.GetToken(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	assert.ErrorIs(t, err, session.ErrTokenNotFound)

	rec = httptest.NewRecorder()
	require.NoError(t, tr.ClearToken(rec))
	cleared := rec.Result().Cookies()[0]
	assert.Equal(t, "/auth", cleared.Path)
	assert.Equal(t, -1, cleared.MaxAge)

	rec = httptest.NewRecorder()
	require.NoError(t, tr.SetToken(rec, "tok", time.Now().Add(-time.Minute)))
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestHeaderTransport(t *testing.T) {
	t.Parallel()

	tr := session.NewHeaderTransport("")

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	_, err := tr.GetToken(req)
	assert.ErrorIs(t, err, session.ErrTokenNotFound)

	req.Header.Set(session.DefaultHeaderName, " tok ")
	got, err := tr.GetToken(req)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	rec := httptest.NewRecorder()
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, tr.SetToken(rec, "next", exp))
	assert.Equal(t, "next", rec.Header().Get(session.DefaultHeaderName))
	assert.Equal(t, "2030-01-02T03:04:05Z", rec.Header().Get(session.DefaultHeaderName+"-Expires"))

	require.NoError(t, tr.ClearToken(rec))
	assert.Empty(t, rec.Header().Get(session.DefaultHeaderName))
}

func TestCompositeTransport(t *testing.T) {
	t.Parallel()

	cookies := session.NewCookieTransport(newCookies(t), "")
	header := session.NewHeaderTransport("")
	tr := session.NewCompositeTransport(cookies, header)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(session.DefaultHeaderName, "from-header")
	got, err := tr.GetToken(req)
	require.NoError(t, err)
	assert.Equal(t, "from-header", got)

	_, err = tr.GetToken(httptest.NewRequest(http.MethodPost, "/", nil))
	assert.ErrorIs(t, err, session.ErrTokenNotFound)

	rec := httptest.NewRecorder()
	require.NoError(t, tr.SetToken(rec, "both", time.Now().Add(time.Hour)))
	assert.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, "both", rec.Header().Get(session.DefaultHeaderName))
}
