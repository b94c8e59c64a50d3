// Package session carries refresh tokens over HTTP.
//
// Browser clients get the token in an encrypted HttpOnly cookie scoped to the
// auth routes; API clients send it in the X-Refresh-Token header. A
// CompositeTransport accepts either:
//
//	tr := session.NewCompositeTransport(
//		session.NewCookieTransport(cookies, session.DefaultCookieName, cookie.WithPath("/auth")),
//		session.NewHeaderTransport(""),
//	)
package session
