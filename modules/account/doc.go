// Package account exposes the identity service over HTTP.
//
// Router mounts JSON endpoints under /auth (login, register, logout,
// refresh, oauth/{provider}, forgot-password, reset-password, verify-email,
// resend-verification, providers) and under /user, which requires a bearer
// access token (me, password, accounts/{provider}, avatar/upload-url).
//
// Service errors are mapped by kind: unauthorized 401, forbidden 403,
// conflict 409, not_found 404, bad_request 400 and internal 500. Refresh
// tokens are read from the JSON body first and then from the configured
// session.Transport; successful logins and refreshes write the new token back
// through the same transport.
package account
