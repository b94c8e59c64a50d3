// Package auth implements identity and session lifecycle: password sign-in,
// registration, refresh-token rotation, external (OpenID Connect) sign-in and
// account linking, and single-use tokens for email verification and password
// reset.
//
// # Composition
//
// Service is built from explicit collaborators; there are no package-level
// clients:
//
//	store := pgstore.New(pool)
//	sessions := redisstore.New(rdb)
//	google, err := auth.NewGoogleVerifier(googleCfg)
//	if err != nil {
//		return err
//	}
//
//	svc, err := auth.New(cfg, auth.Deps{
//		Credentials: store,
//		Sessions:    sessions,
//		Ephemeral:   sessions,
//		Notifier:    mailer,
//	}, auth.WithLogger(log), auth.WithVerifier(google))
//
// MemoryStore implements every store interface and is handy in tests.
//
// # Sessions
//
// A login issues a short-lived access token (stateless, 15 minutes by
// default) and a refresh token backed by one Session record. Refresh checks
// the token signature and the stored record, then rewrites that record in
// place with a compare-and-swap on the old token value. Of two concurrent
// refreshes with the same token exactly one succeeds. Every refresh failure
// is reported as the same Unauthorized error.
//
// # External accounts
//
// OAuthLogin resolves an external identity in a fixed order: an existing
// link for (provider, subject), then a local identity with the same verified
// email (which gets linked), then a new verified identity created together
// with its link. Unverified provider emails are rejected before any lookup.
//
// # Errors
//
// Operations return *Error with a Kind (Unauthorized, Forbidden, Conflict,
// NotFound, BadRequest, Internal) and a message that is safe to show. Store
// sentinels such as ErrDuplicateEmail never leave the package unmapped.
//
//	if auth.KindOf(err) == auth.KindConflict {
//		// email already registered
//	}
package auth
