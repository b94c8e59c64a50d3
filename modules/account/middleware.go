package account

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/acmeworks/identity/handler"
	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/jwt"
)

// Authenticator verifies bearer access tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.AccessClaims, error)
}

// RequireAuth rejects requests without a valid bearer access token and stores
// the verified *auth.AccessClaims in the request context.
func RequireAuth(a Authenticator, eh handler.ErrorHandler[handler.Context]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := jwt.BearerTokenExtractor(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				eh(handler.NewContext(w, r), errors.Join(handler.ErrUnauthorized, err))
				return
			}

			claims, err := a.Authenticate(r.Context(), token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				eh(handler.NewContext(w, r), mapError(err))
				return
			}

			ctx := jwt.SetToken(r.Context(), token)
			ctx = jwt.SetClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityID returns the authenticated identity stored by RequireAuth.
func IdentityID(ctx context.Context) (uuid.UUID, error) {
	claims, ok := jwt.GetClaims[*auth.AccessClaims](ctx)
	if !ok || claims == nil {
		return uuid.Nil, errMissingSubject
	}
	id, err := claims.IdentityID()
	if err != nil {
		return uuid.Nil, errors.Join(errMissingSubject, err)
	}
	return id, nil
}
