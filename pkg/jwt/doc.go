// Package jwt signs and verifies HS256 JSON Web Tokens on top of
// github.com/golang-jwt/jwt/v5 and carries verified claims through a request
// context.
//
// Service owns one symmetric key. Parse always requires an "exp" claim,
// rejects every algorithm other than HS256, and reports failures through the
// package sentinel errors so callers never depend on the underlying library:
//
//	svc, err := jwt.NewFromString(secret, jwt.WithIssuer("identity"))
//	if err != nil {
//		return err
//	}
//	token, err := svc.Generate(claims)
//
//	var parsed MyClaims
//	if err := svc.Parse(token, &parsed); errors.Is(err, jwt.ErrExpiredToken) {
//		// refresh
//	}
//
// SetClaims and GetClaims attach verified claims to a context.Context;
// BearerTokenExtractor reads the token from the Authorization header.
package jwt
