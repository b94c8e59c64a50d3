package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acmeworks/identity/pkg/jwt"
)

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IdentityID parses the subject claim.
func (c *AccessClaims) IdentityID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// RefreshClaims is the payload of a refresh token. The random ID makes every
// issued token unique even within the same second.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// TokenPair is the output of TokenCodec.Issue.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenCodec signs access and refresh tokens with separate keys.
type TokenCodec struct {
	access     *jwt.Service
	refresh    *jwt.Service
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec builds a codec from config. Both secrets are required.
func NewTokenCodec(cfg Config, now func() time.Time) (*TokenCodec, error) {
	if now == nil {
		now = time.Now
	}
	opts := []jwt.Option{jwt.WithIssuer(cfg.Issuer), jwt.WithClock(now)}

	access, err := jwt.NewFromString(cfg.AccessTokenSecret, opts...)
	if err != nil {
		return nil, fmt.Errorf("access token signer: %w", err)
	}
	refresh, err := jwt.NewFromString(cfg.RefreshTokenSecret, opts...)
	if err != nil {
		return nil, fmt.Errorf("refresh token signer: %w", err)
	}

	return &TokenCodec{
		access:     access,
		refresh:    refresh,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        now,
	}, nil
}

// RefreshTTL is the fixed lifetime of refresh tokens and their sessions.
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// Issue signs a fresh access and refresh token for identity.
func (c *TokenCodec) Issue(identity *Identity) (TokenPair, error) {
	now := c.now()
	accessExp := now.Add(c.accessTTL)
	refreshExp := now.Add(c.refreshTTL)

	access, err := c.access.Generate(&AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
		Email: identity.Email,
		Role:  identity.Role,
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := c.refresh.Generate(&RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ParseAccess verifies an access token.
func (c *TokenCodec) ParseAccess(token string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := c.access.Parse(token, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// ParseRefresh verifies a refresh token's own signature and expiry. It says
// nothing about whether the token is still live server-side.
func (c *TokenCodec) ParseRefresh(token string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := c.refresh.Parse(token, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// newOpaqueToken returns n random bytes encoded as unpadded base64url.
func newOpaqueToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
