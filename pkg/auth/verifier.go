package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// IdentityVerifier turns a client-supplied assertion into a verified
// external profile.
type IdentityVerifier interface {
	Provider() string
	Verify(ctx context.Context, assertion Assertion) (ProviderProfile, error)
}

// OIDCConfig describes an OpenID Connect provider.
type OIDCConfig struct {
	Provider     string
	Issuer       string
	JWKSURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	Scopes       []string
	Timeout      time.Duration
}

// OIDCVerifier verifies ID tokens against the provider's published keys and
// exchanges authorization codes for ID tokens.
type OIDCVerifier struct {
	provider   string
	oauth      *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
	timeout    time.Duration
}

// VerifierOption configures an OIDCVerifier.
type VerifierOption func(*verifierOptions)

type verifierOptions struct {
	httpClient *http.Client
	now        func() time.Time
}

// WithVerifierHTTPClient replaces the HTTP client used for key and token requests.
func WithVerifierHTTPClient(c *http.Client) VerifierOption {
	return func(o *verifierOptions) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithVerifierClock overrides the time source for token expiry checks.
func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(o *verifierOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOIDCVerifier builds a verifier without contacting the provider; keys are
// fetched lazily on first use.
func NewOIDCVerifier(cfg OIDCConfig, opts ...VerifierOption) (*OIDCVerifier, error) {
	if cfg.Provider == "" || cfg.Issuer == "" || cfg.JWKSURL == "" || cfg.ClientID == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("oidc provider, issuer, jwks url and client id are required"))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}

	o := &verifierOptions{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	keySet := oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), o.httpClient), cfg.JWKSURL)

	return &OIDCVerifier{
		provider: cfg.Provider,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     cfg.Endpoint,
			Scopes:       cfg.Scopes,
		},
		verifier: oidc.NewVerifier(cfg.Issuer, keySet, &oidc.Config{
			ClientID: cfg.ClientID,
			Now:      o.now,
		}),
		httpClient: o.httpClient,
		timeout:    cfg.Timeout,
	}, nil
}

func (v *OIDCVerifier) Provider() string { return v.provider }

// AuthCodeURL returns the provider consent URL for the code flow.
func (v *OIDCVerifier) AuthCodeURL(state string) string {
	return v.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Verify checks signature, issuer, audience and expiry of the ID token,
// exchanging the code first when no token was supplied.
func (v *OIDCVerifier) Verify(ctx context.Context, assertion Assertion) (ProviderProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	ctx = oidc.ClientContext(ctx, v.httpClient)

	raw := assertion.IDToken
	if raw == "" {
		if assertion.Code == "" {
			return ProviderProfile{}, ErrMissingAssertion
		}
		token, err := v.oauth.Exchange(ctx, assertion.Code)
		if err != nil {
			return ProviderProfile{}, fmt.Errorf("%s code exchange: %w", v.provider, err)
		}
		idToken, ok := token.Extra("id_token").(string)
		if !ok || idToken == "" {
			return ProviderProfile{}, ErrNoIDToken
		}
		raw = idToken
	}

	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return ProviderProfile{}, fmt.Errorf("%s id token verification: %w", v.provider, err)
	}

	var claims struct {
		Email         string       `json:"email"`
		EmailVerified flexibleBool `json:"email_verified"`
		Name          string       `json:"name"`
		Picture       string       `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return ProviderProfile{}, fmt.Errorf("%s id token claims: %w", v.provider, err)
	}
	if idToken.Subject == "" {
		return ProviderProfile{}, fmt.Errorf("%s id token carries no subject", v.provider)
	}
	if claims.Email == "" {
		return ProviderProfile{}, ErrMissingEmailClaim
	}

	return ProviderProfile{
		Provider:      v.provider,
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		Name:          claims.Name,
		AvatarURL:     claims.Picture,
	}, nil
}

// flexibleBool accepts both true and "true"; some providers send the
// email_verified claim as a string.
type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexibleBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = flexibleBool(strings.EqualFold(s, "true"))
	return nil
}

var _ IdentityVerifier = (*OIDCVerifier)(nil)
