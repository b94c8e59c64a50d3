package auth

import (
	"time"

	"golang.org/x/oauth2/google"
)

const (
	googleIssuer  = "https://accounts.google.com"
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// GoogleOAuthConfig holds configuration for Google sign-in.
type GoogleOAuthConfig struct {
	ClientID     string        `env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string        `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	RedirectURL  string        `env:"GOOGLE_OAUTH_REDIRECT_URL"`
	Scopes       []string      `env:"GOOGLE_OAUTH_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
	Timeout      time.Duration `env:"GOOGLE_OAUTH_TIMEOUT" envDefault:"10s"`
}

// Enabled reports whether Google sign-in is configured.
func (c GoogleOAuthConfig) Enabled() bool {
	return c.ClientID != ""
}

// NewGoogleVerifier returns an OIDC verifier preset for Google accounts.
func NewGoogleVerifier(cfg GoogleOAuthConfig, opts ...VerifierOption) (*OIDCVerifier, error) {
	return NewOIDCVerifier(OIDCConfig{
		Provider:     ProviderGoogle,
		Issuer:       googleIssuer,
		JWKSURL:      googleJWKSURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       cfg.Scopes,
		Timeout:      cfg.Timeout,
	}, opts...)
}
