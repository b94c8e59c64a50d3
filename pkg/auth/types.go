package auth

import (
	"time"

	"github.com/google/uuid"
)

// Role tags an identity for coarse authorization decisions.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Purpose scopes an ephemeral token to one out-of-band flow.
type Purpose string

const (
	PurposeVerifyEmail   Purpose = "verify_email"
	PurposeResetPassword Purpose = "reset_password"
)

// Supported OAuth provider identifiers.
const (
	ProviderGoogle = "google"
)

// Identity is the persisted account record. PasswordHash never leaves pkg/auth;
// callers receive PublicIdentity instead.
type Identity struct {
	ID              uuid.UUID
	Email           string
	PasswordHash    []byte
	Name            string
	AvatarURL       string
	EmailVerifiedAt *time.Time
	Role            Role
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasPassword reports whether the identity can sign in with a password.
func (i *Identity) HasPassword() bool {
	return len(i.PasswordHash) > 0
}

// IsVerified reports whether the email address has been confirmed.
func (i *Identity) IsVerified() bool {
	return i.EmailVerifiedAt != nil
}

// Public returns the projection that is safe to hand to callers.
func (i *Identity) Public() PublicIdentity {
	return PublicIdentity{
		ID:              i.ID,
		Email:           i.Email,
		Name:            i.Name,
		AvatarURL:       i.AvatarURL,
		Role:            i.Role,
		EmailVerified:   i.IsVerified(),
		EmailVerifiedAt: i.EmailVerifiedAt,
		HasPassword:     i.HasPassword(),
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

// PublicIdentity is the identity as exposed outside the service.
type PublicIdentity struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name,omitempty"`
	AvatarURL       string     `json:"avatarUrl,omitempty"`
	Role            Role       `json:"role"`
	EmailVerified   bool       `json:"emailVerified"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt,omitempty"`
	HasPassword     bool       `json:"hasPassword"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ExternalAccount links a provider subject to exactly one identity.
type ExternalAccount struct {
	IdentityID uuid.UUID
	Provider   string
	Subject    string
	CreatedAt  time.Time
}

// Session tracks one live refresh token. Rotation rewrites Token and ExpiresAt
// in place; ID never changes.
type Session struct {
	ID         uuid.UUID
	Token      string
	IdentityID uuid.UUID
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsExpired reports whether the session is past its expiry at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// EphemeralToken is a single-use token bound to an identifier and a purpose.
type EphemeralToken struct {
	Token      string
	Identifier string
	Purpose    Purpose
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// IsExpired reports whether the token is past its expiry at now.
func (t *EphemeralToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// AuthResult is returned by every operation that opens or rotates a session.
type AuthResult struct {
	AccessToken      string         `json:"accessToken"`
	RefreshToken     string         `json:"refreshToken"`
	AccessExpiresAt  time.Time      `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time      `json:"refreshExpiresAt"`
	Identity         PublicIdentity `json:"user"`
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// ProfileInput carries optional profile changes. Nil fields are left untouched.
type ProfileInput struct {
	Name      *string
	AvatarURL *string
}

// Assertion is what a client hands over after the provider round trip:
// either a raw ID token or an authorization code to exchange.
type Assertion struct {
	IDToken string
	Code    string
}

// ProviderProfile is the verified external identity returned by a verifier.
type ProviderProfile struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}
