package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CredentialStore persists identities and their external account links.
// Emails are stored already normalized.
type CredentialStore interface {
	// CreateIdentity returns ErrDuplicateEmail on an email collision.
	CreateIdentity(ctx context.Context, identity *Identity) error
	// CreateIdentityWithLink inserts both records atomically. It returns
	// ErrDuplicateEmail or ErrDuplicateLink and leaves nothing behind.
	CreateIdentityWithLink(ctx context.Context, identity *Identity, link *ExternalAccount) error
	GetIdentityByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*Identity, error)
	// MarkEmailVerified sets the verification timestamp if it is not set yet.
	MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error
	UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*Identity, error)

	// CreateLink returns ErrDuplicateLink when (provider, subject) or
	// (identity, provider) is already taken.
	CreateLink(ctx context.Context, link *ExternalAccount) error
	GetLink(ctx context.Context, provider, subject string) (*ExternalAccount, error)
	ListLinks(ctx context.Context, identityID uuid.UUID) ([]ExternalAccount, error)
	// DeleteLink removes the identity's link for provider. It returns
	// ErrLinkNotFound, or ErrLastAuthMethod when the identity has no password
	// and this is its only link. The check and the delete are one atomic step.
	DeleteLink(ctx context.Context, identityID uuid.UUID, provider string) error
}

// SessionStore persists one record per live refresh token.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByToken(ctx context.Context, token string) (*Session, error)
	// RotateSession replaces the token and expiry of session id only if its
	// current token is still oldToken. A lost race returns ErrSessionNotFound.
	RotateSession(ctx context.Context, id uuid.UUID, oldToken, newToken string, expiresAt time.Time) error
	// DeleteSessionByToken is idempotent.
	DeleteSessionByToken(ctx context.Context, token string) error
	DeleteSessionsByIdentity(ctx context.Context, identityID uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// EphemeralTokenStore persists single-use tokens.
type EphemeralTokenStore interface {
	// ReplaceEphemeralToken deletes every token for (identifier, purpose) and
	// inserts token, atomically.
	ReplaceEphemeralToken(ctx context.Context, token *EphemeralToken) error
	// ConsumeEphemeralToken atomically removes and returns the record, expired
	// or not. Only one concurrent caller can win.
	ConsumeEphemeralToken(ctx context.Context, token string, purpose Purpose) (*EphemeralToken, error)
	DeleteExpiredEphemeralTokens(ctx context.Context, before time.Time) (int64, error)
}

// Notifier delivers out-of-band links.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, identity PublicIdentity, token string) error
	SendPasswordResetEmail(ctx context.Context, identity PublicIdentity, token string) error
}
