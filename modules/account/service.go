package account

import (
	"context"

	"github.com/google/uuid"

	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/file"
)

// AuthService is the part of *auth.Service the HTTP layer calls.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.AuthResult, error)
	Register(ctx context.Context, in auth.RegisterInput) (*auth.PublicIdentity, error)
	Logout(ctx context.Context, refreshToken string)
	Refresh(ctx context.Context, refreshToken string) (*auth.AuthResult, error)
	OAuthLogin(ctx context.Context, provider string, assertion auth.Assertion) (*auth.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error

	Authenticate(ctx context.Context, accessToken string) (*auth.AccessClaims, error)
	Me(ctx context.Context, identityID uuid.UUID) (*auth.PublicIdentity, error)
	UpdateProfile(ctx context.Context, identityID uuid.UUID, in auth.ProfileInput) (*auth.PublicIdentity, error)
	SetPassword(ctx context.Context, identityID uuid.UUID, current, newPassword string) error
	LinkAccount(ctx context.Context, identityID uuid.UUID, provider string, assertion auth.Assertion) error
	UnlinkAccount(ctx context.Context, identityID uuid.UUID, provider string) error
	LinkedAccounts(ctx context.Context, identityID uuid.UUID) ([]auth.ExternalAccount, error)
	Providers() []string
}

// AvatarStorage issues direct upload URLs and checks uploaded objects.
type AvatarStorage interface {
	PresignUpload(ctx context.Context, key, contentType string, size int64) (*file.Upload, error)
	KeyFromURL(u string) (string, bool)
	Exists(ctx context.Context, key string) (bool, error)
}

var (
	_ AuthService   = (*auth.Service)(nil)
	_ AvatarStorage = (*file.S3Presigner)(nil)
)
