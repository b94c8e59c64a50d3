package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/acmeworks/identity/pkg/logger"
	"github.com/acmeworks/identity/pkg/sanitizer"
	"github.com/acmeworks/identity/pkg/validator"
)

// Login authenticates with email and password and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = sanitizer.NormalizeEmail(email)

	identity, err := s.credentials.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			s.compareDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "login", err)
	}

	if !identity.HasPassword() {
		s.compareDummy(password)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(identity.PasswordHash, password); err != nil {
		if errors.Is(err, ErrHashMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "login", err)
	}

	if !identity.IsVerified() {
		return nil, ErrEmailNotVerified
	}

	result, err := s.openSession(ctx, identity)
	if err != nil {
		return nil, s.internal(ctx, "login", err)
	}

	s.logger.InfoContext(ctx, "user logged in", logger.UserID(identity.ID))
	return result, nil
}

// Register creates an unverified identity and sends a verification link.
// No session is opened; the account has to verify its email first.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*PublicIdentity, error) {
	email := sanitizer.NormalizeEmail(in.Email)
	name := sanitizer.CleanName(in.Name)

	if err := validator.Apply(
		validator.ValidEmail("email", email),
		validator.MinLenString("password", in.Password, s.cfg.PasswordMinLength),
		validator.MaxLenString("password", in.Password, maxPasswordLength),
		validator.MaxRunesString("name", name, 100),
	); err != nil {
		return nil, newError(KindBadRequest, ErrInvalidInput.Message, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal(ctx, "register", err)
	}

	now := s.now()
	identity := &Identity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.credentials.CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, s.internal(ctx, "register", err)
	}

	// The identity exists from here on. If issuing the token fails the caller
	// sees an error, and the account stays unverified until ResendVerification.
	if err := s.issueEphemeral(ctx, identity, PurposeVerifyEmail); err != nil {
		return nil, s.internal(ctx, "register", err)
	}

	s.logger.InfoContext(ctx, "user registered", logger.UserID(identity.ID))

	public := identity.Public()
	return &public, nil
}

// openSession issues a token pair and persists the session for its refresh token.
func (s *Service) openSession(ctx context.Context, identity *Identity) (*AuthResult, error) {
	pair, err := s.codec.Issue(identity)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &Session{
		ID:         uuid.New(),
		Token:      pair.RefreshToken,
		IdentityID: identity.ID,
		ExpiresAt:  pair.RefreshExpiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "session opened",
		logger.UserID(identity.ID),
		logger.SessionID(session.ID),
		slog.Time("expires_at", session.ExpiresAt),
	)

	return &AuthResult{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		Identity:         identity.Public(),
	}, nil
}
