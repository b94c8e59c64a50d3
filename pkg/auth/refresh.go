package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/acmeworks/identity/pkg/logger"
)

// Refresh rotates a refresh token. The session record is rewritten in place;
// the old token stops working the moment the rotation commits.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	result, err := s.rotate(ctx, refreshToken)
	if err != nil {
		return nil, s.failClosed(ctx, err)
	}
	return result, nil
}

// failClosed is the single exit for refresh failures: whatever went wrong,
// the caller learns only that the token is unusable.
func (s *Service) failClosed(ctx context.Context, err error) error {
	s.logger.DebugContext(ctx, "refresh rejected", logger.Error(err))
	return newError(KindUnauthorized, ErrInvalidRefreshToken.Message, err)
}

func (s *Service) rotate(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is empty")
	}

	claims, err := s.codec.ParseRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token verification: %w", err)
	}

	session, err := s.sessions.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if session.IsExpired(s.now()) {
		// Best effort; the janitor removes it otherwise.
		_ = s.sessions.DeleteSessionByToken(ctx, refreshToken)
		return nil, errors.New("session expired")
	}
	if claims.Subject != session.IdentityID.String() {
		return nil, errors.New("refresh token subject does not own the session")
	}

	identity, err := s.credentials.GetIdentityByID(ctx, session.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}

	pair, err := s.codec.Issue(identity)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.RotateSession(ctx, session.ID, refreshToken, pair.RefreshToken, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("session rotation: %w", err)
	}

	s.logger.DebugContext(ctx, "session rotated",
		logger.UserID(identity.ID),
		logger.SessionID(session.ID),
	)

	return &AuthResult{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		Identity:         identity.Public(),
	}, nil
}

// Logout revokes the session behind refreshToken. An empty or unknown token
// is not an error, and store failures are logged rather than returned.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := s.sessions.DeleteSessionByToken(ctx, refreshToken); err != nil && !errors.Is(err, ErrSessionNotFound) {
		s.logger.WarnContext(ctx, "failed to delete session on logout", logger.Error(err))
	}
}

// Authenticate verifies an access token. It never touches a store.
func (s *Service) Authenticate(_ context.Context, accessToken string) (*AccessClaims, error) {
	claims, err := s.codec.ParseAccess(accessToken)
	if err != nil {
		return nil, newError(KindUnauthorized, ErrInvalidAccessToken.Message, err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, newError(KindUnauthorized, ErrInvalidAccessToken.Message, err)
	}
	return claims, nil
}

// PurgeExpired deletes sessions and ephemeral tokens that are past expiry.
func (s *Service) PurgeExpired(ctx context.Context) (sessions, tokens int64, err error) {
	now := s.now()

	sessions, sErr := s.sessions.DeleteExpiredSessions(ctx, now)
	tokens, tErr := s.ephemeral.DeleteExpiredEphemeralTokens(ctx, now)
	if err := errors.Join(sErr, tErr); err != nil {
		return sessions, tokens, s.internal(ctx, "purge_expired", err)
	}
	return sessions, tokens, nil
}
