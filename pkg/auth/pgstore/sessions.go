package pgstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/pg"
)

func (s *Store) CreateSession(ctx context.Context, session *auth.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, token, identity_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.Token, session.IdentityID, session.ExpiresAt, session.CreatedAt, session.UpdatedAt,
	)
	return err
}

func (s *Store) GetSessionByToken(ctx context.Context, token string) (*auth.Session, error) {
	var sess auth.Session
	err := s.pool.QueryRow(ctx, `
		SELECT id, token, identity_id, expires_at, created_at, updated_at
		FROM sessions WHERE token = $1`, token,
	).Scan(&sess.ID, &sess.Token, &sess.IdentityID, &sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// RotateSession is a compare-and-swap on the current token value.
func (s *Store) RotateSession(ctx context.Context, id uuid.UUID, oldToken, newToken string, expiresAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET token = $3, expires_at = $4, updated_at = now()
		WHERE id = $1 AND token = $2`, id, oldToken, newToken, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

func (s *Store) DeleteSessionByToken(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (s *Store) DeleteSessionsByIdentity(ctx context.Context, identityID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE identity_id = $1`, identityID)
	return err
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
