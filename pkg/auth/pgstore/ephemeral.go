package pgstore

import (
	"context"
	"time"

	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/pg"
)

// ReplaceEphemeralToken upserts on the (identifier, purpose) unique key, so
// concurrent issues for one scope serialize on the row and the last one wins.
func (s *Store) ReplaceEphemeralToken(ctx context.Context, token *auth.EphemeralToken) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ephemeral_tokens (token, identifier, purpose, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identifier, purpose) DO UPDATE
		SET token = EXCLUDED.token,
		    expires_at = EXCLUDED.expires_at,
		    created_at = EXCLUDED.created_at`,
		token.Token, token.Identifier, token.Purpose, token.ExpiresAt, token.CreatedAt,
	)
	return err
}

// ConsumeEphemeralToken relies on DELETE ... RETURNING so only one caller
// gets the row back.
func (s *Store) ConsumeEphemeralToken(ctx context.Context, token string, purpose auth.Purpose) (*auth.EphemeralToken, error) {
	var t auth.EphemeralToken
	err := s.pool.QueryRow(ctx, `
		DELETE FROM ephemeral_tokens WHERE token = $1 AND purpose = $2
		RETURNING token, identifier, purpose, expires_at, created_at`, token, purpose,
	).Scan(&t.Token, &t.Identifier, &t.Purpose, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrEphemeralTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) DeleteExpiredEphemeralTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ephemeral_tokens WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
