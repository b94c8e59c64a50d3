package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/pg"
)

const identityColumns = `id, email, password_hash, name, avatar_url, email_verified_at, role, created_at, updated_at`

func scanIdentity(row pgx.Row) (*auth.Identity, error) {
	var i auth.Identity
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.Name, &i.AvatarURL, &i.EmailVerifiedAt, &i.Role, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, err
	}
	return &i, nil
}

func insertIdentity(ctx context.Context, q querier, i *auth.Identity) error {
	_, err := q.Exec(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		i.ID, i.Email, nullBytes(i.PasswordHash), i.Name, i.AvatarURL, i.EmailVerifiedAt, i.Role, i.CreatedAt, i.UpdatedAt,
	)
	return mapUnique(err)
}

func insertLink(ctx context.Context, q querier, l *auth.ExternalAccount) error {
	_, err := q.Exec(ctx, `
		INSERT INTO external_accounts (identity_id, provider, subject, created_at)
		VALUES ($1, $2, $3, $4)`,
		l.IdentityID, l.Provider, l.Subject, l.CreatedAt,
	)
	if pg.IsForeignKeyViolationError(err) {
		return errors.Join(auth.ErrIdentityNotFound, err)
	}
	return mapUnique(err)
}

func nullBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

func (s *Store) CreateIdentity(ctx context.Context, identity *auth.Identity) error {
	return insertIdentity(ctx, s.pool, identity)
}

func (s *Store) CreateIdentityWithLink(ctx context.Context, identity *auth.Identity, link *auth.ExternalAccount) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := insertIdentity(ctx, tx, identity); err != nil {
			return err
		}
		return insertLink(ctx, tx, link)
	})
}

func (s *Store) GetIdentityByID(ctx context.Context, id uuid.UUID) (*auth.Identity, error) {
	return scanIdentity(s.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id))
}

func (s *Store) GetIdentityByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	return scanIdentity(s.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = $1`, email))
}

func (s *Store) MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE identities
		SET email_verified_at = COALESCE(email_verified_at, $2), updated_at = $2
		WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrIdentityNotFound
	}
	return nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE identities SET password_hash = $2, updated_at = now() WHERE id = $1`, id, nullBytes(hash))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrIdentityNotFound
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, in auth.ProfileInput) (*auth.Identity, error) {
	return scanIdentity(s.pool.QueryRow(ctx, `
		UPDATE identities
		SET name = COALESCE($2, name), avatar_url = COALESCE($3, avatar_url), updated_at = now()
		WHERE id = $1
		RETURNING `+identityColumns, id, in.Name, in.AvatarURL))
}

func (s *Store) CreateLink(ctx context.Context, link *auth.ExternalAccount) error {
	return insertLink(ctx, s.pool, link)
}

func (s *Store) GetLink(ctx context.Context, provider, subject string) (*auth.ExternalAccount, error) {
	var l auth.ExternalAccount
	err := s.pool.QueryRow(ctx, `
		SELECT identity_id, provider, subject, created_at
		FROM external_accounts WHERE provider = $1 AND subject = $2`, provider, subject,
	).Scan(&l.IdentityID, &l.Provider, &l.Subject, &l.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrLinkNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (s *Store) ListLinks(ctx context.Context, identityID uuid.UUID) ([]auth.ExternalAccount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT identity_id, provider, subject, created_at
		FROM external_accounts WHERE identity_id = $1 ORDER BY created_at`, identityID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (auth.ExternalAccount, error) {
		var l auth.ExternalAccount
		err := row.Scan(&l.IdentityID, &l.Provider, &l.Subject, &l.CreatedAt)
		return l, err
	})
}

// DeleteLink locks the identity row so a concurrent unlink of its other
// provider cannot leave it without any sign-in method.
func (s *Store) DeleteLink(ctx context.Context, identityID uuid.UUID, provider string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var hasPassword bool
		err := tx.QueryRow(ctx, `
			SELECT COALESCE(length(password_hash), 0) > 0
			FROM identities WHERE id = $1 FOR UPDATE`, identityID,
		).Scan(&hasPassword)
		if err != nil {
			if pg.IsNotFoundError(err) {
				return auth.ErrLinkNotFound
			}
			return err
		}

		var total, matching int
		err = tx.QueryRow(ctx, `
			SELECT count(*), count(*) FILTER (WHERE provider = $2)
			FROM external_accounts WHERE identity_id = $1`, identityID, provider,
		).Scan(&total, &matching)
		if err != nil {
			return err
		}
		if matching == 0 {
			return auth.ErrLinkNotFound
		}
		if !hasPassword && total <= 1 {
			return auth.ErrLastAuthMethod
		}

		_, err = tx.Exec(ctx, `DELETE FROM external_accounts WHERE identity_id = $1 AND provider = $2`, identityID, provider)
		return err
	})
}
