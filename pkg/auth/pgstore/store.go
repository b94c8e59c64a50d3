// Package pgstore persists identities, links, sessions and ephemeral tokens
// in PostgreSQL through pgx.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/pg"
)

// Migrations holds the goose migrations for the tables this store uses.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

const (
	constraintEmail            = "identities_email_key"
	constraintProviderSubject  = "external_accounts_provider_subject_key"
	constraintIdentityProvider = "external_accounts_identity_provider_key"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements auth.CredentialStore, auth.SessionStore and
// auth.EphemeralTokenStore.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an open pool. Run Migrate before first use.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, Migrations, MigrationsDir, cfg, log)
}

// mapUnique turns unique violations into auth sentinels.
func mapUnique(err error) error {
	if !pg.IsDuplicateKeyError(err) {
		return err
	}
	switch pg.ConstraintName(err) {
	case constraintEmail:
		return errors.Join(auth.ErrDuplicateEmail, err)
	case constraintProviderSubject, constraintIdentityProvider:
		return errors.Join(auth.ErrDuplicateLink, err)
	}
	return err
}

var (
	_ auth.CredentialStore     = (*Store)(nil)
	_ auth.SessionStore        = (*Store)(nil)
	_ auth.EphemeralTokenStore = (*Store)(nil)
)
