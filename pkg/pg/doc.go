// Package pg bootstraps PostgreSQL access on top of pgx/v5.
//
// Connect opens a *pgxpool.Pool with retries, Migrate applies goose
// migrations from an fs.FS, and Healthcheck adapts the pool to a readiness
// probe. Error helpers classify *pgconn.PgError values so stores can turn
// constraint violations into their own sentinels:
//
//	if pg.IsDuplicateKeyError(err) && pg.ConstraintName(err) == "identities_email_key" {
//		return auth.ErrDuplicateEmail
//	}
package pg
