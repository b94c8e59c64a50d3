package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/auth/pgstore"
	"github.com/acmeworks/identity/pkg/auth/redisstore"
	"github.com/acmeworks/identity/pkg/config"
	"github.com/acmeworks/identity/pkg/httpserver"
	"github.com/acmeworks/identity/pkg/pg"
	"github.com/acmeworks/identity/pkg/ratelimiter"
	"github.com/acmeworks/identity/pkg/redis"
)

// backend is the storage selected by STORE_DRIVER plus the readiness checks
// and cleanup that come with it.
type backend struct {
	credentials auth.CredentialStore
	sessions    auth.SessionStore
	ephemeral   auth.EphemeralTokenStore
	redis       *goredis.Client // nil unless a redis driver is selected
	checks      []httpserver.Check
	closers     []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackend(ctx context.Context, driver string, log *slog.Logger) (*backend, error) {
	if driver == driverMemory {
		log.WarnContext(ctx, "using in-memory store, data is lost on restart")
		mem := auth.NewMemoryStore()
		return &backend{credentials: mem, sessions: mem, ephemeral: mem}, nil
	}

	b := &backend{}
	pool, err := openPostgres(ctx, log)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, pool.Close)
	b.checks = append(b.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})

	store := pgstore.New(pool)
	b.credentials, b.sessions, b.ephemeral = store, store, store

	if driver == driverPostgresRedis {
		rdb, prefix, err := openRedis(ctx)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })
		b.checks = append(b.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)})

		rs := redisstore.New(rdb, redisstore.WithKeyPrefix(prefix))
		b.sessions, b.ephemeral = rs, rs
		b.redis = rdb
	}
	return b, nil
}

func openPostgres(ctx context.Context, log *slog.Logger) (*pgxpool.Pool, error) {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func openRedis(ctx context.Context) (*goredis.Client, string, error) {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, "", fmt.Errorf("redis config: %w", err)
	}
	rdb, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	return rdb, cfg.KeyPrefix, nil
}

// newLimiter shares buckets through redis when it is available.
func (b *backend) newLimiter(enabled bool) (ratelimiter.RateLimiter, error) {
	if !enabled {
		return nil, nil
	}
	var cfg ratelimiter.Config
	if err := config.Load(&cfg); err != nil {
		return nil, fmt.Errorf("rate limit config: %w", err)
	}

	var store ratelimiter.Store
	if b.redis != nil {
		store = ratelimiter.NewRedisStore(b.redis, ratelimiter.WithRedisKeyPrefix("identity:ratelimit:"))
	} else {
		mem := ratelimiter.NewMemoryStore()
		b.closers = append(b.closers, mem.Close)
		store = mem
	}
	bucket, err := ratelimiter.NewBucket(store, cfg)
	if err != nil {
		return nil, err
	}
	return bucket, nil
}
