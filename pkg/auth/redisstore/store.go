// Package redisstore keeps sessions and ephemeral tokens in Redis. Identities
// and links stay in a relational store.
//
// Every record carries a Redis TTL of its own expiry plus a retention window,
// so an expired record is still visible to the service (and reported as
// expired) until the janitor or the TTL removes it. Multi-key updates run as
// Lua scripts and assume a single Redis node.
package redisstore

import (
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acmeworks/identity/pkg/auth"
)

const (
	defaultPrefix    = "identity:"
	defaultRetention = time.Hour
)

// Store implements auth.SessionStore and auth.EphemeralTokenStore.
type Store struct {
	rdb       redis.UniversalClient
	prefix    string
	retention time.Duration
}

// Option configures Store.
type Option func(*Store)

// WithKeyPrefix namespaces every key. Default "identity:".
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithRetention sets how long records outlive their expiry. Default one hour.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
		}
	}
}

func New(rdb redis.UniversalClient, opts ...Option) *Store {
	s := &Store{rdb: rdb, prefix: defaultPrefix, retention: defaultRetention}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) sessionKey(id string) string         { return s.prefix + "session:" + id }
func (s *Store) sessionTokenKey(token string) string { return s.prefix + "session_token:" + token }
func (s *Store) identitySessionsKey(id string) string {
	return s.prefix + "identity_sessions:" + id
}
func (s *Store) sessionExpiryKey() string { return s.prefix + "sessions_by_expiry" }

func (s *Store) ephemeralPrefix() string      { return s.prefix + "ephemeral:" }
func (s *Store) ephemeralScopePrefix() string { return s.prefix + "ephemeral_scope:" }
func (s *Store) ephemeralExpiryKey() string   { return s.prefix + "ephemeral_by_expiry" }

// ttl is the Redis lifetime for a record expiring at expiresAt.
func (s *Store) ttl(expiresAt time.Time) time.Duration {
	return max(time.Until(expiresAt)+s.retention, time.Second)
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(v string) (time.Time, error) {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

var (
	_ auth.SessionStore        = (*Store)(nil)
	_ auth.EphemeralTokenStore = (*Store)(nil)
)
