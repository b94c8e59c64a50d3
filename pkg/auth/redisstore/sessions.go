package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/acmeworks/identity/pkg/auth"
)

// KEYS: session, old token index, new token index, expiry index.
// ARGV: old token, new token, expires_at ms, updated_at ms, session id, ttl ms.
var rotateScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'token')
if not current or current ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'token', ARGV[2], 'expires_at', ARGV[3], 'updated_at', ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[6])
redis.call('DEL', KEYS[2])
redis.call('SET', KEYS[3], ARGV[5], 'PX', ARGV[6])
redis.call('ZADD', KEYS[4], ARGV[3], ARGV[5])
return 1
`)

func (s *Store) CreateSession(ctx context.Context, session *auth.Session) error {
	id := session.ID.String()
	ttl := s.ttl(session.ExpiresAt)

	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.sessionKey(id),
			"token", session.Token,
			"identity_id", session.IdentityID.String(),
			"expires_at", millis(session.ExpiresAt),
			"created_at", millis(session.CreatedAt),
			"updated_at", millis(session.UpdatedAt),
		)
		p.PExpire(ctx, s.sessionKey(id), ttl)
		p.Set(ctx, s.sessionTokenKey(session.Token), id, ttl)
		p.SAdd(ctx, s.identitySessionsKey(session.IdentityID.String()), id)
		p.ZAdd(ctx, s.sessionExpiryKey(), redis.Z{Score: float64(session.ExpiresAt.UnixMilli()), Member: id})
		return nil
	})
	return err
}

func (s *Store) GetSessionByToken(ctx context.Context, token string) (*auth.Session, error) {
	id, err := s.rdb.Get(ctx, s.sessionTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, err
	}

	fields, err := s.rdb.HGetAll(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return nil, err
	}
	// A dangling index entry left behind by a rotate or delete.
	if len(fields) == 0 || fields["token"] != token {
		return nil, auth.ErrSessionNotFound
	}
	return decodeSession(id, fields)
}

func decodeSession(id string, f map[string]string) (*auth.Session, error) {
	var (
		sess auth.Session
		err  error
	)
	if sess.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("redisstore: session id: %w", err)
	}
	if sess.IdentityID, err = uuid.Parse(f["identity_id"]); err != nil {
		return nil, fmt.Errorf("redisstore: session identity: %w", err)
	}
	sess.Token = f["token"]
	if sess.ExpiresAt, err = parseMillis(f["expires_at"]); err != nil {
		return nil, fmt.Errorf("redisstore: session expiry: %w", err)
	}
	sess.CreatedAt, _ = parseMillis(f["created_at"])
	sess.UpdatedAt, _ = parseMillis(f["updated_at"])
	return &sess, nil
}

func (s *Store) RotateSession(ctx context.Context, id uuid.UUID, oldToken, newToken string, expiresAt time.Time) error {
	sid := id.String()
	n, err := rotateScript.Run(ctx, s.rdb,
		[]string{s.sessionKey(sid), s.sessionTokenKey(oldToken), s.sessionTokenKey(newToken), s.sessionExpiryKey()},
		oldToken, newToken, millis(expiresAt), millis(time.Now()), sid, s.ttl(expiresAt).Milliseconds(),
	).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

func (s *Store) DeleteSessionByToken(ctx context.Context, token string) error {
	id, err := s.rdb.Get(ctx, s.sessionTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	return s.deleteSessions(ctx, id)
}

func (s *Store) DeleteSessionsByIdentity(ctx context.Context, identityID uuid.UUID) error {
	ids, err := s.rdb.SMembers(ctx, s.identitySessionsKey(identityID.String())).Result()
	if err != nil {
		return err
	}
	if err := s.deleteSessions(ctx, ids...); err != nil {
		return err
	}
	return s.rdb.Del(ctx, s.identitySessionsKey(identityID.String())).Err()
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	ids, err := s.rdb.ZRangeByScore(ctx, s.sessionExpiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(before.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	if err := s.deleteSessions(ctx, ids...); err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

// deleteSessions removes the session hashes and every index pointing at them.
func (s *Store) deleteSessions(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	reads := make([]*redis.SliceCmd, len(ids))
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			reads[i] = p.HMGet(ctx, s.sessionKey(id), "token", "identity_id")
		}
		return nil
	})
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			vals := reads[i].Val()
			if len(vals) == 2 {
				if token, ok := vals[0].(string); ok {
					p.Del(ctx, s.sessionTokenKey(token))
				}
				if owner, ok := vals[1].(string); ok {
					p.SRem(ctx, s.identitySessionsKey(owner), id)
				}
			}
			p.Del(ctx, s.sessionKey(id))
			p.ZRem(ctx, s.sessionExpiryKey(), id)
		}
		return nil
	})
	return err
}
