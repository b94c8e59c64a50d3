package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acmeworks/identity/pkg/auth"
)

// KEYS: scope index, new token, expiry index.
// ARGV: token key prefix, identifier, purpose, expires_at ms, created_at ms, ttl ms, token.
var replaceScript = redis.NewScript(`
local previous = redis.call('GET', KEYS[1])
if previous then
	redis.call('DEL', ARGV[1] .. previous)
	redis.call('ZREM', KEYS[3], previous)
end
redis.call('HSET', KEYS[2], 'identifier', ARGV[2], 'purpose', ARGV[3], 'expires_at', ARGV[4], 'created_at', ARGV[5])
redis.call('PEXPIRE', KEYS[2], ARGV[6])
redis.call('SET', KEYS[1], ARGV[7], 'PX', ARGV[6])
redis.call('ZADD', KEYS[3], ARGV[4], ARGV[7])
return 1
`)

// KEYS: token, expiry index.
// ARGV: purpose, token, scope key prefix.
var consumeScript = redis.NewScript(`
local fields = redis.call('HGETALL', KEYS[1])
if #fields == 0 then
	return false
end
local record = {}
for i = 1, #fields, 2 do
	record[fields[i]] = fields[i + 1]
end
if record['purpose'] ~= ARGV[1] then
	return false
end
redis.call('DEL', KEYS[1])
redis.call('ZREM', KEYS[2], ARGV[2])
local scope = ARGV[3] .. record['purpose'] .. ':' .. record['identifier']
if redis.call('GET', scope) == ARGV[2] then
	redis.call('DEL', scope)
end
return fields
`)

func (s *Store) scopeKey(identifier string, purpose auth.Purpose) string {
	return s.ephemeralScopePrefix() + string(purpose) + ":" + identifier
}

func (s *Store) ReplaceEphemeralToken(ctx context.Context, token *auth.EphemeralToken) error {
	return replaceScript.Run(ctx, s.rdb,
		[]string{s.scopeKey(token.Identifier, token.Purpose), s.ephemeralPrefix() + token.Token, s.ephemeralExpiryKey()},
		s.ephemeralPrefix(), token.Identifier, string(token.Purpose),
		millis(token.ExpiresAt), millis(token.CreatedAt), s.ttl(token.ExpiresAt).Milliseconds(), token.Token,
	).Err()
}

func (s *Store) ConsumeEphemeralToken(ctx context.Context, token string, purpose auth.Purpose) (*auth.EphemeralToken, error) {
	res, err := consumeScript.Run(ctx, s.rdb,
		[]string{s.ephemeralPrefix() + token, s.ephemeralExpiryKey()},
		string(purpose), token, s.ephemeralScopePrefix(),
	).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, auth.ErrEphemeralTokenNotFound
		}
		return nil, err
	}

	fields := make(map[string]string, len(res)/2)
	for i := 0; i+1 < len(res); i += 2 {
		fields[res[i]] = res[i+1]
	}
	t := &auth.EphemeralToken{
		Token:      token,
		Identifier: fields["identifier"],
		Purpose:    auth.Purpose(fields["purpose"]),
	}
	if t.ExpiresAt, err = parseMillis(fields["expires_at"]); err != nil {
		return nil, fmt.Errorf("redisstore: ephemeral expiry: %w", err)
	}
	t.CreatedAt, _ = parseMillis(fields["created_at"])
	return t, nil
}

func (s *Store) DeleteExpiredEphemeralTokens(ctx context.Context, before time.Time) (int64, error) {
	tokens, err := s.rdb.ZRangeByScore(ctx, s.ephemeralExpiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(before.UnixMilli(), 10),
	}).Result()
	if err != nil || len(tokens) == 0 {
		return 0, err
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, token := range tokens {
			p.Del(ctx, s.ephemeralPrefix()+token)
			p.ZRem(ctx, s.ephemeralExpiryKey(), token)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(len(tokens)), nil
}
