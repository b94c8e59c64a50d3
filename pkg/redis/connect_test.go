package redis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acmeworks/identity/pkg/redis"
)

func TestConnectRejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(t.Context(), redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, err = redis.Connect(t.Context(), redis.Config{ConnectionURL: "mysql://nope"})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}
