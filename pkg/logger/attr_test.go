package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmeworks/identity/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	assert.Len(t, attr.Value.Group(), 2)
}

func TestErrors(t *testing.T) {
	attr := logger.Errors(errors.New("a"), nil, errors.New("b"))
	require.Equal(t, "errors", attr.Key)
	assert.Len(t, attr.Value.Group(), 2)
	assert.Equal(t, slog.Attr{}, logger.Errors(nil))
}

func TestError(t *testing.T) {
	attr := logger.Error(errors.New("boom"))
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.Attr{}, logger.Error(nil))
}

func TestKeyedAttrs(t *testing.T) {
	tests := []struct {
		attr slog.Attr
		key  string
		val  any
	}{
		{logger.UserID("123"), "user_id", "123"},
		{logger.SessionID("s1"), "session_id", "s1"},
		{logger.Role("admin"), "role", "admin"},
		{logger.RequestID("abc"), "request_id", "abc"},
		{logger.Provider("google"), "provider", "google"},
		{logger.Purpose("reset_password"), "purpose", "reset_password"},
		{logger.Operation("login"), "operation", "login"},
		{logger.Component("auth"), "component", "auth"},
		{logger.Event("sent"), "event", "sent"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			require.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.val, tt.attr.Value.Any())
		})
	}

	assert.Equal(t, slog.Attr{}, logger.UserID(nil))
	assert.Equal(t, slog.Attr{}, logger.SessionID(nil))
}
