package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmeworks/identity/pkg/jwt"
)

type testClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin,omitempty"`
}

func validClaims(now time.Time) *testClaims {
	return &testClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user123",
			Issuer:    "identity",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: "user@example.com",
		Admin: true,
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("with valid signing key", func(t *testing.T) {
		t.Parallel()
		service, err := jwt.New([]byte("secret"))
		require.NoError(t, err)
		require.NotNil(t, service)
	})

	t.Run("with empty signing key", func(t *testing.T) {
		t.Parallel()
		service, err := jwt.New([]byte{})
		require.ErrorIs(t, err, jwt.ErrMissingSigningKey)
		require.Nil(t, service)
	})

	t.Run("from empty string", func(t *testing.T) {
		t.Parallel()
		service, err := jwt.NewFromString("")
		require.ErrorIs(t, err, jwt.ErrMissingSigningKey)
		require.Nil(t, service)
	})
}

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()

	service, err := jwt.NewFromString("secret", jwt.WithIssuer("identity"))
	require.NoError(t, err)

	t.Run("round trip keeps custom claims", func(t *testing.T) {
		t.Parallel()
		token, err := service.Generate(validClaims(time.Now()))
		require.NoError(t, err)

		var parsed testClaims
		require.NoError(t, service.Parse(token, &parsed))
		assert.Equal(t, "user123", parsed.Subject)
		assert.Equal(t, "user@example.com", parsed.Email)
		assert.True(t, parsed.Admin)
	})

	t.Run("nil claims", func(t *testing.T) {
		t.Parallel()
		_, err := service.Generate(nil)
		require.ErrorIs(t, err, jwt.ErrMissingClaims)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()
		var parsed testClaims
		require.ErrorIs(t, service.Parse("", &parsed), jwt.ErrInvalidToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		t.Parallel()
		var parsed testClaims
		require.ErrorIs(t, service.Parse("not.a.jwt", &parsed), jwt.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		claims := validClaims(time.Now().Add(-2 * time.Hour))
		token, err := service.Generate(claims)
		require.NoError(t, err)

		var parsed testClaims
		require.ErrorIs(t, service.Parse(token, &parsed), jwt.ErrExpiredToken)
	})

	t.Run("missing expiry is rejected", func(t *testing.T) {
		t.Parallel()
		claims := validClaims(time.Now())
		claims.ExpiresAt = nil
		token, err := service.Generate(claims)
		require.NoError(t, err)

		var parsed testClaims
		require.ErrorIs(t, service.Parse(token, &parsed), jwt.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		t.Parallel()
		claims := validClaims(time.Now())
		claims.Issuer = "someone-else"
		token, err := service.Generate(claims)
		require.NoError(t, err)

		var parsed testClaims
		require.ErrorIs(t, service.Parse(token, &parsed), jwt.ErrInvalidToken)
	})

	t.Run("different key", func(t *testing.T) {
		t.Parallel()
		other, err := jwt.NewFromString("other-secret", jwt.WithIssuer("identity"))
		require.NoError(t, err)
		token, err := other.Generate(validClaims(time.Now()))
		require.NoError(t, err)

		var parsed testClaims
		require.ErrorIs(t, service.Parse(token, &parsed), jwt.ErrInvalidSignature)
	})

	t.Run("none algorithm is rejected", func(t *testing.T) {
		t.Parallel()
		token, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, validClaims(time.Now())).
			SignedString(gojwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		var parsed testClaims
		require.Error(t, service.Parse(token, &parsed))
	})
}

func TestWithClock(t *testing.T) {
	t.Parallel()

	issued := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	current := issued
	service, err := jwt.NewFromString("secret", jwt.WithClock(func() time.Time { return current }))
	require.NoError(t, err)

	claims := validClaims(issued)
	claims.Issuer = ""
	token, err := service.Generate(claims)
	require.NoError(t, err)

	var parsed testClaims
	require.NoError(t, service.Parse(token, &parsed))

	current = issued.Add(2 * time.Hour)
	require.ErrorIs(t, service.Parse(token, &parsed), jwt.ErrExpiredToken)
}
