package validator_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmeworks/identity/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("no failures", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.RequiredString("name", "Ann"),
			validator.ValidEmail("email", "ann@example.com"),
		)
		assert.NoError(t, err)
	})

	t.Run("collects every failure", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.ValidEmail("email", "nope"),
			validator.MinLenString("password", "abc", 6),
			validator.MaxLenString("password", "abc", 2),
		)
		require.Error(t, err)

		ve, ok := validator.Extract(err)
		require.True(t, ok)
		assert.Len(t, ve, 3)
		assert.True(t, ve.Has("email"))
		assert.True(t, ve.Has("password"))
		assert.False(t, ve.Has("name"))
		assert.Len(t, ve.Fields()["password"], 2)
		assert.Contains(t, err.Error(), "email: must be a valid email address")
	})

	t.Run("extract through wrapping", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("register: %w", validator.Apply(validator.RequiredString("name", " ")))
		ve, ok := validator.Extract(err)
		require.True(t, ok)
		assert.Equal(t, "validation.required", ve[0].Key)
	})

	t.Run("extract foreign error", func(t *testing.T) {
		t.Parallel()
		_, ok := validator.Extract(fmt.Errorf("boom"))
		assert.False(t, ok)
	})
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"a@x.com", "first.last+tag@example.co.uk", "user_1@sub.domain.io"}
	invalid := []string{"", "   ", "plain", "@x.com", "a@", "a@x", "a@.x.com", "a@x.com.", "a@x..com", "Ann <a@x.com>"}

	for _, v := range valid {
		assert.NoError(t, validator.Apply(validator.ValidEmail("email", v)), v)
	}
	for _, v := range invalid {
		assert.Error(t, validator.Apply(validator.ValidEmail("email", v)), v)
	}
}

func TestLengthRules(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validator.Apply(validator.MinLenString("p", "secret1", 6)))
	assert.Error(t, validator.Apply(validator.MinLenString("p", "short", 6)))
	assert.NoError(t, validator.Apply(validator.MaxLenString("p", strings.Repeat("a", 72), 72)))
	assert.Error(t, validator.Apply(validator.MaxLenString("p", strings.Repeat("a", 73), 72)))

	// four runes, twelve bytes
	assert.NoError(t, validator.Apply(validator.MaxRunesString("n", "日本語名", 4)))
	assert.Error(t, validator.Apply(validator.MaxLenString("n", "日本語名", 4)))
}

func TestValidURL(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validator.Apply(validator.ValidURL("u", "https://cdn.example.com/a.png")))
	assert.Error(t, validator.Apply(validator.ValidURL("u", "ftp://example.com/a.png")))
	assert.Error(t, validator.Apply(validator.ValidURL("u", "/relative/path")))
	assert.Error(t, validator.Apply(validator.ValidURL("u", "")))
}

func TestOneOf(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validator.Apply(validator.OneOf("provider", "google", []string{"google"})))
	err := validator.Apply(validator.OneOf("provider", "myspace", []string{"google"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of: google")
}
