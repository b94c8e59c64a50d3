package sanitizer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acmeworks/identity/pkg/sanitizer"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases and trims", "  Jane@Example.COM ", "jane@example.com"},
		{"collapses dots", "jane...doe@example.com", "jane.doe@example.com"},
		{"trims edge dots", ".jane.@example.com", "jane@example.com"},
		{"no at sign", " NotAnEmail ", "notanemail"},
		{"two at signs", "a@b@c.com", "a@b@c.com"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitizer.NormalizeEmail(tt.input))
		})
	}
}

func TestCleanName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Jane Doe", sanitizer.CleanName("  Jane \t\n Doe  "))
	assert.Equal(t, "Jane", sanitizer.CleanName("Ja\u200bne\x00"))
	assert.Equal(t, "", sanitizer.CleanName(" \t "))
}

func TestApplyAndCompose(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ABC", sanitizer.Apply(" abc ", strings.TrimSpace, strings.ToUpper))
	assert.Equal(t, "x", sanitizer.Apply("x"))

	upper := sanitizer.Compose(strings.TrimSpace, strings.ToUpper)
	assert.Equal(t, "HELLO", upper(" hello"))
}

func TestSafeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"Photo.PNG", "photo.png"},
		{"my holiday pic.jpg", "my-holiday-pic.jpg"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\avatar.webp`, "avatar.webp"},
		{"фото.jpg", "jpg"},
		{"...", "file"},
		{"", "file"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizer.SafeFilename(tt.input), tt.input)
	}

	long := strings.Repeat("a", 200) + ".png"
	got := sanitizer.SafeFilename(long)
	assert.Len(t, got, 100)
	assert.True(t, strings.HasSuffix(got, ".png"))
}
