package templates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmeworks/identity/pkg/email/templates"
)

func TestVerifyEmail(t *testing.T) {
	t.Parallel()

	html, err := templates.Render(t.Context(), templates.VerifyEmail(templates.LinkEmail{
		Product: "Acme",
		Name:    "Ann <script>",
		Link:    "https://app.example.com/verify-email?token=abc&x=1",
		Expires: "24 hours",
	}))
	require.NoError(t, err)

	assert.Contains(t, html, "<title>Verify your email address</title>")
	assert.Contains(t, html, `href="https://app.example.com/verify-email?token=abc&amp;x=1"`)
	assert.Contains(t, html, "Ann &lt;script&gt;")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "24 hours")
}

func TestResetPassword(t *testing.T) {
	t.Parallel()

	html, err := templates.Render(t.Context(), templates.ResetPassword(templates.LinkEmail{
		Product: "Acme",
		Link:    "https://app.example.com/reset-password?token=t1",
		Expires: "1 hour",
	}))
	require.NoError(t, err)

	assert.Contains(t, html, "Reset your password")
	assert.Contains(t, html, "Hi,")
	assert.Contains(t, html, "reset-password?token=t1")
}

func TestPrimaryButtonRejectsScriptURL(t *testing.T) {
	t.Parallel()

	html, err := templates.Render(t.Context(), templates.PrimaryButton("Go", "javascript:alert(1)"))
	require.NoError(t, err)
	assert.NotContains(t, html, "javascript:")
}
