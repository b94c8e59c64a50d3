package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmeworks/identity/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{SendTo: "user@example.com", Subject: "Hi", BodyHTML: "<p>x</p>"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*email.SendEmailParams)
		field  string
	}{
		{"empty recipient", func(p *email.SendEmailParams) { p.SendTo = "" }, "send_to"},
		{"bad recipient", func(p *email.SendEmailParams) { p.SendTo = "user@" }, "send_to"},
		{"blank subject", func(p *email.SendEmailParams) { p.Subject = "  " }, "subject"},
		{"empty body", func(p *email.SendEmailParams) { p.BodyHTML = "" }, "body_html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, email.ErrInvalidParams)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	t.Run("writes html and metadata", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		sender := email.NewDevSender(dir)

		err := sender.SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "Reset your password",
			BodyHTML: "<p>body</p>",
			Tag:      "reset-password",
		})
		require.NoError(t, err)

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, files, 2)

		for _, f := range files {
			assert.Contains(t, f.Name(), "reset-password")
			data, err := os.ReadFile(filepath.Join(dir, f.Name()))
			require.NoError(t, err)
			if strings.HasSuffix(f.Name(), ".json") {
				var meta map[string]any
				require.NoError(t, json.Unmarshal(data, &meta))
				assert.Equal(t, "user@example.com", meta["send_to"])
				assert.Equal(t, "reset-password", meta["tag"])
			} else {
				assert.Equal(t, "<p>body</p>", string(data))
			}
		}
	})

	t.Run("rejects invalid params", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		err := email.NewDevSender(dir).SendEmail(context.Background(), email.SendEmailParams{})
		assert.ErrorIs(t, err, email.ErrInvalidParams)

		files, _ := os.ReadDir(dir)
		assert.Empty(t, files)
	})

	t.Run("unwritable directory", func(t *testing.T) {
		t.Parallel()
		err := email.NewDevSender("/dev/null/mail").SendEmail(context.Background(), email.SendEmailParams{
			SendTo: "user@example.com", Subject: "s", BodyHTML: "b",
		})
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
	})
}

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	cfg := email.Config{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "noreply@example.com",
		SupportEmail:         "support@example.com",
	}
	client, err := email.NewPostmarkClient(cfg)
	require.NoError(t, err)
	assert.NotNil(t, client)

	bad := cfg
	bad.PostmarkAccountToken = ""
	_, err = email.NewPostmarkClient(bad)
	assert.ErrorIs(t, err, email.ErrInvalidConfig)

	bad = cfg
	bad.SenderEmail = "nope"
	_, err = email.NewPostmarkClient(bad)
	assert.ErrorIs(t, err, email.ErrInvalidConfig)
	assert.Panics(t, func() { email.MustNewPostmarkClient(bad) })

	// invalid params never reach the network
	err = client.SendEmail(context.Background(), email.SendEmailParams{SendTo: "x"})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}
