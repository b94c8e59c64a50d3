package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/email/templates"
)

const (
	SubjectVerifyEmail   = "Verify your email address"
	SubjectResetPassword = "Reset your password"
)

// AuthMailer renders and sends the account emails required by auth.Service.
type AuthMailer struct {
	sender   EmailSender
	webURL   string
	product  string
	verifyIn time.Duration
	resetIn  time.Duration
}

// NewAuthMailer builds the notifier. verifyTTL and resetTTL only feed the
// "link expires in" line.
func NewAuthMailer(sender EmailSender, cfg Config, verifyTTL, resetTTL time.Duration) (*AuthMailer, error) {
	u, err := url.Parse(cfg.WebURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: WebURL must be an absolute URL", ErrInvalidConfig)
	}
	return &AuthMailer{
		sender:   sender,
		webURL:   strings.TrimRight(cfg.WebURL, "/"),
		product:  cfg.ProductName,
		verifyIn: verifyTTL,
		resetIn:  resetTTL,
	}, nil
}

func (m *AuthMailer) SendVerificationEmail(ctx context.Context, identity auth.PublicIdentity, token string) error {
	return m.send(ctx, identity, SubjectVerifyEmail, "verify-email", templates.VerifyEmail(templates.LinkEmail{
		Product: m.product,
		Name:    identity.Name,
		Link:    m.link("/verify-email", token),
		Expires: humanDuration(m.verifyIn),
	}))
}

func (m *AuthMailer) SendPasswordResetEmail(ctx context.Context, identity auth.PublicIdentity, token string) error {
	return m.send(ctx, identity, SubjectResetPassword, "reset-password", templates.ResetPassword(templates.LinkEmail{
		Product: m.product,
		Name:    identity.Name,
		Link:    m.link("/reset-password", token),
		Expires: humanDuration(m.resetIn),
	}))
}

func (m *AuthMailer) link(path, token string) string {
	return m.webURL + path + "?token=" + url.QueryEscape(token)
}

func (m *AuthMailer) send(ctx context.Context, identity auth.PublicIdentity, subject, tag string, body templ.Component) error {
	html, err := templates.Render(ctx, body)
	if err != nil {
		return fmt.Errorf("%w: render %s: %v", ErrFailedToSendEmail, tag, err)
	}
	return m.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   identity.Email,
		Subject:  subject,
		BodyHTML: html,
		Tag:      tag,
	})
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short while"
	case d%(24*time.Hour) == 0:
		return plural(int(d/(24*time.Hour)), "day")
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d.Round(time.Minute)/time.Minute), "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

var _ auth.Notifier = (*AuthMailer)(nil)
