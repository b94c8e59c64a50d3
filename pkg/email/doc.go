// Package email sends transactional mail through Postmark, or to disk with
// DevSender during development, and renders the account emails used by
// pkg/auth.
//
//	sender := email.EmailSender(email.NewDevSender(cfg.MailDir))
//	if cfg.UsePostmark() {
//		sender = email.MustNewPostmarkClient(cfg)
//	}
//	mailer, err := email.NewAuthMailer(sender, cfg, authCfg.VerifyEmailTTL, authCfg.ResetPasswordTTL)
//
// Messages are built from templ components in the templates subpackage and
// validated before they reach a provider; invalid input fails with
// ErrInvalidParams, delivery problems with ErrFailedToSendEmail.
package email
