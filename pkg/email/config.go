package email

// Config configures outbound mail. Postmark tokens may be empty in
// development, where DevSender writes messages to MailDir instead.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
	MailDir              string `env:"MAIL_DEV_DIR" envDefault:"./tmp/mail"`

	// WebURL is the frontend origin that serves /verify-email and
	// /reset-password.
	WebURL      string `env:"WEB_URL,required"`
	ProductName string `env:"PRODUCT_NAME" envDefault:"Identity"`
}

// UsePostmark reports whether both Postmark tokens are configured.
func (c Config) UsePostmark() bool {
	return c.PostmarkServerToken != "" && c.PostmarkAccountToken != ""
}
