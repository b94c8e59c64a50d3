package templates

import (
	"fmt"

	"github.com/a-h/templ"
)

// LinkEmail is the data for a message built around one action link.
type LinkEmail struct {
	Product string
	Name    string
	Link    string
	Expires string // human readable lifetime, e.g. "24 hours"
}

func (d LinkEmail) greeting() string {
	if d.Name == "" {
		return "Hi,"
	}
	return fmt.Sprintf("Hi %s,", d.Name)
}

// VerifyEmail asks the recipient to confirm their address.
func VerifyEmail(d LinkEmail) templ.Component {
	return Layout("Verify your email address", Join(
		Heading("Verify your email address"),
		Text(d.greeting()),
		Text(fmt.Sprintf("Confirm this address to finish setting up your %s account.", d.Product)),
		PrimaryButton("Verify email", d.Link),
		TextSecondary(fmt.Sprintf("The link expires in %s. If you did not create an account, ignore this email.", d.Expires)),
	))
}

// ResetPassword carries a password reset link.
func ResetPassword(d LinkEmail) templ.Component {
	return Layout("Reset your password", Join(
		Heading("Reset your password"),
		Text(d.greeting()),
		Text(fmt.Sprintf("Someone asked to reset the password for your %s account.", d.Product)),
		PrimaryButton("Choose a new password", d.Link),
		TextSecondary(fmt.Sprintf("The link expires in %s and works once. If this was not you, ignore this email.", d.Expires)),
	))
}
