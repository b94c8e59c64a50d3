package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps body in the shared email shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title></head>`+
			`<body style="margin:0;padding:24px;background:#f4f4f5;font-family:Helvetica,Arial,sans-serif;color:#18181b">`+
			`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0"><tr><td align="center">`+
			`<table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;padding:32px">`+
			`<tr><td>`, templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</td></tr></table></td></tr></table></body></html>`)
		return err
	})
}

// Heading renders an h1.
func Heading(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<h1 style="font-size:22px;margin:0 0 16px">%s</h1>`, templ.EscapeString(text))
		return err
	})
}

// Text renders a paragraph.
func Text(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<p style="font-size:15px;line-height:1.5;margin:0 0 16px">%s</p>`, templ.EscapeString(text))
		return err
	})
}

// TextSecondary renders muted small print.
func TextSecondary(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<p style="font-size:13px;line-height:1.5;color:#71717a;margin:16px 0 0">%s</p>`, templ.EscapeString(text))
		return err
	})
}

// PrimaryButton renders a call to action. Unsafe URLs are replaced by
// templ's failed-sanitization placeholder.
func PrimaryButton(label, href string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<p style="margin:24px 0"><a href="%s" style="display:inline-block;background:#2563eb;color:#ffffff;`+
				`text-decoration:none;padding:12px 20px;border-radius:6px;font-weight:600">%s</a></p>`,
			templ.EscapeString(string(templ.URL(href))), templ.EscapeString(label))
		return err
	})
}

// Join renders components one after another.
func Join(parts ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, p := range parts {
			if err := p.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}
