// Package sanitizer holds small string transforms applied to user input
// before it is validated and stored.
//
//	email := sanitizer.NormalizeEmail("  Jane..Doe@Example.COM ")
//	// jane.doe@example.com
//
//	clean := sanitizer.Compose(strings.TrimSpace, sanitizer.StripControl)
package sanitizer
