// Package validator composes small, deferred validation rules.
//
// Each rule pairs a check with the error it reports. Apply runs all of them
// and returns every failure at once as ValidationErrors:
//
//	err := validator.Apply(
//		validator.ValidEmail("email", email),
//		validator.MinLenString("password", password, 6),
//	)
//	if ve, ok := validator.Extract(err); ok {
//		fields := ve.Fields()
//	}
package validator
