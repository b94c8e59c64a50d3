// Package binder decodes HTTP requests into typed structs for handler.Wrap.
//
// JSON decodes a strict, size-limited JSON body. Path copies router path
// parameters into fields tagged `path:"name"`. Binders return
// ErrBinderNotApplicable when they have nothing to bind; Wrap skips them.
package binder
