package binder

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
)

// Path binds router path parameters into string fields tagged `path:"name"`.
// With chi:
//
//	binder.Path(chi.URLParam)
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a non-nil pointer to a struct", ErrFailedToParsePath)
		}
		rv = rv.Elem()
		rt := rv.Type()

		for i := range rt.NumField() {
			field := rt.Field(i)
			tag := field.Tag.Get("path")
			if tag == "" || tag == "-" {
				continue
			}
			name, _, _ := strings.Cut(tag, ",")
			fv := rv.Field(i)
			if !fv.CanSet() {
				continue
			}
			if fv.Kind() != reflect.String {
				return fmt.Errorf("%w: field %s must be a string", ErrFailedToParsePath, field.Name)
			}
			fv.SetString(extractor(r, name))
		}
		return nil
	}
}
