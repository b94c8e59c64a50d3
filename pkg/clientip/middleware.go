package clientip

import "net/http"

// Middleware resolves the client IP once per request and stores it in the
// context. With trustProxy false only the connection address is used.
func Middleware(trustProxy bool) func(http.Handler) http.Handler {
	resolve := RemoteIP
	if trustProxy {
		resolve = GetIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), resolve(r))))
		})
	}
}
