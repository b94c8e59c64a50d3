// Package cookie sets and reads HTTP cookies with shared defaults
// (Path "/", HttpOnly, SameSite=Lax) and optional AES-GCM encryption.
//
//	mgr, err := cookie.New([]string{secret})
//	err = mgr.SetEncrypted(w, "refresh_token", token, cookie.WithPath("/auth"), cookie.WithMaxAge(3600))
//	token, err := mgr.GetEncrypted(r, "refresh_token")
//
// Secrets must be at least 32 characters. Pass several to rotate keys: the
// first encrypts, all of them decrypt.
package cookie
