package account

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/acmeworks/identity/handler"
	"github.com/acmeworks/identity/pkg/binder"
	"github.com/acmeworks/identity/pkg/logger"
	"github.com/acmeworks/identity/pkg/ratelimiter"
	"github.com/acmeworks/identity/pkg/session"
)

// RouterOptions configures the account module. Auth is required; the rest
// is optional.
type RouterOptions struct {
	Auth AuthService

	// Avatars enables POST /user/avatar/upload-url and upload checks on
	// profile updates.
	Avatars AvatarStorage

	// RefreshTransport additionally carries the refresh token outside the
	// JSON body, e.g. in an encrypted cookie.
	RefreshTransport session.Transport

	// Limiter throttles the credential endpoints per path and client IP.
	Limiter ratelimiter.RateLimiter

	ErrorHandler handler.ErrorHandler[handler.Context]
	Logger       *slog.Logger
}

// Router mounts the /auth and /user endpoints.
//
//	r := chi.NewRouter()
//	r.Mount("/", account.Router(account.RouterOptions{
//		Auth:             authService,
//		Avatars:          presigner,
//		RefreshTransport: session.NewCookieTransport(cookies, "", cookie.WithPath("/auth")),
//		ErrorHandler:     handler.NewErrorHandler(log),
//	}))
func Router(opts RouterOptions) chi.Router {
	if opts.Auth == nil {
		panic("account: RouterOptions.Auth is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	eh := opts.ErrorHandler
	if eh == nil {
		eh = handler.NewErrorHandler(log)
	}

	h := &handlers{
		auth:      opts.Auth,
		avatars:   opts.Avatars,
		transport: opts.RefreshTransport,
		logger:    log.With(logger.Component("account")),
	}

	jsonBody := binder.JSON()
	path := binder.Path(chi.URLParam)

	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Get("/providers", wrap(eh, h.providers))
		r.Post("/logout", wrap(eh, h.logout, jsonBody))
		r.Post("/refresh", wrap(eh, h.refresh, jsonBody))

		r.Group(func(r chi.Router) {
			if opts.Limiter != nil {
				r.Use(ratelimiter.Middleware(opts.Limiter,
					ratelimiter.Composite(ratelimiter.ByPath, ratelimiter.ByIP),
					ratelimiter.WithLimitedHandler(renderError(handler.ErrTooMany)),
					ratelimiter.WithLogger(log),
				))
			}
			r.Post("/login", wrap(eh, h.login, jsonBody))
			r.Post("/register", wrap(eh, h.register, jsonBody))
			r.Post("/oauth/{provider}", wrap(eh, h.oauthLogin, path, jsonBody))
			r.Post("/forgot-password", wrap(eh, h.forgotPassword, jsonBody))
			r.Post("/reset-password", wrap(eh, h.resetPassword, jsonBody))
			r.Post("/verify-email", wrap(eh, h.verifyEmail, jsonBody))
			r.Post("/resend-verification", wrap(eh, h.resendVerification, jsonBody))
		})
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(RequireAuth(opts.Auth, eh))

		r.Get("/me", wrap(eh, h.me))
		r.Patch("/me", wrap(eh, h.updateProfile, jsonBody))
		r.Post("/password", wrap(eh, h.setPassword, jsonBody))
		r.Get("/accounts", wrap(eh, h.linkedAccounts))
		r.Post("/accounts/{provider}", wrap(eh, h.linkAccount, path, jsonBody))
		r.Delete("/accounts/{provider}", wrap(eh, h.unlinkAccount, path))
		if h.avatars != nil {
			r.Post("/avatar/upload-url", wrap(eh, h.avatarUploadURL, jsonBody))
		}
	})

	return r
}

func wrap[R any](eh handler.ErrorHandler[handler.Context], fn handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(fn,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](eh),
	)
}

func renderError(err error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = handler.JSONError(err).Render(w, r)
	})
}
