package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/acmeworks/identity/handler"
	"github.com/acmeworks/identity/modules/account"
	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/clientip"
	"github.com/acmeworks/identity/pkg/config"
	"github.com/acmeworks/identity/pkg/cookie"
	"github.com/acmeworks/identity/pkg/email"
	"github.com/acmeworks/identity/pkg/environment"
	"github.com/acmeworks/identity/pkg/file"
	"github.com/acmeworks/identity/pkg/httpserver"
	"github.com/acmeworks/identity/pkg/logger"
	"github.com/acmeworks/identity/pkg/requestid"
	"github.com/acmeworks/identity/pkg/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("identity server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var app appConfig
	if err := config.Load(&app); err != nil {
		return err
	}
	if err := app.validate(); err != nil {
		return err
	}

	env := environment.Parse(app.Env)
	log := logger.New(
		logger.WithEnvironment(string(env), app.ServiceName),
		logger.WithLevelName(app.LogLevel),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	var authCfg auth.Config
	if err := config.Load(&authCfg); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	store, err := openBackend(ctx, app.StoreDriver, log)
	if err != nil {
		return err
	}
	defer store.close()

	mailer, err := newMailer(authCfg, log)
	if err != nil {
		return err
	}

	authOpts := []auth.Option{auth.WithLogger(log)}
	var google auth.GoogleOAuthConfig
	if err := config.Load(&google); err != nil {
		return fmt.Errorf("google config: %w", err)
	}
	if google.Enabled() {
		v, err := auth.NewGoogleVerifier(google)
		if err != nil {
			return err
		}
		authOpts = append(authOpts, auth.WithVerifier(v))
	}

	svc, err := auth.New(authCfg, auth.Deps{
		Credentials: store.credentials,
		Sessions:    store.sessions,
		Ephemeral:   store.ephemeral,
		Notifier:    mailer,
	}, authOpts...)
	if err != nil {
		return err
	}

	transport, err := newRefreshTransport(app)
	if err != nil {
		return err
	}

	limiter, err := store.newLimiter(app.RateLimitEnabled)
	if err != nil {
		return err
	}

	var s3cfg file.S3Config
	if err := config.Load(&s3cfg); err != nil {
		return fmt.Errorf("s3 config: %w", err)
	}
	var avatars account.AvatarStorage
	if s3cfg.Enabled() {
		p, err := file.NewS3Presigner(ctx, s3cfg, s3cfg.Options()...)
		if err != nil {
			return err
		}
		avatars = p
	}

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.Middleware(app.TrustProxyHeaders),
		environment.Middleware(env),
		middleware.Recoverer,
	)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, app.ReadyTimeout, store.checks...))
	r.Mount("/", account.Router(account.RouterOptions{
		Auth:             svc,
		Avatars:          avatars,
		RefreshTransport: transport,
		Limiter:          limiter,
		ErrorHandler:     handler.NewErrorHandler(log),
		Logger:           log,
	}))

	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	go runJanitor(jobCtx, svc, app.JanitorInterval, log)

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return fmt.Errorf("http config: %w", err)
	}
	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(func(*slog.Logger) { cancelJobs() }),
	)
	return srv.Run(ctx, r)
}

// newMailer sends through Postmark when both tokens are set and writes
// messages to disk otherwise.
func newMailer(authCfg auth.Config, log *slog.Logger) (*email.AuthMailer, error) {
	var cfg email.Config
	if err := config.Load(&cfg); err != nil {
		return nil, fmt.Errorf("email config: %w", err)
	}

	var sender email.EmailSender
	if cfg.UsePostmark() {
		pm, err := email.NewPostmarkClient(cfg)
		if err != nil {
			return nil, err
		}
		sender = pm
	} else {
		log.Warn("postmark is not configured, writing emails to disk", slog.String("dir", cfg.MailDir))
		sender = email.NewDevSender(cfg.MailDir)
	}
	return email.NewAuthMailer(sender, cfg, authCfg.VerifyEmailTTL, authCfg.ResetPasswordTTL)
}

// newRefreshTransport always accepts the refresh header and, when enabled,
// the encrypted cookie scoped to /auth.
func newRefreshTransport(app appConfig) (session.Transport, error) {
	header := session.NewHeaderTransport(app.RefreshHeaderName)
	if !app.RefreshCookie {
		return header, nil
	}

	var cfg cookie.Config
	if err := config.Load(&cfg); err != nil {
		return nil, fmt.Errorf("cookie config: %w", err)
	}
	mgr, err := cookie.NewFromConfig(cfg, cookie.WithHTTPOnly(true))
	if err != nil {
		return nil, err
	}
	return session.NewCompositeTransport(
		session.NewCookieTransport(mgr, app.RefreshCookieName, cookie.WithPath("/auth")),
		header,
	), nil
}
