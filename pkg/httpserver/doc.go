// Package httpserver runs an http.Handler with sane timeouts, structured
// logging and graceful shutdown, and provides liveness and readiness probes.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//
//	r := chi.NewRouter()
//	r.Get("/health/live", httpserver.LivenessHandler())
//	r.Get("/health/ready", httpserver.ReadinessHandler(log, 2*time.Second,
//		httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
//	))
//
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Run returns when ctx is done, on SIGINT/SIGTERM, or after Shutdown. Listen
// errors are wrapped with ErrStart and shutdown errors with ErrShutdown.
package httpserver
