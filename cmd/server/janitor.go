package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/acmeworks/identity/pkg/logger"
	"github.com/acmeworks/identity/pkg/requestid"
)

type purger interface {
	PurgeExpired(ctx context.Context) (sessions, tokens int64, err error)
}

// runJanitor purges expired sessions and ephemeral tokens every interval
// until ctx is canceled.
func runJanitor(ctx context.Context, p purger, interval time.Duration, log *slog.Logger) {
	log = log.With(logger.Component("janitor"))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purgeOnce(requestid.Ensure(ctx), p, log)
		}
	}
}

func purgeOnce(ctx context.Context, p purger, log *slog.Logger) {
	start := time.Now()
	sessions, tokens, err := p.PurgeExpired(ctx)
	if err != nil {
		log.ErrorContext(ctx, "purge failed", logger.Error(err))
		return
	}
	if sessions > 0 || tokens > 0 {
		log.InfoContext(ctx, "expired records purged",
			slog.Int64("sessions", sessions),
			slog.Int64("tokens", tokens),
			logger.Duration(time.Since(start)),
		)
	}
}
