package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/acmeworks/identity/pkg/logger"
	"github.com/acmeworks/identity/pkg/requestid"
)

// NewErrorHandler renders errors as JSON envelopes and logs them: client
// errors at warn, server errors at error. Configure it once in main.go and
// pass it to every module.
func NewErrorHandler(log *slog.Logger) ErrorHandler[Context] {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		status, _ := ErrorToDetail(err)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("http"),
		)

		if renderErr := JSONError(err).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(renderErr))
		}
	}
}
