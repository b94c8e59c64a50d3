// Package logger builds *slog.Logger instances for the identity service.
//
// New wraps either a text or a JSON slog handler so that ContextExtractor
// callbacks run on every record. Values carried by the request context (request
// id, client ip, environment) then appear in log lines without being passed
// explicitly.
//
// Attributes named after credential material (password, token, refresh_token,
// id_token, code and similar) are replaced with Redacted at any group depth.
// WithRedactedKeys extends the list.
//
// Attribute helpers such as Error, UserID, SessionID and Provider keep key
// names consistent across packages. Error returns an empty attribute for a nil
// error, which lets callers log unconditionally:
//
//	log.InfoContext(ctx, "session rotated", logger.UserID(id), logger.Error(err))
//
// Typical setup:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "identity"),
//		logger.WithLevelName(cfg.LogLevel),
//		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
package logger
