// Package requestid correlates log records of a single HTTP request.
//
// Middleware accepts a client supplied X-Request-ID when it is at most 128
// characters of [a-zA-Z0-9_-]; anything else is replaced by a fresh UUID. The
// chosen ID is stored in the request context and echoed in the response
// header. LoggerExtractor plugs into logger.WithContextExtractors so every
// *Context log call carries the ID.
package requestid
