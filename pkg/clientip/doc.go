// Package clientip resolves the address of the HTTP client.
//
// Proxy headers are trivially spoofed by clients that reach the service
// directly, so Middleware trusts them only when told to. Rate limiting keys
// and log records read the resolved address through FromRequest and
// LoggerExtractor.
package clientip
