// Package transport provides the HTTP-level middleware chain and the JSON
// response helpers shared by warden's handlers.
//
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID) and one structured access log line per request via
// log/slog. Route wiring and server lifecycle live in the http
// sub-package.
package transport
