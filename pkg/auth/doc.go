// Package auth decides whether an HTTP request is authenticated, identifies
// the caller and gates access to protected routes.
//
// A Strategy bundles path exemption, credential extraction and user
// resolution. Variants live in sub-packages (noop, basic, sessionauth) and
// are selected once at startup by strategy.New. Session-based variants also
// implement SessionManager.
//
// The gate runs as HTTP middleware: exempt paths pass through, requests
// without any credential get 401, requests whose credential does not resolve
// to a user get 403, and resolved callers have their Identity attached to
// the request context.
package auth
