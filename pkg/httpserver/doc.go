// Package httpserver runs an http.Server bound to a context.
//
// Run blocks until the context is cancelled or the listener fails, then
// shuts the server down within ShutdownTimeout. Signal handling belongs to
// the caller, typically via signal.NotifyContext in main.
//
// Liveness and Readiness build the /healthz and /readyz handlers; readiness
// runs named dependency checks such as pg.Healthcheck and redis.Healthcheck.
package httpserver
