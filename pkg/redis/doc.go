// Package redis wraps github.com/redis/go-redis/v9 with startup and
// readiness helpers.
//
// Connect retries PING until the server is ready. Healthcheck adapts a
// client to a readiness check. KeySet is a TTL-bounded set of keys used as a
// fast replay filter in front of the payment ledger.
package redis
