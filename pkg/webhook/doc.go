// Package webhook signs, verifies and delivers HTTP webhooks.
//
// Inbound payment notifications are authenticated with Verify, which compares
// the hex HMAC-SHA512 of the raw body against the SignatureHeader value in
// constant time. Any failure, including a missing secret, rejects the request.
//
// Outbound deliveries go through Sender.Send, which POSTs JSON with
// exponential backoff, optional HMAC signing and an optional CircuitBreaker
// shared across calls to the same endpoint:
//
//	cb := webhook.NewCircuitBreaker(5, time.Minute)
//	err := sender.Send(ctx, url, payload,
//	    webhook.WithSignature(secret),
//	    webhook.WithCircuitBreaker(cb),
//	)
package webhook
