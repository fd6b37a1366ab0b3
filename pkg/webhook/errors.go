package webhook

import "errors"

var (
	ErrInvalidConfiguration  = errors.New("invalid webhook configuration")
	ErrInvalidPayload        = errors.New("invalid webhook payload")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrInvalidURL            = errors.New("invalid webhook URL")
	ErrWebhookDeliveryFailed = errors.New("webhook delivery failed")
	ErrPermanentFailure      = errors.New("permanent webhook failure")
	ErrTemporaryFailure      = errors.New("temporary webhook failure")
	ErrCircuitOpen           = errors.New("webhook circuit breaker is open")
	ErrTimeout               = errors.New("webhook request timeout")
)

// IsCircuitOpen checks if an error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
