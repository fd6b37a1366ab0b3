package webhook

import (
	"math"
	"math/rand/v2"
	"net/http"
	"time"
)

// DeliveryResult describes a single delivery attempt.
type DeliveryResult struct {
	StatusCode int
	Attempt    int
	Duration   time.Duration
	Err        error
}

// DeliveryHook observes every delivery attempt.
type DeliveryHook func(result DeliveryResult)

// Backoff returns the delay before the given retry attempt (1-based).
type Backoff func(attempt int) time.Duration

// ExponentialBackoff doubles the delay from initial up to max, with up to 10% jitter.
func ExponentialBackoff(initial, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt <= 0 {
			return 0
		}
		interval := float64(initial) * math.Pow(2, float64(attempt-1))
		interval *= 1 + (rand.Float64()*2-1)*0.1
		if interval > float64(max) {
			interval = float64(max)
		}
		return time.Duration(interval)
	}
}

type sendOptions struct {
	timeout         time.Duration
	headers         map[string]string
	maxRetries      int
	backoff         Backoff
	signatureSecret string
	circuitBreaker  *CircuitBreaker
	onDelivery      DeliveryHook
}

func defaultSendOptions() *sendOptions {
	return &sendOptions{
		timeout:    10 * time.Second,
		headers:    make(map[string]string),
		maxRetries: 3,
		backoff:    ExponentialBackoff(time.Second, 30*time.Second),
	}
}

// SendOption configures a single Send call.
type SendOption func(*sendOptions)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) SendOption {
	return func(o *sendOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) SendOption {
	return func(o *sendOptions) {
		if key != "" && value != "" {
			o.headers[key] = value
		}
	}
}

// WithRetries sets the retry count and backoff. A nil backoff keeps the default.
func WithRetries(n int, backoff Backoff) SendOption {
	return func(o *sendOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
		if backoff != nil {
			o.backoff = backoff
		}
	}
}

// WithSignature signs the body with HMAC-SHA512 into SignatureHeader.
func WithSignature(secret string) SendOption {
	return func(o *sendOptions) {
		o.signatureSecret = secret
	}
}

// WithCircuitBreaker guards the endpoint with cb.
func WithCircuitBreaker(cb *CircuitBreaker) SendOption {
	return func(o *sendOptions) {
		o.circuitBreaker = cb
	}
}

// WithOnDelivery registers a hook called after each attempt.
func WithOnDelivery(hook DeliveryHook) SendOption {
	return func(o *sendOptions) {
		o.onDelivery = hook
	}
}

// permanent reports whether a status code will not change on retry.
func permanent(statusCode int) bool {
	if statusCode < 400 || statusCode >= 500 {
		return false
	}
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}
