package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sender posts JSON payloads to HTTP endpoints with retries and circuit breaking.
type Sender struct {
	client *http.Client
}

// NewSender creates a Sender. A nil client gets a pooled default.
func NewSender(client *http.Client) *Sender {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Sender{client: client}
}

// Send marshals data to JSON and POSTs it to endpoint.
// 4xx responses other than 408, 425 and 429 are not retried.
func (s *Sender) Send(ctx context.Context, endpoint string, data any, opts ...SendOption) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := validateEndpoint(endpoint); err != nil {
		return err
	}

	options := defaultSendOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.circuitBreaker != nil && !options.circuitBreaker.Allow() {
		return ErrCircuitOpen
	}

	var lastErr error
	for attempt := 0; attempt <= options.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(options.backoff(attempt)):
			}
		}

		result := s.attempt(ctx, endpoint, payload, options)
		result.Attempt = attempt + 1
		if options.onDelivery != nil {
			options.onDelivery(result)
		}

		if options.circuitBreaker != nil {
			if result.Err == nil {
				options.circuitBreaker.RecordSuccess()
			} else {
				options.circuitBreaker.RecordFailure()
			}
		}

		if result.Err == nil {
			return nil
		}
		lastErr = result.Err

		if permanent(result.StatusCode) {
			return fmt.Errorf("%w: %w", ErrPermanentFailure, lastErr)
		}
		if options.circuitBreaker != nil && !options.circuitBreaker.Allow() {
			return errors.Join(ErrCircuitOpen, lastErr)
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrWebhookDeliveryFailed, options.maxRetries+1, lastErr)
}

func (s *Sender) attempt(ctx context.Context, endpoint string, payload []byte, options *sendOptions) DeliveryResult {
	start := time.Now()
	result := DeliveryResult{}

	reqCtx, cancel := context.WithTimeout(ctx, options.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		result.Err = err
		return result
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "predictvip-webhook/1.0")
	for k, v := range options.headers {
		req.Header.Set(k, v)
	}
	if options.signatureSecret != "" {
		signature, err := Sign(options.signatureSecret, payload)
		if err != nil {
			result.Err = err
			return result
		}
		req.Header.Set(SignatureHeader, signature)
	}

	resp, err := s.client.Do(req)
	result.Duration = time.Since(start)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			result.Err = fmt.Errorf("%w: %w", ErrTimeout, err)
		} else {
			result.Err = fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
		}
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return result
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := strings.ReplaceAll(strings.TrimSpace(string(body)), "\n", " ")
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	result.Err = fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, msg)
	return result
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}
