package subscriptions

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/predictvip/handler"
	"github.com/dmitrymomot/predictvip/pkg/ratelimiter"
	"github.com/dmitrymomot/predictvip/pkg/subscription"
	"github.com/dmitrymomot/predictvip/pkg/validator"
)

var errRateLimited = handler.HTTPError{
	Status:  http.StatusTooManyRequests,
	Code:    "rate_limited",
	Message: "too many requests",
}

var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{subscription.ErrWebhookVerificationFailed, http.StatusUnauthorized, "invalid_signature"},
	{subscription.ErrMissingEmail, http.StatusBadRequest, "bad_request"},
	{subscription.ErrMalformedEvent, http.StatusBadRequest, "bad_request"},
	{subscription.ErrAlreadyActive, http.StatusConflict, "already_active"},
	{subscription.ErrSubscriptionExists, http.StatusConflict, "subscription_exists"},
	{subscription.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},
	{subscription.ErrSubscriptionCancelled, http.StatusBadRequest, "subscription_cancelled"},
	{subscription.ErrSubscriptionExpired, http.StatusBadRequest, "subscription_expired"},
	{subscription.ErrInvalidTransition, http.StatusBadRequest, "invalid_transition"},
	{subscription.ErrSubscriptionNotFound, http.StatusNotFound, "not_found"},
	{subscription.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{subscription.ErrForbidden, http.StatusForbidden, "forbidden"},
	{ratelimiter.ErrStoreUnavailable, http.StatusServiceUnavailable, "unavailable"},
}

// classify maps engine errors to HTTP errors.
func classify(err error) handler.HTTPError {
	if validator.IsValidationError(err) {
		return handler.NewHTTPError(http.StatusBadRequest, "validation_error", err)
	}
	var httpErr handler.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			return handler.HTTPError{Status: m.status, Code: m.code, Message: m.target.Error(), Err: err}
		}
	}
	return handler.DefaultClassifier(err)
}

// errorCode is the code reported for err in bulk results.
func errorCode(err error) string {
	return classify(err).Code
}
