package subscription

import "errors"

var (
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrSubscriptionExists    = errors.New("subscription already exists")
	ErrAlreadyActive         = errors.New("subscription already active")
	ErrSubscriptionCancelled = errors.New("subscription is cancelled")
	ErrSubscriptionExpired   = errors.New("subscription has expired")
	ErrInvalidTransition     = errors.New("invalid subscription transition")

	// ErrStaleSubscription is returned by Store.Update when the row changed since it was read.
	ErrStaleSubscription = errors.New("subscription was modified concurrently")
	ErrConcurrentUpdate  = errors.New("subscription is being updated concurrently, retry later")

	ErrForbidden    = errors.New("caller is not allowed to manage subscriptions")
	ErrUserNotFound = errors.New("user not found")

	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrMalformedEvent            = errors.New("malformed payment event")
	ErrMissingEmail              = errors.New("payment event has no customer email")

	ErrInvalidPlanConfiguration = errors.New("invalid subscription plan configuration")
	ErrFailedToLoadPlans        = errors.New("failed to load subscription plans")
)
