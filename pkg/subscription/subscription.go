package subscription

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	// StatusNone is the state of a row that has not been created yet.
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Name implements statemachine.State.
func (s Status) Name() string { return string(s) }

// Valid reports whether s is a persisted status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// RegistrationStatus tells whether the payer has been linked to a user account.
type RegistrationStatus string

const (
	RegistrationPending    RegistrationStatus = "pending"
	RegistrationRegistered RegistrationStatus = "registered"
)

// Subscription is a paid VIP subscription keyed by the payment email.
type Subscription struct {
	ID                 uuid.UUID
	PaymentEmail       string
	UserID             *uuid.UUID
	PlanType           string
	Status             Status
	RegistrationStatus RegistrationStatus
	StartedAt          *time.Time
	ExpiresAt          *time.Time
	// ExpiryWarningFor is the ExpiresAt value an expiry warning was sent for.
	ExpiryWarningFor *time.Time
	PaymentReference string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsLive reports whether the subscription is active and not yet past its expiry.
func (s *Subscription) IsLive(now time.Time) bool {
	return s.Status == StatusActive && s.ExpiresAt != nil && s.ExpiresAt.After(now)
}

// IsLinked reports whether the subscription belongs to a registered user.
func (s *Subscription) IsLinked() bool {
	return s.UserID != nil
}

// DaysRemaining returns whole days until expiry, rounded up. Zero once expired.
func (s *Subscription) DaysRemaining(now time.Time) int {
	if s.ExpiresAt == nil || !s.ExpiresAt.After(now) {
		return 0
	}
	return int(math.Ceil(s.ExpiresAt.Sub(now).Hours() / 24))
}

// Clone returns a deep copy.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	c.UserID = clonePtr(s.UserID)
	c.StartedAt = clonePtr(s.StartedAt)
	c.ExpiresAt = clonePtr(s.ExpiresAt)
	c.ExpiryWarningFor = clonePtr(s.ExpiryWarningFor)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// NormalizeEmail lower-cases and trims an email address.
// Applied at every entry point so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
