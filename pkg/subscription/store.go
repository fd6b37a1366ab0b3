package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists subscriptions. Every mutation is conditional so concurrent
// writers never overwrite each other's decisions.
type Store interface {
	Create(ctx context.Context, sub *Subscription) error

	// Get returns ErrSubscriptionNotFound when no row exists.
	Get(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// ListByEmail returns the rows for a normalized email in the given
	// statuses (all when none given), newest first.
	ListByEmail(ctx context.Context, email string, statuses ...Status) ([]*Subscription, error)

	// Update writes next only if the stored row still has prev.Status and
	// prev.UpdatedAt; otherwise it returns ErrStaleSubscription.
	Update(ctx context.Context, prev, next *Subscription) error

	// ExpireDue flips every active row with expires_at <= now to expired in
	// one conditional write and returns only the rows it flipped.
	ExpireDue(ctx context.Context, now time.Time) ([]*Subscription, error)

	// ListExpiring returns active rows expiring in [from, to) that have not
	// been warned for their current expiry.
	ListExpiring(ctx context.Context, from, to time.Time) ([]*Subscription, error)

	// MarkExpiryWarned claims the expiry warning for (id, expiresAt).
	// It returns false when another sweep already claimed it or the row changed.
	// A successful claim advances updated_at, so writes built from an
	// earlier read go stale.
	MarkExpiryWarned(ctx context.Context, id uuid.UUID, expiresAt time.Time) (bool, error)

	// ListUnlinked returns pending, active or expired rows without a user,
	// oldest first.
	ListUnlinked(ctx context.Context, limit int) ([]*Subscription, error)
}

// PaymentRecord is a processed gateway transaction.
type PaymentRecord struct {
	Reference      string
	Event          string
	Email          string
	Amount         int64
	Currency       string
	PlanType       string
	SubscriptionID uuid.UUID
	ProcessedAt    time.Time
}

// EventLedger remembers processed transaction references for replay detection.
type EventLedger interface {
	Seen(ctx context.Context, reference string) (bool, error)
	Record(ctx context.Context, rec PaymentRecord) error
}
