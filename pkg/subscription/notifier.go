package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NoticeType identifies an outbound subscriber notification.
type NoticeType string

const (
	NoticeActivated NoticeType = "subscription_activated"
	NoticeExpiring  NoticeType = "subscription_expiring"
	NoticeExpired   NoticeType = "subscription_expired"
)

// Notice is handed to the notification collaborator.
type Notice struct {
	Type           NoticeType
	SubscriptionID uuid.UUID
	RecipientEmail string
	UserID         *uuid.UUID
	PlanType       string
	ExpiresAt      time.Time
	DaysRemaining  int
}

// Notifier delivers notices. Failures are logged by the caller and never
// roll back the state change that produced the notice.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice) error

func (f NotifierFunc) Notify(ctx context.Context, n Notice) error { return f(ctx, n) }

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notice) error { return nil }

func noticeFor(t NoticeType, sub *Subscription, now time.Time) Notice {
	n := Notice{
		Type:           t,
		SubscriptionID: sub.ID,
		RecipientEmail: sub.PaymentEmail,
		UserID:         clonePtr(sub.UserID),
		PlanType:       sub.PlanType,
	}
	if sub.ExpiresAt != nil {
		n.ExpiresAt = *sub.ExpiresAt
		n.DaysRemaining = sub.DaysRemaining(now)
	}
	return n
}
