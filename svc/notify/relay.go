package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/predictvip/pkg/subscription"
	"github.com/dmitrymomot/predictvip/pkg/webhook"
)

// relayPayload is the JSON body posted to relay endpoints.
type relayPayload struct {
	Event          string     `json:"event"`
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	Email          string     `json:"email"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	PlanType       string     `json:"plan_type"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	DaysRemaining  int        `json:"days_remaining"`
}

// WebhookRelay forwards notices to an external endpoint, signed with
// HMAC-SHA512 and guarded by a circuit breaker.
type WebhookRelay struct {
	sender   *webhook.Sender
	endpoint string
	opts     []webhook.SendOption
}

// NewWebhookRelay posts to endpoint. An empty secret sends unsigned payloads.
func NewWebhookRelay(sender *webhook.Sender, endpoint, secret string, opts ...webhook.SendOption) *WebhookRelay {
	base := []webhook.SendOption{
		webhook.WithCircuitBreaker(webhook.NewCircuitBreaker(5, time.Minute)),
		webhook.WithRetries(2, webhook.ExponentialBackoff(500*time.Millisecond, 5*time.Second)),
	}
	if secret != "" {
		base = append(base, webhook.WithSignature(secret))
	}
	return &WebhookRelay{
		sender:   sender,
		endpoint: endpoint,
		opts:     append(base, opts...),
	}
}

func (r *WebhookRelay) Notify(ctx context.Context, n subscription.Notice) error {
	p := relayPayload{
		Event:          string(n.Type),
		SubscriptionID: n.SubscriptionID,
		Email:          n.RecipientEmail,
		UserID:         n.UserID,
		PlanType:       n.PlanType,
		DaysRemaining:  n.DaysRemaining,
	}
	if !n.ExpiresAt.IsZero() {
		exp := n.ExpiresAt.UTC()
		p.ExpiresAt = &exp
	}
	return r.sender.Send(ctx, r.endpoint, p, r.opts...)
}
