package subscriptions

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

// SubscriptionResponse is the JSON view of a subscription.
type SubscriptionResponse struct {
	ID                 uuid.UUID  `json:"id"`
	PaymentEmail       string     `json:"payment_email"`
	UserID             *uuid.UUID `json:"user_id"`
	PlanType           string     `json:"plan_type"`
	Status             string     `json:"status"`
	RegistrationStatus string     `json:"registration_status"`
	StartedAt          *time.Time `json:"started_at"`
	ExpiresAt          *time.Time `json:"expires_at"`
	PaymentReference   string     `json:"payment_reference,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	AllowedEvents      []string   `json:"allowed_events,omitempty"`
}

func toResponse(sub *subscription.Subscription, allowed []string) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                 sub.ID,
		PaymentEmail:       sub.PaymentEmail,
		UserID:             sub.UserID,
		PlanType:           sub.PlanType,
		Status:             string(sub.Status),
		RegistrationStatus: string(sub.RegistrationStatus),
		StartedAt:          sub.StartedAt,
		ExpiresAt:          sub.ExpiresAt,
		PaymentReference:   sub.PaymentReference,
		CreatedAt:          sub.CreatedAt,
		UpdatedAt:          sub.UpdatedAt,
		AllowedEvents:      allowed,
	}
}

// WebhookAck is returned to the payment gateway.
type WebhookAck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BulkItemResponse is one row of a bulk activation result.
type BulkItemResponse struct {
	ID           uuid.UUID             `json:"id"`
	OK           bool                  `json:"ok"`
	Error        string                `json:"error,omitempty"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
}

// BulkResponse summarises a bulk activation.
type BulkResponse struct {
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Items     []BulkItemResponse `json:"items"`
}

// SweepResponse reports a manually triggered sweep.
type SweepResponse struct {
	WarningsSent int `json:"warnings_sent"`
	Expired      int `json:"expired"`
	Linked       int `json:"linked"`
	Errors       int `json:"errors"`
}
