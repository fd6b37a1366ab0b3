package storage

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dmitrymomot/predictvip/pkg/pg"
	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

const subscriptionColumns = `id, payment_email, user_id, plan_type, status, registration_status,
	started_at, expires_at, expiry_warning_for, payment_reference, created_at, updated_at`

// SubscriptionStore is the Postgres subscription.Store.
type SubscriptionStore struct {
	db DB
}

func NewSubscriptionStore(db DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.Exec(ctx, query,
		sub.ID,
		sub.PaymentEmail,
		sub.UserID,
		sub.PlanType,
		string(sub.Status),
		string(sub.RegistrationStatus),
		sub.StartedAt,
		sub.ExpiresAt,
		sub.ExpiryWarningFor,
		sub.PaymentReference,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return subscription.ErrSubscriptionExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) Get(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	sub, err := scanSubscription(s.db.QueryRow(ctx, query, id))
	if pg.IsNotFoundError(err) {
		return nil, subscription.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

func (s *SubscriptionStore) ListByEmail(ctx context.Context, email string, statuses ...subscription.Status) ([]*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE payment_email = $1 AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY created_at DESC, id DESC
	`
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, string(st))
	}
	return s.list(ctx, query, subscription.NormalizeEmail(email), names)
}

func (s *SubscriptionStore) Update(ctx context.Context, prev, next *subscription.Subscription) error {
	query := `
		UPDATE subscriptions SET
			payment_email = $4,
			user_id = $5,
			plan_type = $6,
			status = $7,
			registration_status = $8,
			started_at = $9,
			expires_at = $10,
			expiry_warning_for = $11,
			payment_reference = $12,
			updated_at = $13
		WHERE id = $1 AND status = $2 AND updated_at = $3
	`
	tag, err := s.db.Exec(ctx, query,
		prev.ID,
		string(prev.Status),
		prev.UpdatedAt,
		next.PaymentEmail,
		next.UserID,
		next.PlanType,
		string(next.Status),
		string(next.RegistrationStatus),
		next.StartedAt,
		next.ExpiresAt,
		next.ExpiryWarningFor,
		next.PaymentReference,
		next.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE id = $1)`, prev.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check subscription: %w", err)
	}
	if !exists {
		return subscription.ErrSubscriptionNotFound
	}
	return subscription.ErrStaleSubscription
}

func (s *SubscriptionStore) ExpireDue(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET status = 'expired',
			updated_at = GREATEST(date_trunc('microseconds', $1::timestamptz), updated_at + interval '1 microsecond')
		WHERE status = 'active' AND expires_at <= $1
		RETURNING ` + subscriptionColumns

	subs, err := s.list(ctx, query, now)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(subs, func(a, b *subscription.Subscription) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return subs, nil
}

func (s *SubscriptionStore) ListExpiring(ctx context.Context, from, to time.Time) ([]*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'active'
			AND expires_at >= $1 AND expires_at < $2
			AND expiry_warning_for IS DISTINCT FROM expires_at
		ORDER BY created_at, id
	`
	return s.list(ctx, query, from, to)
}

func (s *SubscriptionStore) MarkExpiryWarned(ctx context.Context, id uuid.UUID, expiresAt time.Time) (bool, error) {
	query := `
		UPDATE subscriptions
		SET expiry_warning_for = $2,
			updated_at = updated_at + interval '1 microsecond'
		WHERE id = $1 AND status = 'active' AND expires_at = $2
			AND expiry_warning_for IS DISTINCT FROM $2
	`
	tag, err := s.db.Exec(ctx, query, id, expiresAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark expiry warning: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *SubscriptionStore) ListUnlinked(ctx context.Context, limit int) ([]*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id IS NULL AND status IN ('pending', 'active', 'expired')
		ORDER BY created_at, id
		LIMIT NULLIF($1::int, 0)
	`
	return s.list(ctx, query, max(limit, 0))
}

func (s *SubscriptionStore) list(ctx context.Context, query string, args ...any) ([]*subscription.Subscription, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*subscription.Subscription, error) {
		return scanSubscription(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscriptions: %w", err)
	}
	return subs, nil
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var (
		sub          subscription.Subscription
		userID       pgtype.UUID
		status       string
		registration string
	)
	err := row.Scan(
		&sub.ID,
		&sub.PaymentEmail,
		&userID,
		&sub.PlanType,
		&status,
		&registration,
		&sub.StartedAt,
		&sub.ExpiresAt,
		&sub.ExpiryWarningFor,
		&sub.PaymentReference,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.UserID = uuidPtr(userID)
	sub.Status = subscription.Status(status)
	sub.RegistrationStatus = subscription.RegistrationStatus(registration)
	if !sub.Status.Valid() {
		return nil, fmt.Errorf("unknown subscription status %q", status)
	}
	sub.StartedAt = utcPtr(sub.StartedAt)
	sub.ExpiresAt = utcPtr(sub.ExpiresAt)
	sub.ExpiryWarningFor = utcPtr(sub.ExpiryWarningFor)
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()
	return &sub, nil
}
