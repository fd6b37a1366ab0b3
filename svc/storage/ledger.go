package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/predictvip/pkg/logger"
	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

// PaymentLedger is the Postgres subscription.EventLedger over payment_events.
type PaymentLedger struct {
	db DB
}

func NewPaymentLedger(db DB) *PaymentLedger {
	return &PaymentLedger{db: db}
}

func (l *PaymentLedger) Seen(ctx context.Context, reference string) (bool, error) {
	var seen bool
	err := l.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payment_events WHERE reference = $1)`, reference).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("failed to check payment event: %w", err)
	}
	return seen, nil
}

// Record stores rec once; a second record for the same reference is a no-op.
func (l *PaymentLedger) Record(ctx context.Context, rec subscription.PaymentRecord) error {
	query := `
		INSERT INTO payment_events (reference, event, email, amount, currency, plan_type, subscription_id, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (reference) DO NOTHING
	`
	_, err := l.db.Exec(ctx, query,
		rec.Reference,
		rec.Event,
		subscription.NormalizeEmail(rec.Email),
		rec.Amount,
		rec.Currency,
		rec.PlanType,
		nullUUID(rec.SubscriptionID),
		rec.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record payment event: %w", err)
	}
	return nil
}

// KeyCache is a set of seen keys; *redis.KeySet satisfies it.
type KeyCache interface {
	Add(ctx context.Context, key string) (bool, error)
	Has(ctx context.Context, key string) (bool, error)
}

// CachedLedger answers replay checks from a KeyCache and falls back to the
// durable ledger on a miss. Cache failures degrade to the durable ledger.
type CachedLedger struct {
	next   subscription.EventLedger
	cache  KeyCache
	logger *slog.Logger
}

func NewCachedLedger(next subscription.EventLedger, cache KeyCache, log *slog.Logger) *CachedLedger {
	if log == nil {
		log = slog.Default()
	}
	return &CachedLedger{next: next, cache: cache, logger: log.With(logger.Component("payment_ledger_cache"))}
}

func (l *CachedLedger) Seen(ctx context.Context, reference string) (bool, error) {
	hit, err := l.cache.Has(ctx, reference)
	if err != nil {
		l.logger.WarnContext(ctx, "ledger cache lookup failed", logger.Reference(reference), logger.Error(err))
	} else if hit {
		return true, nil
	}

	seen, err := l.next.Seen(ctx, reference)
	if err != nil {
		return false, err
	}
	if seen {
		l.remember(ctx, reference)
	}
	return seen, nil
}

func (l *CachedLedger) Record(ctx context.Context, rec subscription.PaymentRecord) error {
	if err := l.next.Record(ctx, rec); err != nil {
		return err
	}
	l.remember(ctx, rec.Reference)
	return nil
}

func (l *CachedLedger) remember(ctx context.Context, reference string) {
	if _, err := l.cache.Add(ctx, reference); err != nil {
		l.logger.WarnContext(ctx, "ledger cache write failed", logger.Reference(reference), logger.Error(err))
	}
}
