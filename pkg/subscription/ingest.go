package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/predictvip/pkg/logger"
	"github.com/dmitrymomot/predictvip/pkg/webhook"
)

// Outcome summarises how a payment event was handled.
type Outcome string

const (
	OutcomeActivated Outcome = "activated"
	OutcomeRenewed   Outcome = "renewed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeIgnored   Outcome = "ignored"
)

// Message is the acknowledgement text returned to the gateway.
func (o Outcome) Message() string {
	switch o {
	case OutcomeActivated:
		return "subscription activated"
	case OutcomeRenewed:
		return "subscription renewed"
	case OutcomeDuplicate:
		return "already active"
	case OutcomeCancelled:
		return "subscription cancelled"
	default:
		return "event ignored"
	}
}

// IngestResult is the result of a handled payment event.
type IngestResult struct {
	Outcome      Outcome
	Subscription *Subscription
	Cancelled    int
}

// Ingestor reconciles gateway payment events into subscriptions.
type Ingestor struct {
	lc     *Lifecycle
	secret string
	ledger EventLedger
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithEventLedger enables replay detection by transaction reference.
func WithEventLedger(l EventLedger) IngestorOption {
	return func(i *Ingestor) {
		i.ledger = l
	}
}

// NewIngestor creates an Ingestor verifying webhooks with secret.
// An empty secret rejects every webhook.
func NewIngestor(lc *Lifecycle, secret string, opts ...IngestorOption) *Ingestor {
	if lc == nil {
		panic("subscription: Lifecycle is required")
	}
	i := &Ingestor{lc: lc, secret: secret}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// HandleWebhook verifies the signature over the raw payload, then ingests the event.
func (i *Ingestor) HandleWebhook(ctx context.Context, payload []byte, signature string) (*IngestResult, error) {
	if err := webhook.Verify(i.secret, payload, signature); err != nil {
		i.lc.logger.WarnContext(ctx, "rejected payment webhook", logger.Error(err))
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}

	ev, err := ParsePaystackEvent(payload)
	if err != nil {
		return nil, err
	}
	return i.Ingest(ctx, ev)
}

// Ingest applies a verified payment event.
func (i *Ingestor) Ingest(ctx context.Context, ev *PaymentEvent) (*IngestResult, error) {
	var (
		res *IngestResult
		err error
	)
	switch ev.Type {
	case GatewayChargeSuccess:
		res, err = i.chargeSucceeded(ctx, ev)
	case GatewaySubscriptionDisable, GatewaySubscriptionNoRenew:
		res, err = i.subscriptionCancelled(ctx, ev)
	default:
		res = &IngestResult{Outcome: OutcomeIgnored}
	}
	if err != nil {
		i.lc.logger.ErrorContext(ctx, "failed to ingest payment event",
			logger.EventType(ev.Type), logger.Reference(ev.Reference), logger.Error(err))
		return nil, err
	}

	i.lc.observer.WebhookProcessed(ev.Type, res.Outcome)
	i.lc.logger.LogAttrs(ctx, slog.LevelInfo, "payment event processed",
		logger.EventType(ev.Type),
		logger.Reference(ev.Reference),
		slog.String("outcome", string(res.Outcome)),
	)
	return res, nil
}

func (i *Ingestor) chargeSucceeded(ctx context.Context, ev *PaymentEvent) (*IngestResult, error) {
	if ev.Email == "" {
		return nil, ErrMissingEmail
	}

	if ev.Reference != "" && i.ledger != nil {
		seen, err := i.ledger.Seen(ctx, ev.Reference)
		if err != nil {
			return nil, fmt.Errorf("check payment reference: %w", err)
		}
		if seen {
			return &IngestResult{Outcome: OutcomeDuplicate}, nil
		}
	}

	plan := i.resolvePlan(ctx, ev)

	open, err := i.lc.store.ListByEmail(ctx, ev.Email, StatusPending, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	var active, pending *Subscription
	for _, s := range open {
		if s.PlanType != plan.ID {
			continue
		}
		switch {
		case s.Status == StatusActive && active == nil:
			active = s
		case s.Status == StatusPending && pending == nil:
			pending = s
		}
	}

	now := i.lc.now()
	var (
		sub     *Subscription
		outcome Outcome
	)
	switch {
	case active != nil && active.IsLive(now) && !i.isNewPayment(ev, active):
		return &IngestResult{Outcome: OutcomeDuplicate, Subscription: active}, nil
	case active != nil:
		sub, err = i.lc.applyGuarded(ctx, active.ID, active, EventPaymentRenewed,
			notYetApplied(ev.Reference), withReference(ev.Reference))
		outcome = OutcomeRenewed
	case pending != nil:
		sub, err = i.lc.applyGuarded(ctx, pending.ID, pending, EventPaymentSucceeded,
			notYetApplied(ev.Reference), withReference(ev.Reference))
		outcome = OutcomeActivated
	default:
		sub, err = i.lc.Create(ctx, ev.Email, plan.ID, EventPaymentSucceeded, ev.Reference)
		outcome = OutcomeActivated
	}
	if errors.Is(err, ErrAlreadyActive) || errors.Is(err, errPaymentApplied) {
		return &IngestResult{Outcome: OutcomeDuplicate}, nil
	}
	if err != nil {
		return nil, err
	}

	i.record(ctx, ev, plan, sub)
	return &IngestResult{Outcome: outcome, Subscription: sub}, nil
}

// isNewPayment tells a renewal apart from a repeat delivery of the payment
// that produced the live subscription. Without a reference or a ledger the two
// cannot be distinguished and the event counts as a repeat.
func (i *Ingestor) isNewPayment(ev *PaymentEvent, live *Subscription) bool {
	return ev.Reference != "" && i.ledger != nil && ev.Reference != live.PaymentReference
}

var errPaymentApplied = errors.New("payment already applied")

// notYetApplied rejects a row that already carries the payment reference, so
// an overlapping redelivery of one payment extends the period once.
func notYetApplied(ref string) func(*Subscription) error {
	return func(s *Subscription) error {
		if ref != "" && s.PaymentReference == ref {
			return errPaymentApplied
		}
		return nil
	}
}

func withReference(ref string) func(*Subscription) {
	return func(s *Subscription) {
		if ref != "" {
			s.PaymentReference = ref
		}
	}
}

// resolvePlan picks the plan from metadata, then the gateway plan code, then
// the paid amount. Metadata wins over a disagreeing amount.
func (i *Ingestor) resolvePlan(ctx context.Context, ev *PaymentEvent) Plan {
	byAmount, amountOK := i.lc.catalog.ResolveAmount(ev.Amount)

	for _, hint := range []string{ev.PlanHint, ev.PlanCode} {
		if hint == "" {
			continue
		}
		plan, rule := i.lc.catalog.Match(hint)
		if rule == RuleFallback {
			continue
		}
		if amountOK && byAmount.ID != plan.ID {
			i.lc.logger.WarnContext(ctx, "plan in payment metadata disagrees with paid amount",
				logger.Reference(ev.Reference),
				logger.PlanType(plan.ID),
				slog.String("amount_plan", byAmount.ID),
				slog.Int64("amount", ev.Amount),
			)
		}
		return plan
	}

	if amountOK {
		return byAmount
	}

	fallback := i.lc.catalog.Fallback()
	i.lc.logger.WarnContext(ctx, "unrecognised plan in payment event, using fallback plan",
		logger.Reference(ev.Reference),
		logger.PlanType(fallback.ID),
		slog.String("plan_hint", ev.PlanHint),
		slog.String("plan_code", ev.PlanCode),
		slog.Int64("amount", ev.Amount),
	)
	return fallback
}

// record stores the processed reference. A failure only weakens replay
// detection for this reference, so it is logged rather than returned.
func (i *Ingestor) record(ctx context.Context, ev *PaymentEvent, plan Plan, sub *Subscription) {
	if ev.Reference == "" || i.ledger == nil {
		return
	}
	err := i.ledger.Record(ctx, PaymentRecord{
		Reference:      ev.Reference,
		Event:          ev.Type,
		Email:          ev.Email,
		Amount:         ev.Amount,
		Currency:       ev.Currency,
		PlanType:       plan.ID,
		SubscriptionID: sub.ID,
		ProcessedAt:    i.lc.now(),
	})
	if err != nil {
		i.lc.logger.ErrorContext(ctx, "failed to record payment reference",
			logger.Reference(ev.Reference), logger.SubscriptionID(sub.ID), logger.Error(err))
	}
}

func (i *Ingestor) subscriptionCancelled(ctx context.Context, ev *PaymentEvent) (*IngestResult, error) {
	if ev.Email == "" {
		return nil, ErrMissingEmail
	}

	active, err := i.lc.store.ListByEmail(ctx, ev.Email, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	res := &IngestResult{Outcome: OutcomeCancelled}
	for _, s := range active {
		_, err := i.lc.applyTo(ctx, s.ID, s, EventGatewayCancelled)
		if errors.Is(err, ErrSubscriptionCancelled) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Cancelled++
	}
	return res, nil
}
