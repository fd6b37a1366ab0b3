package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/predictvip/pkg/logger"
	"github.com/dmitrymomot/predictvip/pkg/statemachine"
)

// Event triggers a lifecycle transition.
type Event string

const (
	EventPaymentSucceeded   Event = "payment_succeeded"
	EventPaymentRenewed     Event = "payment_renewed"
	EventAdminGranted       Event = "admin_granted"
	EventAdminGrantedActive Event = "admin_granted_active"
	EventAdminActivated     Event = "admin_activated"
	EventAdminExtended      Event = "admin_extended"
	EventAdminExpired       Event = "admin_expired"
	EventSweepExpired       Event = "sweep_expired"
	EventAdminCancelled     Event = "admin_cancelled"
	EventGatewayCancelled   Event = "gateway_cancelled"
)

// Name implements statemachine.Event.
func (e Event) Name() string { return string(e) }

// ExtensionDays is the length of a manual "+1 month" extension.
const ExtensionDays = 30

const defaultMaxWriteAttempts = 3

// transitionInput is the guard payload.
type transitionInput struct {
	sub *Subscription
	now time.Time
}

func guardInput(data any) (transitionInput, bool) {
	in, ok := data.(transitionInput)
	return in, ok && in.sub != nil
}

// expiredEarly allows reactivating a row that was force-expired before its paid period ended.
func expiredEarly(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	in, ok := guardInput(data)
	return ok && in.sub.ExpiresAt != nil && in.sub.ExpiresAt.After(in.now)
}

func overdue(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	in, ok := guardInput(data)
	return ok && in.sub.ExpiresAt != nil && !in.sub.ExpiresAt.After(in.now)
}

func newTransitionTable() *statemachine.Table {
	cancellable := []statemachine.State{StatusPending, StatusActive, StatusExpired}

	return statemachine.MustNew(
		statemachine.WithTransition(StatusNone, StatusActive, EventPaymentSucceeded),
		statemachine.WithTransition(StatusNone, StatusPending, EventAdminGranted),
		statemachine.WithTransition(StatusNone, StatusActive, EventAdminGrantedActive),
		statemachine.WithTransition(StatusPending, StatusActive, EventPaymentSucceeded),
		statemachine.WithTransition(StatusPending, StatusActive, EventAdminActivated),
		statemachine.WithTransition(StatusExpired, StatusActive, EventAdminActivated, statemachine.WithGuard(expiredEarly)),
		statemachine.WithTransition(StatusActive, StatusActive, EventPaymentRenewed),
		statemachine.WithTransition(StatusActive, StatusActive, EventAdminExtended),
		statemachine.WithTransition(StatusActive, StatusExpired, EventAdminExpired),
		statemachine.WithTransition(StatusActive, StatusExpired, EventSweepExpired, statemachine.WithGuard(overdue)),
		statemachine.WithTransitionFrom(cancellable, StatusCancelled, EventAdminCancelled),
		statemachine.WithTransitionFrom(cancellable, StatusCancelled, EventGatewayCancelled),
	)
}

// Lifecycle owns every write to a subscription row.
type Lifecycle struct {
	store       Store
	catalog     *Catalog
	identity    *IdentityResolver
	table       *statemachine.Table
	notifier    Notifier
	observer    Observer
	logger      *slog.Logger
	now         func() time.Time
	maxAttempts int
}

// NewLifecycle panics if a required dependency is nil.
func NewLifecycle(store Store, catalog *Catalog, identity *IdentityResolver, opts ...Option) *Lifecycle {
	if store == nil {
		panic("subscription: Store is required")
	}
	if catalog == nil {
		panic("subscription: Catalog is required")
	}
	if identity == nil {
		panic("subscription: IdentityResolver is required")
	}

	lc := &Lifecycle{
		store:       store,
		catalog:     catalog,
		identity:    identity,
		table:       newTransitionTable(),
		notifier:    noopNotifier{},
		observer:    noopObserver{},
		logger:      slog.Default(),
		now:         func() time.Time { return time.Now().UTC() },
		maxAttempts: defaultMaxWriteAttempts,
	}
	for _, opt := range opts {
		opt(lc)
	}
	lc.logger = lc.logger.With(logger.Component("subscription"))

	return lc
}

// Catalog returns the plan catalog.
func (l *Lifecycle) Catalog() *Catalog { return l.catalog }

// AllowedEvents lists the events that can currently be applied to sub.
func (l *Lifecycle) AllowedEvents(ctx context.Context, sub *Subscription) []string {
	return l.table.Events(ctx, sub.Status, transitionInput{sub: sub, now: l.now()})
}

// decideFunc computes the next row from the current one. Returning
// errNoChange skips the write.
type decideFunc func(ctx context.Context, cur *Subscription, now time.Time) (*Subscription, error)

var errNoChange = errors.New("no change")

// mutate applies decide to the row and writes the result conditionally.
// cur, when given, saves the first read. On a stale write the row is
// re-read and decide runs again.
func (l *Lifecycle) mutate(ctx context.Context, id uuid.UUID, cur *Subscription, decide decideFunc) (*Subscription, *Subscription, error) {
	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		if cur == nil || attempt > 0 {
			var err error
			if cur, err = l.store.Get(ctx, id); err != nil {
				return nil, nil, err
			}
		}

		now := l.now()
		next, err := decide(ctx, cur, now)
		if err != nil {
			return cur, nil, err
		}
		next.UpdatedAt = nextVersion(cur.UpdatedAt, now)

		err = l.store.Update(ctx, cur, next)
		if errors.Is(err, ErrStaleSubscription) {
			l.logger.DebugContext(ctx, "stale subscription write, retrying",
				logger.SubscriptionID(id), slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return cur, nil, fmt.Errorf("update subscription: %w", err)
		}
		return cur, next, nil
	}
	return nil, nil, ErrConcurrentUpdate
}

// nextVersion returns a microsecond-precision timestamp strictly after prev.
func nextVersion(prev, now time.Time) time.Time {
	v := now.Truncate(time.Microsecond)
	if !v.After(prev) {
		v = prev.Add(time.Microsecond).Truncate(time.Microsecond)
	}
	return v
}

// Apply runs event against the row with the given id.
func (l *Lifecycle) Apply(ctx context.Context, id uuid.UUID, event Event) (*Subscription, error) {
	return l.applyTo(ctx, id, nil, event)
}

// applyTo is Apply starting from an already loaded row. Edits run on the
// new row before it is written.
func (l *Lifecycle) applyTo(ctx context.Context, id uuid.UUID, cur *Subscription, event Event, edits ...func(*Subscription)) (*Subscription, error) {
	return l.applyGuarded(ctx, id, cur, event, nil, edits...)
}

// applyGuarded is applyTo with guard checked on every read of the row,
// re-reads after a stale write included.
func (l *Lifecycle) applyGuarded(ctx context.Context, id uuid.UUID, cur *Subscription, event Event, guard func(*Subscription) error, edits ...func(*Subscription)) (*Subscription, error) {
	prev, next, err := l.mutate(ctx, id, cur, func(ctx context.Context, cur *Subscription, now time.Time) (*Subscription, error) {
		if guard != nil {
			if err := guard(cur); err != nil {
				return nil, err
			}
		}
		next, err := l.transition(ctx, cur, event, now)
		if err != nil {
			return nil, err
		}
		for _, edit := range edits {
			edit(next)
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	l.after(ctx, prev, next, event)
	return next, nil
}

// Create inserts a new row for email and plan via a creation event.
func (l *Lifecycle) Create(ctx context.Context, email, planType string, event Event, reference string) (*Subscription, error) {
	now := l.now()
	draft := &Subscription{
		ID:                 uuid.New(),
		PaymentEmail:       NormalizeEmail(email),
		PlanType:           planType,
		Status:             StatusNone,
		RegistrationStatus: RegistrationPending,
		PaymentReference:   reference,
		CreatedAt:          now.Truncate(time.Microsecond),
	}

	next, err := l.transition(ctx, draft, event, now)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = next.CreatedAt

	if err := l.store.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	l.after(ctx, draft, next, event)
	return next, nil
}

// transition computes the row after event without writing it.
func (l *Lifecycle) transition(ctx context.Context, cur *Subscription, event Event, now time.Time) (*Subscription, error) {
	to, err := l.table.Next(ctx, cur.Status, event, transitionInput{sub: cur, now: now})
	if err != nil {
		return nil, classifyTransitionError(cur, event, err)
	}

	next := cur.Clone()
	next.Status = to.(Status)

	switch event {
	case EventPaymentSucceeded, EventAdminActivated, EventAdminGrantedActive:
		activate(next, l.catalog.DurationDays(next.PlanType), now)
	case EventPaymentRenewed:
		extend(next, l.catalog.DurationDays(next.PlanType), now)
	case EventAdminExtended:
		extend(next, ExtensionDays, now)
	}

	if next.Status != StatusNone {
		l.link(ctx, next)
	}
	return next, nil
}

// activate starts a fresh paid period at now.
func activate(sub *Subscription, days int, now time.Time) {
	started := now.Truncate(time.Microsecond)
	expires := started.AddDate(0, 0, days)
	sub.StartedAt = &started
	sub.ExpiresAt = &expires
	sub.ExpiryWarningFor = nil
}

// extend adds days to the current expiry, or starts afresh at now when the
// subscription has already run out.
func extend(sub *Subscription, days int, now time.Time) {
	if sub.ExpiresAt == nil || !sub.ExpiresAt.After(now) {
		activate(sub, days, now)
		return
	}
	expires := sub.ExpiresAt.AddDate(0, 0, days)
	sub.ExpiresAt = &expires
	sub.ExpiryWarningFor = nil
}

// link attaches the row to a registered user when the payer has signed up.
// Lookup failures leave the row unlinked for a later writer.
func (l *Lifecycle) link(ctx context.Context, sub *Subscription) {
	if sub.UserID != nil {
		sub.RegistrationStatus = RegistrationRegistered
		return
	}

	userID, found, err := l.identity.FindUserIDByEmail(ctx, sub.PaymentEmail)
	if err != nil {
		l.logger.WarnContext(ctx, "identity lookup failed, leaving subscription unlinked",
			logger.SubscriptionID(sub.ID), logger.Error(err))
		return
	}
	if !found {
		sub.RegistrationStatus = RegistrationPending
		return
	}
	sub.UserID = &userID
	sub.RegistrationStatus = RegistrationRegistered
}

// Link opportunistically links an unlinked row. It reports whether a link was written.
func (l *Lifecycle) Link(ctx context.Context, sub *Subscription) (bool, error) {
	_, next, err := l.mutate(ctx, sub.ID, sub, func(ctx context.Context, cur *Subscription, _ time.Time) (*Subscription, error) {
		if cur.UserID != nil {
			return nil, errNoChange
		}
		next := cur.Clone()
		l.link(ctx, next)
		if next.UserID == nil {
			return nil, errNoChange
		}
		return next, nil
	})
	if errors.Is(err, errNoChange) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	l.logger.InfoContext(ctx, "subscription linked to user",
		logger.SubscriptionID(next.ID), logger.UserID(*next.UserID))
	return true, nil
}

// LinkTo links the row to userID, overriding any email match.
func (l *Lifecycle) LinkTo(ctx context.Context, id, userID uuid.UUID) (*Subscription, error) {
	_, next, err := l.mutate(ctx, id, nil, func(_ context.Context, cur *Subscription, _ time.Time) (*Subscription, error) {
		next := cur.Clone()
		next.UserID = &userID
		next.RegistrationStatus = RegistrationRegistered
		return next, nil
	})
	return next, err
}

// after runs post-write side effects: metrics, logs and notices.
func (l *Lifecycle) after(ctx context.Context, prev, next *Subscription, event Event) {
	l.observer.Transitioned(prev.Status, next.Status, event)
	l.logger.LogAttrs(ctx, slog.LevelInfo, "subscription transitioned",
		logger.SubscriptionID(next.ID),
		logger.PlanType(next.PlanType),
		logger.Transition(string(prev.Status), string(next.Status), string(event)),
	)

	switch event {
	case EventPaymentSucceeded, EventPaymentRenewed, EventAdminActivated, EventAdminGrantedActive, EventAdminExtended:
		_ = l.notify(ctx, noticeFor(NoticeActivated, next, l.now()))
	case EventAdminExpired:
		_ = l.notify(ctx, noticeFor(NoticeExpired, next, l.now()))
	}
}

// notify delivers n best-effort. The error is returned for counting only.
func (l *Lifecycle) notify(ctx context.Context, n Notice) error {
	if err := l.notifier.Notify(ctx, n); err != nil {
		l.observer.NotificationFailed(n.Type)
		l.logger.WarnContext(ctx, "subscription notification failed",
			logger.SubscriptionID(n.SubscriptionID),
			slog.String("notice", string(n.Type)),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// classifyTransitionError maps a rejected transition to a domain error.
func classifyTransitionError(cur *Subscription, event Event, err error) error {
	switch {
	case cur.Status == StatusActive && (event == EventAdminActivated || event == EventPaymentSucceeded || event == EventAdminGrantedActive):
		return ErrAlreadyActive
	case cur.Status == StatusCancelled:
		return ErrSubscriptionCancelled
	case cur.Status == StatusExpired:
		return ErrSubscriptionExpired
	}
	return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
}
