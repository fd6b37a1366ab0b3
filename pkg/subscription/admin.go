package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/predictvip/pkg/logger"
	"github.com/dmitrymomot/predictvip/pkg/validator"
)

// MaxBulkActivate caps the ids accepted by one BulkActivate call.
const MaxBulkActivate = 500

// Caller is the authenticated operator behind an admin action, resolved once
// at the request boundary.
type Caller struct {
	UserID uuid.UUID
	Email  string
	Admin  bool
}

// GrantParams describes a manually created subscription.
type GrantParams struct {
	Email    string
	PlanType string
	// Activate starts the paid period immediately; otherwise the row stays pending.
	Activate bool
}

// BulkItem is the per-id result of BulkActivate.
type BulkItem struct {
	ID           uuid.UUID
	Subscription *Subscription
	Err          error
}

// BulkResult summarises BulkActivate.
type BulkResult struct {
	Succeeded int
	Failed    int
	Items     []BulkItem
}

// AdminService applies manual operator overrides through the lifecycle.
type AdminService struct {
	lc *Lifecycle
}

func NewAdminService(lc *Lifecycle) *AdminService {
	if lc == nil {
		panic("subscription: Lifecycle is required")
	}
	return &AdminService{lc: lc}
}

func (a *AdminService) authorize(ctx context.Context, caller Caller, action string) error {
	if caller.Admin {
		return nil
	}
	a.lc.logger.WarnContext(ctx, "admin action denied",
		logger.Admin(caller.UserID, caller.Email), slog.String("action", action))
	return ErrForbidden
}

func (a *AdminService) audit(ctx context.Context, caller Caller, action string, sub *Subscription) {
	a.lc.logger.LogAttrs(ctx, slog.LevelInfo, "admin action applied",
		logger.Admin(caller.UserID, caller.Email),
		slog.String("action", action),
		logger.SubscriptionID(sub.ID),
		logger.Status(string(sub.Status)),
	)
}

// Get returns a subscription.
func (a *AdminService) Get(ctx context.Context, caller Caller, id uuid.UUID) (*Subscription, error) {
	if err := a.authorize(ctx, caller, "get"); err != nil {
		return nil, err
	}
	return a.lc.store.Get(ctx, id)
}

// Activate starts the paid period of a pending subscription, or of one that
// was force-expired before its end date. Activating an active subscription
// returns ErrAlreadyActive.
func (a *AdminService) Activate(ctx context.Context, caller Caller, id uuid.UUID) (*Subscription, error) {
	return a.apply(ctx, caller, "activate", id, EventAdminActivated)
}

// Extend adds ExtensionDays to an active subscription, anchored at now when
// it has already run out.
func (a *AdminService) Extend(ctx context.Context, caller Caller, id uuid.UUID) (*Subscription, error) {
	return a.apply(ctx, caller, "extend", id, EventAdminExtended)
}

// Expire ends an active subscription immediately.
func (a *AdminService) Expire(ctx context.Context, caller Caller, id uuid.UUID) (*Subscription, error) {
	return a.apply(ctx, caller, "expire", id, EventAdminExpired)
}

// Cancel moves any non-cancelled subscription to cancelled.
func (a *AdminService) Cancel(ctx context.Context, caller Caller, id uuid.UUID) (*Subscription, error) {
	return a.apply(ctx, caller, "cancel", id, EventAdminCancelled)
}

func (a *AdminService) apply(ctx context.Context, caller Caller, action string, id uuid.UUID, event Event) (*Subscription, error) {
	if err := a.authorize(ctx, caller, action); err != nil {
		return nil, err
	}
	sub, err := a.lc.Apply(ctx, id, event)
	if err != nil {
		return nil, err
	}
	a.audit(ctx, caller, action, sub)
	return sub, nil
}

// BulkActivate activates each id independently. Per-id failures are reported
// in the result; only authorization and validation fail the whole call.
func (a *AdminService) BulkActivate(ctx context.Context, caller Caller, ids []uuid.UUID) (*BulkResult, error) {
	if err := a.authorize(ctx, caller, "bulk_activate"); err != nil {
		return nil, err
	}
	if err := validator.Apply(
		validator.RequiredSlice("subscription_ids", ids),
		validator.MaxLenSlice("subscription_ids", ids, MaxBulkActivate),
	); err != nil {
		return nil, err
	}

	res := &BulkResult{Items: make([]BulkItem, 0, len(ids))}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sub, err := a.lc.Apply(ctx, id, EventAdminActivated)
		res.Items = append(res.Items, BulkItem{ID: id, Subscription: sub, Err: err})
		if err != nil {
			res.Failed++
			continue
		}
		res.Succeeded++
		a.audit(ctx, caller, "bulk_activate", sub)
	}
	return res, nil
}

// Grant creates a subscription manually. An active grant for an email that
// already has a live subscription to the plan returns ErrAlreadyActive; a
// pending grant when one is already open returns ErrSubscriptionExists.
// An overdue active row for the plan is expired before the new row is made.
func (a *AdminService) Grant(ctx context.Context, caller Caller, p GrantParams) (*Subscription, error) {
	if err := a.authorize(ctx, caller, "grant"); err != nil {
		return nil, err
	}

	p.Email = NormalizeEmail(p.Email)
	if err := validator.Apply(
		validator.RequiredString("email", p.Email),
		validator.ValidEmail("email", p.Email),
		validator.MaxLenString("email", p.Email, 254),
		validator.InListString("plan_type", p.PlanType, a.lc.catalog.IDs()),
	); err != nil {
		return nil, err
	}

	open, err := a.lc.store.ListByEmail(ctx, p.Email, StatusPending, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	now := a.lc.now()
	for _, s := range open {
		if s.PlanType != p.PlanType {
			continue
		}
		if s.IsLive(now) {
			return nil, ErrAlreadyActive
		}
		if s.Status == StatusActive {
			if err := a.expireOverdue(ctx, caller, s); err != nil {
				return nil, err
			}
			continue
		}
		if s.Status == StatusPending {
			return nil, ErrSubscriptionExists
		}
	}

	event := EventAdminGranted
	if p.Activate {
		event = EventAdminGrantedActive
	}
	sub, err := a.lc.Create(ctx, p.Email, p.PlanType, event, "")
	if err != nil {
		return nil, err
	}
	a.audit(ctx, caller, "grant", sub)
	return sub, nil
}

// expireOverdue moves an active row past its expiry to expired ahead of the
// sweep. A sweep that got there first is not an error.
func (a *AdminService) expireOverdue(ctx context.Context, caller Caller, s *Subscription) error {
	sub, err := a.lc.applyTo(ctx, s.ID, s, EventSweepExpired)
	if errors.Is(err, ErrSubscriptionExpired) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("expire overdue subscription: %w", err)
	}
	a.audit(ctx, caller, "expire_overdue", sub)
	return nil
}

// Link attaches a subscription to a specific user regardless of email.
func (a *AdminService) Link(ctx context.Context, caller Caller, id, userID uuid.UUID) (*Subscription, error) {
	if err := a.authorize(ctx, caller, "link"); err != nil {
		return nil, err
	}
	if err := validator.Apply(validator.RequiredUUID("user_id", userID)); err != nil {
		return nil, err
	}

	exists, err := a.lc.identity.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	sub, err := a.lc.LinkTo(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	a.audit(ctx, caller, "link", sub)
	return sub, nil
}

// IsConflict reports errors that mean the request raced with, or repeats, an earlier one.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyActive) || errors.Is(err, ErrSubscriptionExists) || errors.Is(err, ErrConcurrentUpdate)
}
