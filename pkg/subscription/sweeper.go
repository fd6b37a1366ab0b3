package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/predictvip/pkg/logger"
)

const (
	DefaultWarningDays   = 3
	defaultLinkBatchSize = 500
)

// SweepReport counts what a sweep did.
type SweepReport struct {
	WarningsSent         int
	Expired              int
	Linked               int
	NotificationFailures int
}

// Sweeper performs the time-driven part of the lifecycle. Runs are
// idempotent and may overlap.
type Sweeper struct {
	lc            *Lifecycle
	warningDays   int
	linkBatchSize int
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithWarningDays sets how many days before expiry the warning is sent.
func WithWarningDays(days int) SweeperOption {
	return func(s *Sweeper) {
		if days > 0 {
			s.warningDays = days
		}
	}
}

// WithLinkBatchSize caps the rows examined by the link pass of one run.
func WithLinkBatchSize(n int) SweeperOption {
	return func(s *Sweeper) {
		if n > 0 {
			s.linkBatchSize = n
		}
	}
}

func NewSweeper(lc *Lifecycle, opts ...SweeperOption) *Sweeper {
	if lc == nil {
		panic("subscription: Lifecycle is required")
	}
	s := &Sweeper{lc: lc, warningDays: DefaultWarningDays, linkBatchSize: defaultLinkBatchSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sends expiry warnings, links rows whose payer has registered since
// and expires overdue subscriptions. Linking comes first so expiry notices
// reach the registered user.
func (s *Sweeper) Run(ctx context.Context) (SweepReport, error) {
	start := time.Now()
	now := s.lc.now()
	var report SweepReport

	if err := s.warn(ctx, now, &report); err != nil {
		return report, err
	}
	if err := s.linkPending(ctx, &report); err != nil {
		return report, err
	}
	if err := s.expire(ctx, now, &report); err != nil {
		return report, err
	}

	took := time.Since(start)
	s.lc.observer.SweepCompleted(report, took)
	s.lc.logger.LogAttrs(ctx, slog.LevelInfo, "expiry sweep completed",
		logger.Count("warnings_sent", report.WarningsSent),
		logger.Count("expired", report.Expired),
		logger.Count("linked", report.Linked),
		logger.Count("notification_failures", report.NotificationFailures),
		logger.Duration(took),
	)
	return report, nil
}

// warn notifies active rows expiring on the calendar day warningDays from now.
// Each row is claimed before notifying, so overlapping sweeps warn once.
func (s *Sweeper) warn(ctx context.Context, now time.Time, report *SweepReport) error {
	from := startOfDay(now.AddDate(0, 0, s.warningDays))
	to := from.AddDate(0, 0, 1)

	rows, err := s.lc.store.ListExpiring(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list expiring subscriptions: %w", err)
	}

	for _, sub := range rows {
		if sub.ExpiresAt == nil {
			continue
		}
		claimed, err := s.lc.store.MarkExpiryWarned(ctx, sub.ID, *sub.ExpiresAt)
		if err != nil {
			return fmt.Errorf("mark expiry warning: %w", err)
		}
		if !claimed {
			continue
		}

		n := noticeFor(NoticeExpiring, sub, now)
		n.DaysRemaining = s.warningDays
		if err := s.lc.notify(ctx, n); err != nil {
			report.NotificationFailures++
			continue
		}
		report.WarningsSent++
	}
	return nil
}

func (s *Sweeper) expire(ctx context.Context, now time.Time, report *SweepReport) error {
	expired, err := s.lc.store.ExpireDue(ctx, now)
	if err != nil {
		return fmt.Errorf("expire due subscriptions: %w", err)
	}

	for _, sub := range expired {
		report.Expired++
		if sub.UserID == nil {
			sub = s.linkExpired(ctx, sub, report)
		}
		s.lc.observer.Transitioned(StatusActive, StatusExpired, EventSweepExpired)
		s.lc.logger.LogAttrs(ctx, slog.LevelInfo, "subscription expired",
			logger.SubscriptionID(sub.ID),
			logger.PlanType(sub.PlanType),
			logger.Transition(string(StatusActive), string(StatusExpired), string(EventSweepExpired)),
		)
		if err := s.lc.notify(ctx, noticeFor(NoticeExpired, sub, now)); err != nil {
			report.NotificationFailures++
		}
	}
	return nil
}

func (s *Sweeper) linkPending(ctx context.Context, report *SweepReport) error {
	rows, err := s.lc.store.ListUnlinked(ctx, s.linkBatchSize)
	if err != nil {
		return fmt.Errorf("list unlinked subscriptions: %w", err)
	}

	for _, sub := range rows {
		linked, err := s.lc.Link(ctx, sub)
		if err != nil {
			// a row that keeps changing under us is picked up next run
			s.lc.logger.WarnContext(ctx, "failed to link subscription",
				logger.SubscriptionID(sub.ID), logger.Error(err))
			continue
		}
		if linked {
			report.Linked++
		}
	}
	return nil
}

// linkExpired links a row the link pass did not reach, so its expiry
// notice carries the user.
func (s *Sweeper) linkExpired(ctx context.Context, sub *Subscription, report *SweepReport) *Subscription {
	linked, err := s.lc.Link(ctx, sub)
	if err != nil {
		s.lc.logger.WarnContext(ctx, "failed to link subscription",
			logger.SubscriptionID(sub.ID), logger.Error(err))
		return sub
	}
	if !linked {
		return sub
	}
	report.Linked++
	fresh, err := s.lc.store.Get(ctx, sub.ID)
	if err != nil {
		return sub
	}
	return fresh
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
