package subscription_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

func TestSweeper_WarnsOncePerExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	sub := f.grant(t, "a@b.co", "2_weeks", true)

	// expires 2025-03-24 09:30; three days ahead of 03-21 is inside the warning day
	f.clock.Advance(days(11) - 90*time.Minute)

	report, err := f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.WarningsSent)
	assert.Zero(t, report.Expired)

	warnings := f.notifier.byType(subscription.NoticeExpiring)
	require.Len(t, warnings, 1)
	assert.Equal(t, sub.ID, warnings[0].SubscriptionID)
	assert.Equal(t, subscription.DefaultWarningDays, warnings[0].DaysRemaining)
	assert.Equal(t, *sub.ExpiresAt, warnings[0].ExpiresAt)

	f.clock.Advance(time.Hour)
	report, err = f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.WarningsSent)
	assert.Len(t, f.notifier.byType(subscription.NoticeExpiring), 1)
}

func TestSweeper_OverlappingRunsWarnOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	for _, email := range []string{"a@b.co", "c@d.co", "e@f.co"} {
		f.grant(t, email, "2_weeks", true)
	}
	f.clock.Advance(days(11))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sweeper.Run(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.notifier.byType(subscription.NoticeExpiring), 3)
}

func TestSweeper_WarningClaimSurvivesConcurrentWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	sub := f.grant(t, "a@b.co", "2_weeks", true)
	f.clock.Advance(days(11))

	before, err := f.store.Get(ctx, sub.ID)
	require.NoError(t, err)

	report, err := f.sweeper.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.WarningsSent)

	overwrite := before.Clone()
	overwrite.UpdatedAt = before.UpdatedAt.Add(time.Second)
	assert.ErrorIs(t, f.store.Update(ctx, before, overwrite), subscription.ErrStaleSubscription)

	userID := uuid.New()
	f.directory.Register(userID, "a@b.co")
	linked, err := f.lifecycle.Link(ctx, before)
	require.NoError(t, err)
	assert.True(t, linked)

	got, err := f.store.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ExpiryWarningFor)
	assert.Equal(t, *got.ExpiresAt, *got.ExpiryWarningFor)

	report, err = f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.WarningsSent)
	assert.Len(t, f.notifier.byType(subscription.NoticeExpiring), 1)
}

func TestSweeper_ExtensionRearmsWarning(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	sub := f.grant(t, "a@b.co", "2_weeks", true)

	f.clock.Advance(days(11))
	_, err := f.sweeper.Run(ctx)
	require.NoError(t, err)

	_, err = f.admin.Extend(ctx, admin, sub.ID)
	require.NoError(t, err)

	f.clock.Advance(days(subscription.ExtensionDays))
	report, err := f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.WarningsSent)
	assert.Len(t, f.notifier.byType(subscription.NoticeExpiring), 2)
}

func TestSweeper_ExpiresOverdue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	short := f.grant(t, "a@b.co", "2_weeks", true)
	long := f.grant(t, "c@d.co", "1_month", true)

	f.clock.Advance(days(14))
	report, err := f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Expired)

	got, err := f.store.Get(ctx, short.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, got.Status)
	assert.Equal(t, *short.ExpiresAt, *got.ExpiresAt)

	got, err = f.store.Get(ctx, long.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, got.Status)

	expired := f.notifier.byType(subscription.NoticeExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, short.ID, expired[0].SubscriptionID)
	assert.Zero(t, expired[0].DaysRemaining)

	report, err = f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Expired)
	assert.Len(t, f.notifier.byType(subscription.NoticeExpired), 1)
}

func TestSweeper_LinksLateRegistrations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	sub := f.grant(t, "late@b.co", "1_month", true)
	require.Nil(t, sub.UserID)

	report, err := f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Linked)

	userID := uuid.New()
	f.directory.Register(userID, "Late@B.co")

	report, err = f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Linked)

	got, err := f.store.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, got.UserID)
	assert.Equal(t, userID, *got.UserID)
	assert.Equal(t, subscription.RegistrationRegistered, got.RegistrationStatus)
	assert.Equal(t, subscription.StatusActive, got.Status)

	report, err = f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Linked)
}

func TestSweeper_LinksBeforeExpiring(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	res := f.deliver(t, chargePayload("ref_1", "late@x.com", 500000, "2_weeks"))
	require.Nil(t, res.Subscription.UserID)

	f.clock.Advance(days(15))
	userID := uuid.New()
	f.directory.Register(userID, "late@x.com")

	report, err := f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Expired)
	assert.Equal(t, 1, report.Linked)

	got, err := f.store.Get(ctx, res.Subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, got.Status)
	require.NotNil(t, got.UserID)
	assert.Equal(t, userID, *got.UserID)
	assert.Equal(t, subscription.RegistrationRegistered, got.RegistrationStatus)

	expired := f.notifier.byType(subscription.NoticeExpired)
	require.Len(t, expired, 1)
	require.NotNil(t, expired[0].UserID)
	assert.Equal(t, userID, *expired[0].UserID)
}

func TestSweeper_LinksAlreadyExpiredRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	sub := f.grant(t, "gone@x.com", "2_weeks", true)

	f.clock.Advance(days(15))
	report, err := f.sweeper.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Expired)
	assert.Zero(t, report.Linked)

	userID := uuid.New()
	f.directory.Register(userID, "gone@x.com")
	f.clock.Advance(days(1))

	report, err = f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Expired)
	assert.Equal(t, 1, report.Linked)

	got, err := f.store.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, got.Status)
	require.NotNil(t, got.UserID)
	assert.Equal(t, userID, *got.UserID)
}

func TestSweeper_LinksExpiredRowsBeyondBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.grant(t, "first@x.com", "1_year", true)
	f.clock.Advance(time.Minute)
	sub := f.grant(t, "second@x.com", "2_weeks", true)
	sweeper := subscription.NewSweeper(f.lifecycle, subscription.WithLinkBatchSize(1))

	f.clock.Advance(days(15))
	userID := uuid.New()
	f.directory.Register(userID, "second@x.com")

	report, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Expired)
	assert.Equal(t, 1, report.Linked)

	expired := f.notifier.byType(subscription.NoticeExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, sub.ID, expired[0].SubscriptionID)
	require.NotNil(t, expired[0].UserID)
	assert.Equal(t, userID, *expired[0].UserID)
}

func TestSweeper_CountsNotificationFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.grant(t, "a@b.co", "2_weeks", true)
	f.grant(t, "c@d.co", "2_weeks", true)

	f.notifier.err = errors.New("mailbox full")
	f.clock.Advance(days(15))

	report, err := f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Expired)
	assert.Equal(t, 2, report.NotificationFailures)
}

func TestSweeper_WarningDaysOption(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.grant(t, "a@b.co", "2_weeks", true)
	sweeper := subscription.NewSweeper(f.lifecycle, subscription.WithWarningDays(7))

	f.clock.Advance(days(7))
	report, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.WarningsSent)

	warnings := f.notifier.byType(subscription.NoticeExpiring)
	require.Len(t, warnings, 1)
	assert.Equal(t, 7, warnings[0].DaysRemaining)
}
