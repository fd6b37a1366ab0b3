package subscription_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/predictvip/pkg/subscription"
	"github.com/dmitrymomot/predictvip/pkg/validator"
)

func (f *fixture) grant(t *testing.T, email, plan string, activate bool) *subscription.Subscription {
	t.Helper()
	sub, err := f.admin.Grant(context.Background(), admin, subscription.GrantParams{Email: email, PlanType: plan, Activate: activate})
	require.NoError(t, err)
	return sub
}

func TestAdminService_Activate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	pending := f.grant(t, "a@b.co", "2_weeks", false)
	assert.Equal(t, subscription.StatusPending, pending.Status)
	assert.Equal(t, subscription.RegistrationPending, pending.RegistrationStatus)

	sub, err := f.admin.Activate(ctx, admin, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.Equal(t, f.clock.Now(), *sub.StartedAt)
	assert.Equal(t, f.clock.Now().AddDate(0, 0, 14), *sub.ExpiresAt)
	assert.Len(t, f.notifier.byType(subscription.NoticeActivated), 1)

	_, err = f.admin.Activate(ctx, admin, pending.ID)
	assert.ErrorIs(t, err, subscription.ErrAlreadyActive)
	assert.True(t, subscription.IsConflict(err))

	_, err = f.admin.Activate(ctx, admin, uuid.New())
	assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
}

func TestAdminService_ActivateRejectsFinishedRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		sub := f.grant(t, "a@b.co", "1_month", true)

		cancelled, err := f.admin.Cancel(ctx, admin, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, cancelled.Status)

		_, err = f.admin.Activate(ctx, admin, sub.ID)
		assert.ErrorIs(t, err, subscription.ErrSubscriptionCancelled)
		_, err = f.admin.Cancel(ctx, admin, sub.ID)
		assert.ErrorIs(t, err, subscription.ErrSubscriptionCancelled)
	})

	t.Run("expired after its end date", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		sub := f.grant(t, "a@b.co", "2_weeks", true)

		f.clock.Advance(days(15))
		report, err := f.sweeper.Run(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, report.Expired)

		_, err = f.admin.Activate(ctx, admin, sub.ID)
		assert.ErrorIs(t, err, subscription.ErrSubscriptionExpired)
	})
}

func TestAdminService_ReactivatesEarlyExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	sub := f.grant(t, "a@b.co", "1_month", true)

	f.clock.Advance(days(2))
	expired, err := f.admin.Expire(ctx, admin, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, expired.Status)
	assert.Len(t, f.notifier.byType(subscription.NoticeExpired), 1)

	f.clock.Advance(days(1))
	again, err := f.admin.Activate(ctx, admin, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, again.Status)
	assert.Equal(t, f.clock.Now(), *again.StartedAt)
	assert.Equal(t, f.clock.Now().AddDate(0, 0, 30), *again.ExpiresAt)
}

func TestAdminService_Extend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("adds a month to a live subscription", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		sub := f.grant(t, "a@b.co", "2_weeks", true)

		f.clock.Advance(days(5))
		extended, err := f.admin.Extend(ctx, admin, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, sub.ExpiresAt.AddDate(0, 0, subscription.ExtensionDays), *extended.ExpiresAt)
		assert.Equal(t, *sub.StartedAt, *extended.StartedAt)
	})

	t.Run("restarts a lapsed subscription at now", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		sub := f.grant(t, "a@b.co", "2_weeks", true)

		f.clock.Advance(days(20))
		extended, err := f.admin.Extend(ctx, admin, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, f.clock.Now().AddDate(0, 0, subscription.ExtensionDays), *extended.ExpiresAt)
	})

	t.Run("pending cannot be extended", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		sub := f.grant(t, "a@b.co", "2_weeks", false)

		_, err := f.admin.Extend(ctx, admin, sub.ID)
		assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
		_, err = f.admin.Expire(ctx, admin, sub.ID)
		assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
	})
}

func TestAdminService_Grant(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	active := f.grant(t, " VIP@Fans.io ", "1_year", true)
	assert.Equal(t, "vip@fans.io", active.PaymentEmail)
	assert.Equal(t, f.clock.Now().AddDate(0, 0, 365), *active.ExpiresAt)

	_, err := f.admin.Grant(ctx, admin, subscription.GrantParams{Email: "vip@fans.io", PlanType: "1_year", Activate: true})
	assert.ErrorIs(t, err, subscription.ErrAlreadyActive)

	f.grant(t, "vip@fans.io", "1_month", false)
	_, err = f.admin.Grant(ctx, admin, subscription.GrantParams{Email: "vip@fans.io", PlanType: "1_month"})
	assert.ErrorIs(t, err, subscription.ErrSubscriptionExists)
	assert.True(t, subscription.IsConflict(err))
}

func TestAdminService_GrantOverOverdueRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	stale := f.grant(t, "vip@fans.io", "2_weeks", true)
	f.clock.Advance(days(15))

	fresh, err := f.admin.Grant(ctx, admin, subscription.GrantParams{Email: "vip@fans.io", PlanType: "2_weeks", Activate: true})
	require.NoError(t, err)
	assert.NotEqual(t, stale.ID, fresh.ID)
	assert.Equal(t, f.clock.Now().AddDate(0, 0, 14), *fresh.ExpiresAt)

	old, err := f.store.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, old.Status)

	active, err := f.store.ListByEmail(ctx, "vip@fans.io", subscription.StatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fresh.ID, active[0].ID)

	report, err := f.sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Expired)
}

func TestAdminService_GrantValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.admin.Grant(context.Background(), admin, subscription.GrantParams{Email: "not-an-email", PlanType: "gold"})
	require.True(t, validator.IsValidationError(err))
	verrs := validator.ExtractValidationErrors(err)
	assert.True(t, verrs.Has("email"))
	assert.True(t, verrs.Has("plan_type"))
}

func TestAdminService_BulkActivate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	first := f.grant(t, "one@b.co", "1_month", false)
	second := f.grant(t, "two@b.co", "1_month", false)
	live := f.grant(t, "three@b.co", "1_month", true)
	missing := uuid.New()

	res, err := f.admin.BulkActivate(ctx, admin, []uuid.UUID{first.ID, second.ID, first.ID, live.ID, missing})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Items, 4)

	assert.NoError(t, res.Items[0].Err)
	assert.NoError(t, res.Items[1].Err)
	assert.ErrorIs(t, res.Items[2].Err, subscription.ErrAlreadyActive)
	assert.ErrorIs(t, res.Items[3].Err, subscription.ErrSubscriptionNotFound)

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		sub, err := f.store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, sub.Status)
	}

	_, err = f.admin.BulkActivate(ctx, admin, nil)
	assert.True(t, validator.IsValidationError(err))

	_, err = f.admin.BulkActivate(ctx, admin, make([]uuid.UUID, subscription.MaxBulkActivate+1))
	assert.True(t, validator.IsValidationError(err))
}

func TestAdminService_Link(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	sub := f.grant(t, "payer@b.co", "1_month", true)

	_, err := f.admin.Link(ctx, admin, sub.ID, uuid.New())
	assert.ErrorIs(t, err, subscription.ErrUserNotFound)

	_, err = f.admin.Link(ctx, admin, sub.ID, uuid.Nil)
	assert.True(t, validator.IsValidationError(err))

	userID := uuid.New()
	f.directory.Register(userID, "someone-else@b.co")
	linked, err := f.admin.Link(ctx, admin, sub.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, linked.UserID)
	assert.Equal(t, userID, *linked.UserID)
	assert.Equal(t, subscription.RegistrationRegistered, linked.RegistrationStatus)
	assert.Equal(t, subscription.StatusActive, linked.Status)
}

func TestAdminService_RequiresAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	sub := f.grant(t, "a@b.co", "1_month", false)
	member := subscription.Caller{UserID: uuid.New(), Email: "fan@b.co"}

	calls := map[string]func() error{
		"get":      func() error { _, err := f.admin.Get(ctx, member, sub.ID); return err },
		"activate": func() error { _, err := f.admin.Activate(ctx, member, sub.ID); return err },
		"extend":   func() error { _, err := f.admin.Extend(ctx, member, sub.ID); return err },
		"expire":   func() error { _, err := f.admin.Expire(ctx, member, sub.ID); return err },
		"cancel":   func() error { _, err := f.admin.Cancel(ctx, member, sub.ID); return err },
		"bulk":     func() error { _, err := f.admin.BulkActivate(ctx, member, []uuid.UUID{sub.ID}); return err },
		"grant": func() error {
			_, err := f.admin.Grant(ctx, member, subscription.GrantParams{Email: "x@b.co", PlanType: "1_month"})
			return err
		},
		"link": func() error { _, err := f.admin.Link(ctx, member, sub.ID, member.UserID); return err },
	}
	for name, call := range calls {
		assert.ErrorIs(t, call(), subscription.ErrForbidden, name)
	}

	got, err := f.store.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPending, got.Status)
}
