package subscription_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

// staleStore reports the first stale writes as lost races.
type staleStore struct {
	*subscription.MemoryStore
	stale atomic.Int32
	calls atomic.Int32
}

func (s *staleStore) Update(ctx context.Context, prev, next *subscription.Subscription) error {
	s.calls.Add(1)
	if s.stale.Add(-1) >= 0 {
		return subscription.ErrStaleSubscription
	}
	return s.MemoryStore.Update(ctx, prev, next)
}

func TestLifecycle_RetriesStaleWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := &staleStore{MemoryStore: subscription.NewMemoryStore()}
	f := newFixtureWithStore(t, store)
	sub := f.grant(t, "a@b.co", "1_month", false)

	store.stale.Store(2)
	got, err := f.admin.Activate(ctx, admin, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, got.Status)
	assert.Equal(t, int32(3), store.calls.Load())
	assert.True(t, got.UpdatedAt.After(sub.UpdatedAt))
}

func TestLifecycle_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := &staleStore{MemoryStore: subscription.NewMemoryStore()}
	f := newFixtureWithStore(t, store)
	sub := f.grant(t, "a@b.co", "1_month", false)

	store.stale.Store(100)
	_, err := f.admin.Activate(ctx, admin, sub.ID)
	assert.ErrorIs(t, err, subscription.ErrConcurrentUpdate)
	assert.True(t, subscription.IsConflict(err))
	assert.Equal(t, int32(3), store.calls.Load())

	got, err := store.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPending, got.Status)
	assert.Empty(t, f.notifier.byType(subscription.NoticeActivated))
}

func TestLifecycle_ConcurrentExtensionsAreNotLost(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, subscription.WithMaxWriteAttempts(50))
	sub := f.grant(t, "a@b.co", "1_month", true)

	const workers = 10
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.admin.Extend(ctx, admin, sub.ID); err == nil {
				succeeded.Add(1)
			} else {
				assert.ErrorIs(t, err, subscription.ErrConcurrentUpdate)
			}
		}()
	}
	wg.Wait()

	got, err := f.store.Get(ctx, sub.ID)
	require.NoError(t, err)
	want := sub.ExpiresAt.AddDate(0, 0, int(succeeded.Load())*subscription.ExtensionDays)
	assert.Equal(t, want, *got.ExpiresAt)
	assert.Positive(t, succeeded.Load())
}

func TestLifecycle_AllowedEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	pending := f.grant(t, "a@b.co", "2_weeks", false)
	assert.Equal(t, []string{"admin_activated", "admin_cancelled", "gateway_cancelled", "payment_succeeded"},
		f.lifecycle.AllowedEvents(ctx, pending))

	active, err := f.admin.Activate(ctx, admin, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin_cancelled", "admin_expired", "admin_extended", "gateway_cancelled", "payment_renewed"},
		f.lifecycle.AllowedEvents(ctx, active))

	f.clock.Advance(days(14))
	assert.Contains(t, f.lifecycle.AllowedEvents(ctx, active), "sweep_expired")

	cancelled, err := f.admin.Cancel(ctx, admin, active.ID)
	require.NoError(t, err)
	assert.Empty(t, f.lifecycle.AllowedEvents(ctx, cancelled))
}

func TestLifecycle_CreateRejectsUnknownEvent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.lifecycle.Create(context.Background(), "a@b.co", "1_month", subscription.EventAdminExtended, "")
	assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
}
