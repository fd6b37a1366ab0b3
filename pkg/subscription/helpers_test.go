package subscription_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrymomot/predictvip/pkg/logger"
	"github.com/dmitrymomot/predictvip/pkg/subscription"
	"github.com/dmitrymomot/predictvip/pkg/webhook"
)

const testSecret = "sk_test_secret"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []subscription.Notice
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, notice subscription.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

func (n *recordingNotifier) byType(t subscription.NoticeType) []subscription.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []subscription.Notice
	for _, notice := range n.notices {
		if notice.Type == t {
			out = append(out, notice)
		}
	}
	return out
}

type fixture struct {
	clock     *testClock
	store     *subscription.MemoryStore
	ledger    *subscription.MemoryLedger
	directory *subscription.MemoryDirectory
	notifier  *recordingNotifier
	lifecycle *subscription.Lifecycle
	ingestor  *subscription.Ingestor
	admin     *subscription.AdminService
	sweeper   *subscription.Sweeper
}

func newFixture(t *testing.T, opts ...subscription.Option) *fixture {
	t.Helper()
	return newFixtureWithStore(t, subscription.NewMemoryStore(), opts...)
}

func newFixtureWithStore(t *testing.T, store subscription.Store, opts ...subscription.Option) *fixture {
	t.Helper()

	f := &fixture{
		clock:     newTestClock(),
		ledger:    subscription.NewMemoryLedger(),
		directory: subscription.NewMemoryDirectory(),
		notifier:  &recordingNotifier{},
	}
	if ms, ok := store.(*subscription.MemoryStore); ok {
		f.store = ms
	}

	base := []subscription.Option{
		subscription.WithClock(f.clock.Now),
		subscription.WithNotifier(f.notifier),
		subscription.WithLogger(logger.Discard()),
	}
	f.lifecycle = subscription.NewLifecycle(store, subscription.DefaultCatalog(),
		subscription.NewIdentityResolver(f.directory), append(base, opts...)...)
	f.ingestor = subscription.NewIngestor(f.lifecycle, testSecret, subscription.WithEventLedger(f.ledger))
	f.admin = subscription.NewAdminService(f.lifecycle)
	f.sweeper = subscription.NewSweeper(f.lifecycle)
	return f
}

func sign(t *testing.T, payload string) string {
	t.Helper()
	sig, err := webhook.Sign(testSecret, []byte(payload))
	if err != nil {
		t.Fatalf("sign payload: %v", err)
	}
	return sig
}

var admin = subscription.Caller{Email: "ops@predictvip.test", Admin: true}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
