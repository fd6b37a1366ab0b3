package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/predictvip/pkg/email"
	"github.com/dmitrymomot/predictvip/pkg/logger"
	"github.com/dmitrymomot/predictvip/pkg/notifications"
	"github.com/dmitrymomot/predictvip/pkg/subscription"
	"github.com/dmitrymomot/predictvip/pkg/webhook"
	"github.com/dmitrymomot/predictvip/svc/notify"
)

type captureSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg email.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

var expiresAt = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func notice(t subscription.NoticeType, userID *uuid.UUID) subscription.Notice {
	return subscription.Notice{
		Type:           t,
		SubscriptionID: uuid.New(),
		RecipientEmail: "u@x.com",
		UserID:         userID,
		PlanType:       "1_month",
		ExpiresAt:      expiresAt,
		DaysRemaining:  3,
	}
}

func TestEmailNotifier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := subscription.DefaultCatalog()

	t.Run("activation for an unregistered payer", func(t *testing.T) {
		t.Parallel()
		sender := &captureSender{}
		n := notify.NewEmailNotifier(sender, catalog, notify.WithAppURL("https://predictvip.test/vip"), notify.WithEmailLogger(logger.Discard()))

		require.NoError(t, n.Notify(ctx, notice(subscription.NoticeActivated, nil)))
		require.Len(t, sender.sent, 1)
		msg := sender.sent[0]
		assert.Equal(t, "u@x.com", msg.To)
		assert.Equal(t, "Welcome to VIP: 1 Month VIP", msg.Subject)
		assert.Equal(t, string(subscription.NoticeActivated), msg.Tag)
		assert.Contains(t, msg.HTML, "1 July 2025")
		assert.Contains(t, msg.HTML, "NGN 8,500.00")
		assert.Contains(t, msg.HTML, "Create your account")
		assert.Contains(t, msg.HTML, `href="https://predictvip.test/vip"`)
	})

	t.Run("expiry warning", func(t *testing.T) {
		t.Parallel()
		sender := &captureSender{}
		n := notify.NewEmailNotifier(sender, catalog)

		uid := uuid.New()
		require.NoError(t, n.Notify(ctx, notice(subscription.NoticeExpiring, &uid)))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "Your VIP subscription expires in 3 days", sender.sent[0].Subject)
		assert.Contains(t, sender.sent[0].HTML, "<strong>Renew VIP</strong>")
		assert.NotContains(t, sender.sent[0].HTML, "href=")
	})

	t.Run("unknown plan uses a readable name", func(t *testing.T) {
		t.Parallel()
		sender := &captureSender{}
		n := notify.NewEmailNotifier(sender, catalog)

		nt := notice(subscription.NoticeExpired, nil)
		nt.PlanType = "legacy_gold"
		require.NoError(t, n.Notify(ctx, nt))
		assert.Contains(t, sender.sent[0].HTML, "Legacy Gold")
	})

	t.Run("escapes user controlled text", func(t *testing.T) {
		t.Parallel()
		sender := &captureSender{}
		n := notify.NewEmailNotifier(sender, nil)

		nt := notice(subscription.NoticeExpired, nil)
		nt.PlanType = "<script>"
		require.NoError(t, n.Notify(ctx, nt))
		assert.NotContains(t, sender.sent[0].HTML, "<script>")
	})

	t.Run("unknown notice", func(t *testing.T) {
		t.Parallel()
		n := notify.NewEmailNotifier(&captureSender{}, catalog)
		err := n.Notify(ctx, notice("subscription_paused", nil))
		assert.ErrorIs(t, err, notify.ErrUnknownNotice)
	})

	t.Run("sender failure is returned", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("postmark down")
		n := notify.NewEmailNotifier(&captureSender{err: boom}, catalog)
		assert.ErrorIs(t, n.Notify(ctx, notice(subscription.NoticeActivated, nil)), boom)
	})
}

func TestInAppNotifier(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := notifications.NewMemoryStorage()
	n := notify.NewInAppNotifier(notifications.NewManager(storage), subscription.DefaultCatalog())

	require.NoError(t, n.Notify(ctx, notice(subscription.NoticeActivated, nil)))

	uid := uuid.New()
	require.NoError(t, n.Notify(ctx, notice(subscription.NoticeActivated, &uid)))
	require.NoError(t, n.Notify(ctx, notice(subscription.NoticeExpiring, &uid)))

	list, err := storage.List(ctx, uid, notifications.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, notifications.TypeWarning, list[0].Type)
	assert.Equal(t, "1 Month VIP expires in 3 days.", list[0].Message)
	assert.Equal(t, notifications.TypeSuccess, list[1].Type)
	assert.Equal(t, "1_month", list[1].Data["plan_type"])
}

func TestWebhookRelay(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		body map[string]any
		sig  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		sig = r.Header.Get(webhook.SignatureHeader)
		_ = json.Unmarshal(raw, &body)
		assert.NoError(t, webhook.Verify("relay-secret", raw, sig))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	relay := notify.NewWebhookRelay(webhook.NewSender(srv.Client()), srv.URL, "relay-secret")
	require.NoError(t, relay.Notify(context.Background(), notice(subscription.NoticeExpired, nil)))

	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, sig)
	assert.Equal(t, "subscription_expired", body["event"])
	assert.Equal(t, "u@x.com", body["email"])
	assert.Equal(t, "2025-07-01T12:00:00Z", body["expires_at"])
	assert.NotContains(t, body, "user_id")
}

func TestMulti(t *testing.T) {
	t.Parallel()

	var calls int
	ok := subscription.NotifierFunc(func(context.Context, subscription.Notice) error {
		calls++
		return nil
	})
	boom := errors.New("boom")
	failing := subscription.NotifierFunc(func(context.Context, subscription.Notice) error { return boom })

	m := notify.Multi{failing, nil, ok}
	err := m.Notify(context.Background(), notice(subscription.NoticeActivated, nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	assert.NoError(t, notify.Multi{ok}.Notify(context.Background(), notice(subscription.NoticeActivated, nil)))
}
