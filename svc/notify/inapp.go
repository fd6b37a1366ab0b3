package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/predictvip/pkg/notifications"
	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

// InAppNotifier stores a feed notification for linked users. Notices for
// payers without an account are skipped.
type InAppNotifier struct {
	manager *notifications.Manager
	catalog *subscription.Catalog
	format  formatter
}

func NewInAppNotifier(manager *notifications.Manager, catalog *subscription.Catalog) *InAppNotifier {
	return &InAppNotifier{manager: manager, catalog: catalog, format: newFormatter(defaultLanguage)}
}

func (n *InAppNotifier) Notify(ctx context.Context, notice subscription.Notice) error {
	if notice.UserID == nil {
		return nil
	}

	plan := n.format.planName(n.catalog, notice.PlanType)
	note := notifications.Notification{
		UserID: *notice.UserID,
		Data: map[string]string{
			"subscription_id": notice.SubscriptionID.String(),
			"plan_type":       notice.PlanType,
			"notice":          string(notice.Type),
		},
	}
	if !notice.ExpiresAt.IsZero() {
		note.Data["expires_at"] = notice.ExpiresAt.UTC().Format(time.RFC3339)
	}

	switch notice.Type {
	case subscription.NoticeActivated:
		note.Type = notifications.TypeSuccess
		note.Title = "VIP activated"
		note.Message = fmt.Sprintf("%s is active until %s.", plan, n.format.date(notice.ExpiresAt))
	case subscription.NoticeExpiring:
		note.Type = notifications.TypeWarning
		note.Title = "VIP expiring soon"
		note.Message = fmt.Sprintf("%s expires in %s.", plan, n.format.days(notice.DaysRemaining))
	case subscription.NoticeExpired:
		note.Type = notifications.TypeInfo
		note.Title = "VIP expired"
		note.Message = fmt.Sprintf("%s expired on %s.", plan, n.format.date(notice.ExpiresAt))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNotice, notice.Type)
	}

	_, err := n.manager.Send(ctx, note)
	return err
}
