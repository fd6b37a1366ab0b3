package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/predictvip/pkg/email"
	"github.com/dmitrymomot/predictvip/pkg/email/templates"
	"github.com/dmitrymomot/predictvip/pkg/logger"
	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

var ErrUnknownNotice = errors.New("unknown notice type")

// EmailNotifier sends notices to the payment email.
type EmailNotifier struct {
	sender  email.Sender
	catalog *subscription.Catalog
	format  formatter
	appURL  string
	logger  *slog.Logger
}

// EmailOption configures an EmailNotifier.
type EmailOption func(*EmailNotifier)

// WithAppURL sets the link rendered in every email.
func WithAppURL(url string) EmailOption {
	return func(n *EmailNotifier) { n.appURL = url }
}

// WithLanguage sets the locale used for numbers.
func WithLanguage(tag language.Tag) EmailOption {
	return func(n *EmailNotifier) { n.format = newFormatter(tag) }
}

func WithEmailLogger(l *slog.Logger) EmailOption {
	return func(n *EmailNotifier) {
		if l != nil {
			n.logger = l
		}
	}
}

func NewEmailNotifier(sender email.Sender, catalog *subscription.Catalog, opts ...EmailOption) *EmailNotifier {
	n := &EmailNotifier{
		sender:  sender,
		catalog: catalog,
		format:  newFormatter(defaultLanguage),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With(logger.Component("email_notifier"))
	return n
}

func (n *EmailNotifier) Notify(ctx context.Context, notice subscription.Notice) error {
	subject, view, err := n.compose(notice)
	if err != nil {
		return err
	}

	html, err := templates.Render(ctx, emailLayout(view))
	if err != nil {
		return fmt.Errorf("render %s email: %w", notice.Type, err)
	}

	msg := email.Message{
		To:      notice.RecipientEmail,
		Subject: subject,
		HTML:    html,
		Tag:     string(notice.Type),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return err
	}
	n.logger.DebugContext(ctx, "notice email sent",
		logger.SubscriptionID(notice.SubscriptionID),
		slog.String("notice", string(notice.Type)))
	return nil
}

func (n *EmailNotifier) compose(notice subscription.Notice) (string, emailView, error) {
	plan := n.format.planName(n.catalog, notice.PlanType)
	view := emailView{
		URL:    n.appURL,
		Footer: "You are receiving this email because you purchased a VIP subscription with this address.",
	}

	switch notice.Type {
	case subscription.NoticeActivated:
		view.Heading = "Your VIP access is active"
		view.Lines = []string{
			fmt.Sprintf("Thank you for subscribing to %s.", plan),
			"Your VIP access runs until " + n.format.date(notice.ExpiresAt) + ".",
		}
		if p, ok := n.lookup(notice.PlanType); ok {
			view.Lines = append(view.Lines, "Amount: "+n.format.price(p.Price)+".")
		}
		if notice.UserID == nil {
			view.Lines = append(view.Lines, "Create your account with this email address to unlock VIP predictions.")
			view.Action = "Create your account"
		} else {
			view.Action = "Open VIP predictions"
		}
		return "Welcome to VIP: " + plan, view, nil

	case subscription.NoticeExpiring:
		view.Heading = "Your VIP access is ending soon"
		view.Lines = []string{
			fmt.Sprintf("Your %s subscription expires in %s, on %s.", plan, n.format.days(notice.DaysRemaining), n.format.date(notice.ExpiresAt)),
			"Renew now to keep receiving VIP predictions without interruption.",
		}
		view.Action = "Renew VIP"
		return "Your VIP subscription expires in " + n.format.days(notice.DaysRemaining), view, nil

	case subscription.NoticeExpired:
		view.Heading = "Your VIP access has ended"
		view.Lines = []string{
			fmt.Sprintf("Your %s subscription expired on %s.", plan, n.format.date(notice.ExpiresAt)),
			"Subscribe again at any time to restore VIP access.",
		}
		view.Action = "Subscribe again"
		return "Your VIP subscription has expired", view, nil
	}
	return "", view, fmt.Errorf("%w: %q", ErrUnknownNotice, notice.Type)
}

func (n *EmailNotifier) lookup(planType string) (subscription.Plan, bool) {
	if n.catalog == nil {
		return subscription.Plan{}, false
	}
	return n.catalog.Lookup(planType)
}
