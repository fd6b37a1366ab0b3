package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

// Multi fans a notice out to every notifier. All of them run even when one
// fails; the failures are joined.
type Multi []subscription.Notifier

func (m Multi) Notify(ctx context.Context, n subscription.Notice) error {
	var errs []error
	for i, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("notifier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
