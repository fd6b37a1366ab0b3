package subscription

import (
	"log/slog"
	"time"
)

// Option configures a Lifecycle and the components built on it.
type Option func(*Lifecycle)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(lc *Lifecycle) {
		if l != nil {
			lc.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(lc *Lifecycle) {
		if now != nil {
			lc.now = func() time.Time { return now().UTC() }
		}
	}
}

// WithNotifier sets the notification collaborator.
func WithNotifier(n Notifier) Option {
	return func(lc *Lifecycle) {
		if n != nil {
			lc.notifier = n
		}
	}
}

// WithObserver sets the instrumentation hooks.
func WithObserver(o Observer) Option {
	return func(lc *Lifecycle) {
		if o != nil {
			lc.observer = o
		}
	}
}

// WithMaxWriteAttempts bounds the optimistic re-read loop.
func WithMaxWriteAttempts(n int) Option {
	return func(lc *Lifecycle) {
		if n > 0 {
			lc.maxAttempts = n
		}
	}
}
