package logger

import (
	"log/slog"
	"time"
)

// Error returns an "error" attribute, or an empty attribute for nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

func SubscriptionID(id any) slog.Attr {
	return slog.Any("subscription_id", id)
}

func Email(email string) slog.Attr {
	return slog.String("email", email)
}

func PlanType(plan string) slog.Attr {
	return slog.String("plan_type", plan)
}

func Status(status string) slog.Attr {
	return slog.String("status", status)
}

// Transition describes a lifecycle state change.
func Transition(from, to, event string) slog.Attr {
	return slog.Group("transition",
		slog.String("from", from),
		slog.String("to", to),
		slog.String("event", event),
	)
}

func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

func Reference(ref string) slog.Attr {
	return slog.String("reference", ref)
}

// Admin identifies the operator behind an admin action.
func Admin(id any, email string) slog.Attr {
	return slog.Group("admin", slog.Any("id", id), slog.String("email", email))
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Count(name string, n int) slog.Attr {
	return slog.Int(name, n)
}
