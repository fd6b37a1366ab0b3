package subscription

import "time"

// Observer receives engine events for instrumentation.
type Observer interface {
	Transitioned(from, to Status, event Event)
	WebhookProcessed(eventType string, outcome Outcome)
	NotificationFailed(t NoticeType)
	SweepCompleted(report SweepReport, took time.Duration)
}

type noopObserver struct{}

func (noopObserver) Transitioned(Status, Status, Event) {}
func (noopObserver) WebhookProcessed(string, Outcome) {}
func (noopObserver) NotificationFailed(NoticeType) {}
func (noopObserver) SweepCompleted(SweepReport, time.Duration) {}
