// Package metrics instruments the subscription engine with Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

const namespace = "predictvip"

// Observer implements subscription.Observer.
type Observer struct {
	transitions   *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
	notifyFailed  *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	sweepItems    *prometheus.CounterVec
	lastSweep     prometheus.Gauge
}

// NewObserver registers the engine metrics on reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_transitions_total",
			Help:      "Subscription state transitions by source state, target state and event.",
		}, []string{"from", "to", "event"}),
		webhooks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_webhooks_total",
			Help:      "Processed payment webhooks by event type and outcome.",
		}, []string{"event", "outcome"}),
		notifyFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notices that could not be delivered.",
		}, []string{"notice"}),
		sweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of expiry sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		sweepItems: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_items_total",
			Help:      "Rows touched by expiry sweeps by action.",
		}, []string{"action"}),
		lastSweep: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_last_completed_timestamp_seconds",
			Help:      "Unix time of the last completed sweep.",
		}),
	}
}

func (o *Observer) Transitioned(from, to subscription.Status, event subscription.Event) {
	o.transitions.WithLabelValues(string(from), string(to), string(event)).Inc()
}

func (o *Observer) WebhookProcessed(eventType string, outcome subscription.Outcome) {
	o.webhooks.WithLabelValues(eventType, string(outcome)).Inc()
}

func (o *Observer) NotificationFailed(t subscription.NoticeType) {
	o.notifyFailed.WithLabelValues(string(t)).Inc()
}

func (o *Observer) SweepCompleted(report subscription.SweepReport, took time.Duration) {
	o.sweepDuration.Observe(took.Seconds())
	o.sweepItems.WithLabelValues("warned").Add(float64(report.WarningsSent))
	o.sweepItems.WithLabelValues("expired").Add(float64(report.Expired))
	o.sweepItems.WithLabelValues("linked").Add(float64(report.Linked))
	o.lastSweep.SetToCurrentTime()
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
