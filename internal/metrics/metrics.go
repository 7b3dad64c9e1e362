// Package metrics provides Prometheus metrics instrumentation for the
// poll loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the poller's collectors. Each instance owns its registry so
// tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// PollsTotal counts completed fetches by outcome ("ok" or "error").
	PollsTotal *prometheus.CounterVec

	// PollDuration tracks how long a fetch took.
	PollDuration prometheus.Histogram

	// EventsFetched counts events returned by successful fetches.
	EventsFetched prometheus.Counter

	// PagesFetched counts API pages read by successful fetches.
	PagesFetched prometheus.Counter

	// InProgress is the number of events currently in progress.
	InProgress prometheus.Gauge

	// KnownEvents is the size of the known-event window.
	KnownEvents prometheus.Gauge

	// NotificationsTotal counts newly completed events handed to consumers.
	NotificationsTotal prometheus.Counter

	// BackoffIteration is the scheduler's current backoff multiplier.
	BackoffIteration prometheus.Gauge

	// ResetsTotal counts scheduler resets.
	ResetsTotal prometheus.Counter
}

// New creates and registers the collectors. provider is attached to every
// series as a constant label.
func New(provider string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{"provider": provider}

	return &Metrics{
		registry: reg,
		PollsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "eventwatch_polls_total",
				Help:        "Total event fetches by outcome",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
		PollDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "eventwatch_poll_duration_seconds",
			Help:        "Event fetch duration in seconds",
			Buckets:     []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			ConstLabels: labels,
		}),
		EventsFetched: factory.NewCounter(prometheus.CounterOpts{
			Name:        "eventwatch_events_fetched_total",
			Help:        "Total events returned by successful fetches",
			ConstLabels: labels,
		}),
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Name:        "eventwatch_pages_fetched_total",
			Help:        "Total API pages read by successful fetches",
			ConstLabels: labels,
		}),
		InProgress: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "eventwatch_events_in_progress",
			Help:        "Number of events currently in progress",
			ConstLabels: labels,
		}),
		KnownEvents: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "eventwatch_known_events",
			Help:        "Number of events held in the known-event window",
			ConstLabels: labels,
		}),
		NotificationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name:        "eventwatch_notifications_total",
			Help:        "Total completion notifications emitted",
			ConstLabels: labels,
		}),
		BackoffIteration: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "eventwatch_backoff_iteration",
			Help:        "Current poll backoff multiplier",
			ConstLabels: labels,
		}),
		ResetsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name:        "eventwatch_scheduler_resets_total",
			Help:        "Total scheduler resets",
			ConstLabels: labels,
		}),
	}
}

// RecordPoll records the outcome of one fetch.
func (m *Metrics) RecordPoll(err error, duration time.Duration, events, pages int) {
	if err != nil {
		m.PollsTotal.WithLabelValues("error").Inc()
		m.PollDuration.Observe(duration.Seconds())
		return
	}
	m.PollsTotal.WithLabelValues("ok").Inc()
	m.PollDuration.Observe(duration.Seconds())
	m.EventsFetched.Add(float64(events))
	m.PagesFetched.Add(float64(pages))
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
