// Package observability holds the forum's Prometheus metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for auth operations.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Subscription change actions.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Metrics contains the forum's custom Prometheus metrics. A nil *Metrics is
// valid and records nothing, so services can be built without one in tests.
type Metrics struct {
	registry *prometheus.Registry

	AuthOperations      *prometheus.CounterVec
	SubscriptionChanges *prometheus.CounterVec
}

// NewMetrics creates the metrics on a private registry along with the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		AuthOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forum_auth_operations_total",
				Help: "Total number of authentication operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		SubscriptionChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forum_subscription_changes_total",
				Help: "Total number of subscription edges added or removed",
			},
			[]string{"action"},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AuthOperations,
		m.SubscriptionChanges,
	)
	return m
}

// RecordAuth counts one auth operation (login, register, update_profile,
// refresh) with its outcome.
func (m *Metrics) RecordAuth(operation string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.AuthOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordSubscriptionChange counts a committed subscribe or unsubscribe.
func (m *Metrics) RecordSubscriptionChange(action string) {
	if m == nil {
		return
	}
	m.SubscriptionChanges.WithLabelValues(action).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
