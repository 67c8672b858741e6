// Package metrics provides Prometheus metrics for the EmpowerHub
// orchestration core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "empowerhub"

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithRegistry sets a custom Prometheus registry. Useful in tests to avoid
// duplicate registration on the default registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	// Orchestration metrics
	eventsEmitted  *prometheus.CounterVec
	appendFailures prometheus.Counter
	rulesEvaluated prometheus.Counter
	rulesFired     prometheus.Counter
	ruleFailures   prometheus.Counter
	actionRuns     *prometheus.CounterVec

	// Matching metrics
	matchRequests prometheus.Counter
	matchLatency  prometheus.Histogram
}

// New creates a Manager and registers all collectors.
func New(opts ...Option) *Manager {
	m := &Manager{
		namespace: defaultNamespace,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.eventsEmitted = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "orchestrator",
		Name:      "events_emitted_total",
		Help:      "Domain events emitted, by event type.",
	}, []string{"event_type"})

	m.appendFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "orchestrator",
		Name:      "event_log_append_failures_total",
		Help:      "Event log appends that failed and were swallowed.",
	})

	m.rulesEvaluated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "rules",
		Name:      "evaluated_total",
		Help:      "Rule condition evaluations.",
	})

	m.rulesFired = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "rules",
		Name:      "fired_total",
		Help:      "Rules whose condition held and whose actions were dispatched.",
	})

	m.ruleFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "rules",
		Name:      "failures_total",
		Help:      "Rule evaluations that errored or panicked.",
	})

	m.actionRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "actions",
		Name:      "executions_total",
		Help:      "Action executions, by action name and outcome.",
	}, []string{"action", "outcome"})

	m.matchRequests = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "matcher",
		Name:      "requests_total",
		Help:      "Opportunity match requests served.",
	})

	m.matchLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "matcher",
		Name:      "latency_seconds",
		Help:      "Opportunity match computation latency.",
		Buckets:   prometheus.DefBuckets,
	})

	return m
}

// RecordEventEmitted counts one emitted event.
func (m *Manager) RecordEventEmitted(eventType string) {
	m.eventsEmitted.WithLabelValues(eventType).Inc()
}

// RecordAppendFailure counts one swallowed event log append failure.
func (m *Manager) RecordAppendFailure() {
	m.appendFailures.Inc()
}

// RecordRuleEvaluated counts one rule condition evaluation.
func (m *Manager) RecordRuleEvaluated() {
	m.rulesEvaluated.Inc()
}

// RecordRuleFired counts one rule whose actions were dispatched.
func (m *Manager) RecordRuleFired() {
	m.rulesFired.Inc()
}

// RecordRuleFailure counts one faulted rule evaluation.
func (m *Manager) RecordRuleFailure() {
	m.ruleFailures.Inc()
}

// RecordActionExecution counts one action execution.
func (m *Manager) RecordActionExecution(action string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.actionRuns.WithLabelValues(action, outcome).Inc()
}

// RecordMatch counts one match request and observes its latency.
func (m *Manager) RecordMatch(d time.Duration) {
	m.matchRequests.Inc()
	m.matchLatency.Observe(d.Seconds())
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}
