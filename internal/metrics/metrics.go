// Package metrics exposes Prometheus counters for the page service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service counters. All counters are registered on the
// registry passed to New, so tests can use isolated registries.
type Metrics struct {
	PagesCreated    prometheus.Counter
	Transitions     *prometheus.CounterVec
	AnalyticsEvents *prometheus.CounterVec
	QuotaDenials    *prometheus.CounterVec
}

// New creates and registers the service metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PagesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "page_service_pages_created_total",
			Help: "Total number of landing pages created.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "page_service_transitions_total",
			Help: "Total number of lifecycle transitions applied.",
		}, []string{"event"}),
		AnalyticsEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "page_service_analytics_events_total",
			Help: "Total number of analytics events recorded.",
		}, []string{"kind"}),
		QuotaDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "page_service_quota_denials_total",
			Help: "Total number of requests denied by plan ceilings.",
		}, []string{"action"}),
	}

	reg.MustRegister(m.PagesCreated, m.Transitions, m.AnalyticsEvents, m.QuotaDenials)
	return m
}

// NewNop returns metrics registered on a throwaway registry. Intended for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
