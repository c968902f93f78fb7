package store

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts reduced actions by type across every store sharing it.
type Metrics struct {
	actions *prometheus.CounterVec
}

// NewMetrics creates and registers the store collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_store_actions_total",
			Help: "Actions reduced by dashboard stores, by action type",
		}, []string{"type"}),
	}
	reg.MustRegister(m.actions)
	return m
}
