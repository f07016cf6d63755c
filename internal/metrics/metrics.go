/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

// Package metrics holds the Prometheus collectors of the introspection
// service. It's used in the internal code and not exposed to the public API.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const PrometheusNamespace = "introspection_server"

const DefaultPrometheusInstanceLabel = "default"

const PrometheusInstanceLabel = "instance"

// Introspection request outcomes.
const (
	RequestStatusActive          = "active"
	RequestStatusInactive        = "inactive"
	RequestStatusUnauthenticated = "unauthenticated"
	RequestStatusUnauthorized    = "unauthorized"
	RequestStatusError           = "error"
)

const requestLabelStatus = "status"

var (
	prometheusMetrics     *PrometheusMetrics
	prometheusMetricsOnce sync.Once
)

// PrometheusMetrics represents the collector of metrics.
type PrometheusMetrics struct {
	RequestsTotal *prometheus.CounterVec
}

// GetPrometheusMetrics returns the once-registered collector curried with the
// given instance label. It allows distinguishing metrics from multiple
// engines in the same process.
func GetPrometheusMetrics(instance string) *PrometheusMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetrics = newPrometheusMetrics()
		prometheusMetrics.MustRegister()
	})
	if instance == "" {
		instance = DefaultPrometheusInstanceLabel
	}
	return prometheusMetrics.MustCurryWith(prometheus.Labels{PrometheusInstanceLabel: instance})
}

func newPrometheusMetrics() *PrometheusMetrics {
	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: PrometheusNamespace,
			Name:      "requests_total",
			Help:      "A counter of introspection requests by outcome.",
		},
		[]string{PrometheusInstanceLabel, requestLabelStatus},
	)
	return &PrometheusMetrics{RequestsTotal: requestsTotal}
}

// MustCurryWith curries the metrics collector with the provided labels.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{
		RequestsTotal: pm.RequestsTotal.MustCurryWith(labels),
	}
}

// MustRegister registers the collector in Prometheus default registry
// and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.RequestsTotal)
}

// IncRequestsTotal increments the counter of introspection requests with the
// given outcome status.
func (pm *PrometheusMetrics) IncRequestsTotal(status string) {
	pm.RequestsTotal.With(prometheus.Labels{requestLabelStatus: status}).Inc()
}
