// Package metrics provides Prometheus-based implementations of ports.MetricsReporter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sufield/wabbit/internal/core/ports"
)

// PrometheusMetrics implements ports.MetricsReporter using Prometheus.
type PrometheusMetrics struct {
	logins        *prometheus.CounterVec
	checks        *prometheus.CounterVec
	mgmtOps       *prometheus.CounterVec
	registrations prometheus.Gauge
}

var _ ports.MetricsReporter = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the wabbit collectors on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wabbit_auth_login_total",
			Help: "Total number of login attempts",
		}, []string{"result"}), // result: success, denied, expired, error

		checks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wabbit_auth_check_total",
			Help: "Total number of action authorization checks",
		}, []string{"result"}),

		mgmtOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wabbit_mgmt_operations_total",
			Help: "Total number of management registry operations",
		}, []string{"op", "result"}), // op: reg, dereg, reset

		registrations: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wabbit_mgmt_registrations",
			Help: "Number of objects currently registered for management",
		}),
	}
}

// RecordLogin records a login outcome.
func (m *PrometheusMetrics) RecordLogin(result string) {
	m.logins.WithLabelValues(result).Inc()
}

// RecordCheck records an authorization check outcome.
func (m *PrometheusMetrics) RecordCheck(result string) {
	m.checks.WithLabelValues(result).Inc()
}

// RecordRegistration records a management operation outcome.
func (m *PrometheusMetrics) RecordRegistration(op, result string) {
	m.mgmtOps.WithLabelValues(op, result).Inc()
}

// SetRegistrations sets the live registration gauge.
func (m *PrometheusMetrics) SetRegistrations(n int) {
	m.registrations.Set(float64(n))
}

// NoOpMetrics implements ports.MetricsReporter with no-op methods for when metrics are disabled
type NoOpMetrics struct{}

// RecordLogin no-op implementation
func (NoOpMetrics) RecordLogin(string) {}

// RecordCheck no-op implementation
func (NoOpMetrics) RecordCheck(string) {}

// RecordRegistration no-op implementation
func (NoOpMetrics) RecordRegistration(string, string) {}

// SetRegistrations no-op implementation
func (NoOpMetrics) SetRegistrations(int) {}
