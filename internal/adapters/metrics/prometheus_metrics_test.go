package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/wabbit/internal/adapters/metrics"
	"github.com/sufield/wabbit/internal/core/ports"
)

func TestPrometheusMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(reg)

	m.RecordLogin(ports.ResultSuccess)
	m.RecordLogin(ports.ResultSuccess)
	m.RecordLogin(ports.ResultExpired)
	m.RecordCheck(ports.ResultDenied)
	m.RecordRegistration("reg", ports.ResultSuccess)
	m.SetRegistrations(3)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range metric.GetLabel() {
				key += "," + lp.GetName() + "=" + lp.GetValue()
			}
			switch {
			case metric.GetCounter() != nil:
				values[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[key] = metric.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, values["wabbit_auth_login_total,result=success"])
	assert.Equal(t, 1.0, values["wabbit_auth_login_total,result=expired"])
	assert.Equal(t, 1.0, values["wabbit_auth_check_total,result=denied"])
	assert.Equal(t, 1.0, values["wabbit_mgmt_operations_total,op=reg,result=success"])
	assert.Equal(t, 3.0, values["wabbit_mgmt_registrations"])

	count, err := testutil.GatherAndCount(reg, "wabbit_auth_login_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPrometheusMetrics_SeparateRegistries(t *testing.T) {
	a := prometheus.NewRegistry()
	b := prometheus.NewRegistry()

	assert.NotPanics(t, func() {
		metrics.NewPrometheusMetrics(a)
		metrics.NewPrometheusMetrics(b)
	})
	assert.Panics(t, func() { metrics.NewPrometheusMetrics(a) }, "duplicate registration on the same registry")
}

func TestNoOpMetrics(t *testing.T) {
	var m ports.MetricsReporter = metrics.NoOpMetrics{}
	assert.NotPanics(t, func() {
		m.RecordLogin(ports.ResultSuccess)
		m.RecordCheck(ports.ResultDenied)
		m.RecordRegistration("dereg", ports.ResultError)
		m.SetRegistrations(0)
	})
}
