package metric_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/hstore-labs/voltcore/pkg/util/metric"
	"github.com/stretchr/testify/require"
)

func TestCounterIncrements(t *testing.T) {
	c := metric.NewCounter("test_counter", "a test counter")
	c.Inc()
	c.Inc()

	m := &dto.Metric{}
	require.NoError(t, c.Collector().(interface {
		Write(*dto.Metric) error
	}).Write(m))
	require.Equal(t, float64(2), m.GetCounter().GetValue())
}

func TestRegistryRegistersEveryMetric(t *testing.T) {
	r := &metric.Registry{}
	c := r.AddCounter(metric.NewCounter("registered_counter", "help"))
	g := r.AddGauge(metric.NewGauge("registered_gauge", "help"))
	h := r.AddHistogram(metric.NewHistogram("registered_histogram", "help", nil))

	require.NotNil(t, c)
	require.NotNil(t, g)
	require.NotNil(t, h)

	reg := prometheus.NewRegistry()
	r.MustRegisterWith(reg)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 3)
}
