// Package metric provides the engine's transient-stat counters. It follows
// the registration convention described in the teacher's util/metric
// package (register once, then Inc/Observe from the hot path) but is
// backed directly by github.com/prometheus/client_golang rather than the
// teacher's time-series-database exporter, since this core has no server
// or UI to ship metrics to.
package metric

import "github.com/prometheus/client_golang/prometheus"

// Counter is a monotonically increasing metric, e.g. the number of
// speculative executions successfully dispatched.
type Counter struct {
	c prometheus.Counter
}

// NewCounter returns a new, unregistered Counter under name with help
// text; add it to a Registry to register it.
func NewCounter(name, help string) *Counter {
	return &Counter{c: prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.c.Inc() }

// Collector exposes the underlying prometheus.Collector so a Registry can
// register it.
func (c *Counter) Collector() prometheus.Collector { return c.c }

// Gauge is a metric that can move up or down, e.g. the current work-queue
// size observed by the scheduler.
type Gauge struct {
	g prometheus.Gauge
}

// NewGauge returns a new, unregistered Gauge.
func NewGauge(name, help string) *Gauge {
	return &Gauge{g: prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})}
}

// Set records the current value.
func (g *Gauge) Set(v float64) { g.g.Set(v) }

// Collector exposes the underlying prometheus.Collector.
func (g *Gauge) Collector() prometheus.Collector { return g.g }

// Histogram records a distribution of observed durations or sizes, e.g.
// the scheduler's compute-time-per-call or total-time-per-call.
type Histogram struct {
	h prometheus.Histogram
}

// NewHistogram returns a new, unregistered Histogram with the given
// buckets.
func NewHistogram(name, help string, buckets []float64) *Histogram {
	return &Histogram{h: prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})}
}

// Observe records a single sample.
func (h *Histogram) Observe(v float64) { h.h.Observe(v) }

// Collector exposes the underlying prometheus.Collector.
func (h *Histogram) Collector() prometheus.Collector { return h.h }

// Registry groups the metrics for one subsystem so they can be registered
// with a prometheus.Registerer together, mirroring the teacher's
// per-subsystem metric.Registry convention.
type Registry struct {
	metrics []prometheus.Collector
}

// AddCounter registers c with this Registry and returns it for chaining.
func (r *Registry) AddCounter(c *Counter) *Counter {
	r.metrics = append(r.metrics, c.Collector())
	return c
}

// AddGauge registers g with this Registry and returns it for chaining.
func (r *Registry) AddGauge(g *Gauge) *Gauge {
	r.metrics = append(r.metrics, g.Collector())
	return g
}

// AddHistogram registers h with this Registry and returns it for chaining.
func (r *Registry) AddHistogram(h *Histogram) *Histogram {
	r.metrics = append(r.metrics, h.Collector())
	return h
}

// MustRegisterWith registers every metric in this Registry with reg,
// panicking on a duplicate registration the way prometheus.MustRegister
// does; callers typically pass a fresh prometheus.NewRegistry() in tests
// and the global prometheus.DefaultRegisterer in production.
func (r *Registry) MustRegisterWith(reg prometheus.Registerer) {
	for _, m := range r.metrics {
		reg.MustRegister(m)
	}
}
