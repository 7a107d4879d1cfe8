package specexec

import (
	"time"

	"github.com/hstore-labs/voltcore/pkg/util/metric"
)

// Profiler tracks the per-SpeculationType counters spec.md §4.4 requires
// regardless of outcome ("comparisons, queue size, success count,
// compute time, total time"), grounded on the original's per-
// SpeculationType profiler map.
type Profiler struct {
	registry *metric.Registry

	comparisons *metric.Counter
	queueSize   *metric.Gauge
	successes   *metric.Counter
	computeTime *metric.Histogram
	totalTime   *metric.Histogram
}

// NewProfiler builds a Profiler for one SpeculationType, registering its
// metrics under names that embed the type so a single process can run
// one Profiler per SpeculationType without name collisions.
func NewProfiler(specType SpeculationType) *Profiler {
	name := specType.String()
	r := &metric.Registry{}
	p := &Profiler{registry: r}
	p.comparisons = r.AddCounter(metric.NewCounter(
		"specexec_"+name+"_comparisons_total", "conflict checks performed while scanning for a speculative candidate"))
	p.queueSize = r.AddGauge(metric.NewGauge(
		"specexec_"+name+"_queue_size", "work queue length observed at the start of the scan"))
	p.successes = r.AddCounter(metric.NewCounter(
		"specexec_"+name+"_success_total", "scans that returned a transaction to run speculatively"))
	p.computeTime = r.AddHistogram(metric.NewHistogram(
		"specexec_"+name+"_compute_seconds", "time spent scanning and checking candidates", nil))
	p.totalTime = r.AddHistogram(metric.NewHistogram(
		"specexec_"+name+"_total_seconds", "wall time of the entire Next call, including the ignore_all_local fast path", nil))
	return p
}

// Registry exposes the underlying metric.Registry so a caller can wire
// it into a prometheus.Registerer.
func (p *Profiler) Registry() *metric.Registry { return p.registry }

// call records one Next invocation's outcome.
func (p *Profiler) call(comparisons int, queueLen int, found bool, computeStart, start time.Time) {
	for i := 0; i < comparisons; i++ {
		p.comparisons.Inc()
	}
	p.queueSize.Set(float64(queueLen))
	if found {
		p.successes.Inc()
	}
	p.computeTime.Observe(time.Since(computeStart).Seconds())
	p.totalTime.Observe(time.Since(start).Seconds())
}
