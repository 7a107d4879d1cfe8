// Copyright 2016 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

/*
Package metric provides the engine's transient stat counters: the
Speculative Execution Scheduler's per-SpeculationType profilers
(comparisons, queue size, success count, compute/total time).

Adding a new metric

Build the metric with New{Counter,Gauge,Histogram} and register it with
a Registry so it can be wired into a prometheus.Registerer in one call:

	r := &metric.Registry{}
	comparisons := r.AddCounter(metric.NewCounter("specexec_comparisons_total", "..."))
	...
	r.MustRegisterWith(prometheus.DefaultRegisterer)
*/
package metric
