package specexec

import (
	"container/list"
	"context"
	"time"

	"github.com/hstore-labs/voltcore/pkg/util/log"
	"github.com/hstore-labs/voltcore/pkg/util/syncutil"
)

// Scheduler is one partition's Speculative Execution Scheduler (spec.md
// §4.4): strictly single-threaded per partition, it scans that
// partition's work queue for a local, single-partition, non-speculative
// transaction safe to run underneath a stalled distributed transaction.
type Scheduler struct {
	mu syncutil.Mutex

	partitionID int32
	queue       *Queue
	checker     ConflictChecker
	config      Config
	profilers   map[SpeculationType]*Profiler

	lastDtxn     Txn
	lastSpecType SpeculationType
	lastIterator *Iterator
	haveLast     bool
}

// NewScheduler constructs a Scheduler for one partition. config must
// already have passed Validate.
func NewScheduler(partitionID int32, queue *Queue, checker ConflictChecker, config Config) *Scheduler {
	return &Scheduler{
		partitionID: partitionID,
		queue:       queue,
		checker:     checker,
		config:      config,
		profilers:   make(map[SpeculationType]*Profiler),
	}
}

// Profiler returns (creating if necessary) the Profiler for specType, or
// nil if profiling is disabled in this Scheduler's Config.
func (s *Scheduler) Profiler(specType SpeculationType) *Profiler {
	if !s.config.Profiling {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profilers[specType]
	if !ok {
		p = NewProfiler(specType)
		s.profilers[specType] = p
	}
	return p
}

// Next implements spec.md §4.4's algorithm: find a transaction safe to
// run speculatively underneath dtxn, remove it from the queue, and
// return it. dtxn must be non-nil; the caller is responsible for having
// already checked checker.ShouldIgnoreProcedure(dtxn's procedure) before
// calling (spec.md §4.4 Preconditions).
func (s *Scheduler) Next(ctx context.Context, dtxn Txn, specType SpeculationType) (Txn, bool) {
	start := time.Now()
	profiler := s.Profiler(specType)
	queueLen := s.queue.Len()

	if s.config.IgnoreAllLocal && dtxn.IsLocal() && dtxn.PredictAllLocal() {
		if profiler != nil {
			profiler.call(0, queueLen, false, start, start)
		}
		return nil, false
	}

	var it *Iterator
	if s.config.Policy == FIRST && s.haveLast && s.lastDtxn == dtxn && s.lastSpecType == specType && s.lastIterator != nil {
		it = s.lastIterator
	} else {
		it = s.queue.Iterator()
	}

	computeStart := time.Now()

	var best Txn
	var bestMark *list.Element
	var bestTime int64
	switch s.config.Policy {
	case LONGEST:
		bestTime = -1 << 62
	case SHORTEST:
		bestTime = 1 << 62
	}

	comparisons := 0
	examined := 0

scan:
	for {
		candidate, ok := it.Next()
		if !ok {
			break
		}
		if !candidate.IsLocal() || !candidate.IsSinglePartition() || candidate.IsSpeculative() {
			continue
		}

		comparisons++
		if !s.checker.CanExecute(dtxn, candidate, s.partitionID) {
			continue
		}

		switch s.config.Policy {
		case FIRST:
			best = candidate
			bestMark = it.Mark()
			break scan
		case SHORTEST, LONGEST:
			// WindowSize bounds how many candidates that passed the
			// conflict check get considered for ordering, not how many
			// carry a usable estimate — a candidate lacking one still
			// occupies a window slot, it just can't become best.
			examined++
			est := candidate.EstimatorState()
			if est != nil && est.LastEstimate != nil {
				remaining := est.LastEstimate.RemainingExecutionTime
				if (s.config.Policy == SHORTEST && remaining < bestTime) ||
					(s.config.Policy == LONGEST && remaining > bestTime) {
					best = candidate
					bestMark = it.Mark()
					bestTime = remaining
				}
			}
			if examined >= s.config.WindowSize {
				break scan
			}
		}
	}

	if best != nil {
		it.RemoveMarked(bestMark)
		log.VEventf(ctx, 2, "specexec: partition %d scheduled a speculative transaction under spec type %s", s.partitionID, specType)
	}

	s.mu.Lock()
	s.lastDtxn = dtxn
	s.lastSpecType = specType
	s.lastIterator = it
	s.haveLast = true
	s.mu.Unlock()

	if profiler != nil {
		profiler.call(comparisons, queueLen, best != nil, computeStart, start)
	}

	return best, best != nil
}
