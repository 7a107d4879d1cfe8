// Package depid owns the two pieces of process-wide shared state the
// planner relies on: the monotonic dependency-id counter and the pooled
// scratch fragment-list free-list. Both are concurrency-safe so that many
// BatchPlanner instances, one per worker, can share a single package-level
// instance the way the teacher's static AtomicInteger and StackObjectPool
// are shared across all BatchPlanner instances in one process.
package depid

import (
	"sync"
	"sync/atomic"

	"github.com/hstore-labs/voltcore/pkg/catalog"
)

// ReservedFloor is the first value handed out by a fresh Counter, matching
// the teacher's "start above a reserved floor" requirement (spec.md §3).
// Ids below this floor are reserved for sentinels such as NullDependencyID.
const ReservedFloor int32 = 1000

// NullDependencyID is the sentinel written to the wire in place of a null
// input dependency id (spec.md §6).
const NullDependencyID int32 = -1

// Counter is a globally-unique, monotonically increasing source of
// dependency ids. The zero value is not usable; construct one with
// NewCounter. A single Counter is meant to be shared by every BatchPlanner
// in a process.
type Counter struct {
	next int64
}

// NewCounter returns a Counter whose first Next() call returns
// ReservedFloor.
func NewCounter() *Counter {
	c := &Counter{}
	atomic.StoreInt64(&c.next, int64(ReservedFloor))
	return c
}

// Next returns a fresh dependency id, strictly greater than every id this
// Counter has previously returned.
func (c *Counter) Next() int32 {
	v := atomic.AddInt64(&c.next, 1)
	return int32(v - 1)
}

// Peek returns the id Next() would return if called right now, without
// consuming it. Tests use this to assert monotonicity across plan() calls
// without racing a concurrent planner.
func (c *Counter) Peek() int32 {
	return int32(atomic.LoadInt64(&c.next))
}

// fragmentListPool is the free-list of scratch []catalog.PlanFragment
// slices BatchPlanner borrows once per Plan call and reuses for every
// statement while assembling the sorted fragment order, mirroring the teacher's planFragmentListPool
// (org.apache.commons.pool StackObjectPool of ArrayList<PlanFragment>)
// generalized to sync.Pool, the idiomatic Go free-list primitive the
// teacher itself reaches for in pkg/sql/physicalplan/specs.go.
var fragmentListPool = sync.Pool{
	New: func() interface{} {
		s := make([]catalog.PlanFragment, 0, 8)
		return &s
	},
}

// BorrowFragmentList returns a zero-length scratch slice from the pool.
// Callers MUST call ReleaseFragmentList on every exit path, including
// error paths, per spec.md §5.
func BorrowFragmentList() *[]catalog.PlanFragment {
	s := fragmentListPool.Get().(*[]catalog.PlanFragment)
	*s = (*s)[:0]
	return s
}

// ReleaseFragmentList returns s to the pool. s must not be used again
// after this call.
func ReleaseFragmentList(s *[]catalog.PlanFragment) {
	*s = (*s)[:0]
	fragmentListPool.Put(s)
}
