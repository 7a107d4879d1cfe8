// Package specexec implements the per-partition Speculative Execution
// Scheduler (SES): given a distributed transaction stalled on a network
// round trip, find a queued local single-partition transaction safe to
// run underneath it. Grounded on the teacher's flow scheduler, which
// drains a container/list-backed work queue one runnable item at a time
// and must remove an item mid-scan without invalidating the rest of the
// iteration (pkg/sql/flowinfra/flow_scheduler.go) — the same
// remove-during-scan requirement spec.md §4.4 calls for.
package specexec

import "container/list"

// Txn is the SES's view of one queued transaction (spec.md §3's QueuedTxn
// row). Implementations are owned by the caller; the scheduler never
// constructs one.
type Txn interface {
	// IsLocal reports whether this transaction was initiated on this
	// partition's host.
	IsLocal() bool
	// IsSinglePartition reports whether this transaction's plan touches
	// only one partition.
	IsSinglePartition() bool
	// IsSpeculative reports whether this transaction is already running
	// speculatively underneath some other stalled transaction.
	IsSpeculative() bool
	// PredictAllLocal reports whether every partition this transaction
	// was predicted to touch is on this host.
	PredictAllLocal() bool
	// EstimatorState exposes the last cost estimate computed for this
	// transaction, or nil if none is available.
	EstimatorState() *EstimatorState
}

// Estimate is one cost estimator's opinion of a transaction's remaining
// work.
type Estimate struct {
	RemainingExecutionTime int64
}

// EstimatorState carries the last estimate a cost estimator produced for
// a transaction, if any.
type EstimatorState struct {
	LastEstimate *Estimate
}

// Queue is a partition's priority-ordered (in practice, insertion-ordered
// — spec.md §4.4's "queue order") sequence of queued transactions. It is
// owned by exactly one partition dispatcher thread and is not safe for
// concurrent use (spec.md §5).
type Queue struct {
	l *list.List
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{l: list.New()}
}

// Len returns the number of queued transactions.
func (q *Queue) Len() int { return q.l.Len() }

// Push appends t to the back of the queue.
func (q *Queue) Push(t Txn) {
	q.l.PushBack(t)
}

// Iterator scans the queue in queue order. Calling Remove mid-scan
// deletes the element most recently returned by Next and leaves the
// rest of the scan intact — the property spec.md §4.4 step 5 requires
// ("the removal must be safe relative to the scan").
type Iterator struct {
	q       *Queue
	next    *list.Element
	current *list.Element
}

// Iterator returns a fresh iterator positioned before the first element.
func (q *Queue) Iterator() *Iterator {
	return &Iterator{q: q, next: q.l.Front()}
}

// Next advances the iterator and returns the next transaction, or
// (nil, false) when the scan is exhausted.
func (it *Iterator) Next() (Txn, bool) {
	if it.next == nil {
		it.current = nil
		return nil, false
	}
	it.current = it.next
	it.next = it.next.Next()
	return it.current.Value.(Txn), true
}

// Remove deletes the element most recently returned by Next from the
// underlying queue. It is a no-op if Next has not been called, or has
// already been removed, since the last call to Remove.
func (it *Iterator) Remove() {
	if it.current == nil {
		return
	}
	it.q.l.Remove(it.current)
	it.current = nil
}

// Mark returns a token identifying the element most recently returned by
// Next, for later removal via RemoveMarked. Policies that keep scanning
// past their best candidate so far (SHORTEST, LONGEST) need this: by the
// time the scan window closes, Next has moved past the element Remove
// would otherwise delete.
func (it *Iterator) Mark() *list.Element {
	return it.current
}

// RemoveMarked deletes the element identified by mark, previously
// returned by Mark, from the underlying queue. It is a no-op if mark is
// nil.
func (it *Iterator) RemoveMarked(mark *list.Element) {
	if mark == nil {
		return
	}
	it.q.l.Remove(mark)
	if it.current == mark {
		it.current = nil
	}
}
