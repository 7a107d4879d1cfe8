package specexec

import "github.com/hstore-labs/voltcore/pkg/catalog"

// ConflictChecker is the scheduler's pluggable safety oracle (spec.md
// §6): CanExecute must be a pure, deterministic, side-effect-free
// function over the two transactions' read/write sets, since the
// scheduler calls it once per candidate per scan and never caches its
// answer across calls.
type ConflictChecker interface {
	// ShouldIgnoreProcedure reports whether dtxn's procedure should never
	// have a transaction scheduled speculatively underneath it at all
	// (enforced by the caller per spec.md §4.4's precondition, not by the
	// scheduler itself).
	ShouldIgnoreProcedure(proc catalog.Procedure) bool
	// CanExecute reports whether candidate may safely run speculatively
	// underneath dtxn on partitionID.
	CanExecute(dtxn, candidate Txn, partitionID int32) bool
}

// ReadWriteSet is one transaction's table-level touch set, the
// granularity spec.md §9's "table-level, row-level, markov-model" note
// names as the simplest viable plugin.
type ReadWriteSet struct {
	Reads  map[string]struct{}
	Writes map[string]struct{}
}

// NewReadWriteSet builds a ReadWriteSet from table names.
func NewReadWriteSet(reads, writes []string) ReadWriteSet {
	rws := ReadWriteSet{
		Reads:  make(map[string]struct{}, len(reads)),
		Writes: make(map[string]struct{}, len(writes)),
	}
	for _, t := range reads {
		rws.Reads[t] = struct{}{}
	}
	for _, t := range writes {
		rws.Writes[t] = struct{}{}
	}
	return rws
}

// TableTxn is the capability a Txn must additionally expose to be
// checked by TableConflictChecker.
type TableTxn interface {
	Txn
	TableTouchSet() ReadWriteSet
}

// TableConflictChecker is a reference ConflictChecker: two transactions
// conflict iff one's write set intersects the other's read or write set.
// It never special-cases any procedure (ShouldIgnoreProcedure always
// returns false); a deployment with procedures that must never run
// underneath a speculative slot should wrap this checker rather than
// modify it.
type TableConflictChecker struct{}

var _ ConflictChecker = TableConflictChecker{}

func (TableConflictChecker) ShouldIgnoreProcedure(catalog.Procedure) bool { return false }

func (TableConflictChecker) CanExecute(dtxn, candidate Txn, partitionID int32) bool {
	dt, ok1 := dtxn.(TableTxn)
	ct, ok2 := candidate.(TableTxn)
	if !ok1 || !ok2 {
		// Without touch-set information there is no basis to call this
		// safe; fail closed.
		return false
	}
	a, b := dt.TableTouchSet(), ct.TableTouchSet()
	return !(intersects(a.Writes, b.Writes) || intersects(a.Writes, b.Reads) || intersects(b.Writes, a.Reads))
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
