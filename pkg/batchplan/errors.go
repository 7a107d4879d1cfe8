package batchplan

import "fmt"

// MispredictSentinelTxnID is the placeholder transaction id attached to a
// MispredictError. spec.md §6 defines BatchPlanner.Plan without a txn id
// parameter, yet spec.md §7 requires Mispredict to carry "the offending
// txn id" — the same tension flagged, unresolved, against the teacher's
// own hard-coded `throw new MispredictionException(123l) // FIXME` (see
// spec.md §9 Open Questions). Plan has no way to know the real id, so it
// reports this sentinel; a caller that knows the real txn id should
// substitute it before surfacing the error to a client.
const MispredictSentinelTxnID int64 = 123

// MispredictError is returned when a statement predicted single-partition
// (predictSinglePartition=true) is proven multi-partition during planning.
// It is always surfaced to the caller unchanged (spec.md §7); the caller
// is expected to restart the transaction as multi-partition.
type MispredictError struct {
	TxnID int64
}

func (e *MispredictError) Error() string {
	return fmt.Sprintf("mispredict: txn %d was predicted single-partition but planning proved multi-partition", e.TxnID)
}

// PlanningError wraps a failure from the partition estimator or an
// inconsistency in the catalog, fatal to this plan but not to the
// process. It carries the statement index and procedure name the way
// spec.md §7 requires planner context to be attached.
type PlanningError struct {
	StmtIndex int
	Procedure string
	Cause     error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning error for %s statement #%d: %v", e.Procedure, e.StmtIndex, e.Cause)
}

func (e *PlanningError) Unwrap() error { return e.Cause }

// SerializationError wraps a failure to serialize a statement's bound
// parameters, fatal to this plan.
type SerializationError struct {
	StmtIndex int
	Cause     error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to serialize parameters for statement #%d: %v", e.StmtIndex, e.Cause)
}

func (e *SerializationError) Unwrap() error { return e.Cause }
