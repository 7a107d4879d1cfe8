package batchplan

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/hstore-labs/voltcore/pkg/catalog"
	"github.com/hstore-labs/voltcore/pkg/depid"
	"github.com/hstore-labs/voltcore/pkg/partest"
	"github.com/hstore-labs/voltcore/pkg/util/log"
)

// BatchPlanner turns one stored procedure's batch of statements — each
// already bound to its ParameterSet — into a BatchPlan. One instance is
// built per procedure and reused across every invocation of that
// procedure a worker handles (spec.md §4.2, §5); it is not safe for
// concurrent use by more than one worker at a time, since its scratch
// fields are reused across Plan calls the way the teacher's BatchPlanner
// reuses its instance-local scratch sets.
type BatchPlanner struct {
	procedure   catalog.Procedure
	batchSize   int
	estimator   partest.Estimator
	initiatorID int32
	depCounter  *depid.Counter

	fragPartitions partest.FragPartitions
	allPartitions  partest.PartitionSet

	depsToResume []int32
}

// NewBatchPlanner constructs a BatchPlanner for procedure, sharing
// depCounter and estimator with every other BatchPlanner in the process
// (spec.md §5: the dependency-id counter is process-wide).
func NewBatchPlanner(
	procedure catalog.Procedure,
	estimator partest.Estimator,
	initiatorID int32,
	depCounter *depid.Counter,
) (*BatchPlanner, error) {
	if estimator == nil {
		return nil, errors.New("batchplan: estimator must not be nil")
	}
	if depCounter == nil {
		return nil, errors.New("batchplan: depCounter must not be nil")
	}
	return &BatchPlanner{
		procedure:      procedure,
		batchSize:      len(procedure.Statements),
		estimator:      estimator,
		initiatorID:    initiatorID,
		depCounter:     depCounter,
		fragPartitions: make(partest.FragPartitions),
		allPartitions:  make(partest.PartitionSet),
	}, nil
}

// DependencyIDsToResume returns the output dependency id of the final
// fragment of each statement in the most recently successful Plan call,
// one per statement — the ids a resumed (speculatively retried) batch
// needs results for, mirroring the teacher's
// getDependencyIdsNeededToResume.
func (bp *BatchPlanner) DependencyIDsToResume() []int32 {
	out := make([]int32, len(bp.depsToResume))
	copy(out, bp.depsToResume)
	return out
}

// Plan assembles a BatchPlan for one invocation of this planner's
// procedure, bound to args (spec.md §4.2). basePartition is the
// partition the procedure was initiated at. predictSinglePartition, when
// true, asks Plan to try each statement's single-partition fragment set
// first and fail fast with a MispredictError if the estimator proves
// that prediction wrong (the statement touches more than one partition,
// or a partition other than basePartition), rather than silently falling
// back to the multi-partition plan.
func (bp *BatchPlanner) Plan(
	ctx context.Context, args []*ParameterSet, basePartition int32, predictSinglePartition bool,
) (*BatchPlan, error) {
	if len(args) != bp.batchSize {
		return nil, errors.Newf(
			"batchplan: %s expects %d bound statements, got %d", bp.procedure.Name, bp.batchSize, len(args))
	}

	plan := newBatchPlan(bp.batchSize, bp.initiatorID, bp.procedure)
	depsToResume := make([]int32, 0, bp.batchSize)

	fragList := depid.BorrowFragmentList()
	defer depid.ReleaseFragmentList(fragList)

	for stmtIndex := 0; stmtIndex < bp.batchSize; stmtIndex++ {
		stmt := bp.procedure.Statements[stmtIndex]
		params := args[stmtIndex].Values()

		singleSited := stmt.HasSinglePartitionPlan
		var fragments []catalog.PlanFragment
		mispredicted := false

		// Two attempts, structurally: try the single-partition fragment
		// set first when the statement has one, fall back to the
		// multi-partition set exactly once if the estimator proves that
		// wrong, per spec.md §4.2's retry bound (Open Question resolved
		// against an unbounded loop: the teacher's own while(true) only
		// ever takes this branch once in practice, since singleSited is
		// already false on the second pass, so the `is_singlesited &&
		// partitions>1` guard cannot trip again).
		for attempt := 0; attempt < 2; attempt++ {
			bp.fragPartitions.Clear()
			bp.allPartitions.Clear()

			if singleSited {
				fragments = stmt.SinglePartitionFragments
			} else {
				fragments = stmt.MultiPartitionFragments
			}

			if err := bp.estimator.GetAllFragmentPartitions(
				bp.fragPartitions, bp.allPartitions, fragments, params, basePartition,
			); err != nil {
				return nil, &PlanningError{StmtIndex: stmtIndex, Procedure: bp.procedure.Name, Cause: err}
			}

			if singleSited && predictSinglePartition {
				// A predicted single-partition statement must touch the
				// base partition and nothing else.
				if _, atBase := bp.allPartitions[basePartition]; !atBase || len(bp.allPartitions) > 1 {
					mispredicted = true
					break
				}
			}
			if singleSited && len(bp.allPartitions) > 1 {
				singleSited = false
				continue
			}
			break
		}

		if mispredicted {
			log.VEventf(ctx, 1, "batchplan: %s stmt[%d] mispredicted single-partition, touched %d partitions",
				bp.procedure.Name, stmtIndex, len(bp.allPartitions))
			return nil, &MispredictError{TxnID: MispredictSentinelTxnID}
		}

		isLocal := len(bp.allPartitions) == 1
		if isLocal {
			_, isLocal = bp.allPartitions[basePartition]
		}

		plan.readOnly = plan.readOnly && stmt.ReadOnly
		plan.allSingleSited = plan.allSingleSited && singleSited
		plan.allLocal = plan.allLocal && isLocal

		// Preserved verbatim from the teacher: this OR's the flag with a
		// snapshot of itself taken before this statement, which is a
		// structural no-op — the flag can only ever keep the value it
		// was seeded with. Kept for behavioral parity rather than fixed,
		// per the grounding ledger.
		stmtLocalFragsNonTx := plan.localFragsNonTx
		plan.localFragsNonTx = plan.localFragsNonTx || stmtLocalFragsNonTx

		partitionIDs := make([]int32, 0, len(bp.allPartitions))
		for partition := range bp.allPartitions {
			partitionIDs = append(partitionIDs, partition)
		}
		sort.Slice(partitionIDs, func(i, j int) bool { return partitionIDs[i] < partitionIDs[j] })
		plan.stmtPartitionIDs[stmtIndex] = partitionIDs

		*fragList = append((*fragList)[:0], fragments...)
		sorted := catalog.SortFragments(*fragList)

		var lastOutput *int32
		for _, frag := range sorted {
			outputID := bp.depCounter.Next()
			fragPartitions := bp.fragPartitions[frag]
			if err := plan.addFragment(
				frag, lastOutput, outputID, args[stmtIndex], fragPartitions, stmtIndex, basePartition,
			); err != nil {
				return nil, &PlanningError{StmtIndex: stmtIndex, Procedure: bp.procedure.Name, Cause: err}
			}
			out := outputID
			lastOutput = &out
		}
		if lastOutput != nil {
			depsToResume = append(depsToResume, *lastOutput)
		}
	}

	if err := plan.buildPlanGraph(); err != nil {
		return nil, &PlanningError{StmtIndex: -1, Procedure: bp.procedure.Name, Cause: err}
	}

	bp.depsToResume = depsToResume

	if log.V(2) {
		log.VEventf(ctx, 2, "batchplan: %s planned: %s", bp.procedure.Name, plan.DebugString())
	}
	return plan, nil
}
