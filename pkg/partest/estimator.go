// Package partest defines the Partition Estimator (PE) contract BatchPlanner
// depends on (spec.md §6) and ships one reference implementation good
// enough to drive end-to-end tests. The real partition estimator — which
// consults the live partition-to-key-range catalog — is an external
// collaborator out of scope for this core (spec.md §1); HashRangeEstimator
// exists only so this module is independently testable, grounded on the
// hash-driven span lookup idiom in the teacher's kv/range_cache.go,
// generalized from range-descriptor lookup to a plain modulo hash since
// there is no live range catalog here.
package partest

import (
	"fmt"
	"hash/fnv"

	"github.com/cockroachdb/errors"
	"github.com/hstore-labs/voltcore/pkg/catalog"
)

// FragPartitions is the first PE output: for each fragment, the set of
// partitions it must touch. Implementations must clear it before
// refilling, since BatchPlanner reuses one instance across every
// statement of a batch as scratch state (spec.md §4.2 step 1).
type FragPartitions map[catalog.PlanFragment]map[int32]struct{}

// PartitionSet is the second PE output: the union of every partition any
// fragment in the call touches.
type PartitionSet map[int32]struct{}

// Clear empties fp in place for reuse.
func (fp FragPartitions) Clear() {
	for k := range fp {
		delete(fp, k)
	}
}

// Clear empties ps in place for reuse.
func (ps PartitionSet) Clear() {
	for k := range ps {
		delete(ps, k)
	}
}

// Estimator is the Partition Estimator contract (spec.md §6). Given a set
// of plan fragments, their bound parameters, and the partition the
// procedure was initiated at, it populates fragPartitions and
// allPartitions. It must be deterministic for identical inputs, and must
// clear both outputs before refilling them.
type Estimator interface {
	GetAllFragmentPartitions(
		fragPartitions FragPartitions,
		allPartitions PartitionSet,
		fragments []catalog.PlanFragment,
		params []interface{},
		basePartition int32,
	) error
}

// FragmentPlacement is one fragment's placement rule under
// HashRangeEstimator.
type FragmentPlacement struct {
	// Broadcast, if true, means the fragment always touches every
	// partition (e.g. a replicated-table scan), ignoring ParamIndex.
	Broadcast bool
	// ParamIndex selects which bound parameter (by position in the
	// statement's ParameterSet) determines the fragment's partition via
	// a deterministic hash. A negative value means the fragment is
	// always local to the invocation's base partition (e.g. a final
	// single-partition aggregator fragment).
	ParamIndex int
}

// HashRangeEstimator is a deterministic reference PartitionEstimator: each
// fragment is either local to the base partition, broadcast to every
// partition, or hashed to one partition by a designated bound parameter.
type HashRangeEstimator struct {
	NumPartitions int32
	// Placement maps a fragment id to its placement rule. A fragment with
	// no entry defaults to local-to-base-partition.
	Placement map[int64]FragmentPlacement
}

var _ Estimator = (*HashRangeEstimator)(nil)

// GetAllFragmentPartitions implements Estimator.
func (e *HashRangeEstimator) GetAllFragmentPartitions(
	fragPartitions FragPartitions,
	allPartitions PartitionSet,
	fragments []catalog.PlanFragment,
	params []interface{},
	basePartition int32,
) error {
	fragPartitions.Clear()
	allPartitions.Clear()

	if e.NumPartitions <= 0 {
		return errors.New("partest: NumPartitions must be positive")
	}

	for _, f := range fragments {
		rule, ok := e.Placement[f.ID]

		var partitions map[int32]struct{}
		switch {
		case ok && rule.Broadcast:
			partitions = make(map[int32]struct{}, e.NumPartitions)
			for p := int32(0); p < e.NumPartitions; p++ {
				partitions[p] = struct{}{}
			}
		case !ok || rule.ParamIndex < 0:
			partitions = map[int32]struct{}{basePartition: {}}
		default:
			if rule.ParamIndex >= len(params) {
				return errors.Newf(
					"partest: fragment %d needs bound parameter %d but only %d were supplied",
					f.ID, rule.ParamIndex, len(params))
			}
			p := hashPartition(params[rule.ParamIndex], e.NumPartitions)
			partitions = map[int32]struct{}{p: {}}
		}

		fragPartitions[f] = partitions
		for p := range partitions {
			allPartitions[p] = struct{}{}
		}
	}
	return nil
}

// hashPartition deterministically maps a bound value to a partition
// number in [0, numPartitions).
func hashPartition(value interface{}, numPartitions int32) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprint(value)))
	return int32(h.Sum32() % uint32(numPartitions))
}
