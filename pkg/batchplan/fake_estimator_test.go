package batchplan_test

import "github.com/hstore-labs/voltcore/pkg/catalog"
import "github.com/hstore-labs/voltcore/pkg/partest"

// fakeEstimator is a test-only partest.Estimator whose placement is
// fixed per fragment id, so tests can pin a fragment to a specific
// partition without depending on HashRangeEstimator's hash function.
type fakeEstimator struct {
	partitions map[int64]map[int32]struct{}
}

var _ partest.Estimator = (*fakeEstimator)(nil)

func (e *fakeEstimator) GetAllFragmentPartitions(
	fragPartitions partest.FragPartitions,
	allPartitions partest.PartitionSet,
	fragments []catalog.PlanFragment,
	params []interface{},
	basePartition int32,
) error {
	fragPartitions.Clear()
	allPartitions.Clear()
	for _, f := range fragments {
		parts, ok := e.partitions[f.ID]
		if !ok {
			parts = map[int32]struct{}{basePartition: {}}
		}
		fragPartitions[f] = parts
		for p := range parts {
			allPartitions[p] = struct{}{}
		}
	}
	return nil
}
