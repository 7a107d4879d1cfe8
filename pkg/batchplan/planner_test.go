package batchplan_test

import (
	"context"
	"testing"

	"github.com/hstore-labs/voltcore/pkg/batchplan"
	"github.com/hstore-labs/voltcore/pkg/catalog"
	"github.com/hstore-labs/voltcore/pkg/depid"
	"github.com/stretchr/testify/require"
)

func singlePartitionProcedure() catalog.Procedure {
	return catalog.Procedure{
		Name: "ReadByKey",
		Statements: []catalog.Statement{
			{
				Name:                     "ReadByKey.select",
				ReadOnly:                 true,
				HasSinglePartitionPlan:   true,
				SinglePartitionFragments: []catalog.PlanFragment{{ID: 1, Role: catalog.RoleProducer}},
				MultiPartitionFragments:  []catalog.PlanFragment{{ID: 2, Role: catalog.RoleProducer}},
			},
		},
	}
}

// TestSingleStatementSinglePartition is scenario S1.
func TestSingleStatementSinglePartition(t *testing.T) {
	proc := singlePartitionProcedure()
	estimator := &fakeEstimator{partitions: map[int64]map[int32]struct{}{
		1: {2: {}},
	}}
	planner, err := batchplan.NewBatchPlanner(proc, estimator, 0, depid.NewCounter())
	require.NoError(t, err)

	args := []*batchplan.ParameterSet{mustParams(t, "k")}
	plan, err := planner.Plan(context.Background(), args, 2, true)
	require.NoError(t, err)

	require.True(t, plan.IsLocal())
	require.True(t, plan.IsSingleSited())
	require.True(t, plan.IsReadOnly())

	msgs, err := plan.FragmentTaskMessages(42, 7)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.EqualValues(t, 2, msgs[0].TargetPartition)
	require.True(t, msgs[0].FinalTask)
	require.Len(t, msgs[0].FragmentIDs, 1)
	require.EqualValues(t, 1, msgs[0].FragmentIDs[0])
	require.EqualValues(t, depid.NullDependencyID, msgs[0].InputDepIDs[0])
}

// TestMispredict is scenario S2: the statement was predicted
// single-partition but the estimator proves it touches a partition other
// than the base partition.
func TestMispredict(t *testing.T) {
	proc := singlePartitionProcedure()
	estimator := &fakeEstimator{partitions: map[int64]map[int32]struct{}{
		1: {5: {}},
	}}
	planner, err := batchplan.NewBatchPlanner(proc, estimator, 0, depid.NewCounter())
	require.NoError(t, err)

	args := []*batchplan.ParameterSet{mustParams(t, "k")}
	_, err = planner.Plan(context.Background(), args, 2, true)
	require.Error(t, err)

	var mispredict *batchplan.MispredictError
	require.ErrorAs(t, err, &mispredict)
	require.Equal(t, batchplan.MispredictSentinelTxnID, mispredict.TxnID)
}

func TestSinglePartitionFallsBackToMultiPartitionWithoutPredict(t *testing.T) {
	proc := singlePartitionProcedure()
	estimator := &fakeEstimator{partitions: map[int64]map[int32]struct{}{
		1: {2: {}, 5: {}},
		2: {2: {}, 5: {}},
	}}
	planner, err := batchplan.NewBatchPlanner(proc, estimator, 0, depid.NewCounter())
	require.NoError(t, err)

	args := []*batchplan.ParameterSet{mustParams(t, "k")}
	plan, err := planner.Plan(context.Background(), args, 2, false)
	require.NoError(t, err)
	require.False(t, plan.IsSingleSited())

	msgs, err := plan.FragmentTaskMessages(1, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.EqualValues(t, 2, msgs[0].FragmentIDs[0])
}

// TestMultiRoundDependency is scenario S3 exercised end to end through
// BatchPlanner: a single statement whose producer fragment is spread
// across {0,1,2} and whose consumer fragment aggregates on the base
// partition. BatchPlanner.Plan resets its synthetic dependency chain at
// the start of every statement (mirroring the original's
// last_output_id = null reset), so the intra-statement chain that links
// a producer's output to a consumer's input only exists within one
// statement — modeling this as two separate statements would leave the
// aggregator's InputDepID nil and collapse everything into round 0.
func TestMultiRoundDependency(t *testing.T) {
	proc := catalog.Procedure{
		Name: "Aggregate",
		Statements: []catalog.Statement{
			{
				Name:     "Aggregate.select",
				ReadOnly: true,
				MultiPartitionFragments: []catalog.PlanFragment{
					{ID: 1, Role: catalog.RoleProducer},
					{ID: 2, Role: catalog.RoleConsumer},
				},
			},
		},
	}
	estimator := &fakeEstimator{partitions: map[int64]map[int32]struct{}{
		1: {0: {}, 1: {}, 2: {}},
		2: {0: {}},
	}}
	planner, err := batchplan.NewBatchPlanner(proc, estimator, 0, depid.NewCounter())
	require.NoError(t, err)

	args := []*batchplan.ParameterSet{mustParams(t)}
	plan, err := planner.Plan(context.Background(), args, 0, false)
	require.NoError(t, err)

	require.False(t, plan.IsLocal())
	require.False(t, plan.IsSingleSited())

	msgs, err := plan.FragmentTaskMessages(1, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 4) // round 0: partitions 0,1,2; round 1: partition 0

	for _, m := range msgs[:3] {
		require.EqualValues(t, depid.NullDependencyID, m.InputDepIDs[0])
	}
	aggMsg := msgs[3]
	require.EqualValues(t, 0, aggMsg.TargetPartition)
	require.NotEqual(t, depid.NullDependencyID, aggMsg.InputDepIDs[0])
	require.Equal(t, msgs[0].OutputDepIDs[0], aggMsg.InputDepIDs[0])
}

func mustParams(t *testing.T, values ...interface{}) *batchplan.ParameterSet {
	t.Helper()
	ps, err := batchplan.NewParameterSet(values...)
	require.NoError(t, err)
	return ps
}
