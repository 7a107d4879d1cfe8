package physplan_test

import (
	"testing"

	"github.com/hstore-labs/voltcore/pkg/catalog"
	"github.com/hstore-labs/voltcore/pkg/physplan"
	"github.com/stretchr/testify/require"
)

func int32ptr(v int32) *int32 { return &v }

// TestMultiRoundDependency is scenario S3: a leaf fragment producing on
// partitions {0,1,2} feeding a single aggregator fragment on partition 0.
func TestMultiRoundDependency(t *testing.T) {
	g := physplan.NewGraph()
	leaf := catalog.PlanFragment{ID: 1, Role: catalog.RoleProducer}
	agg := catalog.PlanFragment{ID: 2, Role: catalog.RoleConsumer}

	for _, partition := range []int32{0, 1, 2} {
		_, err := g.AddVertex(physplan.Vertex{
			Fragment: leaf, Partition: partition, StmtIndex: 0,
			InputDepID: nil, OutputDepID: 1000,
		})
		require.NoError(t, err)
	}

	_, err := g.AddVertex(physplan.Vertex{
		Fragment: agg, Partition: 0, StmtIndex: 1,
		InputDepID: int32ptr(1000), OutputDepID: 1001,
	})
	require.NoError(t, err)

	g.BuildEdges()

	rounds := make(map[physplan.VertexIndex]int)
	var visitOrder []physplan.VertexIndex
	err = g.TraverseLongestPath(func(idx physplan.VertexIndex, v physplan.Vertex, round int) {
		rounds[idx] = round
		visitOrder = append(visitOrder, idx)
	})
	require.NoError(t, err)

	require.Len(t, rounds, 4)
	for idx, v := range map[physplan.VertexIndex]int{0: 0, 1: 0, 2: 0} {
		require.Equal(t, v, rounds[idx])
	}
	require.Equal(t, 1, rounds[3])

	// Property: round(consumer) > round(producer) for every edge.
	for _, e := range g.Edges() {
		require.Greater(t, rounds[e.Consumer], rounds[e.Producer])
	}

	// Round-ordered visitation: every round-0 vertex visited before the
	// round-1 vertex.
	require.Equal(t, physplan.VertexIndex(3), visitOrder[len(visitOrder)-1])
}

func TestAddVertexRejectsZeroOutputDepID(t *testing.T) {
	g := physplan.NewGraph()
	_, err := g.AddVertex(physplan.Vertex{OutputDepID: 0})
	require.Error(t, err)
}

func TestAddVertexIdempotentOnIdenticalVertex(t *testing.T) {
	g := physplan.NewGraph()
	frag := catalog.PlanFragment{ID: 1}
	v := physplan.Vertex{Fragment: frag, Partition: 0, OutputDepID: 1000}

	idx1, err := g.AddVertex(v)
	require.NoError(t, err)
	idx2, err := g.AddVertex(v)
	require.NoError(t, err)
	require.Equal(t, idx1, idx2)
	require.Equal(t, 1, g.NumVertices())
}

func TestRootsAreVerticesWithNoOutgoingEdge(t *testing.T) {
	g := physplan.NewGraph()
	frag := catalog.PlanFragment{ID: 1}
	idx, err := g.AddVertex(physplan.Vertex{Fragment: frag, Partition: 0, OutputDepID: 1000})
	require.NoError(t, err)
	g.BuildEdges()

	roots := g.Roots()
	require.Equal(t, []physplan.VertexIndex{idx}, roots)
}

func TestBucketKeySharedAcrossDistinctVertices(t *testing.T) {
	frag := catalog.PlanFragment{ID: 7}
	v1 := physplan.Vertex{Fragment: frag, Partition: 2, StmtIndex: 0, OutputDepID: 1000}
	v2 := physplan.Vertex{Fragment: frag, Partition: 2, StmtIndex: 1, OutputDepID: 1001}
	require.Equal(t, v1.Bucket(), v2.Bucket())
	require.NotEqual(t, v1, v2)
}
