// Package physplan implements the Plan Graph Builder (PGB): the mutable
// DAG of fragment executions that BatchPlanner assembles for one
// BatchPlan. It is grounded on the teacher's AbstractDirectedGraph-backed
// PlanGraph inner class in BatchPlanner.java, generalized to a standalone
// package and adapted to the Go idiom the teacher itself uses for owning
// a graph by stable vertex indices rather than pointers (see e.g.
// pkg/sql/physicalplan, where specs reference processors by index within
// a FlowSpec rather than by pointer).
package physplan

import (
	"github.com/cockroachdb/errors"
	"github.com/hstore-labs/voltcore/pkg/catalog"
)

// Vertex is one (fragment, partition) execution unit inside a BatchPlan's
// DAG. Its equality identity — used as a Go map key throughout this
// package — is the full tuple (fragment, partition, stmt index, input dep
// id, output dep id, params), matching spec.md §3's PlanVertex identity
// invariant. Params must be a comparable value; BatchPlanner passes a
// pointer to the statement's ParameterSet, so vertices from the same
// fragment compare equal on Params by pointer identity, exactly as the
// teacher's PlanVertex.equals compares by ParameterSet content (since all
// vertices for one fragment share the identical ParameterSet reference).
type Vertex struct {
	Fragment    catalog.PlanFragment
	Partition   int32
	StmtIndex   int
	InputDepID  *int32
	OutputDepID int32
	Params      interface{}
}

// BucketKey is the weak hash key spec.md §3 requires vertex hashing to be
// derivable from: fragment and partition alone, stable across the
// vertex's lifetime even though two distinct vertices (different
// statement, different params) can share one BucketKey.
type BucketKey struct {
	FragmentID int64
	Partition  int32
}

// Bucket returns v's BucketKey.
func (v Vertex) Bucket() BucketKey {
	return BucketKey{FragmentID: v.Fragment.ID, Partition: v.Partition}
}

// VertexIndex is a stable handle to a Vertex inside one Graph. Edges
// reference vertices by VertexIndex rather than by pointer, so the Graph
// is the sole owner of vertex storage (spec.md §9's cyclic-ownership note).
type VertexIndex int

// Edge is a directed edge from a consumer vertex to the producer vertex
// that satisfies its input dependency.
type Edge struct {
	DepID    int32
	Consumer VertexIndex
	Producer VertexIndex
}

// Graph is one BatchPlan's DAG: the Plan Graph Builder's mutable state
// during planning, finalized into a query-ready structure by BuildEdges.
type Graph struct {
	vertices []Vertex
	identity map[Vertex]VertexIndex
	byOutput map[int32][]VertexIndex

	edges      []Edge
	edgeExists map[[2]VertexIndex]struct{}
	outgoing   map[VertexIndex][]int // edge indices where this vertex is the consumer
	incoming   map[VertexIndex][]int // edge indices where this vertex is the producer
	edgesBuilt bool
}

// NewGraph returns an empty Graph ready to accept vertices.
func NewGraph() *Graph {
	return &Graph{
		identity:   make(map[Vertex]VertexIndex),
		byOutput:   make(map[int32][]VertexIndex),
		edgeExists: make(map[[2]VertexIndex]struct{}),
		outgoing:   make(map[VertexIndex][]int),
		incoming:   make(map[VertexIndex][]int),
	}
}

// AddVertex inserts v, updating the output_dep_id → {Vertex} index used by
// BuildEdges. It rejects vertices with a zero (unset) OutputDepID, the
// PGB's null-output-id guard in spec.md §4.1. Re-adding an
// identity-equal vertex is idempotent and returns the existing index.
func (g *Graph) AddVertex(v Vertex) (VertexIndex, error) {
	if v.OutputDepID == 0 {
		return 0, errors.New("physplan: vertex has no output dependency id")
	}
	if idx, ok := g.identity[v]; ok {
		return idx, nil
	}
	g.edgesBuilt = false
	idx := VertexIndex(len(g.vertices))
	g.vertices = append(g.vertices, v)
	g.identity[v] = idx
	g.byOutput[v.OutputDepID] = append(g.byOutput[v.OutputDepID], idx)
	return idx, nil
}

// NumVertices returns the number of vertices added so far.
func (g *Graph) NumVertices() int { return len(g.vertices) }

// Vertex returns the vertex at idx.
func (g *Graph) Vertex(idx VertexIndex) Vertex { return g.vertices[idx] }

// OutputDependencies returns the vertices whose OutputDepID equals id,
// the PGB's output_dependency_xref lookup.
func (g *Graph) OutputDependencies(id int32) []VertexIndex {
	return g.byOutput[id]
}

// BuildEdges wires every consumer vertex (non-null InputDepID) to every
// vertex producing that dependency id, skipping edges that already exist.
// It is idempotent: calling it twice without adding vertices in between
// produces no new edges.
func (g *Graph) BuildEdges() {
	for i := range g.vertices {
		v0 := VertexIndex(i)
		inputID := g.vertices[i].InputDepID
		if inputID == nil {
			continue
		}
		for _, v1 := range g.byOutput[*inputID] {
			if v1 == v0 {
				continue
			}
			key := [2]VertexIndex{v0, v1}
			if _, exists := g.edgeExists[key]; exists {
				continue
			}
			g.edgeExists[key] = struct{}{}
			e := Edge{DepID: *inputID, Consumer: v0, Producer: v1}
			eIdx := len(g.edges)
			g.edges = append(g.edges, e)
			g.outgoing[v0] = append(g.outgoing[v0], eIdx)
			g.incoming[v1] = append(g.incoming[v1], eIdx)
		}
	}
	g.edgesBuilt = true
}

// EdgesBuilt reports whether BuildEdges has run since the last AddVertex.
func (g *Graph) EdgesBuilt() bool { return g.edgesBuilt }

// Edges returns every edge in the graph.
func (g *Graph) Edges() []Edge { return g.edges }

// Roots returns the vertices with no outgoing edge: the vertices that do
// not themselves consume any other vertex's output, i.e. the base
// fragments each statement's dependency chain bottoms out at. Traversal
// for round numbering starts from these vertices, per spec.md §4.1.
func (g *Graph) Roots() []VertexIndex {
	roots := make([]VertexIndex, 0)
	for i := range g.vertices {
		if len(g.outgoing[VertexIndex(i)]) == 0 {
			roots = append(roots, VertexIndex(i))
		}
	}
	return roots
}

// visitState tracks per-vertex progress while computing longest-path
// depth, so a cycle (an invariant violation — the DAG is guaranteed
// acyclic by construction) is caught rather than looping forever.
type visitState uint8

const (
	unvisited visitState = iota
	visiting
	done
)

// TraverseLongestPath visits every vertex in increasing order of its
// longest-path distance from a root (its "round"), breaking ties between
// same-round vertices by insertion order. visit is called once per
// vertex with its stable index, value, and computed round.
//
// Longest-path depth is used rather than shortest-path or topological
// depth because a producer must have completed by every round in which
// any of its consumers needs it; shortest-path depth would schedule a
// producer too early along one consuming path and too late along
// another (spec.md §4.1 rationale).
func (g *Graph) TraverseLongestPath(visit func(idx VertexIndex, v Vertex, round int)) error {
	n := len(g.vertices)
	rounds := make([]int, n)
	states := make([]visitState, n)

	var depth func(i VertexIndex) (int, error)
	depth = func(i VertexIndex) (int, error) {
		switch states[i] {
		case done:
			return rounds[i], nil
		case visiting:
			return 0, errors.Newf("physplan: cycle detected at vertex %d", i)
		}
		states[i] = visiting
		best := 0
		for _, eIdx := range g.outgoing[i] {
			d, err := depth(g.edges[eIdx].Producer)
			if err != nil {
				return 0, err
			}
			if d+1 > best {
				best = d + 1
			}
		}
		rounds[i] = best
		states[i] = done
		return best, nil
	}

	maxRound := 0
	for i := 0; i < n; i++ {
		d, err := depth(VertexIndex(i))
		if err != nil {
			return err
		}
		if d > maxRound {
			maxRound = d
		}
	}

	for round := 0; round <= maxRound; round++ {
		for i := 0; i < n; i++ {
			if rounds[i] == round {
				visit(VertexIndex(i), g.vertices[i], round)
			}
		}
	}
	return nil
}
