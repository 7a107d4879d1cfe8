package batchplan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hstore-labs/voltcore/pkg/catalog"
	"github.com/hstore-labs/voltcore/pkg/depid"
	"github.com/hstore-labs/voltcore/pkg/physplan"
)

// BatchPlan is the finished, immutable output of one BatchPlanner.Plan
// call: a dependency DAG over every fragment every statement in the
// batch needs, plus the batch-wide properties that let the caller skip
// coordination work a plan doesn't need (spec.md §3, §4.1).
type BatchPlan struct {
	procedure   catalog.Procedure
	initiatorID int32

	graph      *physplan.Graph
	graphBuilt bool

	readOnly        bool
	allLocal        bool
	allSingleSited  bool
	localFragsNonTx bool

	localFragmentCount  int
	remoteFragmentCount int

	stmtPartitionIDs [][]int32
}

func newBatchPlan(batchSize int, initiatorID int32, proc catalog.Procedure) *BatchPlan {
	return &BatchPlan{
		procedure:        proc,
		initiatorID:      initiatorID,
		graph:            physplan.NewGraph(),
		readOnly:         true,
		allLocal:         true,
		allSingleSited:   true,
		localFragsNonTx:  true,
		stmtPartitionIDs: make([][]int32, batchSize),
	}
}

// IsReadOnly reports whether every statement in the batch is read-only.
func (p *BatchPlan) IsReadOnly() bool { return p.readOnly }

// IsLocal reports whether every statement in the batch touches only the
// invocation's base partition.
func (p *BatchPlan) IsLocal() bool { return p.allLocal }

// IsSingleSited reports whether every statement in the batch ran its
// single-partition fragment set (spec.md §4.2's is_singlesited).
func (p *BatchPlan) IsSingleSited() bool { return p.allSingleSited }

// LocalFragsNonTx mirrors the teacher's localFragsAreNonTransactional
// flag, preserved bit-for-bit including its no-op OR-reduction (see
// BatchPlanner.Plan): it is seeded true and never actually changes value, so
// it always reports true. Kept for parity rather than usefulness.
func (p *BatchPlan) LocalFragsNonTx() bool { return p.localFragsNonTx }

// LocalFragmentCount returns the number of (fragment, partition) vertices
// whose fragment touched only the base partition.
func (p *BatchPlan) LocalFragmentCount() int { return p.localFragmentCount }

// RemoteFragmentCount returns the number of (fragment, partition)
// vertices whose fragment touched more than just the base partition.
func (p *BatchPlan) RemoteFragmentCount() int { return p.remoteFragmentCount }

// StatementPartitions returns, for each statement index, the sorted list
// of partitions that statement touched.
func (p *BatchPlan) StatementPartitions() [][]int32 { return p.stmtPartitionIDs }

// addFragment inserts one vertex per partition this fragment touches.
func (p *BatchPlan) addFragment(
	frag catalog.PlanFragment,
	inputDepID *int32,
	outputDepID int32,
	params *ParameterSet,
	partitions map[int32]struct{},
	stmtIndex int,
	basePartition int32,
) error {
	fLocal := len(partitions) == 1
	if fLocal {
		_, fLocal = partitions[basePartition]
	}

	for partition := range partitions {
		v := physplan.Vertex{
			Fragment:    frag,
			Partition:   partition,
			StmtIndex:   stmtIndex,
			InputDepID:  inputDepID,
			OutputDepID: outputDepID,
			Params:      params,
		}
		if _, err := p.graph.AddVertex(v); err != nil {
			return err
		}
		if fLocal {
			p.localFragmentCount++
		} else {
			p.remoteFragmentCount++
		}
	}
	return nil
}

// buildPlanGraph finalizes the DAG. Called once, after every statement
// has contributed its fragments.
func (p *BatchPlan) buildPlanGraph() error {
	if p.graph.NumVertices() == 0 {
		return errors.New("batchplan: plan graph has no fragments")
	}
	p.graph.BuildEdges()
	p.graphBuilt = true
	return nil
}

// bucketKey groups fragment-task messages the way spec.md §4.3 requires:
// one message per (round, partition).
type bucketKey struct {
	round     int
	partition int32
}

// FragmentTaskMessages lowers the finished plan graph into the ordered
// sequence of per-partition, per-round messages an execution layer would
// dispatch (spec.md §4.3): one FragmentTaskMessage per (round,
// partition), in ascending round order, every fragment that round needs
// from that partition bundled together. txnID and clientHandle are
// stamped onto every message verbatim since a BatchPlan itself does not
// own them (they are assigned once per invocation, not once per plan).
func (p *BatchPlan) FragmentTaskMessages(txnID, clientHandle int64) ([]*FragmentTaskMessage, error) {
	if !p.graphBuilt {
		return nil, errors.New("batchplan: plan graph not finalized")
	}

	buckets := make(map[bucketKey][]physplan.VertexIndex)
	var order []bucketKey
	seen := make(map[bucketKey]bool)

	err := p.graph.TraverseLongestPath(func(idx physplan.VertexIndex, v physplan.Vertex, round int) {
		k := bucketKey{round: round, partition: v.Partition}
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], idx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "batchplan: failed to order plan graph into rounds")
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].round != order[j].round {
			return order[i].round < order[j].round
		}
		return order[i].partition < order[j].partition
	})

	taskType := UserProc
	if p.procedure.SystemProcedure {
		taskType = SysProcPerPartition
	}

	messages := make([]*FragmentTaskMessage, 0, len(order))
	for _, k := range order {
		idxs := buckets[k]
		msg := &FragmentTaskMessage{
			TargetPartition: k.partition,
			InitiatorID:     p.initiatorID,
			TxnID:           txnID,
			ClientHandle:    clientHandle,
			Type:            taskType,
		}
		for _, vi := range idxs {
			v := p.graph.Vertex(vi)

			ps, ok := v.Params.(*ParameterSet)
			if !ok {
				return nil, &SerializationError{
					StmtIndex: v.StmtIndex,
					Cause:     errors.Newf("batchplan: vertex params is %T, not *ParameterSet", v.Params),
				}
			}
			payload, err := ps.Marshal()
			if err != nil {
				return nil, &SerializationError{StmtIndex: v.StmtIndex, Cause: err}
			}

			msg.FragmentIDs = append(msg.FragmentIDs, v.Fragment.ID)
			if v.InputDepID == nil {
				msg.InputDepIDs = append(msg.InputDepIDs, depid.NullDependencyID)
			} else {
				msg.InputDepIDs = append(msg.InputDepIDs, *v.InputDepID)
			}
			msg.OutputDepIDs = append(msg.OutputDepIDs, v.OutputDepID)
			msg.StmtIndexes = append(msg.StmtIndexes, int32(v.StmtIndex))
			msg.ParamPayloads = append(msg.ParamPayloads, payload)
		}
		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		return nil, errors.New("batchplan: produced zero fragment-task messages from a non-empty plan graph")
	}
	messages[len(messages)-1].FinalTask = true
	return messages, nil
}

// DebugString renders a human-readable summary of the plan, gated by the
// caller checking log.V(2) the way the teacher gates expensive
// DebugString calls in its distributed SQL planner logs.
func (p *BatchPlan) DebugString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "BatchPlan[proc=%s stmts=%d readOnly=%v allLocal=%v allSingleSited=%v]\n",
		p.procedure.Name, len(p.stmtPartitionIDs), p.readOnly, p.allLocal, p.allSingleSited)
	for i, parts := range p.stmtPartitionIDs {
		fmt.Fprintf(&b, "  stmt[%d] partitions=%v\n", i, parts)
	}
	fmt.Fprintf(&b, "  fragments: local=%d remote=%d\n", p.localFragmentCount, p.remoteFragmentCount)
	return b.String()
}
