package batchplan

import (
	"github.com/cockroachdb/errors"
	"github.com/hstore-labs/voltcore/pkg/depid"
	"github.com/hstore-labs/voltcore/pkg/util/encoding"
)

// TaskType distinguishes a user-procedure fragment task from a
// per-partition system-procedure task (spec.md §6).
type TaskType int32

const (
	UserProc TaskType = iota
	SysProcPerPartition
)

// FragmentTaskMessage is one partition's unit of work within a round
// (spec.md §4.3, §6): every fragment this plan assigned to one target
// partition in one round, bundled together so the partition's executor
// can run them back to back without a network round trip in between.
type FragmentTaskMessage struct {
	TargetPartition int32
	InitiatorID     int32
	TxnID           int64
	ClientHandle    int64

	FragmentIDs   []int64
	InputDepIDs   []int32 // depid.NullDependencyID where a fragment has no input dependency
	OutputDepIDs  []int32
	StmtIndexes   []int32
	ParamPayloads [][]byte

	Type      TaskType
	FinalTask bool
}

// MarshalBinary encodes m to its wire form. The format is this module's
// own: a flat sequence of varint-encoded header fields and a fragment
// count, then per fragment its varint-encoded ids and statement index and
// a length-prefixed parameter payload, then the task type and a single
// final-task byte; round-trippable by UnmarshalFragmentTaskMessage.
func (m *FragmentTaskMessage) MarshalBinary() ([]byte, error) {
	n := len(m.FragmentIDs)
	if len(m.InputDepIDs) != n || len(m.OutputDepIDs) != n || len(m.StmtIndexes) != n || len(m.ParamPayloads) != n {
		return nil, errors.New("batchplan: fragment task message has mismatched per-fragment slice lengths")
	}

	b := make([]byte, 0, 64+n*24)
	b = encoding.EncodeVarintAscending(b, int64(m.TargetPartition))
	b = encoding.EncodeVarintAscending(b, int64(m.InitiatorID))
	b = encoding.EncodeVarintAscending(b, m.TxnID)
	b = encoding.EncodeVarintAscending(b, m.ClientHandle)
	b = encoding.EncodeUvarintAscending(b, uint64(n))

	for i := 0; i < n; i++ {
		b = encoding.EncodeVarintAscending(b, m.FragmentIDs[i])
		b = encoding.EncodeVarintAscending(b, int64(m.InputDepIDs[i]))
		b = encoding.EncodeVarintAscending(b, int64(m.OutputDepIDs[i]))
		b = encoding.EncodeVarintAscending(b, int64(m.StmtIndexes[i]))
		b = encoding.EncodeBytesAscending(b, m.ParamPayloads[i])
	}

	b = encoding.EncodeVarintAscending(b, int64(m.Type))
	if m.FinalTask {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	return b, nil
}

// UnmarshalFragmentTaskMessage decodes a FragmentTaskMessage produced by
// MarshalBinary.
func UnmarshalFragmentTaskMessage(b []byte) (*FragmentTaskMessage, error) {
	m := &FragmentTaskMessage{}

	var v int64
	var u uint64
	var err error

	if b, v, err = encoding.DecodeVarintAscending(b); err != nil {
		return nil, errors.Wrap(err, "batchplan: decode target partition")
	}
	m.TargetPartition = int32(v)

	if b, v, err = encoding.DecodeVarintAscending(b); err != nil {
		return nil, errors.Wrap(err, "batchplan: decode initiator id")
	}
	m.InitiatorID = int32(v)

	if b, v, err = encoding.DecodeVarintAscending(b); err != nil {
		return nil, errors.Wrap(err, "batchplan: decode txn id")
	}
	m.TxnID = v

	if b, v, err = encoding.DecodeVarintAscending(b); err != nil {
		return nil, errors.Wrap(err, "batchplan: decode client handle")
	}
	m.ClientHandle = v

	if b, u, err = encoding.DecodeUvarintAscending(b); err != nil {
		return nil, errors.Wrap(err, "batchplan: decode fragment count")
	}
	n := int(u)

	m.FragmentIDs = make([]int64, n)
	m.InputDepIDs = make([]int32, n)
	m.OutputDepIDs = make([]int32, n)
	m.StmtIndexes = make([]int32, n)
	m.ParamPayloads = make([][]byte, n)

	for i := 0; i < n; i++ {
		if b, v, err = encoding.DecodeVarintAscending(b); err != nil {
			return nil, errors.Wrapf(err, "batchplan: decode fragment id %d", i)
		}
		m.FragmentIDs[i] = v

		if b, v, err = encoding.DecodeVarintAscending(b); err != nil {
			return nil, errors.Wrapf(err, "batchplan: decode input dep id %d", i)
		}
		m.InputDepIDs[i] = int32(v)

		if b, v, err = encoding.DecodeVarintAscending(b); err != nil {
			return nil, errors.Wrapf(err, "batchplan: decode output dep id %d", i)
		}
		m.OutputDepIDs[i] = int32(v)

		if b, v, err = encoding.DecodeVarintAscending(b); err != nil {
			return nil, errors.Wrapf(err, "batchplan: decode statement index %d", i)
		}
		m.StmtIndexes[i] = int32(v)

		var payload []byte
		if b, payload, err = encoding.DecodeBytesAscending(b); err != nil {
			return nil, errors.Wrapf(err, "batchplan: decode parameter payload %d", i)
		}
		m.ParamPayloads[i] = payload
	}

	if b, v, err = encoding.DecodeVarintAscending(b); err != nil {
		return nil, errors.Wrap(err, "batchplan: decode task type")
	}
	m.Type = TaskType(v)

	if len(b) != 1 {
		return nil, errors.New("batchplan: fragment task message missing final-task byte")
	}
	m.FinalTask = b[0] != 0

	return m, nil
}

// HasInput reports whether the i'th fragment depends on another
// fragment's output.
func (m *FragmentTaskMessage) HasInput(i int) bool {
	return m.InputDepIDs[i] != depid.NullDependencyID
}
