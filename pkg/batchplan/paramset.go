package batchplan

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ParameterSet is one statement invocation's ordered bound values
// (spec.md §3). It wraps structpb.ListValue so the batch planner gets a
// real, pre-compiled wire format for free rather than hand-rolling one,
// the same way the teacher reaches for google.golang.org/protobuf's
// well-known types wherever a value needs to travel as a protobuf.Value
// (see pkg/crosscluster/physical for the equivalent any-shaped-payload
// idiom over a wire boundary).
type ParameterSet struct {
	values *structpb.ListValue
}

// NewParameterSet builds a ParameterSet from plain Go values. Each value
// must be one accepted by structpb.NewValue: nil, bool, float64 (or any
// numeric type convertible to it), string, []interface{}, or
// map[string]interface{}.
func NewParameterSet(values ...interface{}) (*ParameterSet, error) {
	lv, err := structpb.NewList(values)
	if err != nil {
		return nil, errors.Wrap(err, "batchplan: invalid parameter value")
	}
	return &ParameterSet{values: lv}, nil
}

// Len returns the number of bound values.
func (p *ParameterSet) Len() int {
	if p == nil || p.values == nil {
		return 0
	}
	return len(p.values.GetValues())
}

// At returns the i'th bound value as a plain Go value.
func (p *ParameterSet) At(i int) interface{} {
	return p.values.GetValues()[i].AsInterface()
}

// Values returns every bound value as plain Go values, in order. This is
// what BatchPlanner hands to the partition estimator (spec.md §6).
func (p *ParameterSet) Values() []interface{} {
	if p == nil || p.values == nil {
		return nil
	}
	return p.values.AsSlice()
}

// Marshal serializes p to its wire form.
func (p *ParameterSet) Marshal() ([]byte, error) {
	var values *structpb.ListValue
	if p != nil {
		values = p.values
	}
	if values == nil {
		values = &structpb.ListValue{}
	}
	b, err := proto.Marshal(values)
	if err != nil {
		return nil, errors.Wrap(err, "batchplan: marshal parameter set")
	}
	return b, nil
}

// UnmarshalParameterSet parses a wire-form ParameterSet produced by
// Marshal.
func UnmarshalParameterSet(b []byte) (*ParameterSet, error) {
	lv := &structpb.ListValue{}
	if err := proto.Unmarshal(b, lv); err != nil {
		return nil, errors.Wrap(err, "batchplan: unmarshal parameter set")
	}
	return &ParameterSet{values: lv}, nil
}

// Equal reports whether p and other carry identical bound values.
func (p *ParameterSet) Equal(other *ParameterSet) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	return proto.Equal(p.values, other.values)
}
