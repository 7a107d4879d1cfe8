// Copyright 2015 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package encoding implements self-delimiting binary encodings under the
// naming of the teacher's pkg/util/encoding, used here for the wire
// encoding of FragmentTaskMessage headers. The encodings are standard
// varints, so the byte order of encoded values does not follow their
// numeric order. Each Encode* function appends to and returns a []byte
// buffer, and each Decode* function returns the unconsumed remainder alongside the decoded
// value, so a caller chains them the same way the teacher chains key
// encoders when building a composite index key.
package encoding

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// EncodeUvarintAscending encodes v as a variable-length unsigned integer
// and appends it to b.
func EncodeUvarintAscending(b []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(b, buf[:n]...)
}

// DecodeUvarintAscending decodes a variable-length unsigned integer from
// the front of b, returning the remaining bytes and the decoded value.
func DecodeUvarintAscending(b []byte) (remaining []byte, v uint64, err error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return nil, 0, errors.New("encoding: invalid uvarint")
	}
	return b[n:], v, nil
}

// EncodeVarintAscending encodes v as a variable-length signed integer and
// appends it to b.
func EncodeVarintAscending(b []byte, v int64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutVarint(buf[:], v)
	return append(b, buf[:n]...)
}

// DecodeVarintAscending decodes a variable-length signed integer from the
// front of b, returning the remaining bytes and the decoded value.
func DecodeVarintAscending(b []byte) (remaining []byte, v int64, err error) {
	v, n := binary.Varint(b)
	if n <= 0 {
		return nil, 0, errors.New("encoding: invalid varint")
	}
	return b[n:], v, nil
}

// EncodeBytesAscending appends a length-prefixed copy of data to b.
func EncodeBytesAscending(b []byte, data []byte) []byte {
	b = EncodeUvarintAscending(b, uint64(len(data)))
	return append(b, data...)
}

// DecodeBytesAscending decodes a length-prefixed byte slice from the
// front of b, returning the remaining bytes and a copy of the decoded
// slice.
func DecodeBytesAscending(b []byte) (remaining []byte, data []byte, err error) {
	b, n, err := DecodeUvarintAscending(b)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(b)) < n {
		return nil, nil, errors.Newf("encoding: truncated byte slice, want %d bytes, have %d", n, len(b))
	}
	data = make([]byte, n)
	copy(data, b[:n])
	return b[n:], data, nil
}
