// Package wire holds the binary encoding of versioned values shared by the
// node-to-node transport and the on-disk log. It uses the protobuf wire
// format so payloads stay readable by any protobuf decoder.
package wire

import (
	"errors"
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
)

var ErrMalformed = errors.New("malformed wire message")

// VectorClock
//
//	1: repeated entry { 1: node_id varint, 2: counter varint }
//	2: timestamp varint
const (
	clockEntryField     protowire.Number = 1
	clockTimestampField protowire.Number = 2

	entryNodeField    protowire.Number = 1
	entryCounterField protowire.Number = 2
)

// Versioned
//
//	1: value bytes
//	2: version VectorClock
const (
	versionedValueField   protowire.Number = 1
	versionedVersionField protowire.Number = 2
)

// VersionedList
//
//	1: repeated Versioned
const versionedListField protowire.Number = 1

// AppendVectorClock appends the encoding of vc to b. Entries are written in
// node order so equal clocks encode to equal bytes.
func AppendVectorClock(b []byte, vc domain.VectorClock) []byte {
	ids := make([]int, 0, len(vc.Versions))
	for id := range vc.Versions {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	for _, id := range ids {
		var entry []byte
		entry = protowire.AppendTag(entry, entryNodeField, protowire.VarintType)
		entry = protowire.AppendVarint(entry, uint64(id))
		entry = protowire.AppendTag(entry, entryCounterField, protowire.VarintType)
		entry = protowire.AppendVarint(entry, vc.Versions[domain.NodeID(id)])

		b = protowire.AppendTag(b, clockEntryField, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	if vc.Timestamp != 0 {
		b = protowire.AppendTag(b, clockTimestampField, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(vc.Timestamp))
	}
	return b
}

// DecodeVectorClock parses a clock. An empty buffer is an empty clock.
func DecodeVectorClock(b []byte) (domain.VectorClock, error) {
	vc := domain.NewVectorClock()
	err := forEachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == clockEntryField && typ == protowire.BytesType:
			entry, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			id, counter, err := decodeClockEntry(entry)
			if err != nil {
				return 0, err
			}
			vc.Versions[id] = counter
			return n, nil
		case num == clockTimestampField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			vc.Timestamp = int64(v)
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return domain.VectorClock{}, fmt.Errorf("vector clock: %w", err)
	}
	return vc, nil
}

func decodeClockEntry(b []byte) (domain.NodeID, uint64, error) {
	var id, counter uint64
	err := forEachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.VarintType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeVarint(b)
		switch num {
		case entryNodeField:
			id = v
		case entryCounterField:
			counter = v
		}
		return n, nil
	})
	return domain.NodeID(id), counter, err
}

// AppendVersioned appends the encoding of v to b.
func AppendVersioned(b []byte, v domain.Versioned) []byte {
	b = protowire.AppendTag(b, versionedValueField, protowire.BytesType)
	b = protowire.AppendBytes(b, v.Value)
	b = protowire.AppendTag(b, versionedVersionField, protowire.BytesType)
	b = protowire.AppendBytes(b, AppendVectorClock(nil, v.Version))
	return b
}

// DecodeVersioned parses a single versioned value.
func DecodeVersioned(b []byte) (domain.Versioned, error) {
	v := domain.Versioned{Value: []byte{}, Version: domain.NewVectorClock()}
	err := forEachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		switch num {
		case versionedValueField:
			v.Value = append([]byte{}, raw...)
		case versionedVersionField:
			vc, err := DecodeVectorClock(raw)
			if err != nil {
				return 0, err
			}
			v.Version = vc
		}
		return n, nil
	})
	if err != nil {
		return domain.Versioned{}, fmt.Errorf("versioned: %w", err)
	}
	return v, nil
}

// appendVersionedList appends a sibling list under the given field number.
func appendVersionedList(b []byte, num protowire.Number, list []domain.Versioned) []byte {
	for _, v := range list {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, AppendVersioned(nil, v))
	}
	return b
}

// EncodeVersionedList encodes a sibling list as a standalone message.
func EncodeVersionedList(list []domain.Versioned) []byte {
	return appendVersionedList(nil, versionedListField, list)
}

// DecodeVersionedList parses a message produced by EncodeVersionedList.
func DecodeVersionedList(b []byte) ([]domain.Versioned, error) {
	var list []domain.Versioned
	err := forEachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != versionedListField || typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		v, err := DecodeVersioned(raw)
		if err != nil {
			return 0, err
		}
		list = append(list, v)
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// forEachField walks the top-level fields of a message. fn receives the
// buffer positioned after the tag and returns how many bytes it consumed;
// a negative count is a protowire parse error.
func forEachField(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}
