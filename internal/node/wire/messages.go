package wire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
)

// Message is implemented by every request and response exchanged between nodes.
type Message interface {
	Marshal() []byte
	Unmarshal(b []byte) error
}

const (
	storeField   protowire.Number = 1
	keyField     protowire.Number = 2
	payloadField protowire.Number = 3
)

// GetRequest asks a node for every version of a key held by one of its stores.
type GetRequest struct {
	Store string
	Key   []byte
}

func (m *GetRequest) Marshal() []byte {
	return appendStoreKey(nil, m.Store, m.Key)
}

func (m *GetRequest) Unmarshal(b []byte) error {
	return forEachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		return consumeStoreKey(num, typ, b, &m.Store, &m.Key), nil
	})
}

// GetResponse carries the siblings of a key, possibly none.
type GetResponse struct {
	Versions []domain.Versioned
}

func (m *GetResponse) Marshal() []byte {
	return appendVersionedList(nil, versionedListField, m.Versions)
}

func (m *GetResponse) Unmarshal(b []byte) error {
	list, err := DecodeVersionedList(b)
	if err != nil {
		return err
	}
	m.Versions = list
	return nil
}

// PutRequest writes one version of a key.
type PutRequest struct {
	Store string
	Key   []byte
	Value domain.Versioned
}

func (m *PutRequest) Marshal() []byte {
	b := appendStoreKey(nil, m.Store, m.Key)
	b = protowire.AppendTag(b, payloadField, protowire.BytesType)
	return protowire.AppendBytes(b, AppendVersioned(nil, m.Value))
}

func (m *PutRequest) Unmarshal(b []byte) error {
	return forEachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != payloadField || typ != protowire.BytesType {
			return consumeStoreKey(num, typ, b, &m.Store, &m.Key), nil
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		v, err := DecodeVersioned(raw)
		if err != nil {
			return 0, err
		}
		m.Value = v
		return n, nil
	})
}

// PutResponse is empty; failures travel as gRPC status codes.
type PutResponse struct{}

func (m *PutResponse) Marshal() []byte          { return nil }
func (m *PutResponse) Unmarshal(b []byte) error { return nil }

// DeleteRequest removes the versions of a key not newer than Version.
type DeleteRequest struct {
	Store   string
	Key     []byte
	Version domain.VectorClock
}

func (m *DeleteRequest) Marshal() []byte {
	b := appendStoreKey(nil, m.Store, m.Key)
	b = protowire.AppendTag(b, payloadField, protowire.BytesType)
	return protowire.AppendBytes(b, AppendVectorClock(nil, m.Version))
}

func (m *DeleteRequest) Unmarshal(b []byte) error {
	m.Version = domain.NewVectorClock()
	return forEachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != payloadField || typ != protowire.BytesType {
			return consumeStoreKey(num, typ, b, &m.Store, &m.Key), nil
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		vc, err := DecodeVectorClock(raw)
		if err != nil {
			return 0, err
		}
		m.Version = vc
		return n, nil
	})
}

type DeleteResponse struct {
	Deleted bool
}

func (m *DeleteResponse) Marshal() []byte {
	if !m.Deleted {
		return nil
	}
	b := protowire.AppendTag(nil, 1, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(true))
}

func (m *DeleteResponse) Unmarshal(b []byte) error {
	return forEachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 || typ != protowire.VarintType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeVarint(b)
		m.Deleted = protowire.DecodeBool(v)
		return n, nil
	})
}

type TopologyRequest struct{}

func (m *TopologyRequest) Marshal() []byte          { return nil }
func (m *TopologyRequest) Unmarshal(b []byte) error { return nil }

// TopologyResponse lists the cluster nodes as seen by the answering node.
//
//	1: repeated node { 1: id, 2: addr, 3: packed partitions, 4: status }
type TopologyResponse struct {
	Nodes []shard.Node
}

func (m *TopologyResponse) Marshal() []byte {
	var b []byte
	for _, n := range m.Nodes {
		var nb []byte
		nb = protowire.AppendTag(nb, 1, protowire.VarintType)
		nb = protowire.AppendVarint(nb, uint64(n.ID))
		nb = protowire.AppendTag(nb, 2, protowire.BytesType)
		nb = protowire.AppendString(nb, n.Addr)

		var packed []byte
		for _, p := range n.Partitions {
			packed = protowire.AppendVarint(packed, uint64(p))
		}
		nb = protowire.AppendTag(nb, 3, protowire.BytesType)
		nb = protowire.AppendBytes(nb, packed)
		nb = protowire.AppendTag(nb, 4, protowire.BytesType)
		nb = protowire.AppendString(nb, string(n.Status))

		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, nb)
	}
	return b
}

func (m *TopologyResponse) Unmarshal(b []byte) error {
	return forEachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 || typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		node, err := decodeNode(raw)
		if err != nil {
			return 0, err
		}
		m.Nodes = append(m.Nodes, node)
		return n, nil
	})
}

func decodeNode(b []byte) (shard.Node, error) {
	var node shard.Node
	err := forEachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			node.ID = int(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			node.Addr = v
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return m, nil
				}
				node.Partitions = append(node.Partitions, int(v))
				packed = packed[m:]
			}
			return n, nil
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			node.Status = shard.NodeStatus(v)
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	return node, err
}

func appendStoreKey(b []byte, store string, key []byte) []byte {
	b = protowire.AppendTag(b, storeField, protowire.BytesType)
	b = protowire.AppendString(b, store)
	b = protowire.AppendTag(b, keyField, protowire.BytesType)
	return protowire.AppendBytes(b, key)
}

func consumeStoreKey(num protowire.Number, typ protowire.Type, b []byte, store *string, key *[]byte) int {
	if typ != protowire.BytesType {
		return protowire.ConsumeFieldValue(num, typ, b)
	}
	switch num {
	case storeField:
		v, n := protowire.ConsumeString(b)
		*store = v
		return n
	case keyField:
		v, n := protowire.ConsumeBytes(b)
		*key = append([]byte{}, v...)
		return n
	default:
		return protowire.ConsumeFieldValue(num, typ, b)
	}
}
