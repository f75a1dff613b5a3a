package shard

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/spaolacci/murmur3"
)

var (
	ErrNoPartitions      = errors.New("ring has no partitions")
	ErrPartitionConflict = errors.New("partition owned by more than one node")
	ErrPartitionGap      = errors.New("partition has no owner")
	ErrUnknownNode       = errors.New("unknown node")
)

// Ring maps a fixed set of partitions onto the physical nodes owning them.
// The number of partitions never changes; rebalancing moves partitions
// between nodes.
type Ring struct {
	mu     sync.RWMutex
	owners []int // partition id -> node id
	nodes  map[int]Node
}

// NewRing builds a ring from a cluster definition. Every partition in
// [0, total) must be owned by exactly one node.
func NewRing(nodes []Node) (*Ring, error) {
	total := 0
	for _, n := range nodes {
		total += len(n.Partitions)
	}
	if total == 0 {
		return nil, ErrNoPartitions
	}

	owners := make([]int, total)
	for i := range owners {
		owners[i] = -1
	}

	r := &Ring{owners: owners, nodes: make(map[int]Node, len(nodes))}
	for _, n := range nodes {
		if _, dup := r.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %d", n.ID)
		}
		if n.Status == "" {
			n.Status = NodeStatusHealthy
		}
		for _, p := range n.Partitions {
			if p < 0 || p >= total {
				return nil, fmt.Errorf("%w: partition %d out of range [0,%d)", ErrPartitionGap, p, total)
			}
			if owners[p] != -1 {
				return nil, fmt.Errorf("%w: partition %d (nodes %d and %d)", ErrPartitionConflict, p, owners[p], n.ID)
			}
			owners[p] = n.ID
		}
		r.nodes[n.ID] = n.clone()
	}
	for p, owner := range owners {
		if owner == -1 {
			return nil, fmt.Errorf("%w: partition %d", ErrPartitionGap, p)
		}
	}
	return r, nil
}

// NumPartitions returns the fixed partition count.
func (r *Ring) NumPartitions() int {
	return len(r.owners)
}

// MasterPartition returns the partition a key hashes to.
func (r *Ring) MasterPartition(key []byte) int {
	return int(murmur3.Sum32(key) % uint32(len(r.owners)))
}

// PartitionOwner returns the node currently owning a partition.
func (r *Ring) PartitionOwner(partition int) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if partition < 0 || partition >= len(r.owners) {
		return Node{}, false
	}
	n, ok := r.nodes[r.owners[partition]]
	return n.clone(), ok
}

// UpdateNode refreshes the address and status of a known node, keeping its
// partitions. Unknown nodes are rejected: membership cannot invent partition
// ownership.
func (r *Ring) UpdateNode(id int, addr string, status NodeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, exists := r.nodes[id]
	if !exists {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	if addr != "" {
		node.Addr = addr
	}
	if status != "" {
		node.Status = status
	}
	r.nodes[id] = node
	return nil
}

// SetNodeStatus updates the status of a node without touching its partitions.
func (r *Ring) SetNodeStatus(id int, status NodeStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if node, exists := r.nodes[id]; exists {
		node.Status = status
		r.nodes[id] = node
	}
}

// AssignPartitions moves the given partitions to node id.
func (r *Ring) AssignPartitions(id int, partitions []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, exists := r.nodes[id]
	if !exists {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	for _, p := range partitions {
		if p < 0 || p >= len(r.owners) {
			return fmt.Errorf("%w: partition %d out of range [0,%d)", ErrPartitionGap, p, len(r.owners))
		}
	}

	for _, p := range partitions {
		prev := r.owners[p]
		if prev == id {
			continue
		}
		if donor, ok := r.nodes[prev]; ok {
			donor.Partitions = removePartition(donor.Partitions, p)
			r.nodes[prev] = donor
		}
		r.owners[p] = id
		target.Partitions = append(target.Partitions, p)
	}
	sort.Ints(target.Partitions)
	r.nodes[id] = target
	return nil
}

// Node returns a node by id.
func (r *Ring) Node(id int) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.nodes[id]
	return n.clone(), ok
}

// GetNodes returns all physical nodes in the ring, ordered by id.
func (r *Ring) GetNodes() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		nodes = append(nodes, n.clone())
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

func removePartition(parts []int, p int) []int {
	out := parts[:0]
	for _, x := range parts {
		if x != p {
			out = append(out, x)
		}
	}
	return out
}
