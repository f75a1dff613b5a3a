package domain

import (
	"fmt"
	"sort"
	"strings"
)

// NodeID identifies a node of the cluster.
type NodeID int

// PartitionID identifies a fixed partition of the key space.
type PartitionID int

// Occurred is the causal relation between two versions.
type Occurred int

const (
	// Before means the receiver is an ancestor of (or equal to) the other version.
	Before Occurred = iota
	// After means the receiver descends from the other version.
	After
	// Concurrently means neither version descends from the other.
	Concurrently
)

func (o Occurred) String() string {
	switch o {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "concurrently"
	}
}

// VectorClock maps node IDs to write counters and carries the wall-clock time
// (milliseconds) of the last increment. A missing node counts as zero.
type VectorClock struct {
	Versions  map[NodeID]uint64 `json:"versions"`
	Timestamp int64             `json:"timestamp"`
}

// NewVectorClock returns an empty clock.
func NewVectorClock() VectorClock {
	return VectorClock{Versions: make(map[NodeID]uint64)}
}

// Incremented returns a copy of the clock with the counter of nodeID bumped.
func (vc VectorClock) Incremented(nodeID NodeID, timestamp int64) VectorClock {
	out := vc.Clone()
	out.Versions[nodeID]++
	out.Timestamp = timestamp
	return out
}

// Merge returns the element-wise maximum of both clocks.
func (vc VectorClock) Merge(other VectorClock) VectorClock {
	out := vc.Clone()
	for id, v := range other.Versions {
		if out.Versions[id] < v {
			out.Versions[id] = v
		}
	}
	if other.Timestamp > out.Timestamp {
		out.Timestamp = other.Timestamp
	}
	return out
}

// Clone deep-copies the clock.
func (vc VectorClock) Clone() VectorClock {
	out := VectorClock{
		Versions:  make(map[NodeID]uint64, len(vc.Versions)),
		Timestamp: vc.Timestamp,
	}
	for id, v := range vc.Versions {
		out.Versions[id] = v
	}
	return out
}

// Compare reports how vc relates to other. Equal clocks compare as Before so
// that re-applying an identical version is treated as obsolete.
func (vc VectorClock) Compare(other VectorClock) Occurred {
	vcBigger, otherBigger := false, false

	for id, v := range vc.Versions {
		o := other.Versions[id]
		if v > o {
			vcBigger = true
		} else if v < o {
			otherBigger = true
		}
	}
	for id, o := range other.Versions {
		if _, ok := vc.Versions[id]; !ok && o > 0 {
			otherBigger = true
		}
	}

	switch {
	case vcBigger && !otherBigger:
		return After
	case !vcBigger:
		return Before
	default:
		return Concurrently
	}
}

// Descends reports whether vc is equal to or a successor of other.
func (vc VectorClock) Descends(other VectorClock) bool {
	return other.Compare(vc) == Before
}

// Equal compares counters only; timestamps are informational.
func (vc VectorClock) Equal(other VectorClock) bool {
	return vc.Compare(other) == Before && other.Compare(vc) == Before
}

func (vc VectorClock) String() string {
	ids := make([]int, 0, len(vc.Versions))
	for id := range vc.Versions {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d:%d", id, vc.Versions[NodeID(id)]))
	}
	return fmt.Sprintf("version(%s) ts:%d", strings.Join(parts, ", "), vc.Timestamp)
}
