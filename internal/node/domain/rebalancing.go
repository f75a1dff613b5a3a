package domain

import (
	"fmt"
	"sort"
)

// ServerState is the rebalancing role of a node. It is written by the
// rebalancing orchestrator and read on every request.
type ServerState string

const (
	ServerStateNormal            ServerState = "NORMAL_SERVER"
	ServerStateRebalancingMaster ServerState = "REBALANCING_MASTER_SERVER"
	ServerStateRebalancingSlave  ServerState = "REBALANCING_SLAVE_SERVER"
)

// ParseServerState accepts the wire names of the states.
func ParseServerState(s string) (ServerState, error) {
	switch st := ServerState(s); st {
	case ServerStateNormal, ServerStateRebalancingMaster, ServerStateRebalancingSlave:
		return st, nil
	default:
		return "", &ValidationError{Field: "server_state", Reason: fmt.Sprintf("unknown value %q", s)}
	}
}

// RebalancingPlan describes what this node is stealing and from whom.
type RebalancingPlan struct {
	DonorNodeID NodeID        `json:"donor_node_id"`
	Partitions  []PartitionID `json:"partitions"`
}

// Validate rejects plans that cannot drive proxying.
func (p RebalancingPlan) Validate() error {
	if p.DonorNodeID < 0 {
		return &ValidationError{Field: "donor_node_id", Reason: "must not be negative"}
	}
	if len(p.Partitions) == 0 {
		return &ValidationError{Field: "partitions", Reason: "must not be empty"}
	}
	for _, id := range p.Partitions {
		if id < 0 {
			return &ValidationError{Field: "partitions", Reason: "must not contain negative ids"}
		}
	}
	return nil
}

// Normalized returns a copy with sorted, de-duplicated partitions.
func (p RebalancingPlan) Normalized() RebalancingPlan {
	seen := make(map[PartitionID]struct{}, len(p.Partitions))
	parts := make([]PartitionID, 0, len(p.Partitions))
	for _, id := range p.Partitions {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		parts = append(parts, id)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i] < parts[j] })
	return RebalancingPlan{DonorNodeID: p.DonorNodeID, Partitions: parts}
}
