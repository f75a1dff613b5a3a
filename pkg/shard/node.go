package shard

import (
	"fmt"
)

// Node represents a physical node in the cluster together with the
// partitions it owns.
type Node struct {
	ID         int        `json:"id"`
	Addr       string     `json:"addr"`
	Partitions []int      `json:"partitions"`
	Status     NodeStatus `json:"status"`
}

type NodeStatus string

const (
	NodeStatusHealthy   NodeStatus = "healthy"
	NodeStatusUnhealthy NodeStatus = "unhealthy"
	NodeStatusLeft      NodeStatus = "left"
)

func (n Node) String() string {
	return fmt.Sprintf("%d@%s[%s]", n.ID, n.Addr, n.Status)
}

func (n Node) clone() Node {
	out := n
	out.Partitions = append([]int(nil), n.Partitions...)
	return out
}
