package port

import (
	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
)

//go:generate mockgen -destination=../service/mocks/metadata_mock.go -package=mocks -source=metadata.go

// MetadataStore exposes the rebalancing state of this node. Every getter
// returns the current value; callers must not cache the results.
type MetadataStore interface {
	// ServerState returns the rebalancing role of this node.
	ServerState() domain.ServerState

	// RebalancingDonorNodeID returns the node partitions are being stolen from.
	RebalancingDonorNodeID() domain.NodeID

	// RebalancingPartitions returns the partitions being stolen.
	RebalancingPartitions() []domain.PartitionID

	// RebalancingPlan returns donor and partitions from a single snapshot.
	// ok is false when no rebalancing is in progress.
	RebalancingPlan() (plan domain.RebalancingPlan, ok bool)

	// RoutingStrategy returns the routing strategy of a store.
	RoutingStrategy(storeName string) (RoutingStrategy, bool)
}

// RoutingStrategy maps a key to its replica partitions and their owners.
type RoutingStrategy interface {
	// PartitionList returns the key's partitions in preference order.
	PartitionList(key []byte) []domain.PartitionID

	// RouteRequest returns the owners of PartitionList(key), in order.
	RouteRequest(key []byte) []shard.Node
}
