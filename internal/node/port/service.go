package port

import (
	"context"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
)

//go:generate mockgen -destination=../service/mocks/service_mock.go -package=mocks -source=service.go

// KVService is the client-facing API of a node.
type KVService interface {
	// Get returns every version of the key held by the store.
	Get(ctx context.Context, storeName string, key domain.Key) ([]domain.Versioned, error)

	// Put writes value. With a nil version the node derives one that descends
	// every version it currently holds. It returns the version written.
	Put(ctx context.Context, storeName string, key domain.Key, value []byte, version *domain.VectorClock) (domain.VectorClock, error)

	// Delete removes the versions not newer than version. With a nil version
	// every version currently held is removed.
	Delete(ctx context.Context, storeName string, key domain.Key, version *domain.VectorClock) (bool, error)

	// RebalancingStatus reports the rebalancing role and plan of this node.
	RebalancingStatus(ctx context.Context) RebalancingStatus

	// StartRebalancing makes this node steal plan.Partitions from the donor.
	StartRebalancing(ctx context.Context, plan domain.RebalancingPlan) error

	// FinishRebalancing returns this node to NORMAL_SERVER.
	FinishRebalancing(ctx context.Context) error

	// Topology returns the cluster nodes as seen by this node.
	Topology(ctx context.Context) []shard.Node
}

// RebalancingStatus is the admin view of the rebalancing state.
type RebalancingStatus struct {
	ServerState domain.ServerState   `json:"server_state"`
	DonorNodeID domain.NodeID        `json:"donor_node_id"`
	Partitions  []domain.PartitionID `json:"partitions"`

	// DonorStores lists, per store, whether a handle to the donor is registered.
	DonorStores map[string]bool `json:"donor_stores,omitempty"`
}
