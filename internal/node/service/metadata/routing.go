package metadata

import (
	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
)

// routingStrategy exposes a shard.ConsistentStrategy through the port types.
type routingStrategy struct {
	strategy *shard.ConsistentStrategy
}

// NewRoutingStrategy builds the routing strategy of a store over the ring.
func NewRoutingStrategy(ring *shard.Ring, replicationFactor int) port.RoutingStrategy {
	return &routingStrategy{strategy: shard.NewConsistentStrategy(ring, replicationFactor)}
}

func (r *routingStrategy) PartitionList(key []byte) []domain.PartitionID {
	parts := r.strategy.PartitionList(key)
	out := make([]domain.PartitionID, len(parts))
	for i, p := range parts {
		out[i] = domain.PartitionID(p)
	}
	return out
}

func (r *routingStrategy) RouteRequest(key []byte) []shard.Node {
	return r.strategy.RouteRequest(key)
}
