package rebalancing

import (
	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/gosdk/logger"
)

// OwnershipChecker decides whether a key of a store falls in the partitions
// this node is currently stealing.
type OwnershipChecker struct {
	storeName string
	metadata  port.MetadataStore
}

// NewOwnershipChecker creates a checker for one store.
func NewOwnershipChecker(storeName string, metadata port.MetadataStore) *OwnershipChecker {
	return &OwnershipChecker{storeName: storeName, metadata: metadata}
}

// BelongsToStolenPartition reports whether any replica partition of the key
// is in the current stolen set. The plan is read on every call.
func (c *OwnershipChecker) BelongsToStolenPartition(key domain.Key) bool {
	plan, ok := c.metadata.RebalancingPlan()
	if !ok {
		return false
	}
	return c.BelongsToPlan(key, plan)
}

// BelongsToPlan is BelongsToStolenPartition against a plan the caller
// already holds.
func (c *OwnershipChecker) BelongsToPlan(key domain.Key, plan domain.RebalancingPlan) bool {
	stolen := plan.Partitions
	if len(stolen) == 0 {
		return false
	}

	strategy, ok := c.metadata.RoutingStrategy(c.storeName)
	if !ok {
		logger.Warnw("Ownership check without routing strategy", "store", c.storeName)
		return false
	}

	for _, p := range strategy.PartitionList(key) {
		for _, s := range stolen {
			if p == s {
				return true
			}
		}
	}
	return false
}
