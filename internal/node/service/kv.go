package service

import (
	"context"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service/metadata"
	"github.com/anthanhphan/go-distributed-kv/pkg/clock"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
)

// KVServiceImpl is a facade that composes the key and rebalancing use-case services.
type KVServiceImpl struct {
	selfID     domain.NodeID
	stores     port.LocalStores
	repository port.StoreRepository
	metadata   *metadata.Store
	ring       *shard.Ring
	clock      clock.Clock

	keyOps *keyOpsService
	admin  *rebalancingAdminService
}

// Ensure KVServiceImpl implements port.KVService.
var _ port.KVService = (*KVServiceImpl)(nil)

// NewKVService builds the facade. stores serves client requests; repository
// resolves donor handles for status reporting.
func NewKVService(selfID domain.NodeID, stores port.LocalStores, repository port.StoreRepository, meta *metadata.Store, ring *shard.Ring, clk clock.Clock) *KVServiceImpl {
	if clk == nil {
		clk = &clock.SystemClock{}
	}
	svc := &KVServiceImpl{
		selfID:     selfID,
		stores:     stores,
		repository: repository,
		metadata:   meta,
		ring:       ring,
		clock:      clk,
	}

	svc.keyOps = newKeyOpsService(svc)
	svc.admin = newRebalancingAdminService(svc)

	return svc
}

// Get reads every version of a key.
func (s *KVServiceImpl) Get(ctx context.Context, storeName string, key domain.Key) ([]domain.Versioned, error) {
	return s.keyOps.get(ctx, storeName, key)
}

// Put writes a value, deriving the version when none is given.
func (s *KVServiceImpl) Put(ctx context.Context, storeName string, key domain.Key, value []byte, version *domain.VectorClock) (domain.VectorClock, error) {
	return s.keyOps.put(ctx, storeName, key, value, version)
}

// Delete removes the versions of a key not newer than version.
func (s *KVServiceImpl) Delete(ctx context.Context, storeName string, key domain.Key, version *domain.VectorClock) (bool, error) {
	return s.keyOps.delete(ctx, storeName, key, version)
}

// RebalancingStatus reports the current rebalancing state.
func (s *KVServiceImpl) RebalancingStatus(ctx context.Context) port.RebalancingStatus {
	return s.admin.status(ctx)
}

// StartRebalancing begins stealing partitions from a donor.
func (s *KVServiceImpl) StartRebalancing(ctx context.Context, plan domain.RebalancingPlan) error {
	return s.admin.start(ctx, plan)
}

// FinishRebalancing ends the current rebalancing.
func (s *KVServiceImpl) FinishRebalancing(ctx context.Context) error {
	return s.admin.finish(ctx)
}

// Topology returns the ring's view of the cluster.
func (s *KVServiceImpl) Topology(ctx context.Context) []shard.Node {
	return s.ring.GetNodes()
}
