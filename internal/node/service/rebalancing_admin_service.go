package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/gosdk/logger"
)

type rebalancingAdminService struct {
	parent *KVServiceImpl
}

func newRebalancingAdminService(parent *KVServiceImpl) *rebalancingAdminService {
	return &rebalancingAdminService{parent: parent}
}

func (s *rebalancingAdminService) status(ctx context.Context) port.RebalancingStatus {
	meta := s.parent.metadata
	st := port.RebalancingStatus{
		ServerState: meta.ServerState(),
		DonorNodeID: -1,
	}

	plan, ok := meta.RebalancingPlan()
	if !ok {
		return st
	}
	st.DonorNodeID = plan.DonorNodeID
	st.Partitions = plan.Partitions

	names := meta.StoreNames()
	sort.Strings(names)
	st.DonorStores = make(map[string]bool, len(names))
	for _, name := range names {
		st.DonorStores[name] = s.parent.repository.HasNodeStore(name, plan.DonorNodeID)
	}
	return st
}

// start publishes the plan before taking ownership of the partitions in the
// ring, so requests routed here for a stolen partition are already proxied.
func (s *rebalancingAdminService) start(ctx context.Context, plan domain.RebalancingPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	if plan.DonorNodeID == s.parent.selfID {
		return &domain.ValidationError{Field: "donor_node_id", Reason: "must not be this node"}
	}
	if _, ok := s.parent.ring.Node(int(plan.DonorNodeID)); !ok {
		return &domain.ValidationError{Field: "donor_node_id", Reason: "is not a cluster node"}
	}

	total := s.parent.ring.NumPartitions()
	partitions := make([]int, 0, len(plan.Partitions))
	for _, p := range plan.Partitions {
		if int(p) >= total {
			return &domain.ValidationError{Field: "partitions", Reason: fmt.Sprintf("partition %d out of range [0,%d)", p, total)}
		}
		partitions = append(partitions, int(p))
	}

	if err := s.parent.metadata.BeginRebalancing(plan); err != nil {
		return err
	}
	if err := s.parent.ring.AssignPartitions(int(s.parent.selfID), partitions); err != nil {
		if rollbackErr := s.parent.metadata.EndRebalancing(); rollbackErr != nil {
			logger.Errorw("Failed to roll back rebalancing state", "error", rollbackErr.Error())
		}
		return fmt.Errorf("failed to assign stolen partitions: %w", err)
	}

	logger.Infow("Rebalancing started", "donor", plan.DonorNodeID, "partitions", plan.Partitions)
	return nil
}

func (s *rebalancingAdminService) finish(ctx context.Context) error {
	plan, ok := s.parent.metadata.RebalancingPlan()
	if err := s.parent.metadata.EndRebalancing(); err != nil {
		return err
	}
	if ok {
		logger.Infow("Rebalancing finished", "donor", plan.DonorNodeID, "partitions", plan.Partitions)
	}
	return nil
}
