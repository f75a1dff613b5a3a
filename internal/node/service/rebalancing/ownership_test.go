package rebalancing

import (
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service/mocks"
)

func TestOwnershipChecker_BelongsToStolenPartition(t *testing.T) {
	key := domain.Key("k")

	tests := []struct {
		name       string
		stolen     []domain.PartitionID
		hasRouting bool
		partitions []domain.PartitionID
		want       bool
	}{
		{name: "nothing stolen", stolen: nil, want: false},
		{name: "master partition stolen", stolen: []domain.PartitionID{3}, hasRouting: true, partitions: []domain.PartitionID{3, 4}, want: true},
		{name: "replica partition stolen", stolen: []domain.PartitionID{1, 4}, hasRouting: true, partitions: []domain.PartitionID{3, 4}, want: true},
		{name: "no intersection", stolen: []domain.PartitionID{0, 1}, hasRouting: true, partitions: []domain.PartitionID{3, 4}, want: false},
		{name: "unknown store", stolen: []domain.PartitionID{3}, hasRouting: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			meta := mocks.NewMockMetadataStore(ctrl)
			if tt.stolen == nil {
				meta.EXPECT().RebalancingPlan().Return(domain.RebalancingPlan{}, false)
			} else {
				meta.EXPECT().RebalancingPlan().Return(domain.RebalancingPlan{DonorNodeID: 1, Partitions: tt.stolen}, true)
			}

			if len(tt.stolen) > 0 {
				if tt.hasRouting {
					strategy := mocks.NewMockRoutingStrategy(ctrl)
					strategy.EXPECT().PartitionList([]byte(key)).Return(tt.partitions)
					meta.EXPECT().RoutingStrategy(storeName).Return(strategy, true)
				} else {
					meta.EXPECT().RoutingStrategy(storeName).Return(nil, false)
				}
			}

			got := NewOwnershipChecker(storeName, meta).BelongsToStolenPartition(key)
			if got != tt.want {
				t.Fatalf("BelongsToStolenPartition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOwnershipChecker_BelongsToPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	key := domain.Key("k")

	// The plan is supplied by the caller, so the stolen set is never read
	// from the metadata store.
	meta := mocks.NewMockMetadataStore(ctrl)
	strategy := mocks.NewMockRoutingStrategy(ctrl)
	meta.EXPECT().RoutingStrategy(storeName).Return(strategy, true).Times(2)
	strategy.EXPECT().PartitionList([]byte(key)).Return([]domain.PartitionID{3, 4}).Times(2)

	checker := NewOwnershipChecker(storeName, meta)
	if !checker.BelongsToPlan(key, domain.RebalancingPlan{DonorNodeID: 1, Partitions: []domain.PartitionID{4}}) {
		t.Fatal("expected key to belong to plan with partition 4")
	}
	if checker.BelongsToPlan(key, domain.RebalancingPlan{DonorNodeID: 1, Partitions: []domain.PartitionID{5}}) {
		t.Fatal("expected key outside plan with partition 5")
	}
	if checker.BelongsToPlan(key, domain.RebalancingPlan{}) {
		t.Fatal("expected empty plan to own nothing")
	}
}
