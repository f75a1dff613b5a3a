package rebalancing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service/mocks"
)

type countingMetrics struct {
	mu        sync.Mutex
	fetches   int
	completed map[bool]int
	applied   map[domain.ApplyOutcome]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		completed: make(map[bool]int),
		applied:   make(map[domain.ApplyOutcome]int),
	}
}

type countingTimer struct{ m *countingMetrics }

func (t countingTimer) ObserveDuration() {
	t.m.mu.Lock()
	t.m.fetches++
	t.m.mu.Unlock()
}

func (m *countingMetrics) DonorFetchDuration(string) Timer { return countingTimer{m} }

func (m *countingMetrics) ReconcileCompleted(_ string, success bool) {
	m.mu.Lock()
	m.completed[success]++
	m.mu.Unlock()
}

func (m *countingMetrics) VersionApplied(_ string, outcome domain.ApplyOutcome) {
	m.mu.Lock()
	m.applied[outcome]++
	m.mu.Unlock()
}

func (m *countingMetrics) reconciles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed[true] + m.completed[false]
}

func (m *countingMetrics) outcomes(o domain.ApplyOutcome) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied[o]
}

func TestReconciler_Reconcile(t *testing.T) {
	key := domain.Key("k")
	v1 := domain.NewVersioned([]byte("v1"), clockOf(1, 1))
	v2 := domain.NewVersioned([]byte("v2"), clockOf(2, 1))
	fetchErr := &domain.ConnectivityError{StoreName: storeName, NodeID: donorID, Err: errors.New("connection refused")}
	diskErr := errors.New("disk full")

	tests := []struct {
		name          string
		setup         func(local *mocks.MockStorageEngine, donor *mocks.MockStore)
		wantResult    ReconcileResult
		wantErr       error
		wantSucceeded bool
	}{
		{
			name: "no versions on donor",
			setup: func(local *mocks.MockStorageEngine, donor *mocks.MockStore) {
				donor.EXPECT().Get(gomock.Any(), key).Return(nil, nil)
			},
			wantResult:    ReconcileResult{Donor: donorID},
			wantSucceeded: true,
		},
		{
			name: "applies and skips dominated versions",
			setup: func(local *mocks.MockStorageEngine, donor *mocks.MockStore) {
				donor.EXPECT().Get(gomock.Any(), key).Return([]domain.Versioned{v1, v2}, nil)
				gomock.InOrder(
					local.EXPECT().Apply(gomock.Any(), key, v1).Return(domain.Applied, nil),
					local.EXPECT().Apply(gomock.Any(), key, v2).Return(domain.Dominated, nil),
				)
			},
			wantResult:    ReconcileResult{Donor: donorID, Fetched: 2, Applied: 1, Dominated: 1},
			wantSucceeded: true,
		},
		{
			name: "donor fetch failure",
			setup: func(local *mocks.MockStorageEngine, donor *mocks.MockStore) {
				donor.EXPECT().Get(gomock.Any(), key).Return(nil, fetchErr)
			},
			wantResult: ReconcileResult{Donor: donorID},
			wantErr:    domain.ErrConnectivity,
		},
		{
			name: "local apply failure stops the loop",
			setup: func(local *mocks.MockStorageEngine, donor *mocks.MockStore) {
				donor.EXPECT().Get(gomock.Any(), key).Return([]domain.Versioned{v1, v2}, nil)
				local.EXPECT().Apply(gomock.Any(), key, v1).Return(domain.Applied, diskErr)
			},
			wantResult: ReconcileResult{Donor: donorID, Fetched: 2},
			wantErr:    diskErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			local := mocks.NewMockStorageEngine(ctrl)
			donor := mocks.NewMockStore(ctrl)
			meta := mocks.NewMockMetadataStore(ctrl)
			repo := mocks.NewMockStoreRepository(ctrl)

			meta.EXPECT().RebalancingPlan().Return(domain.RebalancingPlan{DonorNodeID: donorID, Partitions: []domain.PartitionID{1}}, true)
			repo.EXPECT().NodeStore(storeName, donorID).Return(donor, true)
			tt.setup(local, donor)

			metrics := newCountingMetrics()
			r := NewReconciler(storeName, local, meta, repo, metrics)
			result, err := r.Reconcile(context.Background(), key)

			assert.Equal(t, tt.wantResult, result)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, 1, metrics.completed[tt.wantSucceeded])
			assert.Equal(t, 1, metrics.fetches)
		})
	}
}

func TestReconciler_MissingDonorStore(t *testing.T) {
	ctrl := gomock.NewController(t)

	local := mocks.NewMockStorageEngine(ctrl)
	meta := mocks.NewMockMetadataStore(ctrl)
	repo := mocks.NewMockStoreRepository(ctrl)

	meta.EXPECT().RebalancingPlan().Return(domain.RebalancingPlan{DonorNodeID: donorID, Partitions: []domain.PartitionID{1}}, true)
	repo.EXPECT().NodeStore(storeName, donorID).Return(nil, false)

	_, err := NewReconciler(storeName, local, meta, repo, nil).Reconcile(context.Background(), domain.Key("k"))

	var connErr *domain.ConnectivityError
	require.True(t, errors.As(err, &connErr), "got %v", err)
	assert.Equal(t, donorID, connErr.NodeID)
	assert.True(t, errors.Is(err, errNoDonorStore))
}

func TestReconciler_PlainStoreTreatsObsoleteAsDominated(t *testing.T) {
	ctrl := gomock.NewController(t)

	key := domain.Key("k")
	v1 := domain.NewVersioned([]byte("v1"), clockOf(1, 1))
	v2 := domain.NewVersioned([]byte("v2"), clockOf(2, 1))

	local := mocks.NewMockStore(ctrl)
	donor := mocks.NewMockStore(ctrl)
	meta := mocks.NewMockMetadataStore(ctrl)
	repo := mocks.NewMockStoreRepository(ctrl)

	meta.EXPECT().RebalancingPlan().Return(domain.RebalancingPlan{DonorNodeID: donorID, Partitions: []domain.PartitionID{1}}, true)
	repo.EXPECT().NodeStore(storeName, donorID).Return(donor, true)
	donor.EXPECT().Get(gomock.Any(), key).Return([]domain.Versioned{v1, v2}, nil)
	local.EXPECT().Put(gomock.Any(), key, v1).Return(&domain.ObsoleteVersionError{Key: key, Version: v1.Version})
	local.EXPECT().Put(gomock.Any(), key, v2).Return(nil)

	result, err := NewReconciler(storeName, local, meta, repo, nil).Reconcile(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Donor: donorID, Fetched: 2, Applied: 1, Dominated: 1}, result)
}

func TestReconciler_PlainStorePutFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	key := domain.Key("k")
	v1 := domain.NewVersioned([]byte("v1"), clockOf(1, 1))

	local := mocks.NewMockStore(ctrl)
	donor := mocks.NewMockStore(ctrl)
	meta := mocks.NewMockMetadataStore(ctrl)
	repo := mocks.NewMockStoreRepository(ctrl)

	meta.EXPECT().RebalancingPlan().Return(domain.RebalancingPlan{DonorNodeID: donorID, Partitions: []domain.PartitionID{1}}, true)
	repo.EXPECT().NodeStore(storeName, donorID).Return(donor, true)
	donor.EXPECT().Get(gomock.Any(), key).Return([]domain.Versioned{v1}, nil)
	local.EXPECT().Put(gomock.Any(), key, v1).Return(errors.New("io error"))

	_, err := NewReconciler(storeName, local, meta, repo, nil).Reconcile(context.Background(), key)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrObsoleteVersion))
}

func TestReconciler_WithoutPlanDoesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)

	// Neither store nor repository may be touched.
	local := mocks.NewMockStorageEngine(ctrl)
	meta := mocks.NewMockMetadataStore(ctrl)
	repo := mocks.NewMockStoreRepository(ctrl)
	meta.EXPECT().RebalancingPlan().Return(domain.RebalancingPlan{}, false)

	metrics := newCountingMetrics()
	result, err := NewReconciler(storeName, local, meta, repo, metrics).Reconcile(context.Background(), domain.Key("k"))
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Donor: -1}, result)
	assert.Equal(t, 0, metrics.reconciles())
}

func TestReconciler_ErrorsAreReturnedUnwrapped(t *testing.T) {
	ctrl := gomock.NewController(t)

	key := domain.Key("k")
	v1 := domain.NewVersioned([]byte("v1"), clockOf(1, 1))
	fetchErr := &domain.ConnectivityError{StoreName: storeName, NodeID: donorID, Err: errors.New("connection refused")}
	diskErr := errors.New("disk full")

	local := mocks.NewMockStorageEngine(ctrl)
	donor := mocks.NewMockStore(ctrl)
	repo := mocks.NewMockStoreRepository(ctrl)
	repo.EXPECT().NodeStore(storeName, donorID).Return(donor, true).Times(2)

	r := NewReconciler(storeName, local, mocks.NewMockMetadataStore(ctrl), repo, nil)

	donor.EXPECT().Get(gomock.Any(), key).Return(nil, fetchErr)
	_, err := r.ReconcileFrom(context.Background(), key, donorID)
	if err != error(fetchErr) {
		t.Fatalf("expected the donor error itself, got %v", err)
	}

	donor.EXPECT().Get(gomock.Any(), key).Return([]domain.Versioned{v1}, nil)
	local.EXPECT().Apply(gomock.Any(), key, v1).Return(domain.Applied, diskErr)
	_, err = r.ReconcileFrom(context.Background(), key, donorID)
	if err != diskErr {
		t.Fatalf("expected the apply error itself, got %v", err)
	}
}
