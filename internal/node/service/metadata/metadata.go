package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/gosdk/logger"
)

const stateFileName = "rebalancing.json"

var ErrRebalancingInProgress = errors.New("rebalancing already in progress")

// snapshot is never mutated after publication.
type snapshot struct {
	State ServerStateRecord
}

// ServerStateRecord is the persisted form of the rebalancing state.
type ServerStateRecord struct {
	ServerState domain.ServerState      `json:"server_state"`
	Plan        *domain.RebalancingPlan `json:"plan,omitempty"`
}

// Store holds the rebalancing state of this node and the routing strategy of
// each store. Readers load an immutable snapshot; writers are serialized.
type Store struct {
	writeMu    sync.Mutex
	current    atomic.Pointer[snapshot]
	strategies map[string]port.RoutingStrategy
	path       string
}

// Ensure Store implements port.MetadataStore.
var _ port.MetadataStore = (*Store)(nil)

// NewStore creates a store in NORMAL_SERVER state. When dataDir is not empty
// the state is persisted there and reloaded from a previous run.
func NewStore(dataDir string, strategies map[string]port.RoutingStrategy) (*Store, error) {
	s := &Store{strategies: strategies}
	s.current.Store(&snapshot{State: ServerStateRecord{ServerState: domain.ServerStateNormal}})

	if dataDir == "" {
		return s, nil
	}
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}
	s.path = filepath.Join(dataDir, stateFileName)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var rec ServerStateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if _, err := domain.ParseServerState(string(rec.ServerState)); err != nil {
		return nil, err
	}
	s.current.Store(&snapshot{State: rec})
	logger.Infow("Rebalancing state restored", "server_state", rec.ServerState, "plan", rec.Plan)
	return s, nil
}

func (s *Store) ServerState() domain.ServerState {
	return s.current.Load().State.ServerState
}

func (s *Store) RebalancingDonorNodeID() domain.NodeID {
	plan := s.current.Load().State.Plan
	if plan == nil {
		return -1
	}
	return plan.DonorNodeID
}

// RebalancingPartitions returns the stolen partitions. The slice is shared and
// must not be modified.
func (s *Store) RebalancingPartitions() []domain.PartitionID {
	plan := s.current.Load().State.Plan
	if plan == nil {
		return nil
	}
	return plan.Partitions
}

// RebalancingPlan returns a copy of the current plan, if any.
func (s *Store) RebalancingPlan() (domain.RebalancingPlan, bool) {
	plan := s.current.Load().State.Plan
	if plan == nil {
		return domain.RebalancingPlan{}, false
	}
	out := *plan
	out.Partitions = append([]domain.PartitionID(nil), plan.Partitions...)
	return out, true
}

func (s *Store) RoutingStrategy(storeName string) (port.RoutingStrategy, bool) {
	strategy, ok := s.strategies[storeName]
	return strategy, ok
}

// StoreNames returns the stores a routing strategy is known for.
func (s *Store) StoreNames() []string {
	names := make([]string, 0, len(s.strategies))
	for name := range s.strategies {
		names = append(names, name)
	}
	return names
}

// SetServerState changes the state and keeps the plan.
func (s *Store) SetServerState(state domain.ServerState) error {
	if _, err := domain.ParseServerState(string(state)); err != nil {
		return err
	}
	return s.update(func(rec *ServerStateRecord) error {
		rec.ServerState = state
		return nil
	})
}

// SetRebalancingPlan replaces the plan and keeps the state.
func (s *Store) SetRebalancingPlan(plan *domain.RebalancingPlan) error {
	if plan != nil {
		if err := plan.Validate(); err != nil {
			return err
		}
		normalized := plan.Normalized()
		plan = &normalized
	}
	return s.update(func(rec *ServerStateRecord) error {
		rec.Plan = plan
		return nil
	})
}

// BeginRebalancing publishes the plan, then switches to
// REBALANCING_MASTER_SERVER. A reader that sees the new state always sees
// the plan.
func (s *Store) BeginRebalancing(plan domain.RebalancingPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	if s.ServerState() == domain.ServerStateRebalancingMaster {
		return ErrRebalancingInProgress
	}
	if err := s.SetRebalancingPlan(&plan); err != nil {
		return err
	}
	return s.SetServerState(domain.ServerStateRebalancingMaster)
}

// EndRebalancing switches back to NORMAL_SERVER, then clears the plan.
func (s *Store) EndRebalancing() error {
	if err := s.SetServerState(domain.ServerStateNormal); err != nil {
		return err
	}
	return s.SetRebalancingPlan(nil)
}

func (s *Store) update(mutate func(rec *ServerStateRecord) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rec := s.current.Load().State
	if err := mutate(&rec); err != nil {
		return err
	}
	if err := s.persist(rec); err != nil {
		return err
	}
	s.current.Store(&snapshot{State: rec})
	return nil
}

// persist replaces the state file through a temp file and a rename.
func (s *Store) persist(rec ServerStateRecord) error {
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to publish metadata: %w", err)
	}
	return nil
}
