package rebalancing

import (
	"context"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
)

// RedirectingStore serves a store on a node that is stealing partitions.
// While the node is the rebalancing master, a Get or Put of a key in a
// stolen partition first pulls the donor's versions of that key into the
// wrapped store. All other requests go straight to the wrapped store.
//
// Delete is not redirected. A key deleted here while its partition is still
// migrating can come back when a later Get or Put reconciles it against a
// donor that still holds the old version.
type RedirectingStore struct {
	inner      port.Store
	metadata   port.MetadataStore
	ownership  *OwnershipChecker
	reconciler *Reconciler
}

// Ensure RedirectingStore implements port.Store.
var _ port.Store = (*RedirectingStore)(nil)

// NewRedirectingStore wraps inner. Donor handles are looked up in repository
// by the name of inner.
func NewRedirectingStore(inner port.Store, metadata port.MetadataStore, repository port.StoreRepository, metrics Metrics) *RedirectingStore {
	name := inner.Name()
	return &RedirectingStore{
		inner:      inner,
		metadata:   metadata,
		ownership:  NewOwnershipChecker(name, metadata),
		reconciler: NewReconciler(name, inner, metadata, repository, metrics),
	}
}

func (s *RedirectingStore) Name() string {
	return s.inner.Name()
}

// Get reconciles the key when it is being migrated, then reads the wrapped store.
func (s *RedirectingStore) Get(ctx context.Context, key domain.Key) ([]domain.Versioned, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := s.redirect(ctx, key); err != nil {
		return nil, err
	}
	return s.inner.Get(ctx, key)
}

// Put reconciles the key when it is being migrated, then writes the caller's
// version. ErrObsoleteVersion from that write is returned to the caller.
func (s *RedirectingStore) Put(ctx context.Context, key domain.Key, value domain.Versioned) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := value.Validate(); err != nil {
		return err
	}
	if err := s.redirect(ctx, key); err != nil {
		return err
	}
	return s.inner.Put(ctx, key, value)
}

// Delete passes through to the wrapped store.
func (s *RedirectingStore) Delete(ctx context.Context, key domain.Key, version domain.VectorClock) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}
	return s.inner.Delete(ctx, key, version)
}

func (s *RedirectingStore) Close() error {
	return s.inner.Close()
}

// redirect reads the plan once so the ownership check and the reconciler
// agree on donor and partitions. A plan cleared after the state was read
// means rebalancing has ended and the request passes through.
func (s *RedirectingStore) redirect(ctx context.Context, key domain.Key) error {
	if s.metadata.ServerState() != domain.ServerStateRebalancingMaster {
		return nil
	}
	plan, ok := s.metadata.RebalancingPlan()
	if !ok {
		return nil
	}
	if !s.ownership.BelongsToPlan(key, plan) {
		return nil
	}
	_, err := s.reconciler.ReconcileFrom(ctx, key, plan.DonorNodeID)
	return err
}
