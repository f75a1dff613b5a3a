package rebalancing

import (
	"context"
	"errors"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/gosdk/logger"
)

var errNoDonorStore = errors.New("no store handle registered for donor")

// ReconcileResult summarizes one reconciliation.
type ReconcileResult struct {
	Donor     domain.NodeID
	Fetched   int
	Applied   int
	Dominated int
}

// Reconciler copies every version of a key held by the donor into the local
// store, so the local copy is at least as new as the donor's.
type Reconciler struct {
	storeName  string
	local      port.Store
	metadata   port.MetadataStore
	repository port.StoreRepository
	metrics    Metrics
}

// NewReconciler creates a reconciler writing into local.
func NewReconciler(storeName string, local port.Store, metadata port.MetadataStore, repository port.StoreRepository, metrics Metrics) *Reconciler {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Reconciler{
		storeName:  storeName,
		local:      local,
		metadata:   metadata,
		repository: repository,
		metrics:    metrics,
	}
}

// Reconcile fetches the key from the donor of the current plan and applies
// each version locally. Versions already dominated locally are skipped. It
// makes a single attempt and stops at the first error. Without a plan there
// is nothing to reconcile against and it returns immediately.
func (r *Reconciler) Reconcile(ctx context.Context, key domain.Key) (ReconcileResult, error) {
	plan, ok := r.metadata.RebalancingPlan()
	if !ok {
		return ReconcileResult{Donor: -1}, nil
	}
	return r.ReconcileFrom(ctx, key, plan.DonorNodeID)
}

// ReconcileFrom is Reconcile against an explicit donor.
func (r *Reconciler) ReconcileFrom(ctx context.Context, key domain.Key, donor domain.NodeID) (ReconcileResult, error) {
	result, err := r.reconcile(ctx, key, donor)
	r.metrics.ReconcileCompleted(r.storeName, err == nil)
	if err != nil {
		logger.Warnw("Reconcile failed", "store", r.storeName, "key", key.String(), "donor", result.Donor, "error", err.Error())
		return result, err
	}

	logger.Debugw("Reconcile finished", "store", r.storeName, "key", key.String(), "donor", result.Donor,
		"fetched", result.Fetched, "applied", result.Applied, "dominated", result.Dominated)
	return result, nil
}

func (r *Reconciler) reconcile(ctx context.Context, key domain.Key, donor domain.NodeID) (ReconcileResult, error) {
	result := ReconcileResult{Donor: donor}

	donorStore, ok := r.repository.NodeStore(r.storeName, donor)
	if !ok {
		return result, &domain.ConnectivityError{StoreName: r.storeName, NodeID: donor, Err: errNoDonorStore}
	}

	versions, err := r.fetch(ctx, donorStore, key)
	if err != nil {
		return result, err
	}
	result.Fetched = len(versions)

	for _, v := range versions {
		outcome, err := r.apply(ctx, key, v)
		if err != nil {
			return result, err
		}
		r.metrics.VersionApplied(r.storeName, outcome)
		if outcome == domain.Dominated {
			result.Dominated++
		} else {
			result.Applied++
		}
	}
	return result, nil
}

func (r *Reconciler) fetch(ctx context.Context, donorStore port.Store, key domain.Key) ([]domain.Versioned, error) {
	timer := r.metrics.DonorFetchDuration(r.storeName)
	defer timer.ObserveDuration()

	return donorStore.Get(ctx, key)
}

// apply prefers the explicit outcome of a VersionApplier and falls back to
// reading ErrObsoleteVersion from a plain Put.
func (r *Reconciler) apply(ctx context.Context, key domain.Key, v domain.Versioned) (domain.ApplyOutcome, error) {
	if applier, ok := r.local.(port.VersionApplier); ok {
		return applier.Apply(ctx, key, v)
	}

	err := r.local.Put(ctx, key, v)
	if errors.Is(err, domain.ErrObsoleteVersion) {
		return domain.Dominated, nil
	}
	if err != nil {
		return domain.Applied, err
	}
	return domain.Applied, nil
}
