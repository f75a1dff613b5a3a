package rebalancing

import "github.com/anthanhphan/go-distributed-kv/internal/node/domain"

// Timer measures the duration of an operation.
type Timer interface {
	ObserveDuration()
}

// Metrics instruments reconciliation. All methods are thread-safe.
type Metrics interface {
	// DonorFetchDuration times one remote read against the donor.
	DonorFetchDuration(store string) Timer

	// ReconcileCompleted counts finished reconciliations.
	ReconcileCompleted(store string, success bool)

	// VersionApplied counts donor versions by local outcome.
	VersionApplied(store string, outcome domain.ApplyOutcome)
}

type nopTimer struct{}

func (nopTimer) ObserveDuration() {}

type nopMetrics struct{}

func (nopMetrics) DonorFetchDuration(string) Timer            { return nopTimer{} }
func (nopMetrics) ReconcileCompleted(string, bool)            {}
func (nopMetrics) VersionApplied(string, domain.ApplyOutcome) {}

// NopMetrics returns a Metrics implementation that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }
