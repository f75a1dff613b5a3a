package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
)

func TestNewRebalancingMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRebalancingMetrics(reg)
	require.NotNil(t, m)

	timer := m.DonorFetchDuration("users")
	assert.NotNil(t, timer)
	timer.ObserveDuration()

	m.ReconcileCompleted("users", true)
	m.ReconcileCompleted("users", true)
	m.ReconcileCompleted("users", false)
	m.VersionApplied("users", domain.Applied)
	m.VersionApplied("users", domain.Dominated)
	m.VersionApplied("users", domain.Dominated)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["kv_rebalancing_donor_fetch_duration_seconds"])
	assert.True(t, names["kv_rebalancing_reconciliations_total"])
	assert.True(t, names["kv_rebalancing_versions_total"])

	rm := m.(*rebalancingMetrics)
	assert.Equal(t, 2.0, testutil.ToFloat64(rm.reconciliations.WithLabelValues("users", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.reconciliations.WithLabelValues("users", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rm.versions.WithLabelValues("users", "dominated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.versions.WithLabelValues("users", "applied")))
}

func TestNewRebalancingMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRebalancingMetrics(reg)
	assert.Panics(t, func() { NewRebalancingMetrics(reg) })
}
