// Package prometheus implements the rebalancing metrics with Prometheus collectors.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service/rebalancing"
)

// timer wraps a Prometheus histogram to implement the Timer interface.
type timer struct {
	h     prometheus.Observer
	start time.Time
}

func newTimer(h prometheus.Observer) rebalancing.Timer {
	return &timer{h: h, start: time.Now()}
}

func (t *timer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}

// Default histogram buckets for donor round trips (in seconds).
var defaultBuckets = []float64{
	.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5,
}

type rebalancingMetrics struct {
	donorFetchDuration *prometheus.HistogramVec
	reconciliations    *prometheus.CounterVec
	versions           *prometheus.CounterVec
}

// NewRebalancingMetrics registers the reconciliation collectors on reg.
func NewRebalancingMetrics(reg prometheus.Registerer) rebalancing.Metrics {
	m := &rebalancingMetrics{
		donorFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kv_rebalancing_donor_fetch_duration_seconds",
			Help:    "Latency of reads against the donor node in seconds",
			Buckets: defaultBuckets,
		}, []string{"store"}),

		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kv_rebalancing_reconciliations_total",
			Help: "Total number of keys reconciled against the donor",
		}, []string{"store", "result"}),

		versions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kv_rebalancing_versions_total",
			Help: "Total number of donor versions by local outcome",
		}, []string{"store", "outcome"}),
	}

	reg.MustRegister(
		m.donorFetchDuration,
		m.reconciliations,
		m.versions,
	)

	return m
}

func (m *rebalancingMetrics) DonorFetchDuration(store string) rebalancing.Timer {
	return newTimer(m.donorFetchDuration.WithLabelValues(store))
}

func (m *rebalancingMetrics) ReconcileCompleted(store string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.reconciliations.WithLabelValues(store, result).Inc()
}

func (m *rebalancingMetrics) VersionApplied(store string, outcome domain.ApplyOutcome) {
	m.versions.WithLabelValues(store, outcome.String()).Inc()
}
