// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/cris-reconcile/pkg/types"
)

// Metrics holds the counters for one reconciliation run. They live on a
// private registry so a CLI process (and each test) gets a fresh set.
type Metrics struct {
	registry *prometheus.Registry

	// PagesFetched counts source pages fetched from the CRIS registry.
	PagesFetched prometheus.Counter

	// RecordsChecked counts source records run through the cascade.
	RecordsChecked prometheus.Counter

	// Matches counts records by cascade tag (DOI, PMID, TITLE, NO MATCH).
	Matches *prometheus.CounterVec

	// StrategyQueries counts target registry queries by strategy and outcome
	// (hit, miss, error).
	StrategyQueries *prometheus.CounterVec

	// EnrichmentFailures counts failed enrichment sub-queries by service.
	EnrichmentFailures *prometheus.CounterVec

	// RowsEmitted counts output rows written.
	RowsEmitted prometheus.Counter
}

// NewMetrics registers the run metrics under namespace on a new registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_pages_fetched_total",
			Help:      "Source registry pages fetched.",
		}),
		RecordsChecked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_checked_total",
			Help:      "Source records run through the match cascade.",
		}),
		Matches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Source records by cascade outcome tag.",
		}, []string{"tag"}),
		StrategyQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_queries_total",
			Help:      "Target registry queries by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		EnrichmentFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Failed enrichment sub-queries by service.",
		}, []string{"service"}),
		RowsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_emitted_total",
			Help:      "Output rows written.",
		}),
	}
}

// Registry returns the registry holding the run metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordPage counts one fetched source page. Safe on a nil receiver, as are
// the other Record methods.
func (m *Metrics) RecordPage() {
	if m == nil {
		return
	}
	m.PagesFetched.Inc()
}

// RecordOutcome counts one cascade outcome and each of its attempts.
func (m *Metrics) RecordOutcome(outcome types.CascadeOutcome) {
	if m == nil {
		return
	}
	m.RecordsChecked.Inc()
	m.Matches.WithLabelValues(string(outcome.Tag)).Inc()
	for _, a := range outcome.Attempts {
		m.StrategyQueries.WithLabelValues(string(a.Strategy), attemptOutcome(a)).Inc()
	}
}

// RecordEnrichmentFailure counts one failed enrichment sub-query.
func (m *Metrics) RecordEnrichmentFailure(service string) {
	if m == nil {
		return
	}
	m.EnrichmentFailures.WithLabelValues(service).Inc()
}

// RecordRow counts one emitted output row.
func (m *Metrics) RecordRow() {
	if m == nil {
		return
	}
	m.RowsEmitted.Inc()
}

// WriteTextfile writes the metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

func attemptOutcome(a types.MatchAttempt) string {
	switch {
	case a.Err != "":
		return "error"
	case a.Count > 0:
		return "hit"
	default:
		return "miss"
	}
}
