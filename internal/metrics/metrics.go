package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for ingestion and selection.
type Metrics struct {
	// Rows by outcome: "resolved", "unresolved", "duplicate"
	Rows *prometheus.CounterVec

	// Failed ingestion runs by reason
	Failures *prometheus.CounterVec

	// End-to-end pipeline latency
	IngestDuration prometheus.Histogram

	// Jurisdictions in the published snapshot
	Jurisdictions prometheus.Gauge

	// Accepted selection transitions by event kind
	Transitions *prometheus.CounterVec
}

// New registers every collector with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Rows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "insurelytics_ingest_rows_total",
			Help: "Spreadsheet rows processed by outcome",
		}, []string{"outcome"}),

		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "insurelytics_ingest_failures_total",
			Help: "Ingestion runs that failed, by reason",
		}, []string{"reason"}),

		IngestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "insurelytics_ingest_duration_seconds",
			Help:    "Duration of a full ingestion run",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		Jurisdictions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "insurelytics_snapshot_jurisdictions",
			Help: "Jurisdictions in the currently published snapshot",
		}),

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "insurelytics_selection_transitions_total",
			Help: "Selection state transitions by event kind",
		}, []string{"event"}),
	}
}

// ObserveRows records one run's row outcomes.
func (m *Metrics) ObserveRows(resolved, unresolved, duplicates int) {
	if m == nil {
		return
	}
	m.Rows.WithLabelValues("resolved").Add(float64(resolved))
	m.Rows.WithLabelValues("unresolved").Add(float64(unresolved))
	m.Rows.WithLabelValues("duplicate").Add(float64(duplicates))
}

// IncrementFailure records a failed run.
func (m *Metrics) IncrementFailure(reason string) {
	if m != nil {
		m.Failures.WithLabelValues(reason).Inc()
	}
}

// ObserveIngestDuration records the total pipeline duration.
func (m *Metrics) ObserveIngestDuration(d time.Duration) {
	if m != nil {
		m.IngestDuration.Observe(d.Seconds())
	}
}

// SetJurisdictions records the size of the published snapshot.
func (m *Metrics) SetJurisdictions(n int) {
	if m != nil {
		m.Jurisdictions.Set(float64(n))
	}
}

// IncrementTransition records an accepted selection transition.
func (m *Metrics) IncrementTransition(kind string) {
	if m != nil {
		m.Transitions.WithLabelValues(kind).Inc()
	}
}
