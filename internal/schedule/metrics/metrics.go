package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the schedule module: ledger generation
// latency, how many ledgers were written, and how many stale ones the
// retention pass removed.
type Metrics struct {
	GenerationDuration prometheus.Histogram
	LedgersGenerated   prometheus.Counter
	LedgersPruned      prometheus.Counter
	ReconcileFailures  prometheus.Counter
}

// New creates a new Metrics instance with all schedule module metrics registered.
func New() *Metrics {
	return &Metrics{
		GenerationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "civid_schedule_generation_duration_seconds",
			Help:    "Duration of per-center month ledger generation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		LedgersGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civid_schedule_ledgers_generated_total",
			Help: "Total number of month ledgers generated or regenerated",
		}),
		LedgersPruned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civid_schedule_ledgers_pruned_total",
			Help: "Total number of stale month ledgers removed by retention",
		}),
		ReconcileFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civid_schedule_reconcile_failures_total",
			Help: "Total number of per-center failures during schedule reconciliation",
		}),
	}
}

// ObserveGeneration records the duration of one EnsureMonth call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGeneration(start time.Time) {
	m.GenerationDuration.Observe(time.Since(start).Seconds())
}
