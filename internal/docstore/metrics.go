package docstore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/expense-tracker/internal/storage"
)

// Metrics holds the Prometheus collectors for a Store. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	operations      *prometheus.CounterVec
	persistDuration prometheus.Histogram
	documents       *prometheus.GaugeVec
}

// NewMetrics creates the store collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "expensetracker",
			Subsystem: "docstore",
			Name:      "operations_total",
			Help:      "Document store operations by operation, collection and result.",
		}, []string{"op", "collection", "result"}),
		persistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "expensetracker",
			Subsystem: "docstore",
			Name:      "persist_duration_seconds",
			Help:      "Time spent writing a snapshot to the backend.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		documents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "expensetracker",
			Subsystem: "docstore",
			Name:      "documents",
			Help:      "Documents per collection in the last persisted snapshot.",
		}, []string{"collection"}),
	}
	reg.MustRegister(m.operations, m.persistDuration, m.documents)
	return m
}

func (m *Metrics) observe(op, collection string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, collection, result).Inc()
}

func (m *Metrics) observePersist(d time.Duration) {
	if m == nil {
		return
	}
	m.persistDuration.Observe(d.Seconds())
}

func (m *Metrics) setDocuments(snap *storage.Snapshot) {
	if m == nil {
		return
	}
	for _, name := range snap.Names() {
		m.documents.WithLabelValues(name).Set(float64(len(snap.Collection(name))))
	}
}
