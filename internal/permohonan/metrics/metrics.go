package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the permohonan lifecycle.
type Metrics struct {
	LoadsTotal          *prometheus.CounterVec
	LoadDuration        prometheus.Histogram
	ProcessTotal        *prometheus.CounterVec
	StaleLoadsDiscarded prometheus.Counter
	SnapshotSize        prometheus.Gauge
}

// New registers the permohonan metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the permohonan metrics with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "metrologi_permohonan_loads_total",
			Help: "Snapshot loads by outcome (applied, stale, failed)",
		}, []string{"outcome"}),
		LoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "metrologi_permohonan_load_duration_seconds",
			Help:    "Duration of full request list loads",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ProcessTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "metrologi_permohonan_process_total",
			Help: "Process actions by requested status and outcome",
		}, []string{"status", "outcome"}),
		StaleLoadsDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "metrologi_permohonan_stale_loads_discarded_total",
			Help: "Load responses dropped because a newer snapshot was already applied",
		}),
		SnapshotSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "metrologi_permohonan_snapshot_size",
			Help: "Number of requests in the current snapshot",
		}),
	}
}

// ObserveLoad records a finished load. Call with time.Now() at the start.
func (m *Metrics) ObserveLoad(outcome string, start time.Time) {
	m.LoadsTotal.WithLabelValues(outcome).Inc()
	m.LoadDuration.Observe(time.Since(start).Seconds())
}

// IncrementProcess records one process action.
func (m *Metrics) IncrementProcess(status, outcome string) {
	m.ProcessTotal.WithLabelValues(status, outcome).Inc()
}

// IncrementStaleDiscarded records a discarded out-of-order load.
func (m *Metrics) IncrementStaleDiscarded() {
	m.StaleLoadsDiscarded.Inc()
}

// SetSnapshotSize records the size of the applied snapshot.
func (m *Metrics) SetSnapshotSize(n int) {
	m.SnapshotSize.Set(float64(n))
}
