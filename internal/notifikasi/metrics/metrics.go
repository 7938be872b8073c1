package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks notification fan-out and the expiry scanner.
type Metrics struct {
	CreatedTotal  *prometheus.CounterVec
	ScansTotal    *prometheus.CounterVec
	ScanDuration  prometheus.Histogram
	LastScanUnixS prometheus.Gauge
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CreatedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "metrologi_notifikasi_created_total",
			Help: "Notifications by kind and outcome (created, duplicate, failed)",
		}, []string{"kind", "outcome"}),
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "metrologi_expiry_scans_total",
			Help: "Expiry scans by outcome",
		}, []string{"outcome"}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "metrologi_expiry_scan_duration_seconds",
			Help:    "Duration of calibration expiry scans",
			Buckets: prometheus.DefBuckets,
		}),
		LastScanUnixS: factory.NewGauge(prometheus.GaugeOpts{
			Name: "metrologi_expiry_scan_last_success_timestamp_seconds",
			Help: "Unix time of the last successful expiry scan",
		}),
	}
}

func (m *Metrics) IncrementCreated(kind, outcome string) {
	m.CreatedTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveScan records a finished scan. Call with time.Now() at the start.
func (m *Metrics) ObserveScan(outcome string, start time.Time) {
	m.ScansTotal.WithLabelValues(outcome).Inc()
	m.ScanDuration.Observe(time.Since(start).Seconds())
	if outcome == "success" {
		m.LastScanUnixS.SetToCurrentTime()
	}
}
