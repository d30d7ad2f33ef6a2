// Package prometheus is the Prometheus-backed implementation of
// internal/metrics.BackupMetrics.
package prometheus

import (
	"time"

	"github.com/andaag/zfs-to-glacier/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the Prometheus implementation of metrics.BackupMetrics.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesSentTotal    *prometheus.CounterVec
	partNumber        prometheus.Histogram
	uploadOutcomes    *prometheus.CounterVec
	plannedActions    *prometheus.GaugeVec
}

// New registers the backup metric collectors against reg and returns a
// metrics.BackupMetrics backed by them.
func New(reg prometheus.Registerer) metrics.BackupMetrics {
	return &Metrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "zfsglacier_store_operations_total",
				Help: "Total number of object-store operations by operation type and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "zfsglacier_store_operation_duration_milliseconds",
				Help: "Duration of object-store operations in milliseconds",
				Buckets: []float64{
					50, 100, 500, 1000, 5000, 10000, 30000, 60000,
				},
			},
			[]string{"operation"},
		),
		bytesSentTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "zfsglacier_bytes_sent_total",
				Help: "Total bytes uploaded to the object store, by bucket",
			},
			[]string{"bucket"},
		),
		partNumber: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zfsglacier_multipart_part_count",
				Help:    "Distribution of part counts per completed upload",
				Buckets: []float64{1, 2, 5, 10, 50, 100, 500, 1000, 5000},
			},
		),
		uploadOutcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "zfsglacier_uploads_total",
				Help: "Total number of finished uploads by outcome (completed, aborted)",
			},
			[]string{"outcome"},
		),
		plannedActions: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zfsglacier_planned_actions",
				Help: "Number of pending backup actions from the most recent plan, by bucket",
			},
			[]string{"bucket"},
		),
	}
}

func (m *Metrics) ObserveOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds() * 1000)
}

func (m *Metrics) RecordBytesSent(bucket string, n int64) {
	if n <= 0 {
		return
	}
	m.bytesSentTotal.WithLabelValues(bucket).Add(float64(n))
}

func (m *Metrics) RecordPartNumber(n int) {
	m.partNumber.Observe(float64(n))
}

func (m *Metrics) RecordUploadOutcome(outcome string) {
	m.uploadOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordPlannedActions(bucket string, n int) {
	m.plannedActions.WithLabelValues(bucket).Set(float64(n))
}
