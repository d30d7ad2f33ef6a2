// Package metrics defines the nil-safe metrics port every component writes
// through. There is only one backend (Prometheus, internal/metrics/prometheus),
// so unlike a multi-backend registry this package needs no constructor
// indirection: callers either hold a *prometheus.Metrics or a nil interface,
// and every free function here treats nil as "metrics disabled".
package metrics

import "time"

// BackupMetrics is implemented by internal/metrics/prometheus.Metrics. A nil
// BackupMetrics is the default when metrics.enabled is false in config, and
// makes every recording call a no-op.
type BackupMetrics interface {
	// ObserveOperation records one object-store call (CreateMultipartUpload,
	// UploadPart, CompleteMultipartUpload, AbortMultipartUpload) with its
	// duration and outcome.
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytesSent adds n bytes to the running total for bucket.
	RecordBytesSent(bucket string, n int64)

	// RecordPartNumber observes the part count a completed upload used.
	RecordPartNumber(n int)

	// RecordUploadOutcome counts one finished upload by outcome
	// ("completed" or "aborted").
	RecordUploadOutcome(outcome string)

	// RecordPlannedActions sets the number of pending actions the planner
	// emitted for bucket on the current run.
	RecordPlannedActions(bucket string, n int)
}

// ObserveOperation is a nil-safe wrapper around BackupMetrics.ObserveOperation.
func ObserveOperation(m BackupMetrics, operation string, duration time.Duration, err error) {
	if m != nil {
		m.ObserveOperation(operation, duration, err)
	}
}

// RecordBytesSent is a nil-safe wrapper around BackupMetrics.RecordBytesSent.
func RecordBytesSent(m BackupMetrics, bucket string, n int64) {
	if m != nil {
		m.RecordBytesSent(bucket, n)
	}
}

// RecordPartNumber is a nil-safe wrapper around BackupMetrics.RecordPartNumber.
func RecordPartNumber(m BackupMetrics, n int) {
	if m != nil {
		m.RecordPartNumber(n)
	}
}

// RecordUploadOutcome is a nil-safe wrapper around BackupMetrics.RecordUploadOutcome.
func RecordUploadOutcome(m BackupMetrics, outcome string) {
	if m != nil {
		m.RecordUploadOutcome(outcome)
	}
}

// RecordPlannedActions is a nil-safe wrapper around BackupMetrics.RecordPlannedActions.
func RecordPlannedActions(m BackupMetrics, bucket string, n int) {
	if m != nil {
		m.RecordPlannedActions(bucket, n)
	}
}
