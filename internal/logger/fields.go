package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these consistently across
// log statements so aggregation/querying doesn't have to guess at names.
const (
	// Run correlation
	KeyTraceID = "trace_id" // per-invocation correlation id (google/uuid)
	KeyRunID   = "run_id"   // alias used by CLI-level log lines

	// Backup domain
	KeyPool         = "pool"     // ZFS dataset path
	KeySnapshot     = "snapshot" // snapshot name
	KeyBucket       = "bucket"   // destination bucket
	KeyKey          = "key"      // object key in the store
	KeyRegion       = "region"   // store region
	KeyStorageClass = "storage_class"
	KeySize         = "size" // byte count (snapshot size, part size, ...)
	KeyPartNumber   = "part_number"
	KeyPartCount    = "part_count"
	KeyUploadID     = "upload_id"

	// Retry / attempt tracking
	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyOperation  = "operation"
	KeySource     = "source"
)

// TraceID returns a slog.Attr for the run correlation id.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// RunID returns a slog.Attr for the run correlation id (CLI-facing alias).
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

// Pool returns a slog.Attr for a ZFS dataset path.
func Pool(name string) slog.Attr {
	return slog.String(KeyPool, name)
}

// Snapshot returns a slog.Attr for a snapshot name.
func Snapshot(name string) slog.Attr {
	return slog.String(KeySnapshot, name)
}

// Bucket returns a slog.Attr for the destination bucket.
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for an object key in the store.
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Region returns a slog.Attr for the store region.
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// StorageClass returns a slog.Attr for the object's storage class.
func StorageClass(class string) slog.Attr {
	return slog.String(KeyStorageClass, class)
}

// Size returns a slog.Attr for a byte count.
func Size(s uint64) slog.Attr {
	return slog.Uint64(KeySize, s)
}

// PartNumber returns a slog.Attr for a multipart upload part number.
func PartNumber(n int32) slog.Attr {
	return slog.Int64(KeyPartNumber, int64(n))
}

// PartCount returns a slog.Attr for the total number of parts in an upload.
func PartCount(n int) slog.Attr {
	return slog.Int(KeyPartCount, n)
}

// UploadID returns a slog.Attr for a multipart upload id.
func UploadID(id string) slog.Attr {
	return slog.String(KeyUploadID, id)
}

// Attempt returns a slog.Attr for the current retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the maximum retry attempt count.
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// DurationMs returns a slog.Attr for an operation duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, or a no-op attr if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Operation returns a slog.Attr for a sub-operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Source returns a slog.Attr for a data source label.
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}
