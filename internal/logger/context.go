package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds run-scoped logging context: the fields attached to every
// log line produced during one invocation of a CLI subcommand.
type LogContext struct {
	TraceID   string // per-run correlation id (google/uuid)
	Operation string // current sub-operation: plan, upload, catalog-list, ...
	Pool      string // ZFS dataset path currently being processed
	Bucket    string // destination bucket currently being processed
	StartTime time.Time
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a run, identified by traceID.
func NewLogContext(traceID string) *LogContext {
	return &LogContext{
		TraceID:   traceID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:   lc.TraceID,
		Operation: lc.Operation,
		Pool:      lc.Pool,
		Bucket:    lc.Bucket,
		StartTime: lc.StartTime,
	}
}

// WithOperation returns a copy with the sub-operation name set
func (lc *LogContext) WithOperation(operation string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Operation = operation
	}
	return clone
}

// WithPool returns a copy with the dataset path set
func (lc *LogContext) WithPool(pool string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Pool = pool
	}
	return clone
}

// WithBucket returns a copy with the destination bucket set
func (lc *LogContext) WithBucket(bucket string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Bucket = bucket
	}
	return clone
}

// WithTrace returns a copy with the trace id set
func (lc *LogContext) WithTrace(traceID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
