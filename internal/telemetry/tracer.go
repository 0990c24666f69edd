package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by the retry chains, the walker and the copier.
const (
	AttrOperation = "fs.operation" // retry chain kind: delete or migrate
	AttrPath      = "fs.path"      // Caller-visible path
	AttrRealPath  = "fs.real_path" // Path after virtual prefix expansion
	AttrDest      = "fs.dest"      // Destination of migrate/copy
	AttrBytes     = "fs.bytes"     // Bytes transferred
	AttrBlockSize = "fs.block_size"
	AttrEntries   = "fs.entries"

	AttrOpID       = "retry.op_id"
	AttrAttempt    = "retry.attempt"
	AttrRetryAfter = "retry.after_ms"
	AttrRemaining  = "retry.remaining_ms"
	AttrLockInUse  = "retry.lock_in_use"
	AttrState      = "retry.state"

	AttrCancelled = "copy.cancelled"
)

// Span names.
const (
	SpanDeleteAttempt  = "retry.delete"
	SpanMigrateAttempt = "retry.migrate"
	SpanCopy           = "fileutil.copy"
	SpanWatch          = "watch.run"
)

// Operation returns an attribute for the operation name
func Operation(name string) attribute.KeyValue {
	return attribute.String(AttrOperation, name)
}

// Path returns an attribute for a caller-visible path
func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

// RealPath returns an attribute for an expanded path
func RealPath(p string) attribute.KeyValue {
	return attribute.String(AttrRealPath, p)
}

// Dest returns an attribute for a destination path
func Dest(p string) attribute.KeyValue {
	return attribute.String(AttrDest, p)
}

// Bytes returns an attribute for a byte count
func Bytes(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytes, n)
}

// BlockSize returns an attribute for the copy block size
func BlockSize(n int) attribute.KeyValue {
	return attribute.Int(AttrBlockSize, n)
}

// Entries returns an attribute for a number of directory entries
func Entries(n int) attribute.KeyValue {
	return attribute.Int(AttrEntries, n)
}

// OpID returns an attribute for a retry chain id
func OpID(id string) attribute.KeyValue {
	return attribute.String(AttrOpID, id)
}

// Attempt returns an attribute for a 1-based attempt number
func Attempt(n int) attribute.KeyValue {
	return attribute.Int(AttrAttempt, n)
}

// RetryAfter returns an attribute for the retry delay
func RetryAfter(d time.Duration) attribute.KeyValue {
	return attribute.Int64(AttrRetryAfter, d.Milliseconds())
}

// Remaining returns an attribute for the remaining retry budget
func Remaining(d time.Duration) attribute.KeyValue {
	return attribute.Int64(AttrRemaining, d.Milliseconds())
}

// LockInUse returns an attribute telling whether a failure was a lock error
func LockInUse(v bool) attribute.KeyValue {
	return attribute.Bool(AttrLockInUse, v)
}

// State returns an attribute for a retry chain state
func State(s string) attribute.KeyValue {
	return attribute.String(AttrState, s)
}

// Cancelled returns an attribute telling whether a copy was cancelled
func Cancelled(v bool) attribute.KeyValue {
	return attribute.Bool(AttrCancelled, v)
}

// StartRetrySpan starts a span for one attempt of a retry chain.
func StartRetrySpan(ctx context.Context, name, opID string, attempt int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		OpID(opID),
		Attempt(attempt),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartFileSpan starts a span for a filesystem operation on path.
func StartFileSpan(ctx context.Context, name, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Path(path),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}
