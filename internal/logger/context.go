package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds operation-scoped logging context.
//
// A retry chain creates one LogContext when it starts and reuses it for every
// rescheduled attempt, so all attempts of the same logical delete or migrate
// share an operation id.
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	OpID      string    // Logical operation id (one per retry chain or walk)
	Operation string    // delete, migrate, walk, list, copy
	Path      string    // Primary path the operation acts on
	Attempt   int       // Attempt number inside a retry chain, 1-based
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if not present.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext for a new logical operation.
func NewLogContext(opID, operation, path string) *LogContext {
	return &LogContext{
		OpID:      opID,
		Operation: operation,
		Path:      path,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithAttempt returns a copy with the attempt number set.
func (lc *LogContext) WithAttempt(attempt int) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Attempt = attempt
	}
	return clone
}

// WithTrace returns a copy with trace info set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
