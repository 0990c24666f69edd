package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
// Use these keys consistently so that log lines from the retry chains, the
// walker and the CLI can be correlated.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyOpID      = "op_id"     // Logical operation id, shared by every attempt of a chain
	KeyOperation = "operation" // delete, migrate, walk, list, copy
	KeyAttempt   = "attempt"   // 1-based attempt number
	KeyLabel     = "label"     // Scheduler task label

	KeyPath     = "path"      // Path as seen by the caller (may be virtual)
	KeyRealPath = "real_path" // Path after virtual prefix expansion
	KeyDest     = "dest"      // Destination of a move/migrate/copy
	KeyDir      = "dir"       // Directory being listed or walked

	KeyRetryAfter = "retry_after" // Delay before the next attempt
	KeyRemaining  = "remaining"   // Retry budget left
	KeyState      = "state"       // Terminal state of a retry chain

	KeyReason   = "reason"    // Why an entry or subtree was skipped
	KeyEntries  = "entries"   // Number of directory entries
	KeyBytes    = "bytes"     // Bytes copied so far
	KeyBlock    = "block"     // Size of the last copied block
	KeyDuration = "duration_ms"
	KeyError    = "error"
)

// OpID returns a slog.Attr for a logical operation id.
func OpID(id string) slog.Attr {
	return slog.String(KeyOpID, id)
}

// Operation returns a slog.Attr for the operation name.
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Path returns a slog.Attr for a caller-visible path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// RealPath returns a slog.Attr for an expanded path.
func RealPath(p string) slog.Attr {
	return slog.String(KeyRealPath, p)
}

// Dest returns a slog.Attr for a destination path.
func Dest(p string) slog.Attr {
	return slog.String(KeyDest, p)
}

// Dir returns a slog.Attr for a directory.
func Dir(p string) slog.Attr {
	return slog.String(KeyDir, p)
}

// RetryAfter returns a slog.Attr for the delay before the next attempt.
func RetryAfter(d time.Duration) slog.Attr {
	return slog.Duration(KeyRetryAfter, d)
}

// Remaining returns a slog.Attr for the remaining retry budget.
func Remaining(d time.Duration) slog.Attr {
	return slog.Duration(KeyRemaining, d)
}

// Reason returns a slog.Attr explaining a skip.
func Reason(r string) slog.Attr {
	return slog.String(KeyReason, r)
}

// Bytes returns a slog.Attr for a byte count.
func Bytes(n int64) slog.Attr {
	return slog.Int64(KeyBytes, n)
}

// Err returns a slog.Attr for an error. A nil error yields an empty attr,
// which the handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDuration, ms)
}
