package retry

import (
	"context"
	"time"
)

// Default retry policy: try again every 10 seconds for up to a minute.
const (
	DefaultRetryAfter = 10 * time.Second
	DefaultRetryFor   = 60 * time.Second
)

// Kind names the operation a retry chain performs.
type Kind string

const (
	KindDelete  Kind = "delete"
	KindMigrate Kind = "migrate"
)

// State is the lifecycle position of a retry chain.
type State int

const (
	// StatePending: an attempt is scheduled.
	StatePending State = iota
	// StateSucceeded: the operation completed (or the delete target was
	// already gone).
	StateSucceeded
	// StateAbandoned: every attempt hit a lock and the budget ran out.
	StateAbandoned
	// StateFailed: an attempt failed with an error that is not a lock.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateAbandoned:
		return "abandoned"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further attempt will be made.
func (s State) Terminal() bool {
	return s != StatePending
}

// AttemptResult classifies a single attempt.
type AttemptResult string

const (
	AttemptOK      AttemptResult = "ok"
	AttemptMissing AttemptResult = "missing"
	AttemptLocked  AttemptResult = "locked"
	AttemptError   AttemptResult = "error"
)

// Policy bounds a retry chain. A retry is scheduled only after a lock
// failure, only when After is positive, and only while the remaining budget
// still covers another delay of After; each retry consumes After from the
// budget. With After=10s and For=25s that gives retries at +10s and +20s.
type Policy struct {
	After time.Duration `mapstructure:"after" yaml:"after" json:"after"`
	For   time.Duration `mapstructure:"for" yaml:"for" json:"for"`
}

// DefaultPolicy returns the 10s/60s policy.
func DefaultPolicy() Policy {
	return Policy{After: DefaultRetryAfter, For: DefaultRetryFor}
}

// MaxRetries returns how many retries p allows after the first attempt.
func (p Policy) MaxRetries() int {
	if p.After <= 0 || p.For < p.After {
		return 0
	}
	return int(p.For / p.After)
}

// Outcome describes a finished retry chain.
type Outcome struct {
	OpID     string
	Kind     Kind
	Path     string // caller-visible source path
	Dest     string // caller-visible destination, migrate only
	State    State
	Attempts int
	Elapsed  time.Duration
	Err      error // last error for abandoned and failed chains
}

// Restarter restarts the out-of-process workers that may hold file handles.
// It is called at most once per delete chain, after the first lock failure.
type Restarter interface {
	Restart(ctx context.Context, clean bool) error
}

// Metrics records retry activity. A nil Metrics disables collection.
type Metrics interface {
	// RecordAttempt counts one attempt of a chain.
	RecordAttempt(kind Kind, result AttemptResult)

	// RecordOutcome records a finished chain.
	RecordOutcome(kind Kind, state State, attempts int, elapsed time.Duration)

	// SetInFlight reports the number of chains not yet finished.
	SetInFlight(n int)
}
