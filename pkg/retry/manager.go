// Package retry deletes and migrates files that another process may be
// holding open.
//
// Each Delete or Migrate call becomes a retry chain: an explicit descriptor
// holding the target, the retry delay and the remaining budget. The first
// attempt runs synchronously. When it fails because the file is in use, the
// descriptor is handed to a scheduler.Scheduler and the call returns; the
// scheduler later invokes the next attempt. Attempts of one chain are
// strictly sequential.
//
// Only usage errors (an empty or malformed path) are returned to the caller.
// Everything else is retried, logged or reported through the OnDone hook.
package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/internal/telemetry"
	"github.com/marmos91/safefs/pkg/fileutil"
	"github.com/marmos91/safefs/pkg/scheduler"
	"github.com/marmos91/safefs/pkg/tracker"
)

const (
	labelDeleteRetry  = "Delete File Retry"
	labelMigrateRetry = "Migrate File Retry"
)

// errMissing marks a delete target that is neither a file nor a directory.
var errMissing = errors.New("delete target does not exist")

// Manager owns the retry chains. It is safe for concurrent use; attempts run
// on the scheduler's goroutine.
type Manager struct {
	fs        *fileutil.FS
	sched     scheduler.Scheduler
	tracker   *tracker.DeleteTracker
	restarter Restarter
	metrics   Metrics
	onDone    func(Outcome)

	policy               Policy
	keepTrackedOnAbandon bool

	inFlight atomic.Int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithPolicy sets the policy used by Delete and Migrate.
func WithPolicy(p Policy) Option {
	return func(m *Manager) {
		m.policy = p
	}
}

// WithRestarter sets the worker restart hook.
func WithRestarter(r Restarter) Option {
	return func(m *Manager) {
		m.restarter = r
	}
}

// WithMetrics sets the metrics sink. nil disables collection.
func WithMetrics(metrics Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithOnDone registers fn to be called once per chain when it reaches a
// terminal state.
func WithOnDone(fn func(Outcome)) Option {
	return func(m *Manager) {
		m.onDone = fn
	}
}

// WithKeepTrackedOnAbandon leaves an abandoned or failed delete target in
// the tracker, hiding it from directory scans until the process restarts.
// By default the entry is discarded on every terminal outcome.
func WithKeepTrackedOnAbandon(keep bool) Option {
	return func(m *Manager) {
		m.keepTrackedOnAbandon = keep
	}
}

// New creates a Manager operating through fsys and scheduling retries on
// sched. The delete tracker is the one fsys consults while walking.
func New(fsys *fileutil.FS, sched scheduler.Scheduler, opts ...Option) *Manager {
	m := &Manager{
		fs:      fsys,
		sched:   sched,
		tracker: fsys.Tracker(),
		policy:  DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the default policy of the manager.
func (m *Manager) Policy() Policy {
	return m.policy
}

// InFlight returns the number of chains that have not finished.
func (m *Manager) InFlight() int {
	return int(m.inFlight.Load())
}

// chain is the explicit state of one logical delete or migrate.
type chain struct {
	ctx       context.Context
	id        string
	kind      Kind
	path      string // caller-visible
	dest      string // caller-visible, migrate only
	realPath  string // expanded, used as tracker key
	after     time.Duration
	remaining time.Duration
	attempt   int
	restarted bool
	start     time.Time
	callback  func()
}

// canRetry reports whether a failed attempt may be rescheduled.
func (c *chain) canRetry(lock bool) bool {
	return lock && c.after > 0 && c.remaining >= c.after
}

func (m *Manager) newChain(ctx context.Context, kind Kind, path, dest string, p Policy, callback func()) *chain {
	m.inFlight.Add(1)
	m.reportInFlight()
	return &chain{
		ctx:       context.WithoutCancel(ctx),
		id:        uuid.NewString(),
		kind:      kind,
		path:      path,
		dest:      dest,
		realPath:  m.fs.Expand(path),
		after:     p.After,
		remaining: p.For,
		attempt:   1,
		start:     time.Now(),
		callback:  callback,
	}
}

// Delete removes path, a file or a whole directory tree, using the manager's
// policy. See DeleteWithPolicy.
func (m *Manager) Delete(ctx context.Context, path string) error {
	return m.DeleteWithPolicy(ctx, path, m.policy)
}

// DeleteWithPolicy removes path. A path that no longer exists counts as a
// successful delete. While a locked target is waiting for its next attempt
// it is recorded in the delete tracker, and the worker restart hook runs
// once for the chain.
//
// The first attempt runs before DeleteWithPolicy returns; later attempts run
// on the scheduler, so callers must not assume the path is gone on return.
// Only usage errors are returned.
func (m *Manager) DeleteWithPolicy(ctx context.Context, path string, p Policy) error {
	if err := fileutil.ValidatePath("delete", path); err != nil {
		return err
	}
	m.attemptDelete(m.newChain(ctx, KindDelete, path, "", p, nil))
	return nil
}

func (m *Manager) attemptDelete(c *chain) {
	ctx, span := telemetry.StartRetrySpan(c.ctx, telemetry.SpanDeleteAttempt, c.id, c.attempt,
		telemetry.Operation(string(c.kind)), telemetry.Path(c.path), telemetry.RealPath(c.realPath))
	defer span.End()
	ctx = m.logContext(ctx, c)

	err := m.removeTarget(c.path)
	switch {
	case errors.Is(err, errMissing):
		logger.WarnCtx(ctx, "asked to delete a path that is not there", logger.RealPath(c.realPath))
		m.recordAttempt(c, AttemptMissing)
		m.tracker.Discard(c.realPath)
		m.finish(ctx, c, StateSucceeded, nil)
		return
	case err == nil:
		m.recordAttempt(c, AttemptOK)
		m.tracker.Discard(c.realPath)
		m.finish(ctx, c, StateSucceeded, nil)
		return
	}

	lock := fileutil.IsLockInUse(err)
	telemetry.SetAttributes(ctx, telemetry.LockInUse(lock))
	telemetry.RecordError(ctx, err)
	logger.WarnCtx(ctx, "error deleting", logger.Err(err))

	if !c.canRetry(lock) {
		if lock {
			m.recordAttempt(c, AttemptLocked)
			m.finishDelete(ctx, c, StateAbandoned, err)
		} else {
			m.recordAttempt(c, AttemptError)
			m.finishDelete(ctx, c, StateFailed, err)
		}
		return
	}

	m.recordAttempt(c, AttemptLocked)
	m.tracker.Add(c.realPath)
	m.reschedule(ctx, c, labelDeleteRetry, m.attemptDelete)

	if !c.restarted && m.restarter != nil {
		c.restarted = true
		logger.DebugCtx(ctx, "restarting workers to release file handles")
		if err := m.restarter.Restart(ctx, true); err != nil {
			logger.WarnCtx(ctx, "worker restart failed", logger.Err(err))
		}
	}
}

// removeTarget deletes a file or a directory tree. It returns errMissing
// when path is neither.
func (m *Manager) removeTarget(path string) error {
	switch {
	case m.fs.IsFile(path):
		return m.fs.Remove(path)
	case m.fs.IsDir(path):
		return m.fs.RemoveAll(path)
	default:
		return errMissing
	}
}

func (m *Manager) finishDelete(ctx context.Context, c *chain, state State, err error) {
	if !m.keepTrackedOnAbandon {
		m.tracker.Discard(c.realPath)
	}
	m.finish(ctx, c, state, err)
}

// Migrate moves src to dst using the manager's policy. See
// MigrateWithPolicy.
func (m *Manager) Migrate(ctx context.Context, src, dst string, callback func()) error {
	return m.MigrateWithPolicy(ctx, src, dst, m.policy, callback)
}

// MigrateWithPolicy moves src to dst and calls callback once the move
// succeeds. When a move across devices fails after copying, the copy it
// created is removed, provided the source still exists; existing
// destinations are never deleted. A lock failure is then retried according
// to p. Callback is never called for a chain that does not succeed.
//
// Usage errors are returned immediately and nothing is scheduled.
func (m *Manager) MigrateWithPolicy(ctx context.Context, src, dst string, p Policy, callback func()) error {
	if err := fileutil.ValidatePath("migrate", src); err != nil {
		return err
	}
	if err := fileutil.ValidatePath("migrate", dst); err != nil {
		return err
	}
	m.attemptMigrate(m.newChain(ctx, KindMigrate, src, dst, p, callback))
	return nil
}

func (m *Manager) attemptMigrate(c *chain) {
	ctx, span := telemetry.StartRetrySpan(c.ctx, telemetry.SpanMigrateAttempt, c.id, c.attempt,
		telemetry.Operation(string(c.kind)), telemetry.Path(c.path), telemetry.Dest(c.dest))
	defer span.End()
	ctx = m.logContext(ctx, c)

	err := m.fs.Move(c.path, c.dest)
	if err == nil {
		m.recordAttempt(c, AttemptOK)
		if c.callback != nil {
			c.callback()
		}
		m.finish(ctx, c, StateSucceeded, nil)
		return
	}

	lock := fileutil.IsLockInUse(err)
	telemetry.SetAttributes(ctx, telemetry.LockInUse(lock))
	telemetry.RecordError(ctx, err)
	logger.WarnCtx(ctx, "error migrating", logger.Dest(c.dest), logger.Err(err))

	m.removePartial(ctx, c, err)

	if !c.canRetry(lock) {
		if lock {
			m.recordAttempt(c, AttemptLocked)
			m.finish(ctx, c, StateAbandoned, err)
		} else {
			m.recordAttempt(c, AttemptError)
			m.finish(ctx, c, StateFailed, err)
		}
		return
	}

	m.recordAttempt(c, AttemptLocked)
	m.reschedule(ctx, c, labelMigrateRetry, m.attemptMigrate)
}

// removePartial deletes what a failed cross-device move copied, as long as
// the source is still intact. A tree is only removed when the move created
// it; an existing destination is only removed when it is a regular file the
// copy truncated.
func (m *Manager) removePartial(ctx context.Context, c *chain, err error) {
	var partial *fileutil.PartialMoveError
	if !errors.As(err, &partial) || !m.fs.Exists(c.path) {
		return
	}

	var rmErr error
	switch {
	case partial.Created:
		rmErr = m.fs.RemoveAll(partial.Dest)
	case m.fs.IsFile(partial.Dest):
		rmErr = m.fs.Remove(partial.Dest)
	default:
		return
	}
	if rmErr != nil {
		logger.DebugCtx(ctx, "could not remove partial destination", logger.Dest(partial.Dest), logger.Err(rmErr))
	}
}

func (m *Manager) reschedule(ctx context.Context, c *chain, label string, attempt func(*chain)) {
	c.remaining -= c.after
	c.attempt++
	logger.InfoCtx(ctx, "retrying "+string(c.kind),
		logger.RetryAfter(c.after), logger.Remaining(c.remaining))
	telemetry.AddEvent(ctx, "retry.scheduled",
		telemetry.RetryAfter(c.after), telemetry.Remaining(c.remaining))

	m.sched.After(c.after, label, func() { attempt(c) })
}

func (m *Manager) finish(ctx context.Context, c *chain, state State, err error) {
	elapsed := time.Since(c.start)
	telemetry.SetAttributes(ctx, telemetry.State(state.String()))

	switch state {
	case StateSucceeded:
		if c.attempt > 1 {
			logger.InfoCtx(ctx, string(c.kind)+" succeeded after retrying", logger.DurationMs(float64(elapsed.Milliseconds())))
		} else {
			logger.DebugCtx(ctx, string(c.kind)+" succeeded")
		}
	case StateAbandoned:
		logger.WarnCtx(ctx, "file still in use, giving up", logger.Err(err), logger.DurationMs(float64(elapsed.Milliseconds())))
	default:
		logger.WarnCtx(ctx, string(c.kind)+" failed", logger.Err(err))
	}

	m.inFlight.Add(-1)
	m.reportInFlight()
	if m.metrics != nil {
		m.metrics.RecordOutcome(c.kind, state, c.attempt, elapsed)
	}
	if m.onDone != nil {
		m.onDone(Outcome{
			OpID:     c.id,
			Kind:     c.kind,
			Path:     c.path,
			Dest:     c.dest,
			State:    state,
			Attempts: c.attempt,
			Elapsed:  elapsed,
			Err:      err,
		})
	}
}

func (m *Manager) logContext(ctx context.Context, c *chain) context.Context {
	lc := logger.NewLogContext(c.id, string(c.kind), c.path).
		WithAttempt(c.attempt).
		WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	return logger.WithContext(ctx, lc)
}

func (m *Manager) recordAttempt(c *chain, result AttemptResult) {
	if m.metrics != nil {
		m.metrics.RecordAttempt(c.kind, result)
	}
}

func (m *Manager) reportInFlight() {
	if m.metrics != nil {
		m.metrics.SetInFlight(m.InFlight())
	}
}
