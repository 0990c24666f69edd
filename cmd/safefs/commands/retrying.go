package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/safefs/internal/cli/output"
	"github.com/marmos91/safefs/internal/cli/timeutil"
	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/pkg/metrics"
	"github.com/marmos91/safefs/pkg/retry"
	"github.com/marmos91/safefs/pkg/scheduler"
)

// retryFlags are shared by rm and mv.
type retryFlags struct {
	after time.Duration
	total time.Duration
}

func (f *retryFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.after, "retry-after", 0, "delay between attempts on a locked file (default: retry.after)")
	cmd.Flags().DurationVar(&f.total, "retry-for", 0, "total retry budget, 0s disables retries (default: retry.for)")
}

// policy applies the flags the user set on top of the configured policy.
func (f *retryFlags) policy(cmd *cobra.Command) (retry.Policy, error) {
	p := cfg.RetryPolicy()
	if cmd.Flags().Changed("retry-after") {
		if f.after <= 0 {
			return p, errors.New("--retry-after must be positive")
		}
		p.After = f.after
	}
	if cmd.Flags().Changed("retry-for") {
		if f.total < 0 {
			return p, errors.New("--retry-for must not be negative")
		}
		p.For = f.total
	}
	return p, nil
}

// runChains starts retry chains with start and drives the scheduler until
// every chain has reached a terminal state or the command is interrupted.
// It returns the outcomes in completion order.
func runChains(cmd *cobra.Command, flags *retryFlags, start func(ctx context.Context, mgr *retry.Manager) error) ([]retry.Outcome, error) {
	policy, err := flags.policy(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.RetryOptions()
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		outcomes []retry.Outcome
	)
	opts = append(opts,
		retry.WithPolicy(policy),
		retry.WithMetrics(metrics.NewRetryMetrics()),
		retry.WithOnDone(func(o retry.Outcome) {
			mu.Lock()
			outcomes = append(outcomes, o)
			mu.Unlock()
		}),
	)

	ctx, stop := signalContext(cmd)
	defer stop()

	loop := scheduler.NewLoop()
	mgr := retry.New(newFS(), loop, opts...)
	if err := start(ctx, mgr); err != nil {
		return nil, err
	}

	if mgr.InFlight() > 0 {
		logger.Info("waiting for locked files", "pending", mgr.InFlight(),
			logger.RetryAfter(policy.After), logger.Remaining(policy.For))
	}
	if err := loop.RunUntilIdle(ctx); err != nil {
		return nil, fmt.Errorf("interrupted with %d operation(s) pending: %w", mgr.InFlight(), err)
	}

	mu.Lock()
	defer mu.Unlock()
	return outcomes, nil
}

// report prints one line per outcome and returns an error when any chain
// did not succeed.
func report(printer *output.Printer, outcomes []retry.Outcome, verb string) error {
	failed := 0
	for _, o := range outcomes {
		target := o.Path
		if o.Dest != "" {
			target = o.Path + " -> " + o.Dest
		}
		switch o.State {
		case retry.StateSucceeded:
			printer.Success(fmt.Sprintf("%s %s", verb, target))
		case retry.StateAbandoned:
			failed++
			printer.Warning(fmt.Sprintf("gave up on %s after %d attempt(s) in %s: %v",
				target, o.Attempts, timeutil.FormatDuration(o.Elapsed), o.Err))
		default:
			failed++
			printer.Error(fmt.Sprintf("failed %s: %v", target, o.Err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d operation(s) did not complete", failed, len(outcomes))
	}
	return nil
}
