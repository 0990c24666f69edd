// Package hooks provides retry.Restarter implementations used to make an
// out-of-process worker pool drop the file handles it holds.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	shellquote "github.com/Hellseher/go-shellquote"

	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/pkg/retry"
)

// DefaultCommandTimeout bounds a single restart command.
const DefaultCommandTimeout = 30 * time.Second

// CleanEnv is set to "1" or "0" in the environment of a restart command,
// telling it whether workers must be restarted with a clean state.
const CleanEnv = "SAFEFS_RESTART_CLEAN"

// ErrEmptyCommand is returned when a command line has no words.
var ErrEmptyCommand = errors.New("restart command is empty")

var (
	_ retry.Restarter = Nop{}
	_ retry.Restarter = Func(nil)
	_ retry.Restarter = (*Command)(nil)
)

// Nop is a Restarter that does nothing.
type Nop struct{}

func (Nop) Restart(context.Context, bool) error { return nil }

// Func adapts a function to retry.Restarter.
type Func func(ctx context.Context, clean bool) error

func (f Func) Restart(ctx context.Context, clean bool) error {
	if f == nil {
		return nil
	}
	return f(ctx, clean)
}

// runner executes a prepared command and returns its combined output.
type runner func(cmd *exec.Cmd) ([]byte, error)

func combinedOutput(cmd *exec.Cmd) ([]byte, error) {
	return cmd.CombinedOutput()
}

// Command restarts workers by running an external program.
type Command struct {
	name    string
	args    []string
	timeout time.Duration
	run     runner
}

// CommandOption configures a Command.
type CommandOption func(*Command)

// WithTimeout bounds each run of the command. Zero disables the bound.
func WithTimeout(d time.Duration) CommandOption {
	return func(c *Command) {
		c.timeout = d
	}
}

// NewCommand parses line with POSIX shell quoting rules. No shell is
// involved when the command runs.
func NewCommand(line string, opts ...CommandOption) (*Command, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("parse restart command: %w", err)
	}
	if len(words) == 0 {
		return nil, ErrEmptyCommand
	}

	c := &Command{
		name:    words[0],
		args:    words[1:],
		timeout: DefaultCommandTimeout,
		run:     combinedOutput,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// String returns the command line, quoted.
func (c *Command) String() string {
	return shellquote.Join(append([]string{c.name}, c.args...)...)
}

// Restart runs the command and waits for it. A non-zero exit status is an
// error carrying the trimmed output.
func (c *Command) Restart(ctx context.Context, clean bool) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Env = append(os.Environ(), CleanEnv+"="+boolEnv(clean))

	start := time.Now()
	out, err := c.run(cmd)
	logger.DebugCtx(ctx, "restart command finished",
		"command", c.String(), "clean", clean,
		logger.DurationMs(logger.Duration(start)), logger.Err(err))

	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("restart command %q: %w: %s", c.name, err, msg)
		}
		return fmt.Errorf("restart command %q: %w", c.name, err)
	}
	return nil
}

// FromConfig returns a Command for line, or Nop when line is blank.
func FromConfig(line string) (retry.Restarter, error) {
	if strings.TrimSpace(line) == "" {
		return Nop{}, nil
	}
	return NewCommand(line)
}

func boolEnv(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
