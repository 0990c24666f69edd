package commands

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/marmos91/safefs/internal/cli/output"
	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/internal/telemetry"
	"github.com/marmos91/safefs/pkg/fileutil"
	"github.com/marmos91/safefs/pkg/metrics"
	"github.com/marmos91/safefs/pkg/watch"
)

var (
	watchOutput      string
	watchSkipInitial bool
	watchMetrics     bool
	watchMetricsPort int
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Report the files below a directory and follow changes",
	Long: `Walk a directory like "safefs walk", then keep running and report files
as they are added, changed or removed. Entries hidden from walks stay hidden.

With metrics enabled (metrics.enabled or --metrics) a Prometheus endpoint is
served on /metrics while the command runs.

Examples:
  safefs watch /media/movies
  safefs watch /media -o json --skip-initial
  safefs watch /media --metrics --metrics-port 9191`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "plain", "Output format (plain|json)")
	watchCmd.Flags().BoolVar(&watchSkipInitial, "skip-initial", false, "Do not print the files found by the initial walk")
	watchCmd.Flags().BoolVar(&watchMetrics, "metrics", false, "Serve Prometheus metrics (overrides metrics.enabled)")
	watchCmd.Flags().IntVar(&watchMetricsPort, "metrics-port", 0, "Metrics port (default: metrics.port)")
}

// eventView is the JSON form of a watch event.
type eventView struct {
	Op      watch.Op `json:"op"`
	Path    string   `json:"path"`
	Initial bool     `json:"initial,omitempty"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(watchOutput)
	if err != nil {
		return err
	}
	if format != output.FormatPlain && format != output.FormatJSON {
		return fmt.Errorf("watch supports plain and json output, not %s", format)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	profilingShutdown, err := telemetry.InitProfiling(cfg.ProfilingConfig(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	if watchMetrics || cfg.Metrics.Enabled {
		port := cfg.Metrics.Port
		if watchMetricsPort > 0 {
			port = watchMetricsPort
		}
		srv := metrics.NewServer(fmt.Sprintf(":%d", port), metrics.InitRegistry())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Start(ctx); err != nil {
				logger.Error("metrics server stopped", logger.Err(err))
			}
		}()
	}

	fsys := newFS(fileutil.WithMetrics(metrics.NewFileMetrics()))
	w := watch.New(fsys, args[0], watch.WithMetrics(metrics.NewWatchMetrics()))

	logger.Debug("watch starting", logger.Dir(args[0]),
		"tracing", telemetry.IsEnabled(), "profiling", telemetry.IsProfilingEnabled(), "metrics", metrics.IsEnabled())

	out := cmd.OutOrStdout()
	emit := func(ev watch.Event) {
		if ev.Initial && watchSkipInitial {
			return
		}
		if format == output.FormatJSON {
			_ = output.PrintJSONCompact(out, eventView{Op: ev.Op, Path: ev.Path, Initial: ev.Initial})
			return
		}
		_, _ = fmt.Fprintln(out, ev.String())
	}

	if err := w.Run(ctx, emit); err != nil {
		return err
	}
	logger.Info("watch stopped", logger.Dir(args[0]), logger.KeyEntries, len(w.Files()))
	return nil
}
