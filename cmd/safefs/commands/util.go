package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/safefs/internal/cli/output"
	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/internal/telemetry"
	"github.com/marmos91/safefs/pkg/config"
	"github.com/marmos91/safefs/pkg/fileutil"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/safefs/pkg/metrics/prometheus"
)

var (
	cfg               *config.Config
	telemetryShutdown func(context.Context) error
)

// setup loads the configuration, then initializes logging and tracing for
// every command below root.
func setup(cmd *cobra.Command, _ []string) error {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipSetupAnnotation] == "true" {
			return nil
		}
	}

	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}
	if logFormat != "" {
		loaded.Logging.Format = logFormat
	}
	config.ApplyDefaults(loaded)
	if err := config.Validate(loaded); err != nil {
		return err
	}
	cfg = loaded

	if err := InitLogger(cfg); err != nil {
		return err
	}

	shutdown, err := telemetry.Init(cmd.Context(), cfg.TracingConfig(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	telemetryShutdown = shutdown
	return nil
}

// teardown flushes pending spans.
func teardown(ctx context.Context) {
	if telemetryShutdown == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := telemetryShutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", logger.Err(err))
	}
	telemetryShutdown = nil
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// newFS builds the filesystem facade from the loaded configuration.
func newFS(extra ...fileutil.Option) *fileutil.FS {
	return fileutil.New(append(cfg.FileOptions(), extra...)...)
}

// newPrinter returns a printer writing to the command's stdout.
func newPrinter(cmd *cobra.Command, format string) (*output.Printer, error) {
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	out := cmd.OutOrStdout()
	color := false
	if file, ok := out.(*os.File); ok {
		color = output.IsTerminal(file)
	}
	return output.NewPrinter(out, f, color), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
