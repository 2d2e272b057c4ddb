package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/ordo/cmd/ordo/cmdutil"
	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/internal/telemetry"
	"github.com/marmos91/ordo/pkg/api"
	"github.com/marmos91/ordo/pkg/metrics"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/ordo/pkg/metrics/prometheus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin API server",
	Long: `Run the admin HTTP API for the instance described by the
configuration. Lifecycle routes require a token from 'ordo token'.

When metrics are enabled, /metrics is served on the API port and on
metrics.port.

Examples:
  ordo serve
  ORDO_LOGGING_LEVEL=DEBUG ordo serve --config /etc/ordo/ordo.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stop, err := cmdutil.StartTelemetry(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer stop()

	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	// Metrics must be enabled before the admin is opened so it gets a
	// non-nil recorder.
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	admin, err := cmdutil.OpenAdmin(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = admin.Close() }()

	server, err := api.NewServer(cfg, admin)
	if err != nil {
		return err
	}

	logger.Info("Serving instance",
		logger.Root(admin.Root()),
		logger.Table(admin.Table()),
		logger.KeyBackend, cfg.Coordination.Backend+"/"+cfg.Table.Backend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx) })
	if cfg.Metrics.Enabled {
		ms := metrics.NewServer(cfg.Metrics.Port)
		g.Go(func() error { return ms.Start(gctx) })
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}
