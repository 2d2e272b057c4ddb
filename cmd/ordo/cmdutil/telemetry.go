package cmdutil

import (
	"context"
	"fmt"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/internal/telemetry"
	"github.com/marmos91/ordo/pkg/config"
)

// StartTelemetry initializes tracing and, when withProfiling is set,
// continuous profiling. The returned func flushes and stops both.
func StartTelemetry(ctx context.Context, cfg *config.Config, withProfiling bool) (func(), error) {
	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "ordo",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	profilingShutdown := func() error { return nil }
	if withProfiling {
		profilingShutdown, err = telemetry.InitProfiling(telemetry.ProfilingConfig{
			Enabled:        cfg.Telemetry.Profiling.Enabled,
			ServiceName:    "ordo",
			ServiceVersion: Version,
			Endpoint:       cfg.Telemetry.Profiling.Endpoint,
			ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
		})
		if err != nil {
			_ = telemetryShutdown(ctx)
			return nil, fmt.Errorf("failed to initialize profiling: %w", err)
		}
	}

	return func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
		// ctx may already be cancelled at shutdown; spans still need flushing.
		if err := telemetryShutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}, nil
}
