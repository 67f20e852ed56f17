package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/awsasync/cmd/awsasync/cmdutil"
	"github.com/marmos91/awsasync/internal/logger"
	"github.com/marmos91/awsasync/internal/telemetry"
	"github.com/marmos91/awsasync/pkg/config"
	"github.com/marmos91/awsasync/pkg/metrics"
	"github.com/marmos91/awsasync/pkg/offload"
)

// shutdowns are run in reverse order by shutdownRuntime.
var shutdowns []func(context.Context) error

// setupRuntime loads the configuration and starts logging, tracing,
// profiling, metrics and the process-wide default pool.
func setupRuntime(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}
	cmdutil.Config = cfg

	if err := InitLogger(cfg); err != nil {
		return err
	}

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "awsasync",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	shutdowns = append(shutdowns, telemetryShutdown)

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "awsasync",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
		Tags: map[string]string{
			"executor": cfg.Offload.Executor,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	shutdowns = append(shutdowns, func(context.Context) error { return profilingShutdown() })

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	pool, err := offload.NewPool(cfg.Offload, metrics.NewOffloadMetrics())
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	if previous := offload.SetDefault(pool); previous != nil {
		_ = previous.Close()
	}
	shutdowns = append(shutdowns, func(context.Context) error { return offload.Shutdown() })

	logger.Debug("Runtime initialized",
		logger.KeyExecutor, pool.Config().Executor,
		logger.KeyWorkers, pool.Config().Workers,
		"telemetry", telemetry.IsEnabled(),
		"profiling", telemetry.IsProfilingEnabled(),
		"metrics", metrics.IsEnabled(),
	)
	return nil
}

// shutdownRuntime releases everything setupRuntime started.
func shutdownRuntime() error {
	timeout := config.GetDefaultConfig().ShutdownTimeout
	if cmdutil.Config != nil {
		timeout = cmdutil.Config.ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for i := len(shutdowns) - 1; i >= 0; i-- {
		if err := shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	shutdowns = nil
	return errors.Join(errs...)
}

// InitLogger initializes the structured logger from configuration and the
// global flags.
func InitLogger(cfg *config.Config) error {
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cmdutil.Flags.NoColor {
		logger.SetColor(false)
	}
	return cmdutil.ApplyLogLevel()
}
