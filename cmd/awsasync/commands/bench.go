package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/awsasync/cmd/awsasync/cmdutil"
	"github.com/marmos91/awsasync/internal/cli/output"
	"github.com/marmos91/awsasync/internal/logger"
	"github.com/marmos91/awsasync/internal/simclient"
	"github.com/marmos91/awsasync/pkg/augment"
	"github.com/marmos91/awsasync/pkg/metrics"
	"github.com/marmos91/awsasync/pkg/offload"
)

var (
	benchCount    int
	benchLatency  time.Duration
	benchWorkers  int
	benchExecutor string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare concurrent counterparts with sequential blocking calls",
	Long: `Run simulated blocking calls twice: once concurrently through their
Async counterparts and once sequentially through the blocking client, and
report both wall-clock times.

With enough workers the concurrent pass takes about as long as the slowest
call while the sequential pass takes the sum of all calls.

Examples:
  # 20 calls of 100ms each
  awsasync bench

  # Saturate a small queue executor
  awsasync bench --count 50 --workers 4 --executor queue`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchCount, "count", 20, "Number of calls per pass")
	benchCmd.Flags().DurationVar(&benchLatency, "latency", 100*time.Millisecond, "Duration of each simulated call")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 0, "Pool size (default: offload.workers from config)")
	benchCmd.Flags().StringVar(&benchExecutor, "executor", "", "Executor: native or queue (default: offload.executor from config)")
}

// BenchResult is the outcome of one pass.
type BenchResult struct {
	Mode     string        `json:"mode" yaml:"mode"`
	Calls    int           `json:"calls" yaml:"calls"`
	Workers  int           `json:"workers" yaml:"workers"`
	Executor string        `json:"executor" yaml:"executor"`
	Elapsed  time.Duration `json:"elapsed_ns" yaml:"elapsed"`
}

// BenchReport is the bench output.
type BenchReport struct {
	Latency time.Duration `json:"latency_ns" yaml:"latency"`
	Passes  []BenchResult `json:"passes" yaml:"passes"`
	Speedup float64       `json:"speedup" yaml:"speedup"`
}

// Headers implements output.TableRenderer.
func (r BenchReport) Headers() []string {
	return []string{"MODE", "CALLS", "WORKERS", "EXECUTOR", "ELAPSED"}
}

// Rows implements output.TableRenderer.
func (r BenchReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Passes))
	for _, p := range r.Passes {
		workers, executor := fmt.Sprint(p.Workers), p.Executor
		if p.Workers == 0 {
			workers, executor = "-", "-"
		}
		rows = append(rows, []string{p.Mode, fmt.Sprint(p.Calls), workers, executor, output.FormatDuration(p.Elapsed)})
	}
	return rows
}

// Footer implements output.Footered.
func (r BenchReport) Footer() []string {
	return []string{"speedup", "", "", "", fmt.Sprintf("%.1fx", r.Speedup)}
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	cfg := offload.DefaultConfig()
	if cmdutil.Config != nil {
		cfg = cmdutil.Config.Offload
	}
	if benchWorkers > 0 {
		cfg.Workers = benchWorkers
	}
	if benchExecutor != "" {
		cfg.Executor = benchExecutor
	}

	pool, err := offload.NewPool(cfg, metrics.NewOffloadMetrics())
	if err != nil {
		return err
	}
	defer func() { _ = pool.Close() }()

	report, err := Bench(commandContext(cmd), pool, benchCount, benchLatency)
	if err != nil {
		return err
	}
	return cmdutil.PrintOutput(cmd, report)
}

// Bench runs count sleeps of latency concurrently on pool, then sequentially.
func Bench(ctx context.Context, pool *offload.Pool, count int, latency time.Duration) (BenchReport, error) {
	sim := simclient.New(0)
	client, err := augment.Augment(sim, augment.WithPool(pool))
	if err != nil {
		return BenchReport{}, err
	}
	cp, ok := client.Counterpart("SleepAsync")
	if !ok {
		return BenchReport{}, fmt.Errorf("simulated client has no SleepAsync counterpart")
	}

	logger.Info("Running concurrent pass",
		logger.KeyCount, count,
		logger.KeyWorkers, pool.Config().Workers,
		logger.KeyExecutor, pool.Config().Executor)

	start := time.Now()
	futures := make([]*offload.Future[time.Duration], count)
	for i := range futures {
		futures[i] = augment.As[time.Duration](cp.Call(ctx, latency))
	}
	if _, err := offload.Gather(ctx, futures...); err != nil {
		return BenchReport{}, fmt.Errorf("concurrent pass failed: %w", err)
	}
	concurrent := time.Since(start)

	logger.Info("Running sequential pass", logger.KeyCount, count)

	start = time.Now()
	for i := 0; i < count; i++ {
		if _, err := sim.Sleep(ctx, latency); err != nil {
			return BenchReport{}, fmt.Errorf("sequential pass failed: %w", err)
		}
	}
	sequential := time.Since(start)

	report := BenchReport{
		Latency: latency,
		Passes: []BenchResult{
			{Mode: "concurrent", Calls: count, Workers: pool.Config().Workers, Executor: pool.Config().Executor, Elapsed: concurrent},
			{Mode: "sequential", Calls: count, Elapsed: sequential},
		},
	}
	if concurrent > 0 {
		report.Speedup = float64(sequential) / float64(concurrent)
	}
	return report, nil
}
