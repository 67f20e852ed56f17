package offload

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/marmos91/awsasync/internal/logger"
	"github.com/marmos91/awsasync/internal/telemetry"
)

// Pool schedules blocking calls on an Executor and resolves their futures.
type Pool struct {
	cfg      Config
	executor Executor
	metrics  Metrics

	closeOnce sync.Once
	closeErr  error
}

// NewPool builds the executor selected by cfg. m may be nil.
func NewPool(cfg Config, m Metrics) (*Pool, error) {
	cfg.applyDefaults()

	var exec Executor
	switch cfg.Executor {
	case ExecutorNative:
		exec = NewNativeExecutor(cfg.Workers)
	case ExecutorQueue:
		exec = NewQueueExecutor(cfg.Workers)
	default:
		return nil, fmt.Errorf("unknown executor %q (expected %q or %q)", cfg.Executor, ExecutorNative, ExecutorQueue)
	}

	logger.Debug("Offload pool created",
		logger.KeyExecutor, cfg.Executor,
		logger.KeyWorkers, cfg.Workers)

	return &Pool{cfg: cfg, executor: exec, metrics: m}, nil
}

// NewPoolWithExecutor wraps a caller-provided executor. kind is reported as
// the executor in traces and logs.
func NewPoolWithExecutor(exec Executor, kind string, m Metrics) *Pool {
	return &Pool{
		cfg:      Config{Executor: kind},
		executor: exec,
		metrics:  m,
	}
}

// Config returns the effective configuration.
func (p *Pool) Config() Config {
	return p.cfg
}

// Close stops admission. Work already submitted runs to completion before
// Close returns; later submissions resolve with ErrPoolClosed. Close must not
// be called from inside an offloaded function.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.executor.Close()
		logger.Debug("Offload pool closed", logger.KeyExecutor, p.cfg.Executor)
	})
	return p.closeErr
}

// Submit schedules fn on p and returns immediately. The future resolves with
// fn's value and error unchanged; a panic in fn resolves it with *PanicError.
// A nil p uses Default(). ctx is only used to correlate traces and logs, it
// does not cancel fn.
func Submit[T any](ctx context.Context, p *Pool, label string, fn func() (T, error)) *Future[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	if p == nil {
		p = Default()
	}

	f := newFuture[T](uuid.NewString())
	if fn == nil {
		var zero T
		f.resolve(zero, fmt.Errorf("%w: nil function", ErrNotCallable))
		return f
	}

	spanCtx, span := telemetry.StartOffloadSpan(ctx, label, f.id, p.cfg.Executor)
	submitted := time.Now()

	task := func() {
		defer span.End()

		wait := time.Since(submitted)
		if p.metrics != nil {
			p.metrics.ObserveQueueWait(label, wait)
			p.metrics.IncInFlight(label)
		}

		start := time.Now()
		var (
			v   T
			err error
		)
		telemetry.ProfileOperation(spanCtx, label, func() {
			v, err = runRecovered(fn)
		})
		elapsed := time.Since(start)

		if p.metrics != nil {
			p.metrics.DecInFlight(label)
			p.metrics.ObserveCall(label, elapsed, err)
		}

		p.logCompletion(ctx, f.id, label, wait, elapsed, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		f.resolve(v, err)
	}

	if err := p.executor.Execute(task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()

		var zero T
		f.resolve(zero, err)
	}

	return f
}

// Call offloads fn(args...) where fn is any function value. Arguments are
// forwarded verbatim; a nil argument becomes the zero value of its parameter
// and variadic functions take the expanded tail. When the last result is an
// error it becomes the future's error; the other results are delivered in
// order. Mismatched arguments resolve the future with ErrBadArguments and a
// non-function with ErrNotCallable.
func (p *Pool) Call(ctx context.Context, label string, fn any, args ...any) *Future[[]any] {
	fv, in, err := bind(fn, args)
	if err != nil {
		logger.DebugCtx(ctx, "Offload call rejected", logger.KeyLabel, label, logger.Err(err))
		return Resolved[[]any](nil, err)
	}

	return Submit(ctx, p, label, func() ([]any, error) {
		return invoke(fv, in)
	})
}

func runRecovered[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

func (p *Pool) logCompletion(ctx context.Context, id, label string, wait, elapsed time.Duration, err error) {
	var pe *PanicError
	switch {
	case errors.As(err, &pe):
		logger.ErrorCtx(ctx, "Offloaded call panicked",
			logger.KeyCallID, id,
			logger.KeyLabel, label,
			logger.KeyExecutor, p.cfg.Executor,
			logger.Err(err),
			"stack", string(pe.Stack))
	case err != nil:
		// Failures belong to whoever awaits the future.
		logger.DebugCtx(ctx, "Offloaded call failed",
			logger.KeyCallID, id,
			logger.KeyLabel, label,
			logger.DurationMs(elapsed),
			logger.Err(err))
	default:
		logger.DebugCtx(ctx, "Offloaded call completed",
			logger.KeyCallID, id,
			logger.KeyLabel, label,
			logger.KeyWaitMs, float64(wait.Microseconds())/1000.0,
			logger.DurationMs(elapsed))
	}
}

// ============================================================================
// Process-wide pool
// ============================================================================

var (
	defaultMu   sync.Mutex
	defaultPool *Pool
)

// Default returns the process-wide pool, creating it with DefaultConfig() on
// first use.
func Default() *Pool {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultPool == nil {
		cfg := DefaultConfig()
		defaultPool = &Pool{cfg: cfg, executor: NewNativeExecutor(cfg.Workers)}
		logger.Debug("Default offload pool created",
			logger.KeyExecutor, cfg.Executor,
			logger.KeyWorkers, cfg.Workers)
	}
	return defaultPool
}

// SetDefault installs p as the process-wide pool and returns the previous one
// (nil if none had been created). The previous pool is not closed.
func SetDefault(p *Pool) *Pool {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	prev := defaultPool
	defaultPool = p
	return prev
}

// Shutdown closes the process-wide pool. The next Default() creates a new one.
func Shutdown() error {
	defaultMu.Lock()
	p := defaultPool
	defaultPool = nil
	defaultMu.Unlock()

	if p == nil {
		return nil
	}
	return p.Close()
}
