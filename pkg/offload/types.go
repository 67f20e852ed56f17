package offload

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// ============================================================================
// Executor kinds and defaults
// ============================================================================

const (
	// ExecutorNative runs each task on its own goroutine, bounded by a semaphore.
	ExecutorNative = "native"

	// ExecutorQueue runs tasks on a fixed set of workers fed by a FIFO queue.
	ExecutorQueue = "queue"

	// MaxDefaultWorkers caps the default pool size.
	MaxDefaultWorkers = 32
)

// DefaultWorkers returns min(32, GOMAXPROCS+4), the size used by Default().
func DefaultWorkers() int {
	return min(MaxDefaultWorkers, runtime.GOMAXPROCS(0)+4)
}

// ============================================================================
// Errors
// ============================================================================

var (
	// ErrPoolClosed is returned by futures submitted after Close.
	ErrPoolClosed = errors.New("offload: pool is closed")

	// ErrNotCallable is returned when Call receives something that is not a
	// non-nil function.
	ErrNotCallable = errors.New("offload: value is not callable")

	// ErrBadArguments is returned when Call's arguments do not match the
	// function's parameters.
	ErrBadArguments = errors.New("offload: arguments do not match function signature")
)

// PanicError is the error a future resolves with when the offloaded function
// panics. The panic is recovered on the worker and never re-raised.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("offload: panic in offloaded call: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ============================================================================
// Configuration
// ============================================================================

// Config sizes and selects the executor of a Pool.
type Config struct {
	// Workers is the maximum number of calls running at the same time.
	// Zero means DefaultWorkers().
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers,omitempty" validate:"omitempty,min=1,max=4096"`

	// Executor selects the implementation: "native" (default) or "queue".
	Executor string `mapstructure:"executor" yaml:"executor" json:"executor,omitempty" validate:"omitempty,oneof=native queue"`
}

// DefaultConfig returns the configuration used by Default().
func DefaultConfig() Config {
	return Config{
		Workers:  DefaultWorkers(),
		Executor: ExecutorNative,
	}
}

// applyDefaults fills zero values.
func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers()
	}
	if c.Executor == "" {
		c.Executor = ExecutorNative
	}
}

// ============================================================================
// Metrics
// ============================================================================

// Metrics receives per-call observations. A nil Metrics disables collection.
//
// The Prometheus implementation lives in pkg/metrics/prometheus so this
// package does not depend on a metrics backend.
type Metrics interface {
	// ObserveCall records a completed call. err is the error the future
	// resolved with (nil on success).
	ObserveCall(label string, d time.Duration, err error)

	// ObserveQueueWait records the time between submission and the moment a
	// worker started the call.
	ObserveQueueWait(label string, d time.Duration)

	IncInFlight(label string)
	DecInFlight(label string)
}
