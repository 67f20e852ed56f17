package offload

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Executor runs tasks on worker goroutines. Execute must not block the caller
// on the task itself; it only admits it. Close stops admission and waits for
// admitted tasks to finish.
type Executor interface {
	Execute(task func()) error
	Close() error
}

// ============================================================================
// NativeExecutor
// ============================================================================

// NativeExecutor starts a goroutine per task. At most Workers tasks run at the
// same time; the rest wait on the semaphore inside their own goroutine, so
// Execute returns immediately.
type NativeExecutor struct {
	sem     *semaphore.Weighted
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewNativeExecutor creates a NativeExecutor running up to workers tasks at once.
func NewNativeExecutor(workers int) *NativeExecutor {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	return &NativeExecutor{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
	}
}

// Execute admits task.
func (e *NativeExecutor) Execute(task func()) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return ErrPoolClosed
	}
	e.wg.Add(1)
	e.mu.RUnlock()

	go func() {
		defer e.wg.Done()

		// Acquire with a background context only fails on cancellation.
		_ = e.sem.Acquire(context.Background(), 1)
		defer e.sem.Release(1)

		task()
	}()

	return nil
}

// Workers returns the concurrency bound.
func (e *NativeExecutor) Workers() int {
	return e.workers
}

// Close stops admission and waits for running and pending tasks.
func (e *NativeExecutor) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

// ============================================================================
// QueueExecutor
// ============================================================================

// QueueExecutor keeps Workers long-lived goroutines that pull tasks from an
// unbounded FIFO queue. Submission order is preserved when picking tasks;
// completion order is not.
type QueueExecutor struct {
	workers int

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	wg     sync.WaitGroup
}

// NewQueueExecutor creates a QueueExecutor and starts its workers.
func NewQueueExecutor(workers int) *QueueExecutor {
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	e := &QueueExecutor{workers: workers}
	e.cond = sync.NewCond(&e.mu)

	for range workers {
		e.wg.Add(1)
		go e.worker()
	}

	return e
}

func (e *QueueExecutor) worker() {
	defer e.wg.Done()

	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			// closed and drained
			e.mu.Unlock()
			return
		}
		task := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()

		task()
	}
}

// Execute enqueues task and wakes one worker.
func (e *QueueExecutor) Execute(task func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrPoolClosed
	}

	e.queue = append(e.queue, task)
	e.cond.Signal()
	return nil
}

// Workers returns the number of worker goroutines.
func (e *QueueExecutor) Workers() int {
	return e.workers
}

// Pending returns the number of queued tasks not yet picked by a worker.
func (e *QueueExecutor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Close stops admission, lets the workers drain the queue and waits for them.
func (e *QueueExecutor) Close() error {
	e.mu.Lock()
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}
