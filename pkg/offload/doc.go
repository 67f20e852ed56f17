// Package offload runs blocking calls on a shared worker pool and hands the
// caller a Future to await.
//
// It is the single-operation primitive the rest of awsasync is built on:
// Submit schedules a typed func() (T, error), Call schedules an arbitrary
// function value with reflectively forwarded arguments. Neither blocks the
// submitting goroutine on the work itself; the submitter only suspends when
// it calls Future.Await.
//
// Two executors implement the worker pool:
//
//   - NativeExecutor starts one goroutine per task and bounds how many run at
//     once with a weighted semaphore.
//   - QueueExecutor keeps a fixed set of worker goroutines pulling from an
//     unbounded FIFO queue.
//
// Both give identical results, error identity and panic propagation for the
// same callable. A process-wide pool is available through Default; the CLI
// replaces it with a configured one via SetDefault and releases it with
// Shutdown.
package offload
