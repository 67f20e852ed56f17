// Package simclient is a deterministic blocking client used by the bench
// command, the gateway demo service and tests. It describes its operations
// with snake_case identifiers so they go through the same name resolution as
// real service metadata.
package simclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// ErrSimulated is the base error of Fail.
var ErrSimulated = errors.New("simulated failure")

// Operations lists the metadata identifiers of Client.
var Operations = []string{"sleep", "echo", "fail", "get_http_status", "panic"}

// Client simulates a blocking API. The zero value is ready to use.
type Client struct {
	// Latency is added to every call except Sleep, which sleeps for its
	// argument instead.
	Latency time.Duration

	calls atomic.Int64
}

// New creates a client whose calls block for latency.
func New(latency time.Duration) *Client {
	return &Client{Latency: latency}
}

// OperationNames implements augment.Describer.
func (c *Client) OperationNames() []string {
	return append([]string(nil), Operations...)
}

// Calls returns how many operations have been invoked.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

func (c *Client) block() {
	c.calls.Add(1)
	if c.Latency > 0 {
		time.Sleep(c.Latency)
	}
}

// Sleep blocks for d, or until ctx is done, and returns how long it slept.
func (c *Client) Sleep(ctx context.Context, d time.Duration) (time.Duration, error) {
	c.calls.Add(1)
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return time.Since(start), nil
	case <-ctx.Done():
		return time.Since(start), ctx.Err()
	}
}

// Echo returns its arguments.
func (c *Client) Echo(args ...string) []string {
	c.block()
	return append([]string{}, args...)
}

// Fail always returns an error wrapping ErrSimulated.
func (c *Client) Fail(msg string) error {
	c.block()
	return fmt.Errorf("%w: %s", ErrSimulated, msg)
}

// GetHTTPStatus returns the reason phrase of an HTTP status code.
func (c *Client) GetHTTPStatus(code int) (string, error) {
	c.block()
	text := http.StatusText(code)
	if text == "" {
		return "", fmt.Errorf("%w: unknown HTTP status %d", ErrSimulated, code)
	}
	return text, nil
}

// Panic panics with v.
func (c *Client) Panic(v any) {
	c.block()
	panic(v)
}
