// Package augment wraps a blocking client and gives every enumerable
// operation N a non-blocking counterpart N+Suffix that runs on an offload pool.
//
// Go cannot add methods to a value at runtime, so the counterparts live in a
// Client wrapper next to the untouched original:
//
//	c, err := augment.Augment(s3Client)
//	out, err := augment.As[*s3.ListBucketsOutput](
//		c.Call("ListBucketsAsync", ctx, &s3.ListBucketsInput{}),
//	).Await(ctx)
//
// Operations are enumerated once, at augmentation time, through a Lister
// (see Register, Describer and Methods). Each identifier is resolved to a Go
// method with naming.MethodCandidates; identifiers that resolve to nothing, or
// to a method that already ends in Suffix, are skipped and reported by
// Skipped.
package augment

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/awsasync/internal/logger"
	"github.com/marmos91/awsasync/internal/naming"
	"github.com/marmos91/awsasync/internal/telemetry"
	"github.com/marmos91/awsasync/pkg/offload"
)

// Suffix is appended to a method name to form its counterpart name.
const Suffix = "Async"

var (
	// ErrUnresolved is returned in strict mode when a metadata identifier has
	// no matching method.
	ErrUnresolved = errors.New("augment: operation has no matching method")

	// ErrUnknownOperation is returned by Call and Invoke for names that are
	// not installed on the wrapper.
	ErrUnknownOperation = errors.New("augment: unknown operation")
)

// SkipReason says why an enumerated operation got no counterpart.
type SkipReason string

const (
	// SkipUnresolved means no method matched the identifier.
	SkipUnresolved SkipReason = "unresolved"

	// SkipCollision means the resolved method already ends in Suffix.
	SkipCollision SkipReason = "collision"
)

// Skipped records an operation that was enumerated but not installed.
type Skipped struct {
	Name   string     `json:"name" yaml:"name"`
	Method string     `json:"method,omitempty" yaml:"method,omitempty"`
	Reason SkipReason `json:"reason" yaml:"reason"`
}

// ============================================================================
// Options
// ============================================================================

// Option configures Augment.
type Option func(*options)

type options struct {
	pool   *offload.Pool
	lister Lister
	strict bool
}

// WithPool runs counterparts on p instead of offload.Default().
func WithPool(p *offload.Pool) Option {
	return func(o *options) { o.pool = p }
}

// WithLister enumerates operations with l instead of the registry.
func WithLister(l Lister) Option {
	return func(o *options) { o.lister = l }
}

// WithStrict makes enumeration and resolution failures fatal: Augment returns
// an error and no wrapper.
func WithStrict() Option {
	return func(o *options) { o.strict = true }
}

// ============================================================================
// Client
// ============================================================================

// Client holds the original client and the counterparts installed for it.
// It is immutable after Augment returns and safe for concurrent use.
type Client[C any] struct {
	sync C
	opts []Option

	ops           []Operation
	byCounterpart map[string]*Counterpart
	byMethod      map[string]*Counterpart
	skipped       []Skipped
}

// augmented is the type-erased view used to adopt an inner wrapper's
// counterparts.
type augmented interface {
	installed() []*Counterpart
	skips() []Skipped
}

func (c *Client[C]) installed() []*Counterpart {
	out := make([]*Counterpart, 0, len(c.ops))
	for _, op := range c.ops {
		out = append(out, c.byCounterpart[op.Counterpart])
	}
	return out
}

func (c *Client[C]) skips() []Skipped {
	return c.skipped
}

// Augment enumerates client's operations and installs one counterpart per
// resolved method. Augmenting a *Client adopts its counterparts unchanged, so
// augmentation is idempotent.
//
// Without WithStrict, a client without metadata yields a wrapper with zero
// counterparts and a warning.
func Augment[C any](client C, opts ...Option) (*Client[C], error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	_, span := telemetry.StartSpan(context.Background(), telemetry.SpanAugment,
		trace.WithAttributes(telemetry.AugmentClient(fmt.Sprintf("%T", client))))
	defer span.End()

	c := &Client[C]{
		sync:          client,
		opts:          opts,
		byCounterpart: make(map[string]*Counterpart),
		byMethod:      make(map[string]*Counterpart),
	}

	if inner, ok := any(client).(augmented); ok {
		for _, cp := range inner.installed() {
			c.install(cp)
		}
		c.skipped = append(c.skipped, inner.skips()...)
		logger.Debug("Adopted counterparts of augmented client",
			logger.KeyCount, len(c.ops))
		return c, nil
	}

	if err := c.populate(client, o); err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Debug("Client augmented",
		logger.KeyCount, len(c.ops),
		"skipped", len(c.skipped),
		"client", fmt.Sprintf("%T", client))

	return c, nil
}

func (c *Client[C]) populate(client C, o options) error {
	lister := o.lister
	if lister == nil {
		lister = ListerFunc(ListOperations)
	}

	names, err := lister.ListOperations(client)
	if err != nil {
		if o.strict {
			return fmt.Errorf("enumerate %T: %w", client, err)
		}
		logger.Warn("Client operations cannot be enumerated, no counterparts installed",
			"client", fmt.Sprintf("%T", client),
			logger.Err(err))
		return nil
	}

	cv := reflect.ValueOf(client)
	if !cv.IsValid() {
		if o.strict {
			return fmt.Errorf("%w: nil client", ErrNoMetadata)
		}
		return nil
	}

	var unresolved []error
	for _, id := range names {
		method, fn, ok := resolve(cv, id)
		if !ok {
			c.skipped = append(c.skipped, Skipped{Name: id, Reason: SkipUnresolved})
			unresolved = append(unresolved, fmt.Errorf("%w: %q on %T", ErrUnresolved, id, client))
			logger.Warn("Operation has no matching method, skipped",
				logger.KeyIdentifier, id,
				logger.KeyReason, SkipUnresolved)
			continue
		}

		if naming.HasSuffix(method, Suffix) {
			c.skipped = append(c.skipped, Skipped{Name: id, Method: method, Reason: SkipCollision})
			logger.Debug("Operation already carries the counterpart suffix, skipped",
				logger.KeyIdentifier, id,
				logger.KeyOperation, method,
				logger.KeyReason, SkipCollision)
			continue
		}

		if _, dup := c.byMethod[method]; dup {
			continue
		}

		c.install(&Counterpart{
			op: Operation{
				Name:        id,
				Method:      method,
				Counterpart: naming.CounterpartName(method, Suffix),
				Type:        fn.Type(),
				fn:          fn,
			},
			pool: o.pool,
		})
	}

	if o.strict && len(unresolved) > 0 {
		return errors.Join(unresolved...)
	}
	return nil
}

// resolve finds the first candidate method name that exists on cv.
func resolve(cv reflect.Value, id string) (string, reflect.Value, bool) {
	for _, name := range naming.MethodCandidates(id) {
		if m := cv.MethodByName(name); m.IsValid() {
			return name, m, true
		}
	}
	return "", reflect.Value{}, false
}

func (c *Client[C]) install(cp *Counterpart) {
	c.ops = append(c.ops, cp.op)
	c.byCounterpart[cp.op.Counterpart] = cp
	c.byMethod[cp.op.Method] = cp
}

// Sync returns the original client.
func (c *Client[C]) Sync() C {
	return c.sync
}

// Operations returns the installed operations in enumeration order.
func (c *Client[C]) Operations() []Operation {
	return append([]Operation(nil), c.ops...)
}

// Counterparts returns the installed counterpart names in enumeration order.
func (c *Client[C]) Counterparts() []string {
	names := make([]string, len(c.ops))
	for i, op := range c.ops {
		names[i] = op.Counterpart
	}
	return names
}

// Counterpart returns the counterpart installed under name (e.g. "GetObjectAsync").
func (c *Client[C]) Counterpart(name string) (*Counterpart, bool) {
	cp, ok := c.byCounterpart[name]
	return cp, ok
}

// Find looks name up leniently: as a counterpart name, then as any spelling of
// the operation (method name, snake_case or lowerCamel identifier).
func (c *Client[C]) Find(name string) (*Counterpart, bool) {
	if cp, ok := c.byCounterpart[name]; ok {
		return cp, true
	}
	for _, candidate := range naming.MethodCandidates(name) {
		if cp, ok := c.byMethod[candidate]; ok {
			return cp, true
		}
	}
	return nil, false
}

// Skipped returns the enumerated operations that got no counterpart.
func (c *Client[C]) Skipped() []Skipped {
	return append([]Skipped(nil), c.skipped...)
}

// Call invokes a counterpart by name. Unknown names resolve the future with
// ErrUnknownOperation.
func (c *Client[C]) Call(name string, args ...any) *offload.Future[[]any] {
	cp, ok := c.Find(name)
	if !ok {
		return offload.Resolved[[]any](nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name))
	}
	return cp.Call(args...)
}

// Invoke calls the original operation synchronously on the calling goroutine.
func (c *Client[C]) Invoke(name string, args ...any) ([]any, error) {
	cp, ok := c.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	return offload.Invoke(cp.op.fn.Interface(), args...)
}

// Augment re-augments the original client with the options used to build c
// followed by opts.
func (c *Client[C]) Augment(opts ...Option) (*Client[C], error) {
	all := append(append([]Option(nil), c.opts...), opts...)
	return Augment(c.sync, all...)
}

// As returns a future of the first result converted to T. A nil first result
// yields T's zero value; a result of another type is an error.
func As[T any](f *offload.Future[[]any]) *offload.Future[T] {
	return offload.Then(f, func(results []any) (T, error) {
		var zero T
		if len(results) == 0 || results[0] == nil {
			return zero, nil
		}
		v, ok := results[0].(T)
		if !ok {
			return zero, fmt.Errorf("augment: result is %T, not %T", results[0], zero)
		}
		return v, nil
	})
}
