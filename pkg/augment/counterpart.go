package augment

import (
	"context"
	"reflect"

	"github.com/marmos91/awsasync/pkg/offload"
)

// Operation describes one enumerated operation and the counterpart installed
// for it.
type Operation struct {
	// Name is the identifier as found in the client metadata.
	Name string

	// Method is the Go method that implements the operation.
	Method string

	// Counterpart is Method + Suffix.
	Counterpart string

	// Type is the method's function type (receiver bound).
	Type reflect.Type

	fn reflect.Value
}

// Func returns the bound method value.
func (o Operation) Func() any {
	if !o.fn.IsValid() {
		return nil
	}
	return o.fn.Interface()
}

// Counterpart offloads one operation to a pool. It holds nothing but the
// operation and the pool, so its behaviour never changes after installation.
type Counterpart struct {
	op   Operation
	pool *offload.Pool
}

// Name returns the counterpart name, e.g. "ListBucketsAsync".
func (c *Counterpart) Name() string {
	return c.op.Counterpart
}

// Operation returns the descriptor of the wrapped operation.
func (c *Counterpart) Operation() Operation {
	return c.op
}

// Call schedules the operation with args forwarded verbatim and returns the
// future of its results. When the first argument is a context.Context it is
// also used to correlate the call's trace and logs; it is passed to the
// operation unchanged.
func (c *Counterpart) Call(args ...any) *offload.Future[[]any] {
	ctx := context.Background()
	if len(args) > 0 {
		if argCtx, ok := args[0].(context.Context); ok && argCtx != nil {
			ctx = argCtx
		}
	}

	pool := c.pool
	if pool == nil {
		pool = offload.Default()
	}
	return pool.Call(ctx, c.op.Counterpart, c.op.fn.Interface(), args...)
}
