package augment

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/awsasync/internal/simclient"
	"github.com/marmos91/awsasync/pkg/offload"
)

func newPool(t *testing.T, executor string, workers int) *offload.Pool {
	t.Helper()
	p, err := offload.NewPool(offload.Config{Workers: workers, Executor: executor}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// kvStore is a small blocking client with one colliding and one unresolvable
// identifier in its metadata.
type kvStore struct {
	mu   sync.Mutex
	data map[string]string
}

var errNotFound = errors.New("key not found")

func newKVStore() *kvStore {
	return &kvStore{data: map[string]string{}}
}

func (s *kvStore) OperationNames() []string {
	return []string{"put", "get", "fetch_async", "missing_operation", "Get"}
}

func (s *kvStore) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *kvStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", errNotFound
	}
	return v, nil
}

func (s *kvStore) FetchAsync(key string) string { return key }

// opaque has methods but no metadata.
type opaque struct{}

func (opaque) Do() int { return 1 }

// ============================================================================
// Enumeration and installation
// ============================================================================

func TestAugmentInstallsOneCounterpartPerOperation(t *testing.T) {
	c, err := Augment(simclient.New(0), WithPool(newPool(t, offload.ExecutorNative, 4)))
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"SleepAsync", "EchoAsync", "FailAsync", "GetHTTPStatusAsync", "PanicAsync"},
		c.Counterparts())
	assert.Empty(t, c.Skipped())

	for _, op := range c.Operations() {
		assert.Equal(t, op.Method+Suffix, op.Counterpart)
		m, ok := reflect.TypeOf(c.Sync()).MethodByName(op.Method)
		require.True(t, ok)
		assert.Equal(t, m.Type.NumIn()-1, op.Type.NumIn(), "counterpart accepts the same arguments")
		assert.NotNil(t, op.Func())
	}

	cp, ok := c.Counterpart("GetHTTPStatusAsync")
	require.True(t, ok)
	assert.Equal(t, "get_http_status", cp.Operation().Name)
	assert.Equal(t, "GetHTTPStatusAsync", cp.Name())
}

func TestAugmentSkipsCollisionsAndUnresolved(t *testing.T) {
	c, err := Augment(newKVStore())
	require.NoError(t, err)

	assert.Equal(t, []string{"PutAsync", "GetAsync"}, c.Counterparts(), "duplicates produce one counterpart")
	assert.ElementsMatch(t, []Skipped{
		{Name: "fetch_async", Method: "FetchAsync", Reason: SkipCollision},
		{Name: "missing_operation", Reason: SkipUnresolved},
	}, c.Skipped())

	_, ok := c.Counterpart("FetchAsyncAsync")
	assert.False(t, ok)
}

func TestAugmentWithoutMetadata(t *testing.T) {
	t.Run("Lenient", func(t *testing.T) {
		c, err := Augment(opaque{})
		require.NoError(t, err)
		assert.Empty(t, c.Counterparts())
	})

	t.Run("Strict", func(t *testing.T) {
		c, err := Augment(opaque{}, WithStrict())
		assert.ErrorIs(t, err, ErrNoMetadata)
		assert.Nil(t, c)
	})

	t.Run("StrictUnresolved", func(t *testing.T) {
		c, err := Augment(newKVStore(), WithStrict())
		assert.ErrorIs(t, err, ErrUnresolved)
		assert.Contains(t, err.Error(), "missing_operation")
		assert.Nil(t, c)
	})

	t.Run("NilClient", func(t *testing.T) {
		c, err := Augment[any](nil)
		require.NoError(t, err)
		assert.Empty(t, c.Counterparts())
	})
}

func TestAugmentWithLister(t *testing.T) {
	lister := ListerFunc(func(any) ([]string, error) { return []string{"do"}, nil })

	c, err := Augment(opaque{}, WithLister(lister))
	require.NoError(t, err)
	assert.Equal(t, []string{"DoAsync"}, c.Counterparts())

	res, err := c.Call("DoAsync").Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{1}, res)
}

type registered struct{}

func (*registered) ListThings(ctx context.Context) ([]string, error) { return []string{"a"}, nil }
func (*registered) Helper() string                                  { return "not an operation" }

func TestRegistry(t *testing.T) {
	Register((*registered)(nil), Methods(func(m reflect.Method) bool {
		return strings.HasPrefix(m.Name, "List")
	}))

	l, ok := Lookup(&registered{})
	require.True(t, ok)
	names, err := l.ListOperations(&registered{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ListThings"}, names)

	names, err = ListOperations(&registered{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ListThings"}, names)

	_, ok = Lookup(registered{})
	assert.False(t, ok, "lookup is keyed by dynamic type")

	_, err = ListOperations(opaque{})
	assert.ErrorIs(t, err, ErrNoMetadata)

	names, err = Methods(nil).ListOperations(&registered{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Helper", "ListThings"}, names, "methods are listed in name order")

	assert.Panics(t, func() { Register(nil, Methods(nil)) })
	assert.Panics(t, func() { Register(opaque{}, nil) })
}

// ============================================================================
// Counterpart behaviour
// ============================================================================

func TestCounterpartsMatchOriginals(t *testing.T) {
	for _, executor := range []string{offload.ExecutorNative, offload.ExecutorQueue} {
		t.Run(executor, func(t *testing.T) {
			sim := simclient.New(5 * time.Millisecond)
			c, err := Augment(sim, WithPool(newPool(t, executor, 4)))
			require.NoError(t, err)
			ctx := context.Background()

			t.Run("Echo", func(t *testing.T) {
				want := sim.Echo("a", "b")
				got, err := As[[]string](c.Call("EchoAsync", "a", "b")).Await(ctx)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			})

			t.Run("GetHTTPStatus", func(t *testing.T) {
				want, wantErr := sim.GetHTTPStatus(418)
				got, err := As[string](c.Call("GetHTTPStatusAsync", 418)).Await(ctx)
				assert.Equal(t, wantErr, err)
				assert.Equal(t, want, got)
			})

			t.Run("FailurePropagates", func(t *testing.T) {
				wantErr := sim.Fail("nope")
				_, err := c.Call("FailAsync", "nope").Await(ctx)
				require.Error(t, err)
				assert.ErrorIs(t, err, simclient.ErrSimulated)
				assert.Equal(t, wantErr.Error(), err.Error())
			})

			t.Run("ErrorIdentity", func(t *testing.T) {
				kv, err := Augment(newKVStore(), WithPool(newPool(t, executor, 1)))
				require.NoError(t, err)

				_, err = kv.Call("GetAsync", "absent").Await(ctx)
				assert.Same(t, errNotFound, err)
			})

			t.Run("Panic", func(t *testing.T) {
				_, err := c.Call("PanicAsync", "boom").Await(ctx)
				var pe *offload.PanicError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "boom", pe.Value)
			})

			t.Run("Invoke", func(t *testing.T) {
				res, err := c.Invoke("GetHTTPStatus", 200)
				require.NoError(t, err)
				assert.Equal(t, []any{"OK"}, res)
			})
		})
	}
}

func TestConcurrentCounterparts(t *testing.T) {
	const n = 20
	c, err := Augment(simclient.New(0), WithPool(newPool(t, offload.ExecutorNative, n)))
	require.NoError(t, err)
	ctx := context.Background()

	start := time.Now()
	futures := make([]*offload.Future[[]any], n)
	for i := range futures {
		futures[i] = c.Call("SleepAsync", ctx, 100*time.Millisecond)
	}
	_, err = offload.Gather(ctx, futures...)
	require.NoError(t, err)
	concurrent := time.Since(start)

	start = time.Now()
	for range n {
		_, err := c.Call("SleepAsync", ctx, 100*time.Millisecond).Await(ctx)
		require.NoError(t, err)
	}
	sequential := time.Since(start)

	assert.Less(t, concurrent, time.Second)
	assert.GreaterOrEqual(t, sequential, n*100*time.Millisecond)
	assert.Equal(t, int64(2*n), c.Sync().Calls())
}

func TestCallAndInvokeUnknownOperation(t *testing.T) {
	c, err := Augment(simclient.New(0))
	require.NoError(t, err)

	_, err = c.Call("DeleteEverythingAsync").Await(context.Background())
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, err = c.Invoke("DeleteEverything")
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestFindAcceptsAnySpelling(t *testing.T) {
	c, err := Augment(simclient.New(0))
	require.NoError(t, err)

	for _, name := range []string{"GetHTTPStatusAsync", "GetHTTPStatus", "get_http_status", "getHTTPStatus"} {
		cp, ok := c.Find(name)
		require.True(t, ok, name)
		assert.Equal(t, "GetHTTPStatusAsync", cp.Name())
	}
}

func TestBadArgumentsResolveFuture(t *testing.T) {
	c, err := Augment(simclient.New(0))
	require.NoError(t, err)

	_, err = c.Call("GetHTTPStatusAsync", "not a number").Await(context.Background())
	assert.ErrorIs(t, err, offload.ErrBadArguments)
}

// ============================================================================
// Idempotence
// ============================================================================

func TestAugmentIsIdempotent(t *testing.T) {
	first, err := Augment(simclient.New(0))
	require.NoError(t, err)

	second, err := Augment(first)
	require.NoError(t, err)
	assert.Same(t, first, second.Sync())
	assert.Equal(t, first.Counterparts(), second.Counterparts())

	for _, name := range second.Counterparts() {
		assert.False(t, strings.HasSuffix(name, Suffix+Suffix), name)
		a, _ := first.Counterpart(name)
		b, _ := second.Counterpart(name)
		assert.Same(t, a, b, "installed counterparts are adopted unchanged")
	}

	again, err := first.Augment()
	require.NoError(t, err)
	assert.Equal(t, first.Counterparts(), again.Counterparts())

	res, err := second.Call("EchoAsync", "x").Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{[]string{"x"}}, res)
}

func TestAs(t *testing.T) {
	ctx := context.Background()

	v, err := As[int](offload.Resolved([]any{3, "extra"}, nil)).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = As[int](offload.Resolved[[]any](nil, nil)).Await(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = As[int](offload.Resolved([]any{"three"}, nil)).Await(ctx)
	assert.Error(t, err)

	_, err = As[int](offload.Resolved[[]any](nil, errNotFound)).Await(ctx)
	assert.Same(t, errNotFound, err)
}
