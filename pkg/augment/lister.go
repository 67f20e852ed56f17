package augment

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrNoMetadata is returned when a client's operations cannot be enumerated:
// no Lister is registered for its type and it does not implement Describer.
var ErrNoMetadata = errors.New("augment: client exposes no operation metadata")

// Lister enumerates the operation identifiers of a client. Identifiers may be
// snake_case, lowerCamel or PascalCase; they are resolved to Go methods with
// naming.MethodCandidates.
type Lister interface {
	ListOperations(client any) ([]string, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc func(client any) ([]string, error)

func (f ListerFunc) ListOperations(client any) ([]string, error) {
	return f(client)
}

// Describer is implemented by clients that carry their own operation metadata.
type Describer interface {
	OperationNames() []string
}

// MethodFilter selects the methods that are operations.
type MethodFilter func(m reflect.Method) bool

// Methods returns a Lister that enumerates the exported methods of the client's
// dynamic type, in name order, keeping those accepted by match. A nil match
// keeps every method.
func Methods(match MethodFilter) Lister {
	return ListerFunc(func(client any) ([]string, error) {
		t := reflect.TypeOf(client)
		if t == nil {
			return nil, fmt.Errorf("%w: nil client", ErrNoMetadata)
		}

		names := make([]string, 0, t.NumMethod())
		for i := range t.NumMethod() {
			m := t.Method(i)
			if match == nil || match(m) {
				names = append(names, m.Name)
			}
		}
		return names, nil
	})
}

// ============================================================================
// Registry
// ============================================================================

var (
	registryMu sync.RWMutex
	registry   = make(map[reflect.Type]Lister)
)

// Register associates l with the dynamic type of sample. Typically called from
// an init function with a nil pointer of the client type:
//
//	augment.Register((*s3.Client)(nil), augment.Methods(awsclient.SDKConvention))
func Register(sample any, l Lister) {
	t := reflect.TypeOf(sample)
	if t == nil {
		panic("augment: Register with nil sample")
	}
	if l == nil {
		panic("augment: Register with nil lister")
	}

	registryMu.Lock()
	registry[t] = l
	registryMu.Unlock()
}

// Lookup returns the Lister registered for the client's type.
func Lookup(client any) (Lister, bool) {
	t := reflect.TypeOf(client)
	if t == nil {
		return nil, false
	}

	registryMu.RLock()
	l, ok := registry[t]
	registryMu.RUnlock()
	return l, ok
}

// ListOperations enumerates the client's operations: a registered Lister wins,
// then Describer, otherwise ErrNoMetadata.
func ListOperations(client any) ([]string, error) {
	if l, ok := Lookup(client); ok {
		return l.ListOperations(client)
	}
	if d, ok := client.(Describer); ok {
		return d.OperationNames(), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrNoMetadata, client)
}
