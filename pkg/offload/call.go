package offload

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeFor[error]()

// bind validates fn and converts args to the reflect values fn.Call expects.
func bind(fn any, args []any) (reflect.Value, []reflect.Value, error) {
	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func || fv.IsNil() {
		return reflect.Value{}, nil, fmt.Errorf("%w: %T", ErrNotCallable, fn)
	}

	ft := fv.Type()
	n := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < n-1 {
			return reflect.Value{}, nil, fmt.Errorf("%w: %s wants at least %d arguments, got %d", ErrBadArguments, ft, n-1, len(args))
		}
	} else if len(args) != n {
		return reflect.Value{}, nil, fmt.Errorf("%w: %s wants %d arguments, got %d", ErrBadArguments, ft, n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= n-1 {
			pt = ft.In(n - 1).Elem()
		} else {
			pt = ft.In(i)
		}

		if arg == nil {
			in[i] = reflect.Zero(pt)
			continue
		}

		av := reflect.ValueOf(arg)
		if !av.Type().AssignableTo(pt) {
			return reflect.Value{}, nil, fmt.Errorf("%w: argument %d is %s, want %s", ErrBadArguments, i, av.Type(), pt)
		}
		in[i] = av
	}

	return fv, in, nil
}

// invoke calls fv and splits a trailing error result from the values.
func invoke(fv reflect.Value, in []reflect.Value) ([]any, error) {
	out := fv.Call(in)

	var err error
	if n := len(out); n > 0 && fv.Type().Out(n-1) == errorType {
		if last := out[n-1]; !last.IsNil() {
			err = last.Interface().(error)
		}
		out = out[:n-1]
	}

	results := make([]any, len(out))
	for i, o := range out {
		results[i] = o.Interface()
	}
	return results, err
}

// Invoke calls fn(args...) on the calling goroutine with the same argument
// forwarding and result splitting as Pool.Call. Panics are not recovered.
func Invoke(fn any, args ...any) ([]any, error) {
	fv, in, err := bind(fn, args)
	if err != nil {
		return nil, err
	}
	return invoke(fv, in)
}
