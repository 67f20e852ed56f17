package awsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/marmos91/awsasync/pkg/augment"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// SDKConvention reports whether m has the AWS SDK operation signature:
//
//	func (c *Client) Op(ctx context.Context, in *OpInput, optFns ...func(*Options)) (*OpOutput, error)
//
// m is a method of a type, so its first parameter is the receiver.
func SDKConvention(m reflect.Method) bool {
	t := m.Type
	if t.NumIn() != 4 || !t.IsVariadic() || t.NumOut() != 2 {
		return false
	}
	return isSDKSignature(t.In(1), t.In(2), t.In(3), t.Out(0), t.Out(1))
}

func isSDKSignature(ctx, in, optFns, out, err reflect.Type) bool {
	if ctx != contextType || err != errorType {
		return false
	}
	if !isStructPtr(in) || !isStructPtr(out) {
		return false
	}
	if optFns.Kind() != reflect.Slice {
		return false
	}
	fn := optFns.Elem()
	return fn.Kind() == reflect.Func && fn.NumIn() == 1 && fn.NumOut() == 0 && isStructPtr(fn.In(0))
}

func isStructPtr(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct
}

// InputType returns the *OpInput type of an SDK-convention operation.
func InputType(op augment.Operation) (reflect.Type, bool) {
	t := op.Type
	if t == nil || t.NumIn() != 3 || !t.IsVariadic() || t.NumOut() != 2 {
		return nil, false
	}
	if !isSDKSignature(t.In(0), t.In(1), t.In(2), t.Out(0), t.Out(1)) {
		return nil, false
	}
	return t.In(1), true
}

// NewInput allocates an empty input for op.
func NewInput(op augment.Operation) (any, bool) {
	t, ok := InputType(op)
	if !ok {
		return nil, false
	}
	return reflect.New(t.Elem()).Interface(), true
}

// DecodeInput decodes a JSON document into a new input for op. Field names
// follow the SDK struct fields (e.g. {"Bucket": "name", "Key": "path"}); an
// empty document yields an empty input. Unknown fields are rejected.
func DecodeInput(op augment.Operation, data []byte) (any, error) {
	in, ok := NewInput(op)
	if !ok {
		return nil, fmt.Errorf("%s does not follow the SDK operation signature", op.Method)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return in, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(in); err != nil {
		return nil, fmt.Errorf("invalid %s input: %w", op.Method, err)
	}
	return in, nil
}
