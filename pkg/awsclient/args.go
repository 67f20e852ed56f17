package awsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/marmos91/awsasync/pkg/augment"
)

// DecodeArgs builds the argument list of op from a JSON document.
//
// SDK-convention operations take a single JSON object decoded into their
// input struct and are called as op(ctx, input). Any other operation takes a
// JSON array of positional arguments; context.Context parameters are filled
// with ctx and consume no array element.
func DecodeArgs(ctx context.Context, op augment.Operation, body []byte) ([]any, error) {
	if _, ok := InputType(op); ok {
		in, err := DecodeInput(op, body)
		if err != nil {
			return nil, err
		}
		return []any{ctx, in}, nil
	}

	var raw []json.RawMessage
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("%s expects a JSON array of arguments: %w", op.Method, err)
		}
	}

	t := op.Type
	args := make([]any, 0, t.NumIn())
	next := 0
	for i := range t.NumIn() {
		param := t.In(i)
		if param == contextType {
			args = append(args, ctx)
			continue
		}

		if t.IsVariadic() && i == t.NumIn()-1 {
			for ; next < len(raw); next++ {
				v, err := decodeArg(raw[next], param.Elem())
				if err != nil {
					return nil, fmt.Errorf("argument %d: %w", next, err)
				}
				args = append(args, v)
			}
			break
		}

		if next >= len(raw) {
			return nil, fmt.Errorf("%s expects more arguments (got %d)", op.Method, len(raw))
		}
		v, err := decodeArg(raw[next], param)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", next, err)
		}
		args = append(args, v)
		next++
	}

	if next < len(raw) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", op.Method, next, len(raw))
	}
	return args, nil
}

func decodeArg(raw json.RawMessage, t reflect.Type) (any, error) {
	ptr := reflect.New(t)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
