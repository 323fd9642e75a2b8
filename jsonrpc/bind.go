package jsonrpc

import (
	"context"
	"reflect"

	"github.com/krupt/go-jsonrpc/method"
)

type boundHandler interface {
	inputType() reflect.Type
	resultType() reflect.Type
	invoke(ctx context.Context, input any) (any, error)
}

type bound[In, Out any] struct {
	m method.Method[In, Out]
}

func (b *bound[In, Out]) inputType() reflect.Type {
	return reflect.TypeOf((*In)(nil)).Elem()
}

func (b *bound[In, Out]) resultType() reflect.Type {
	t := reflect.TypeOf((*Out)(nil)).Elem()
	if method.IsVoid(t) {
		return nil
	}
	return t
}

func (b *bound[In, Out]) invoke(ctx context.Context, input any) (any, error) {
	in, _ := input.(In)
	out, err := b.m.Invoke(ctx, in)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Bind turns a method.Method into a Method that receives the whole params value decoded into In.
// Params are ignored when In is method.Void. An empty name falls back to method.Name(m).
func Bind[In, Out any](name string, m method.Method[In, Out]) Method {
	if name == "" {
		name = method.Name(m)
	}
	return Method{Name: name, Handler: &bound[In, Out]{m: m}}
}

func (s *Server) boundEndpoint(name string, b boundHandler) *endpoint {
	inType := b.inputType()
	info := MethodInfo{Name: name, Result: b.resultType()}
	if !method.IsVoid(inType) {
		info.Input = inType
	}

	return &endpoint{
		info: info,
		invoke: func(ctx context.Context, params any) (any, error) {
			in, err := s.parseInput(params, inType)
			if err != nil {
				return nil, &paramsError{err: err}
			}
			return b.invoke(ctx, in.Interface())
		},
	}
}
