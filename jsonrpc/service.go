package jsonrpc

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/krupt/go-jsonrpc/method"
)

type serviceConfig struct {
	excluded map[string]struct{}
}

type ServiceOption func(*serviceConfig)

// WithExcluded keeps the named Go methods of a service from being registered.
func WithExcluded(goMethodNames ...string) ServiceOption {
	return func(c *serviceConfig) {
		for _, name := range goMethodNames {
			c.excluded[name] = struct{}{}
		}
	}
}

// RegisterService registers every eligible exported method of rcvr as "<name>.<method>", where
// <method> is the Go method name with its first letter lowered. An empty name is derived from
// the receiver type.
//
// An eligible method takes an optional leading context.Context and at most one more argument,
// which receives the whole params value, and returns nothing, a result, an error, or a result
// and an error. The error may be an *Error. Other methods are skipped.
func (s *Server) RegisterService(name string, rcvr any, opts ...ServiceOption) error {
	cfg := serviceConfig{excluded: make(map[string]struct{})}
	for _, opt := range opts {
		opt(&cfg)
	}

	rcvrV := reflect.ValueOf(rcvr)
	if !rcvrV.IsValid() {
		return errors.New("service receiver must not be nil")
	}
	if name == "" {
		t := rcvrV.Type()
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		name = method.LowerCamel(t.Name())
	}
	if name == "" {
		return errors.New("service name can't be derived from an unnamed type")
	}
	if strings.HasPrefix(name+".", SystemPrefix) {
		return fmt.Errorf("service name %q uses the reserved %q prefix", name, SystemPrefix)
	}

	rcvrT := rcvrV.Type()
	var endpoints []*endpoint
	for i := range rcvrT.NumMethod() {
		goMethod := rcvrT.Method(i)
		if _, skip := cfg.excluded[goMethod.Name]; skip {
			continue
		}
		ep, ok := s.serviceEndpoint(name+"."+method.LowerCamel(goMethod.Name), rcvrV.Method(i))
		if !ok {
			s.log.Debugw("Skipping service method with unsupported signature", "service", name, "method", goMethod.Name)
			continue
		}
		endpoints = append(endpoints, ep)
	}
	if len(endpoints) == 0 {
		return fmt.Errorf("service %q has no eligible methods", name)
	}

	return s.addAll(endpoints)
}

func (s *Server) serviceEndpoint(name string, fn reflect.Value) (*endpoint, bool) {
	fnT := fn.Type()
	if fnT.IsVariadic() {
		return nil, false
	}

	needsContext := fnT.NumIn() > 0 && fnT.In(0).Implements(contextInterface)
	numArgs := fnT.NumIn()
	if needsContext {
		numArgs--
	}
	if numArgs > 1 {
		return nil, false
	}

	info := MethodInfo{Name: name}
	switch fnT.NumOut() {
	case 0:
	case 1:
		if !isErrorType(fnT.Out(0)) {
			info.Result = fnT.Out(0)
		}
	case 2:
		if !isErrorType(fnT.Out(1)) {
			return nil, false
		}
		info.Result = fnT.Out(0)
	default:
		return nil, false
	}
	if method.IsVoid(info.Result) {
		info.Result = nil
	}

	var argT reflect.Type
	if numArgs == 1 {
		argT = fnT.In(fnT.NumIn() - 1)
		if !method.IsVoid(argT) {
			info.Input = argT
		}
	}

	return &endpoint{
		info: info,
		invoke: func(ctx context.Context, params any) (any, error) {
			args := make([]reflect.Value, 0, 2)
			if needsContext {
				args = append(args, reflect.ValueOf(ctx))
			}
			if argT != nil {
				in, err := s.parseInput(params, argT)
				if err != nil {
					return nil, &paramsError{err: err}
				}
				args = append(args, in)
			}
			return resultOf(fn.Call(args))
		},
	}, true
}
