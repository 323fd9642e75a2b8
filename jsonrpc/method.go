package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/krupt/go-jsonrpc/method"
	"github.com/krupt/go-jsonrpc/utils"
)

// SystemPrefix is reserved for methods provided by the server itself.
const SystemPrefix = "rpc."

var (
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	rpcErrorType = reflect.TypeOf(&Error{})
)

type Parameter struct {
	Name     string
	Optional bool
}

// Method describes an endpoint.
//
// Handler is either a value returned by Bind, or a function taking an optional leading
// context.Context followed by one argument per entry of Params and returning (any, *Error).
type Method struct {
	Name    string
	Params  []Parameter
	Handler any
}

// ParamInfo describes a single named parameter.
type ParamInfo struct {
	Name     string
	Optional bool
	Type     reflect.Type
}

// MethodInfo describes a registered method.
type MethodInfo struct {
	Name string
	// Params lists named parameters. It is empty for methods taking the params value as a whole.
	Params []ParamInfo
	// Input is the type the whole params value decodes into. Nil for methods with named params.
	Input reflect.Type
	// Result is nil for methods without a result.
	Result reflect.Type
}

type endpoint struct {
	info   MethodInfo
	invoke func(ctx context.Context, params any) (any, error)
}

// paramsError reports request params that could not be turned into handler arguments.
type paramsError struct {
	err error
}

func (e *paramsError) Error() string { return e.err.Error() }

func (e *paramsError) Unwrap() error { return e.err }

func (e *paramsError) rpcError() *Error {
	var v interface{ Violations() []string }
	if errors.As(e.err, &v) {
		return Err(InvalidParams, utils.Map(v.Violations(), func(violation string) string {
			return "params." + violation
		}))
	}
	return Err(InvalidParams, e.err.Error())
}

// RegisterMethod verifies and creates an endpoint that the server recognises.
// Names starting with "rpc." are reserved, see RegisterSystemMethod.
func (s *Server) RegisterMethod(m Method) error {
	if strings.HasPrefix(m.Name, SystemPrefix) {
		return fmt.Errorf("method name %q uses the reserved %q prefix", m.Name, SystemPrefix)
	}
	return s.register(m)
}

// RegisterMethods registers each of methods, stopping at the first failure.
func (s *Server) RegisterMethods(methods ...Method) error {
	for _, m := range methods {
		if err := s.RegisterMethod(m); err != nil {
			return err
		}
	}
	return nil
}

// RegisterSystemMethod registers a method under the reserved "rpc." prefix.
func (s *Server) RegisterSystemMethod(m Method) error {
	if !strings.HasPrefix(m.Name, SystemPrefix) {
		return fmt.Errorf("system method name %q must start with %q", m.Name, SystemPrefix)
	}
	return s.register(m)
}

func (s *Server) register(m Method) error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("method name must not be empty")
	}

	var (
		ep  *endpoint
		err error
	)
	if b, ok := m.Handler.(boundHandler); ok {
		if len(m.Params) > 0 {
			return errors.New("bound methods take the params value as a whole and can't declare params")
		}
		ep = s.boundEndpoint(m.Name, b)
	} else if ep, err = s.funcEndpoint(m); err != nil {
		return err
	}

	return s.add(ep)
}

func (s *Server) add(ep *endpoint) error {
	return s.addAll([]*endpoint{ep})
}

// addAll registers either every endpoint or, when any name is taken, none of them.
func (s *Server) addAll(endpoints []*endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ep := range endpoints {
		if _, found := s.methods[ep.info.Name]; found {
			return fmt.Errorf("method %q is already registered", ep.info.Name)
		}
	}
	for _, ep := range endpoints {
		s.methods[ep.info.Name] = ep
	}
	return nil
}

// Methods lists the registered methods sorted by name.
func (s *Server) Methods() []MethodInfo {
	s.mu.RLock()
	infos := make([]MethodInfo, 0, len(s.methods))
	for _, ep := range s.methods {
		infos = append(infos, ep.info)
	}
	s.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (s *Server) funcEndpoint(m Method) (*endpoint, error) {
	handlerT := reflect.TypeOf(m.Handler)
	if handlerT == nil || handlerT.Kind() != reflect.Func {
		return nil, errors.New("handler must be a function")
	}
	numArgs := handlerT.NumIn()
	needsContext := false
	if numArgs > 0 && handlerT.In(0).Implements(contextInterface) {
		numArgs--
		needsContext = true
	}
	if numArgs != len(m.Params) {
		return nil, errors.New("number of non-context function params and param names must match")
	}
	if handlerT.NumOut() != 2 {
		return nil, errors.New("handler must return 2 values")
	}
	if handlerT.Out(1) != rpcErrorType {
		return nil, errors.New("second return value must be a *jsonrpc.Error")
	}

	offset := 0
	if needsContext {
		offset = 1
	}
	info := MethodInfo{Name: m.Name, Result: handlerT.Out(0)}
	for i, p := range m.Params {
		info.Params = append(info.Params, ParamInfo{Name: p.Name, Optional: p.Optional, Type: handlerT.In(i + offset)})
	}

	handler := reflect.ValueOf(m.Handler)
	return &endpoint{
		info: info,
		invoke: func(ctx context.Context, params any) (any, error) {
			args, err := s.buildArguments(ctx, params, info.Params, needsContext)
			if err != nil {
				return nil, &paramsError{err: err}
			}
			return resultOf(handler.Call(args))
		},
	}, nil
}

func (s *Server) buildArguments(ctx context.Context, params any, declared []ParamInfo, needsContext bool) ([]reflect.Value, error) {
	args := make([]reflect.Value, 0, len(declared)+1)
	if needsContext {
		args = append(args, reflect.ValueOf(ctx))
	}

	if utils.IsNil(params) {
		params = map[string]any{}
	}

	switch params := params.(type) {
	case []any:
		if len(params) != len(declared) {
			return nil, errors.New("missing/unexpected params in list")
		}

		for i, param := range params {
			v, err := s.parseParam(param, declared[i].Type)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
	case map[string]any:
		for _, configuredParam := range declared {
			var v reflect.Value
			if param, found := params[configuredParam.Name]; found {
				var err error
				v, err = s.parseParam(param, configuredParam.Type)
				if err != nil {
					return nil, err
				}
			} else if configuredParam.Optional {
				// optional parameter
				v = reflect.New(configuredParam.Type).Elem()
			} else {
				return nil, fmt.Errorf("missing non-optional param %q", configuredParam.Name)
			}

			args = append(args, v)
		}
	default:
		return nil, errors.New("params should be an array or an object")
	}
	return args, nil
}

// parseInput decodes the whole params value into a value of type t.
func (s *Server) parseInput(params any, t reflect.Type) (reflect.Value, error) {
	if method.IsVoid(t) {
		return reflect.New(t).Elem(), nil
	}
	if params == nil {
		return reflect.Value{}, errors.New("params can't be null")
	}
	return s.parseParam(params, t)
}

func (s *Server) parseParam(param any, t reflect.Type) (reflect.Value, error) {
	handlerParam := reflect.New(t)
	valueMarshaled, err := json.Marshal(param) // we have to marshal the value into JSON again
	if err != nil {
		return reflect.Value{}, err
	}
	err = json.Unmarshal(valueMarshaled, handlerParam.Interface())
	if err != nil {
		return reflect.Value{}, err
	}

	elem := handlerParam.Elem()
	if s.validator != nil {
		if err = s.validateParam(elem); err != nil {
			return reflect.Value{}, err
		}
	}

	return elem, nil
}

func (s *Server) validateParam(param reflect.Value) error {
	kind := param.Kind()
	switch {
	case kind == reflect.Struct ||
		(kind == reflect.Pointer && !param.IsNil() && param.Elem().Kind() == reflect.Struct):
		/* struct or a struct pointer */
		if err := s.validator.Struct(param.Interface()); err != nil {
			return err
		}
	case kind == reflect.Slice || kind == reflect.Array:
		for i := range param.Len() {
			if err := s.validateParam(param.Index(i)); err != nil {
				return err
			}
		}
	case kind == reflect.Map:
		for _, key := range param.MapKeys() {
			if err := s.validateParam(param.MapIndex(key)); err != nil {
				return err
			}
		}
	}

	return nil
}

// resultOf maps handler return values to a result and an error. Supported shapes are
// (), (error), (*Error), (T), (T, error) and (T, *Error).
func resultOf(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if isErrorType(out[0].Type()) {
			return nil, errorOf(out[0])
		}
		return out[0].Interface(), nil
	default:
		if err := errorOf(out[1]); err != nil {
			return nil, err
		}
		return out[0].Interface(), nil
	}
}

func isErrorType(t reflect.Type) bool {
	return t == errorType || t == rpcErrorType
}

func errorOf(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}
