package jsonrpc_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/krupt/go-jsonrpc/jsonrpc"
	"github.com/krupt/go-jsonrpc/utils"
	"github.com/krupt/go-jsonrpc/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *jsonrpc.Server {
	t.Helper()
	return jsonrpc.NewServer(4, utils.NewNopZapLogger()).WithValidator(validator.Validator())
}

func handle(t *testing.T, server *jsonrpc.Server, req string) string {
	t.Helper()
	res, err := server.HandleReader(context.Background(), strings.NewReader(req))
	require.NoError(t, err)
	return string(res)
}

func TestServer_RegisterMethod(t *testing.T) {
	server := newServer(t)
	tests := map[string]struct {
		handler    any
		paramNames []jsonrpc.Parameter
		want       string
	}{
		"not a func handler": {
			handler: 44,
			want:    "handler must be a function",
		},
		"nil handler": {
			handler: nil,
			want:    "handler must be a function",
		},
		"excess param names": {
			handler:    func() {},
			paramNames: []jsonrpc.Parameter{{Name: "param1"}},
			want:       "number of non-context function params and param names must match",
		},
		"missing param names": {
			handler:    func(param1, param2 int) {},
			paramNames: []jsonrpc.Parameter{{Name: "param1"}},
			want:       "number of non-context function params and param names must match",
		},
		"no return": {
			handler:    func(param1, param2 int) {},
			paramNames: []jsonrpc.Parameter{{Name: "param1"}, {Name: "param2"}},
			want:       "handler must return 2 values",
		},
		"int return": {
			handler:    func(param1, param2 int) (int, int) { return 0, 0 },
			paramNames: []jsonrpc.Parameter{{Name: "param1"}, {Name: "param2"}},
			want:       "second return value must be a *jsonrpc.Error",
		},
		"no error return": {
			handler:    func(param1, param2 int) (any, int) { return 0, 0 },
			paramNames: []jsonrpc.Parameter{{Name: "param1"}, {Name: "param2"}},
			want:       "second return value must be a *jsonrpc.Error",
		},
	}

	for desc, test := range tests {
		t.Run(desc, func(t *testing.T) {
			err := server.RegisterMethod(jsonrpc.Method{Name: "method", Params: test.paramNames, Handler: test.handler})
			assert.EqualError(t, err, test.want, desc)
		})
	}

	t.Run("should not fail", func(t *testing.T) {
		err := server.RegisterMethod(jsonrpc.Method{
			Name:    "method",
			Params:  []jsonrpc.Parameter{{Name: "param1"}, {Name: "param2"}},
			Handler: func(param1, param2 int) (int, *jsonrpc.Error) { return 0, nil },
		})
		assert.NoError(t, err)
	})

	t.Run("duplicate name", func(t *testing.T) {
		err := server.RegisterMethod(jsonrpc.Method{
			Name:    "method",
			Handler: func() (int, *jsonrpc.Error) { return 0, nil },
		})
		assert.EqualError(t, err, `method "method" is already registered`)
	})

	t.Run("empty name", func(t *testing.T) {
		err := server.RegisterMethod(jsonrpc.Method{
			Name:    " ",
			Handler: func() (int, *jsonrpc.Error) { return 0, nil },
		})
		assert.EqualError(t, err, "method name must not be empty")
	})

	t.Run("reserved prefix", func(t *testing.T) {
		m := jsonrpc.Method{
			Name:    "rpc.custom",
			Handler: func() (int, *jsonrpc.Error) { return 0, nil },
		}
		assert.EqualError(t, server.RegisterMethod(m), `method name "rpc.custom" uses the reserved "rpc." prefix`)
		assert.NoError(t, server.RegisterSystemMethod(m))

		m.Name = "custom"
		assert.EqualError(t, server.RegisterSystemMethod(m), `system method name "custom" must start with "rpc."`)
	})

	t.Run("RegisterMethods stops at first failure", func(t *testing.T) {
		err := server.RegisterMethods(
			jsonrpc.Method{Name: "first", Handler: func() (int, *jsonrpc.Error) { return 0, nil }},
			jsonrpc.Method{Name: "second", Handler: 1},
			jsonrpc.Method{Name: "third", Handler: func() (int, *jsonrpc.Error) { return 0, nil }},
		)
		require.Error(t, err)

		names := utils.Map(server.Methods(), func(m jsonrpc.MethodInfo) string { return m.Name })
		assert.Contains(t, names, "first")
		assert.NotContains(t, names, "third")
	})
}

func TestHandle(t *testing.T) {
	methods := []jsonrpc.Method{
		{
			Name:   "method",
			Params: []jsonrpc.Parameter{{Name: "num"}, {Name: "shouldError", Optional: true}, {Name: "msg", Optional: true}},
			Handler: func(num *int, shouldError bool, data any) (any, *jsonrpc.Error) {
				if shouldError {
					return nil, &jsonrpc.Error{Code: 44, Message: "Expected Error", Data: data}
				}
				return struct {
					Doubled int `json:"doubled"`
				}{*num * 2}, nil
			},
		},
		{
			Name:   "subtract",
			Params: []jsonrpc.Parameter{{Name: "minuend"}, {Name: "subtrahend"}},
			Handler: func(a, b int) (int, *jsonrpc.Error) {
				return a - b, nil
			},
		},
		{
			Name:   "update",
			Params: []jsonrpc.Parameter{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}},
			Handler: func(a, b, c, d, e int) (int, *jsonrpc.Error) {
				return 0, nil
			},
		},
		{
			Name:   "foobar",
			Params: []jsonrpc.Parameter{},
			Handler: func() (int, *jsonrpc.Error) {
				return 0, nil
			},
		},
		{
			Name: "nothing",
			Handler: func() (any, *jsonrpc.Error) {
				return nil, nil
			},
		},
		{
			Name:   "ctx",
			Params: []jsonrpc.Parameter{{Name: "opt", Optional: true}},
			Handler: func(ctx context.Context, opt string) (bool, *jsonrpc.Error) {
				return ctx != nil, nil
			},
		},
	}
	server := newServer(t)
	require.NoError(t, server.RegisterMethods(methods...))

	tests := map[string]struct {
		req string
		res string
	}{
		"invalid json": {
			req: `{]`,
			res: `{"jsonrpc":"2.0","error":{"code":-32700,"message":"Parse error","data":"invalid character ']' looking for beginning of object key string"},"id":null}`,
		},
		"invalid json batch path": {
			req: `[{]`,
			res: `{"jsonrpc":"2.0","error":{"code":-32700,"message":"Parse error","data":"invalid character ']' looking for beginning of object key string"},"id":null}`,
		},
		"empty request": {
			req: ` `,
			res: `{"jsonrpc":"2.0","error":{"code":-32700,"message":"Parse error","data":"empty request"},"id":null}`,
		},
		"not an object": {
			req: `42`,
			res: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"json: cannot unmarshal number into Go value of type jsonrpc.request"},"id":null}`,
		},
		"wrong version": {
			req: `{"jsonrpc" : "1.0", "id" : 1}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"unsupported RPC request version"},"id":1}`,
		},
		"wrong version with null id": {
			req: `{"jsonrpc" : "1.0", "id" : null}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"unsupported RPC request version"},"id":null}`,
		},
		"non existent method": {
			req: `{"jsonrpc" : "2.0", "method" : "doesnotexits" , "id" : 2}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method Not Found"},"id":2}`,
		},
		"missing param(s)": {
			req: `{"jsonrpc" : "2.0", "method" : "method", "params" : [3, false] , "id" : 3}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid Params","data":"missing/unexpected params in list"},"id":3}`,
		},
		"too many params": {
			req: `{"jsonrpc" : "2.0", "method" : "method", "params" : [3, false, "error message", "too many"] , "id" : 3}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid Params","data":"missing/unexpected params in list"},"id":3}`,
		},
		"list params": {
			req: `{"jsonrpc" : "2.0", "method" : "method", "params" : [3, false, "error message"] , "id" : 3}`,
			res: `{"jsonrpc":"2.0","result":{"doubled":6},"id":3}`,
		},
		"list params, should soft error": {
			req: `{"jsonrpc" : "2.0", "method" : "method", "params" : [3, true, "error message"] , "id" : 4}`,
			res: `{"jsonrpc":"2.0","error":{"code":44,"message":"Expected Error","data":"error message"},"id":4}`,
		},
		"named params": {
			req: `{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 5, "shouldError" : false, "msg": "error message" } , "id" : 5}`,
			res: `{"jsonrpc":"2.0","result":{"doubled":10},"id":5}`,
		},
		"named params with defaults": {
			req: `{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 5 } , "id" : 5}`,
			res: `{"jsonrpc":"2.0","result":{"doubled":10},"id":5}`,
		},
		"named params, should soft error": {
			req: `{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 5, "shouldError" : true } , "id" : 22}`,
			res: `{"jsonrpc":"2.0","error":{"code":44,"message":"Expected Error"},"id":22}`,
		},
		"missing nonoptional param": {
			req: " \r\t\n" + `{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "shouldError" : true } , "id" : 22}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid Params","data":"missing non-optional param \"num\""},"id":22}`,
		},
		"absent params with required param": {
			req: `{"jsonrpc" : "2.0", "method" : "method", "id" : 23}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid Params","data":"missing non-optional param \"num\""},"id":23}`,
		},
		"absent params with only optional params and context": {
			req: `{"jsonrpc" : "2.0", "method" : "ctx", "id" : 24}`,
			res: `{"jsonrpc":"2.0","result":true,"id":24}`,
		},
		"null result is kept": {
			req: `{"jsonrpc" : "2.0", "method" : "nothing", "id" : 25}`,
			res: `{"jsonrpc":"2.0","result":null,"id":25}`,
		},
		"number param on reflective method": {
			req: `{"jsonrpc" : "2.0", "method" : "subtract", "params" : 44, "id" : 26}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid Params","data":"params should be an array or an object"},"id":26}`,
		},
		"string param on reflective method": {
			req: `{"jsonrpc" : "2.0", "method" : "subtract", "params" : "44", "id" : 27}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid Params","data":"params should be an array or an object"},"id":27}`,
		},
		"empty batch": {
			req: `[]`,
			res: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"empty batch"},"id":null}`,
		},
		"single request in batch": {
			req: " \r\t\n" + `[{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 5 } , "id" : 5}]`,
			res: `[{"jsonrpc":"2.0","result":{"doubled":10},"id":5}]`,
		},
		"multiple requests in batch": {
			req: `[{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 5 } , "id" : 5},
					{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 44 } , "id" : 6}]`,
			res: `[{"jsonrpc":"2.0","result":{"doubled":10},"id":5},{"jsonrpc":"2.0","result":{"doubled":88},"id":6}]`,
		},
		"failing and successful requests mixed in a batch": {
			req: `[{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 5 } , "id" : 5},
					{"jsonrpc" : "2.0", "method" : "fail",
					"params" : { "num" : 5 } , "id" : 7},
					{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 44 } , "id" : 6}]`,
			res: `[{"jsonrpc":"2.0","result":{"doubled":10},"id":5},{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method Not Found"},"id":7},{"jsonrpc":"2.0","result":{"doubled":88},"id":6}]`,
		},
		"notification": {
			req: `{"jsonrpc" : "2.0", "method" : "method","params" : { "num" : 5, "shouldError" : false, "msg": "error message" }}`,
			res: ``,
		},
		"batch with notif and string id": {
			req: `[{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 5 }},
					{"jsonrpc" : "2.0", "method" : "fail",
					"params" : { "num" : 5 } , "id" : "7"},
					{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 44 } , "id" : 6}]`,
			res: `[{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method Not Found"},"id":"7"},{"jsonrpc":"2.0","result":{"doubled":88},"id":6}]`,
		},
		"batch with all notifs": {
			req: `[{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 5 }},
					{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 44 }}]`,
			res: ``,
		},
		"nested batch": {
			req: `[[{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 5 }}],
					[{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 44 }}]]`,
			res: `[{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"json: cannot unmarshal array into Go value of type jsonrpc.request"},"id":null},{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"json: cannot unmarshal array into Go value of type jsonrpc.request"},"id":null}]`,
		},
		"no method": {
			req: `{
					"jsonrpc" : "2.0"
				}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"no method specified"},"id":null}`,
		},
		"array id": {
			req: `
				{
					"jsonrpc" : "2.0",
					"method" : "rpc_call",
					"params" : { "malatya" : "44"},
					"id"     : [37]
				}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"id should be a string or an integer"},"id":null}`,
		},
		"map id": {
			req: `
				{
					"jsonrpc" : "2.0",
					"method" : "rpc_call",
					"params" : { "malatya" : "44"},
					"id"     : { "44" : "37"}
				}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"id should be a string or an integer"},"id":null}`,
		},
		"float id": {
			req: `
				{
					"jsonrpc" : "2.0",
					"method" : "rpc_call",
					"params" : { "malatya" : "44"},
					"id"     : 44.37
				}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"id should be a string or an integer"},"id":null}`,
		},
		"exponent id": {
			req: `{"jsonrpc" : "2.0", "method" : "foobar", "id" : 1e3}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"id should be a string or an integer"},"id":null}`,
		},
		"bool id": {
			req: `{"jsonrpc" : "2.0", "method" : "foobar", "id" : true}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"id should be a string or an integer"},"id":null}`,
		},
		"wrong param type": {
			req: `{"jsonrpc" : "2.0", "method" : "method", "params" : ["3", false, "error message"] , "id" : 3}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid Params","data":"json: cannot unmarshal string into Go value of type int"},"id":3}`,
		},
		"multiple versions in batch": {
			req: `[{"jsonrpc" : "1.0", "method" : "method",
					"params" : { "num" : 5 } , "id" : 5},
					{"jsonrpc" : "2.0", "method" : "method",
					"params" : { "num" : 44 } , "id" : 6}]`,
			res: `[{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"unsupported RPC request version"},"id":5},{"jsonrpc":"2.0","result":{"doubled":88},"id":6}]`,
		},
		// examples from https://www.jsonrpc.org/specification
		"rpc call with positional parameters 1": {
			req: `{"jsonrpc": "2.0", "method": "subtract", "params": [42, 23], "id": 1}`,
			res: `{"jsonrpc":"2.0","result":19,"id":1}`,
		},
		"rpc call with positional parameters 2": {
			req: `{"jsonrpc": "2.0", "method": "subtract", "params": [23, 42], "id": 2}`,
			res: `{"jsonrpc":"2.0","result":-19,"id":2}`,
		},
		"rpc call with named parameters 1": {
			req: `{"jsonrpc": "2.0", "method": "subtract", "params": {"subtrahend": 23, "minuend": 42}, "id": 3}`,
			res: `{"jsonrpc":"2.0","result":19,"id":3}`,
		},
		"rpc call with named parameters 2": {
			req: `{"jsonrpc": "2.0", "method": "subtract", "params": {"minuend": 42, "subtrahend": 23}, "id": 4}`,
			res: `{"jsonrpc":"2.0","result":19,"id":4}`,
		},
		"notif 1": {
			req: `{"jsonrpc": "2.0", "method": "update", "params": [1,2,3,4,5]}`,
			res: ``,
		},
		"notif 2": {
			req: `{"jsonrpc": "2.0", "method": "foobar"}`,
			res: ``,
		},
		"method not found": {
			req: `{"jsonrpc": "2.0", "method": "notfound", "id": "1"}`,
			res: `{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method Not Found"},"id":"1"}`,
		},
		"rpc call with invalid JSON": {
			req: `{"jsonrpc": "2.0", "method": "foobar, "params": "bar", "baz]`,
			res: `{"jsonrpc":"2.0","error":{"code":-32700,"message":"Parse error","data":"invalid character 'p' after object key:value pair"},"id":null}`,
		},
		"rpc call Batch, invalid JSON:": {
			req: `[
  {"jsonrpc": "2.0", "method": "sum", "params": [1,2,4], "id": "1"},
  {"jsonrpc": "2.0", "method"
]`,
			res: `{"jsonrpc":"2.0","error":{"code":-32700,"message":"Parse error","data":"invalid character ']' after object key"},"id":null}`,
		},
		"rpc call with an invalid Batch (but not empty)": {
			req: `[1]`,
			res: `[{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"json: cannot unmarshal number into Go value of type jsonrpc.request"},"id":null}]`,
		},
		"rpc call with invalid Batch": {
			req: `[1,2,3]`,
			res: `[{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"json: cannot unmarshal number into Go value of type jsonrpc.request"},"id":null},{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"json: cannot unmarshal number into Go value of type jsonrpc.request"},"id":null},{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid Request","data":"json: cannot unmarshal number into Go value of type jsonrpc.request"},"id":null}]`,
		},
	}

	for desc, test := range tests {
		t.Run(desc, func(t *testing.T) {
			assert.Equal(t, test.res, handle(t, server, test.req))
		})
	}
}

func TestBatchKeepsRequestOrder(t *testing.T) {
	server := newServer(t)
	release := make(chan struct{})
	require.NoError(t, server.RegisterMethods(
		jsonrpc.Method{
			Name: "slow",
			Handler: func() (string, *jsonrpc.Error) {
				<-release
				return "slow", nil
			},
		},
		jsonrpc.Method{
			Name: "fast",
			Handler: func() (string, *jsonrpc.Error) {
				close(release)
				return "fast", nil
			},
		},
	))

	req := `[{"jsonrpc":"2.0","method":"slow","id":1},{"jsonrpc":"2.0","method":"fast","id":2}]`
	want := `[{"jsonrpc":"2.0","result":"slow","id":1},{"jsonrpc":"2.0","result":"fast","id":2}]`
	assert.Equal(t, want, handle(t, server, req))
}

func TestHandlerPanicAndErrors(t *testing.T) {
	errBoom := errors.New("boom")
	server := newServer(t)
	require.NoError(t, server.RegisterMethods(
		jsonrpc.Method{
			Name: "panics",
			Handler: func() (any, *jsonrpc.Error) {
				panic("kaboom")
			},
		},
	))
	require.NoError(t, server.RegisterService("errs", &erroringService{err: errBoom}))

	t.Run("panic is reported as unhandled exception", func(t *testing.T) {
		assert.Equal(t,
			`{"jsonrpc":"2.0","error":{"code":-32603,"message":"Unhandled exception","data":"panic: kaboom"},"id":1}`,
			handle(t, server, `{"jsonrpc":"2.0","method":"panics","id":1}`))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Equal(t,
			`{"jsonrpc":"2.0","error":{"code":-32603,"message":"Unhandled exception","data":"boom"},"id":2}`,
			handle(t, server, `{"jsonrpc":"2.0","method":"errs.fail","id":2}`))
	})

	t.Run("wrapped *Error passes through", func(t *testing.T) {
		assert.Equal(t,
			`{"jsonrpc":"2.0","error":{"code":-32001,"message":"custom","data":"details"},"id":3}`,
			handle(t, server, `{"jsonrpc":"2.0","method":"errs.wrapped","id":3}`))
	})

	t.Run("custom error handler", func(t *testing.T) {
		var seen atomic.Value
		server.WithErrorHandler(jsonrpc.ErrorHandlerFunc(func(method string, err error) *jsonrpc.Error {
			seen.Store(method)
			if errors.Is(err, errBoom) {
				return &jsonrpc.Error{Code: -32050, Message: "boom happened"}
			}
			return jsonrpc.Err(jsonrpc.InternalError, nil)
		}))
		t.Cleanup(func() { server.WithErrorHandler(jsonrpc.NewDefaultErrorHandler(utils.NewNopZapLogger())) })

		assert.Equal(t,
			`{"jsonrpc":"2.0","error":{"code":-32050,"message":"boom happened"},"id":4}`,
			handle(t, server, `{"jsonrpc":"2.0","method":"errs.fail","id":4}`))
		assert.Equal(t, "errs.fail", seen.Load())
	})
}

type erroringService struct {
	err error
}

func (s *erroringService) Fail() error {
	return s.err
}

func (s *erroringService) Wrapped() (int, error) {
	return 0, errors.Join(errors.New("context"), &jsonrpc.Error{Code: -32001, Message: "custom", Data: "details"})
}

func TestMethods(t *testing.T) {
	server := newServer(t)
	require.NoError(t, server.RegisterMethods(
		jsonrpc.Method{
			Name:    "b",
			Params:  []jsonrpc.Parameter{{Name: "x"}, {Name: "y", Optional: true}},
			Handler: func(_ context.Context, x int, y string) (bool, *jsonrpc.Error) { return true, nil },
		},
		jsonrpc.Method{
			Name:    "a",
			Handler: func() (string, *jsonrpc.Error) { return "", nil },
		},
	))

	methods := server.Methods()
	require.Len(t, methods, 2)
	assert.Equal(t, "a", methods[0].Name)
	assert.Empty(t, methods[0].Params)

	b := methods[1]
	assert.Equal(t, "b", b.Name)
	require.Len(t, b.Params, 2)
	assert.Equal(t, "x", b.Params[0].Name)
	assert.Equal(t, "int", b.Params[0].Type.String())
	assert.True(t, b.Params[1].Optional)
	assert.Nil(t, b.Input)
	assert.Equal(t, "bool", b.Result.String())
}

func TestHandleReadWriter(t *testing.T) {
	server := newServer(t)
	require.NoError(t, server.RegisterMethod(jsonrpc.Method{
		Name:    "echo",
		Params:  []jsonrpc.Parameter{{Name: "msg"}},
		Handler: func(msg string) (string, *jsonrpc.Error) { return msg, nil },
	}))

	rw := &readWriter{in: strings.NewReader(`{"jsonrpc":"2.0","method":"echo","params":["hi"],"id":1}`)}
	require.NoError(t, server.HandleReadWriter(context.Background(), rw))
	assert.Equal(t, `{"jsonrpc":"2.0","result":"hi","id":1}`, rw.out.String())

	rw = &readWriter{in: strings.NewReader(`{"jsonrpc":"2.0","method":"echo","params":["hi"]}`)}
	require.NoError(t, server.HandleReadWriter(context.Background(), rw))
	assert.Empty(t, rw.out.String())
}

type readWriter struct {
	in  *strings.Reader
	out strings.Builder
}

func (rw *readWriter) Read(p []byte) (int, error) {
	return rw.in.Read(p)
}

func (rw *readWriter) Write(p []byte) (int, error) {
	return rw.out.Write(p)
}
