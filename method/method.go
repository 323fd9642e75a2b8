// Package method defines the contract implemented by server-side JSON-RPC methods: one typed
// input in, one typed output out. Either side may be Void.
package method

import (
	"context"
	"path"
	"reflect"
	"strings"
	"unicode"
)

// Method is a unit of server-side logic invoked by the dispatcher.
type Method[In, Out any] interface {
	Invoke(ctx context.Context, input In) (Out, error)
}

// Void is the "no value" type. As an input it means the method takes no params, as an output
// it means the method produces no result.
type Void struct{}

var voidType = reflect.TypeOf(Void{})

// MarshalJSON encodes Void as null.
func (Void) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// UnmarshalJSON accepts and discards any value.
func (*Void) UnmarshalJSON([]byte) error {
	return nil
}

// IsVoid reports whether t is Void or a pointer to it.
func IsVoid(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t == voidType
}

// Func adapts an ordinary function to the Method interface.
type Func[In, Out any] func(ctx context.Context, input In) (Out, error)

func (f Func[In, Out]) Invoke(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// Name derives the default JSON-RPC name of m from its type: the last element of the package
// path, a dot, and the type name with a trailing "Method" removed, in lower camel case.
//
//	package handlers; type CreateUserMethod struct{} => "handlers.createUser"
func Name(m any) string {
	t := reflect.TypeOf(m)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return ""
	}

	name := t.Name()
	// Generic instantiations carry their type arguments in the name.
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if trimmed := strings.TrimSuffix(name, "Method"); trimmed != "" {
		name = trimmed
	}
	return path.Base(t.PkgPath()) + "." + LowerCamel(name)
}

// LowerCamel lower-cases the leading upper-case run of s, keeping the last upper-case letter
// of a run that starts a new word: "ProcessAsync" => "processAsync", "JSONRPCError" => "jsonrpcError".
func LowerCamel(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			break
		}
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(r)
	}
	return string(runes)
}
