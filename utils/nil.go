package utils

import "reflect"

// IsNil reports whether i is nil or an interface boxing a nil value.
// Kinds that cannot be nil, such as arrays and structs, are never nil.
func IsNil(i any) bool {
	if i == nil {
		return true
	}

	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Map, reflect.Ptr, reflect.UnsafePointer, reflect.Interface, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
