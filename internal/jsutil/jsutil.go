// Package jsutil provides safe JS<->Go value conversion for the Goja runtime.
package jsutil

import (
	"math"
	"strconv"

	"github.com/dop251/goja"

	"github.com/hlop3z/erdlab/internal/alerr"
)

// Property names carried by structured errors thrown from Go bindings.
const (
	ErrorCodeKey    = "__errorCode"
	ErrorMessageKey = "__errorMessage"
	ErrorHelpKey    = "__errorHelp"
)

// IsNullish reports whether v is missing, undefined or null.
func IsNullish(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

// GetString safely retrieves a string property from a Goja object.
// Returns the value and true if the key exists and is a string, otherwise returns "" and false.
func GetString(obj *goja.Object, key string) (string, bool) {
	if obj == nil {
		return "", false
	}
	v := obj.Get(key)
	if IsNullish(v) {
		return "", false
	}
	s, ok := v.Export().(string)
	return s, ok
}

// GetFloat safely retrieves a finite numeric property from a Goja object.
func GetFloat(obj *goja.Object, key string) (float64, bool) {
	if obj == nil {
		return 0, false
	}
	v := obj.Get(key)
	if IsNullish(v) {
		return 0, false
	}
	return toFloat(v.Export())
}

// GetBool safely retrieves a boolean property from a Goja object.
// Returns the value and true if the key exists and is a boolean, otherwise returns false and false.
func GetBool(obj *goja.Object, key string) (bool, bool) {
	if obj == nil {
		return false, false
	}
	v := obj.Get(key)
	if IsNullish(v) {
		return false, false
	}
	b, ok := v.Export().(bool)
	return b, ok
}

// GetObject safely retrieves an object property from a Goja object.
// Returns the object and true if the key exists and is an object, otherwise returns nil and false.
func GetObject(obj *goja.Object, key string) (*goja.Object, bool) {
	if obj == nil {
		return nil, false
	}
	v := obj.Get(key)
	if IsNullish(v) {
		return nil, false
	}
	o, ok := v.(*goja.Object)
	return o, ok
}

// GetArray safely retrieves an array property from a Goja object.
// Returns the array values and true if the key exists and is array-like, otherwise returns nil and false.
func GetArray(obj *goja.Object, key string) ([]goja.Value, bool) {
	if obj == nil {
		return nil, false
	}
	v := obj.Get(key)
	if IsNullish(v) {
		return nil, false
	}
	o, ok := v.(*goja.Object)
	if !ok {
		return nil, false
	}
	// Array-like: has a non-negative integer length
	lengthVal := o.Get("length")
	if IsNullish(lengthVal) {
		return nil, false
	}
	n, ok := toFloat(lengthVal.Export())
	if !ok || n < 0 || n != math.Trunc(n) {
		return nil, false
	}
	length := int(n)
	result := make([]goja.Value, 0, length)
	for i := 0; i < length; i++ {
		result = append(result, o.Get(strconv.Itoa(i)))
	}
	return result, true
}

// ToGoString converts a Goja value to a Go string.
// Returns an empty string for undefined/null values.
func ToGoString(v goja.Value) string {
	if IsNullish(v) {
		return ""
	}
	if s, ok := v.Export().(string); ok {
		return s
	}
	return v.String()
}

// Throw raises err inside the running script as a JS Error carrying the
// error code, message and first help line as properties. It must only be
// called from a Go function invoked by the VM.
func Throw(vm *goja.Runtime, err *alerr.Error) {
	obj := vm.NewTypeError(err.GetMessage())
	_ = obj.Set(ErrorCodeKey, string(err.GetCode()))
	_ = obj.Set(ErrorMessageKey, err.GetMessage())
	if helps := err.Helps(); len(helps) > 0 {
		_ = obj.Set(ErrorHelpKey, helps[0])
	}
	panic(obj)
}

// WrapJSError wraps a JavaScript error with the specified error code.
// Returns nil if the input error is nil.
func WrapJSError(err error, code alerr.Code) *alerr.Error {
	if err == nil {
		return nil
	}
	if exception, ok := err.(*goja.Exception); ok {
		return alerr.Wrap(code, err, exception.Value().String())
	}
	return alerr.Wrap(code, err, err.Error())
}

// toFloat converts the numeric types Goja may export to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
