package jsutil

import (
	"testing"

	"github.com/dop251/goja"

	"github.com/hlop3z/erdlab/internal/alerr"
)

// -----------------------------------------------------------------------------
// Test Helpers
// -----------------------------------------------------------------------------

// newVM creates a new Goja runtime for testing.
func newVM() *goja.Runtime {
	return goja.New()
}

// eval runs code and returns the value as an object.
func eval(t *testing.T, vm *goja.Runtime, code string) *goja.Object {
	t.Helper()
	v, err := vm.RunString(code)
	if err != nil {
		t.Fatalf("RunString(%q) error = %v", code, err)
	}
	return v.ToObject(vm)
}

// -----------------------------------------------------------------------------
// Getter Tests
// -----------------------------------------------------------------------------

func TestGetString(t *testing.T) {
	vm := newVM()
	obj := eval(t, vm, `({name: "User", empty: "", num: 3, nothing: null})`)

	tests := []struct {
		key     string
		wantVal string
		wantOK  bool
	}{
		{"name", "User", true},
		{"empty", "", true},
		{"num", "", false},
		{"nothing", "", false},
		{"missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			val, ok := GetString(obj, tt.key)
			if val != tt.wantVal || ok != tt.wantOK {
				t.Errorf("GetString() = (%q, %v), want (%q, %v)", val, ok, tt.wantVal, tt.wantOK)
			}
		})
	}

	if _, ok := GetString(nil, "name"); ok {
		t.Error("GetString(nil) ok = true, want false")
	}
}

func TestGetFloat(t *testing.T) {
	vm := newVM()
	obj := eval(t, vm, `({x: 12.5, y: 3, s: "4", nan: NaN, inf: Infinity})`)

	tests := []struct {
		key     string
		wantVal float64
		wantOK  bool
	}{
		{"x", 12.5, true},
		{"y", 3, true},
		{"s", 0, false},
		{"nan", 0, false},
		{"inf", 0, false},
		{"missing", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			val, ok := GetFloat(obj, tt.key)
			if val != tt.wantVal || ok != tt.wantOK {
				t.Errorf("GetFloat() = (%v, %v), want (%v, %v)", val, ok, tt.wantVal, tt.wantOK)
			}
		})
	}
}

func TestGetBool(t *testing.T) {
	vm := newVM()
	obj := eval(t, vm, `({yes: true, no: false, str: "true"})`)

	if v, ok := GetBool(obj, "yes"); !v || !ok {
		t.Errorf("GetBool(yes) = (%v, %v)", v, ok)
	}
	if v, ok := GetBool(obj, "no"); v || !ok {
		t.Errorf("GetBool(no) = (%v, %v)", v, ok)
	}
	if _, ok := GetBool(obj, "str"); ok {
		t.Error("GetBool(str) ok = true, want false")
	}
}

func TestGetObject(t *testing.T) {
	vm := newVM()
	obj := eval(t, vm, `({pos: {x: 1}, n: 1})`)

	pos, ok := GetObject(obj, "pos")
	if !ok {
		t.Fatal("GetObject(pos) ok = false")
	}
	if x, _ := GetFloat(pos, "x"); x != 1 {
		t.Errorf("pos.x = %v, want 1", x)
	}
	if _, ok := GetObject(obj, "n"); ok {
		t.Error("GetObject(n) ok = true, want false")
	}
}

func TestGetArray(t *testing.T) {
	vm := newVM()
	obj := eval(t, vm, `({list: ["a", "b", "c"], empty: [], notArray: {a: 1}})`)

	arr, ok := GetArray(obj, "list")
	if !ok || len(arr) != 3 || ToGoString(arr[1]) != "b" {
		t.Errorf("GetArray(list) = (%v, %v)", arr, ok)
	}
	if arr, ok := GetArray(obj, "empty"); !ok || len(arr) != 0 {
		t.Errorf("GetArray(empty) = (%v, %v)", arr, ok)
	}
	if _, ok := GetArray(obj, "notArray"); ok {
		t.Error("GetArray(notArray) ok = true, want false")
	}
}

// -----------------------------------------------------------------------------
// Conversion Tests
// -----------------------------------------------------------------------------

func TestToGoString(t *testing.T) {
	vm := newVM()

	tests := []struct {
		name string
		val  goja.Value
		want string
	}{
		{"nil", nil, ""},
		{"undefined", goja.Undefined(), ""},
		{"null", goja.Null(), ""},
		{"string", vm.ToValue("hi"), "hi"},
		{"number", vm.ToValue(42), "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToGoString(tt.val); got != tt.want {
				t.Errorf("ToGoString() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Error Tests
// -----------------------------------------------------------------------------

func TestThrow(t *testing.T) {
	vm := newVM()
	_ = vm.Set("fail", func(goja.FunctionCall) goja.Value {
		Throw(vm, alerr.New(alerr.ErrScriptArgument, "bad argument").WithHelp("pass a string"))
		return goja.Undefined()
	})

	v, err := vm.RunString(`
		var caught;
		try { fail(); } catch (e) { caught = e; }
		[caught.__errorCode, caught.__errorMessage, caught.__errorHelp, caught instanceof TypeError].join("|");
	`)
	if err != nil {
		t.Fatalf("RunString() error = %v", err)
	}
	if got := v.String(); got != "E3003|bad argument|pass a string|true" {
		t.Errorf("thrown error = %q", got)
	}
}

func TestWrapJSError(t *testing.T) {
	if WrapJSError(nil, alerr.ErrScriptExecution) != nil {
		t.Error("WrapJSError(nil) should be nil")
	}

	vm := newVM()
	_, err := vm.RunString(`throw new Error("boom")`)
	wrapped := WrapJSError(err, alerr.ErrScriptExecution)
	if wrapped.GetCode() != alerr.ErrScriptExecution {
		t.Errorf("code = %s", wrapped.GetCode())
	}
	if wrapped.GetMessage() != "Error: boom" {
		t.Errorf("message = %q", wrapped.GetMessage())
	}
}
