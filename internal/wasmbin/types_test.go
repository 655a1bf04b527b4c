package wasmbin

import "testing"

func TestValTypeString(t *testing.T) {
	cases := map[ValType]string{
		ValI32:     "i32",
		ValI64:     "i64",
		ValF32:     "f32",
		ValF64:     "f64",
		ValFuncRef: "funcref",
		ValType(0): "unknown",
	}
	for v, want := range cases {
		if got := v.String(); got != want {
			t.Errorf("ValType(%#x).String() = %q, want %q", byte(v), got, want)
		}
	}
}
