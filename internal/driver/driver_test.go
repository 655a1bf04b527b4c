package driver

import (
	"strings"
	"testing"

	"github.com/chic-lang/chicc/internal/mir"
)

// addOneFunction builds a minimal well-formed `fn addOne(n: i32) -> i32`
// used to exercise the full BorrowCheck -> DropLowering -> Validate ->
// codegen pipeline (spec.md §2/§7).
func addOneFunction() *mir.Module {
	mod := mir.NewModule()
	f := mir.NewFunction("addOne")
	f.ReturnType = mir.Int(32, true)
	n := f.AddLocal(&mir.LocalDecl{Name: "n", Type: mir.Int(32, true), Kind: mir.LocalKindParameter, ParamMode: mir.ParamOwned})
	f.Params = []mir.LocalID{n}
	ret := f.AddLocal(&mir.LocalDecl{Name: "retval", Type: mir.Int(32, true), Kind: mir.LocalKindReturn, Mutable: true})
	f.ReturnLocal = ret

	sum := &mir.Rvalue{
		Kind:  mir.RvalueBinary,
		Type:  mir.Int(32, true),
		BinOp: mir.BinAdd,
		LHS:   mir.CopyOf(mir.NewPlace(n)),
		RHS:   mir.ConstOf(mir.ConstValue{Type: mir.Int(32, true), Value: int64(1)}),
	}
	b := &mir.BasicBlock{ID: 0}
	b.Statements = []mir.Statement{
		mir.Assign(mir.NewPlace(ret), sum),
	}
	b.Terminator = mir.Return()
	f.AddBlock(b)

	mod.Functions = append(mod.Functions, f)
	return mod
}

func TestCompileLLVMBackendProducesOutputWithNoDiagnostics(t *testing.T) {
	mod := addOneFunction()
	res := Compile(mod, Options{Backend: BackendLLVM})
	if res.Diagnostics.HasErrors() {
		t.Fatalf("expected no error diagnostics, got %v", res.Diagnostics.Items())
	}
	if !strings.Contains(res.LLVMText, "define") {
		t.Fatalf("expected LLVM output to contain a function definition, got:\n%s", res.LLVMText)
	}
	if len(res.FuncOrder) != 1 || res.FuncOrder[0] != "addOne" {
		t.Fatalf("FuncOrder = %v, want [addOne]", res.FuncOrder)
	}
}

func TestCompileWasmBackendProducesBinary(t *testing.T) {
	mod := addOneFunction()
	res := Compile(mod, Options{Backend: BackendWasm})
	if res.Diagnostics.HasErrors() {
		t.Fatalf("expected no error diagnostics, got %v", res.Diagnostics.Items())
	}
	if len(res.WasmBinary) == 0 {
		t.Fatal("expected a non-empty wasm binary")
	}
	if res.WasmBinary[0] != 0x00 || res.WasmBinary[1] != 0x61 || res.WasmBinary[2] != 0x73 || res.WasmBinary[3] != 0x6d {
		t.Fatalf("wasm binary should start with the \\0asm magic number, got % x", res.WasmBinary[:4])
	}
}

// TestCompileCollectsBorrowDiagnosticsWithoutAborting verifies spec.md §7's
// "collect diagnostics rather than aborting": a borrow violation in one
// function must not stop the driver from still processing the rest of the
// module, and must surface in Result.Diagnostics.
func TestCompileCollectsBorrowDiagnosticsWithoutAborting(t *testing.T) {
	mod := mir.NewModule()

	bad := mir.NewFunction("useAfterUninit")
	bad.ReturnType = mir.Unit()
	x := bad.AddLocal(&mir.LocalDecl{Name: "x", Type: mir.Int(32, true), Kind: mir.LocalKindLocal, Mutable: true})
	sink := bad.AddLocal(&mir.LocalDecl{Name: "sink", Type: mir.Int(32, true), Kind: mir.LocalKindLocal, Mutable: true})
	bb := &mir.BasicBlock{ID: 0}
	bb.Statements = []mir.Statement{
		mir.Assign(mir.NewPlace(sink), mir.UseOf(mir.CopyOf(mir.NewPlace(x)))),
	}
	bb.Terminator = mir.Return()
	bad.AddBlock(bb)

	mod.Functions = append(mod.Functions, bad, addOneFunction().Functions[0])

	res := Compile(mod, Options{Backend: BackendLLVM})
	if !res.Diagnostics.HasErrors() {
		t.Fatal("expected the use-of-uninitialized-local diagnostic to surface as an error")
	}
	if len(res.FuncOrder) != 2 {
		t.Fatalf("expected both functions to be visited despite the first erroring, got %v", res.FuncOrder)
	}
}

func TestParseBackend(t *testing.T) {
	if b, err := ParseBackend("llvm"); err != nil || b != BackendLLVM {
		t.Errorf("ParseBackend(llvm) = (%v, %v), want (BackendLLVM, nil)", b, err)
	}
	if b, err := ParseBackend(""); err != nil || b != BackendWasm {
		t.Errorf("ParseBackend(\"\") = (%v, %v), want (BackendWasm, nil) (wasm is the default)", b, err)
	}
	if _, err := ParseBackend("bogus"); err == nil {
		t.Error("ParseBackend(bogus) should return an error")
	}
}
