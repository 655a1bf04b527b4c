// Package driver orchestrates the per-function pipeline spec.md §2
// describes: BorrowChecker -> DropLowering -> mir.Validate -> one of the
// two CodeGenerators, collecting diagnostics across every function into
// one bag and refusing to emit if any is error-severity (spec.md §7).
//
// Grounded on the teacher's engine.Runtime, which owns a single
// "instantiate, run, collect errors" entry point per component; this
// driver plays the same role one level up, over MIR functions instead of
// WASM instances.
package driver

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chic-lang/chicc/internal/borrow"
	"github.com/chic-lang/chicc/internal/codegen/llvm"
	"github.com/chic-lang/chicc/internal/codegen/wasmgen"
	"github.com/chic-lang/chicc/internal/diag"
	"github.com/chic-lang/chicc/internal/dropelab"
	"github.com/chic-lang/chicc/internal/mir"
	wasm "github.com/chic-lang/chicc/internal/wasmbin"
)

// Backend selects which CodeGenerator the driver runs (spec.md §9's
// Target sum type: Llvm | Wasm).
type Backend int

const (
	BackendLLVM Backend = iota
	BackendWasm
)

func (b Backend) String() string {
	if b == BackendWasm {
		return "wasm"
	}
	return "llvm"
}

// ParseBackend parses the CLI's --backend flag value.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "llvm":
		return BackendLLVM, nil
	case "wasm", "":
		return BackendWasm, nil
	default:
		return 0, fmt.Errorf("unknown backend %q (want llvm or wasm)", s)
	}
}

// ExceptionBaseName is the canonical name of the language's exception
// base class, used by the type-test pattern lowering (spec.md §4.4/§4.5)
// to recognize "catch everything Error-kind".
const ExceptionBaseName = "chic.Error"

// Options configures one Compile invocation.
type Options struct {
	Backend Backend
	Log     *zap.Logger
}

// Result is everything a CLI command needs to decide exit code and write
// artifacts.
type Result struct {
	Diagnostics *diag.Bag
	LLVMText    string   // set when Options.Backend == BackendLLVM
	WasmBinary  []byte   // set when Options.Backend == BackendWasm
	FuncOrder   []string // function names in the order they were compiled
}

// Compile runs the full per-function pipeline over every function in mod
// and assembles the selected backend's output. It never aborts early on a
// diagnostic (spec.md §7's "collect diagnostics rather than aborting");
// callers check Result.Diagnostics.HasErrors() before using the output.
func Compile(mod *mir.Module, opts Options) *Result {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	bag := &diag.Bag{}
	res := &Result{Diagnostics: bag}

	var wasmBuilder *wasmgen.ModuleBuilder
	var llvmOut strings.Builder
	if opts.Backend == BackendWasm {
		wasmBuilder = wasmgen.NewModuleBuilder(mod.Layouts)
		wasmBuilder.Memory(1, nil)
		hostIdx := wasmBuilder.ImportHosts(defaultHostImports())
		// Pre-register every function's call signature so direct calls
		// between module functions resolve regardless of definition order
		// (two-pass assembly: declare, then emit bodies).
		for i, fn := range mod.Functions {
			var modes []mir.ParamMode
			for _, pid := range fn.Params {
				modes = append(modes, fn.Local(pid).ParamMode)
			}
			sret := needsSret(fn.ReturnType)
			wasmBuilder.Sigs[fn.Name] = wasmgen.CallSignature{
				FuncIndex: uint32(len(hostIdx) + i),
				Sret:      sret,
				HasResult: !sret && fn.ReturnType != nil && fn.ReturnType.Kind != mir.TyUnit,
				ParamMode: modes,
			}
		}
	}

	for _, fn := range mod.Functions {
		start := time.Now()
		res.FuncOrder = append(res.FuncOrder, fn.Name)
		errsBefore := len(bag.Errors())

		for _, d := range borrow.Check(fn, mod.Layouts).Items() {
			bag.Add(d)
		}
		dropelab.Elaborate(fn, mod.Layouts)
		for _, d := range mir.Validate(fn).Items() {
			bag.Add(d)
		}

		log.Debug("compiled function pass",
			zap.String("function", fn.Name),
			zap.Duration("elapsed", time.Since(start)))

		if len(bag.Errors()) > errsBefore {
			// This function failed its checks; skip its codegen but keep
			// walking the module (collect, don't abort) so diagnostics in
			// sibling functions still surface. Emission of the assembled
			// output is gated on HasErrors() by the caller.
			continue
		}

		switch opts.Backend {
		case BackendLLVM:
			g := llvm.NewGenerator(mod.Layouts, ExceptionBaseName)
			sret := needsSret(fn.ReturnType)
			g.Function(fn, sret)
			for _, d := range g.Diagnostics().Items() {
				bag.Add(d)
			}
			llvmOut.WriteString(g.Output())
		case BackendWasm:
			sret := needsSret(fn.ReturnType)
			fe := wasmgen.NewFuncEmitter(mod.Layouts, wasmBuilder.Sigs)
			fe.Function(fn, sret)
			wasmBuilder.AddFunction(fn, sret, wasmgen.LocalEntriesFor(fn), fe.Code(), isExported(fn))
			for _, d := range fe.Diagnostics().Items() {
				bag.Add(d)
			}
		}
	}

	if opts.Backend == BackendLLVM {
		res.LLVMText = llvmOut.String()
	} else if wasmBuilder != nil {
		res.WasmBinary = wasmBuilder.Encode()
	}
	return res
}

// needsSret mirrors the LLVM/WASM emitters' shared rule: aggregate
// (named/tuple/array) return types pass through an out-pointer instead of a
// value return (spec.md §4.5/§4.6).
func needsSret(t *mir.Ty) bool {
	if t == nil {
		return false
	}
	return t.Kind == mir.TyNamed || t.Kind == mir.TyTuple || t.Kind == mir.TyArray
}

// isExported treats every top-level function as an export candidate; a
// real frontend would carry an explicit visibility flag on mir.Function,
// which is out of this core's scope (spec.md §1) to invent.
func isExported(f *mir.Function) bool { return true }

// defaultHostImports lists the fixed env/chic_rt/chic_rt_mmio import
// surface spec.md §4.7 defines, MMIO hooks first, in the order wasmgen's
// FuncEmitter assumes when hand-assigning call indices for MMIO.
func defaultHostImports() []wasmgen.HostImport {
	env := []wasmgen.HostImport{
		{Module: "env", Name: "write", Params: []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		{Module: "env", Name: "read", Params: []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		{Module: "env", Name: "isatty", Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		{Module: "env", Name: "monotonic_nanos", Params: nil, Results: []wasm.ValType{wasm.ValI64}},
		{Module: "env", Name: "sleep_millis", Params: []wasm.ValType{wasm.ValI64}, Results: nil},
		{Module: "env", Name: "malloc", Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		{Module: "env", Name: "calloc", Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		{Module: "env", Name: "realloc", Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		{Module: "env", Name: "free", Params: []wasm.ValType{wasm.ValI32}, Results: nil},
	}
	return append(append([]wasmgen.HostImport{}, MmioImports()...), env...)
}

// MmioImports re-exports wasmgen's fixed MMIO hook signatures so driver
// and wasmgen agree on index assignment without a circular dependency.
func MmioImports() []wasmgen.HostImport { return wasmgen.MmioHostImports }

// Summary renders one line per compiled function: its name padded to 32
// columns, then "error" if any error diagnostic names it, else "ok".
func Summary(res *Result) string {
	var b strings.Builder
	for _, name := range res.FuncOrder {
		status := "ok"
		for _, d := range res.Diagnostics.Items() {
			if d.Func == name && d.IsError() {
				status = "error"
				break
			}
		}
		fmt.Fprintf(&b, "%-32s %s\n", name, status)
	}
	return b.String()
}
