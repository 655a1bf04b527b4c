// Package chicc is the semantic middle and back end of the chic compiler
// toolchain: MIR construction, borrow/ownership checking, drop elaboration,
// pattern compilation, LLVM/WASM code generation, and the WASM executor that
// closes the run/test loop without external tools.
//
// # Architecture Overview
//
// The frontend (parser, name resolution, type checking) is out of scope;
// it hands this package a typed AST and this package takes over from there:
//
//	chicc/                 Root package: Memory/Allocator interface declarations
//	├── internal/mir/       MIR data model, TypeLayoutTable, Validate, Printer
//	├── internal/diag/      Structured diagnostics (phases, kinds, bags)
//	├── internal/dataflow/  Bitset/forward-worklist primitives (drop elaboration)
//	├── internal/borrow/    BorrowChecker: init/null/loan/union dataflow
//	├── internal/dropelab/  Drop elaboration (DeferDrop/StorageDead -> Drop sequences)
//	├── internal/pattern/   Pattern compilation (switch/type-test/structural lowering)
//	├── internal/codegen/llvm/   LLVM textual IR emitter
//	├── internal/codegen/wasmgen/ WASM binary emitter (built on internal/wasmbin/)
//	├── internal/wasmbin/   Core WASM binary encode primitives (module this backend emits)
//	├── internal/wasmexec/  WASM executor: wazero-backed, env + chic_rt host shims
//	├── internal/archive/   .clrlib static-library archive format
//	├── internal/config/    CHIC_* environment variable plumbing
//	└── cmd/chic/           CLI driver: build / run / test / header
//
// # Pipeline
//
//	AST -> Lowerer -> MIR + TypeLayoutTable -> BorrowChecker -> DropLowering
//	    -> PatternCompilation -> { LLVMEmitter | WASMEmitter } -> { clang | WASMExecutor }
package chicc
