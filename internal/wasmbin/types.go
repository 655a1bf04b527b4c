package wasmbin

// Module is the assembled form of everything ModuleBuilder accumulates:
// function signatures, the fixed host-import set, one memory, one
// identity-mapped indirect-call table, and function bodies.
type Module struct {
	Types    []FuncType
	TypeDefs []TypeDef
	Imports  []Import
	Funcs    []uint32 // type indices for module-defined functions, import-space excluded
	Tables   []TableType
	Memories []MemoryType
	Exports  []Export
	Elements []Element
	Code     []FuncBody
}

// FuncType is a function signature: core value types only, no GC/reference
// parameter or result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// TypeDef is a type-section entry. Every type this backend emits is a
// plain function signature (structs/arrays/unions never reach the type
// section — they're lowered to linear-memory layouts instead).
type TypeDef struct {
	Func *FuncType
}

// ValType is a WebAssembly value type byte (see constants.go).
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValFuncRef:
		return "funcref"
	default:
		return "unknown"
	}
}

// Import is one imported function (env/chic_rt host calls, spec.md §4.7);
// chicc never imports a table, memory, or global.
type Import struct {
	Module string
	Name   string
	Desc   ImportDesc
}

// ImportDesc describes an imported function's type.
type ImportDesc struct {
	Kind    byte // always KindFunc
	TypeIdx uint32
}

// TableType describes the module's single indirect-call table: always
// funcref, sized to the total function count.
type TableType struct {
	ElemType byte // always ValFuncRef
	Limits   Limits
}

// MemoryType describes the module's single linear memory.
type MemoryType struct {
	Limits Limits
}

// Limits describes a table or memory's page/element size bounds.
type Limits struct {
	Min uint64
	Max *uint64
}

// Export describes an exported function or memory.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Element is an active element segment loading table 0 with a funcidx
// vector at a constant offset — the only element-segment shape
// ModuleBuilder ever produces (flags=0 per the WASM spec's element
// encoding table).
type Element struct {
	Offset   []byte // encoded i32.const <n>; i32.const 0 for the identity table
	FuncIdxs []uint32
}

// FuncBody is a function's local declarations and encoded instruction
// bytes (the End opcode is included).
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// LocalEntry groups consecutive locals of the same type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}
