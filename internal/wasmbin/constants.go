package wasmbin

// WebAssembly binary format magic number and version.
const (
	Magic   uint32 = 0x6D736100 // "\0asm" little-endian
	Version uint32 = 0x01
)

// Section IDs, in the order they must appear in the binary.
const (
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionTable    byte = 4
	SectionMemory   byte = 5
	SectionExport   byte = 7
	SectionElement  byte = 9
	SectionCode     byte = 10
)

// Import/export descriptor kinds this backend ever produces: function
// imports (env/chic_rt host calls) and the one exported memory.
const (
	KindFunc   byte = 0
	KindMemory byte = 2
)

// Value type encodings.
const (
	ValI32     ValType = 0x7F
	ValI64     ValType = 0x7E
	ValF32     ValType = 0x7D
	ValF64     ValType = 0x7C
	ValFuncRef ValType = 0x70 // element type of the indirect-call table
)

// Block type constants for block/loop/if; only BlockTypeVoid is emitted
// today (every function body's control blocks are value-less), the others
// are carried for the day a block needs to yield a value.
const (
	BlockTypeVoid int32 = -64 // 0x40
	BlockTypeI32  int32 = -1  // 0x7F
	BlockTypeI64  int32 = -2  // 0x7E
	BlockTypeF32  int32 = -3  // 0x7D
	BlockTypeF64  int32 = -4  // 0x7C
)

// Control flow opcodes.
const (
	OpUnreachable  byte = 0x00
	OpBlock        byte = 0x02
	OpLoop         byte = 0x03
	OpIf           byte = 0x04
	OpElse         byte = 0x05
	OpEnd          byte = 0x0B
	OpBr           byte = 0x0C
	OpBrIf         byte = 0x0D
	OpBrTable      byte = 0x0E
	OpReturn       byte = 0x0F
	OpCall         byte = 0x10
	OpCallIndirect byte = 0x11
)

// Parametric opcodes.
const (
	OpDrop   byte = 0x1A
	OpSelect byte = 0x1B
)

// Local access opcodes.
const (
	OpLocalGet byte = 0x20
	OpLocalSet byte = 0x21
	OpLocalTee byte = 0x22
)

// Constant opcodes.
const (
	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
)

// i32 comparison opcodes.
const (
	OpI32Eqz byte = 0x45
	OpI32Eq  byte = 0x46
	OpI32Ne  byte = 0x47
	OpI32LtS byte = 0x48
	OpI32LtU byte = 0x49
	OpI32GtS byte = 0x4A
	OpI32LeS byte = 0x4C
	OpI32GeS byte = 0x4E
)

// i64 comparison opcodes.
const (
	OpI64Eqz byte = 0x50
	OpI64Eq  byte = 0x51
	OpI64Ne  byte = 0x52
	OpI64LtS byte = 0x53
	OpI64LtU byte = 0x54
	OpI64GtS byte = 0x55
	OpI64LeS byte = 0x57
	OpI64GeS byte = 0x59
)

// i32 arithmetic opcodes.
const (
	OpI32Add  byte = 0x6A
	OpI32Sub  byte = 0x6B
	OpI32Mul  byte = 0x6C
	OpI32DivS byte = 0x6D
	OpI32RemS byte = 0x6F
	OpI32And  byte = 0x71
	OpI32Or   byte = 0x72
	OpI32Xor  byte = 0x73
	OpI32Shl  byte = 0x74
	OpI32ShrS byte = 0x75
)

// i64 arithmetic opcodes — mirrors the i32 set above; function.go's
// binOpcode only widens to these once a MIR BinOp operates on a >32-bit
// integer type, so most of this set is reserved for that widening rather
// than emitted by today's lowering.
const (
	OpI64Add  byte = 0x7C
	OpI64Sub  byte = 0x7D
	OpI64Mul  byte = 0x7E
	OpI64DivS byte = 0x7F
	OpI64RemS byte = 0x81
	OpI64And  byte = 0x83
	OpI64Or   byte = 0x84
	OpI64Xor  byte = 0x85
	OpI64Shl  byte = 0x86
	OpI64ShrS byte = 0x87
)

// Limits flags.
const (
	LimitsNoMax  byte = 0x00
	LimitsHasMax byte = 0x01
)

// Type section encodings.
const FuncTypeByte byte = 0x60
