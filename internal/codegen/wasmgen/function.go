package wasmgen

import (
	"github.com/chic-lang/chicc/internal/diag"
	"github.com/chic-lang/chicc/internal/mir"
	wasm "github.com/chic-lang/chicc/internal/wasmbin"
)

// Function walks f's CFG and lowers every statement/terminator into e's
// instruction buffer, the WASM-side counterpart to llvm.Generator.Function
// (spec.md §4.6). Control flow uses the structured block/loop/br/br_table
// forms rather than labeled blocks since WASM has no arbitrary goto:
// each basic block becomes one arm of a br_table dispatching on a
// "current block" local, wrapped in an outer loop, matching the
// block-as-br_table-arm shape idiomatic hand-written WASM backends use
// for an otherwise-irreducible MIR CFG.
func (e *FuncEmitter) Function(f *mir.Function, sret bool) {
	if sret {
		e.paramOffset = 1
	}
	dispatchLocal := e.localIndexFor(f, sret) // first synthetic local after params: current block id

	e.push(wasm.OpI32Const, wasm.I32Imm{Value: 0})
	e.localSet(dispatchLocal)

	e.push(wasm.OpLoop, wasm.BlockImm{Type: wasm.BlockTypeVoid})
	e.push(wasm.OpBlock, wasm.BlockImm{Type: wasm.BlockTypeVoid})
	// One nested block per basic block, innermost-last, so a br to the
	// Nth block label jumps to just before basic block N's code — the
	// standard "reverse nested blocks + br_table" structuring idiom.
	for range f.Blocks {
		e.push(wasm.OpBlock, wasm.BlockImm{Type: wasm.BlockTypeVoid})
	}
	e.localGet(dispatchLocal)
	// From the br_table's own position, label j's block ends immediately
	// before basic block j's code, so the target list is the identity map.
	targets := make([]uint32, len(f.Blocks))
	for i := range targets {
		targets[i] = uint32(i)
	}
	// An out-of-range dispatch value falls out to the outer block, landing
	// on the implicit `br 0` (error recovery per the I4 fallthrough rule).
	e.push(wasm.OpBrTable, wasm.BrTableImm{Labels: targets, Default: uint32(len(f.Blocks))})
	e.push(wasm.OpEnd, nil)

	for i, b := range f.Blocks {
		e.statementsAndTerm(f, b, i, dispatchLocal, sret)
		e.push(wasm.OpEnd, nil) // after the last block's code this closes the outer block
	}
	e.push(wasm.OpBr, wasm.BranchImm{LabelIdx: 0})
	e.push(wasm.OpEnd, nil) // loop
	e.push(wasm.OpUnreachable, nil)
	e.push(wasm.OpEnd, nil) // function body
}

// localIndexFor reserves and returns the synthetic dispatch-local's wasm
// index, placed right after the function's declared params (and the
// sret out-pointer, if any).
func (e *FuncEmitter) localIndexFor(f *mir.Function, sret bool) uint32 {
	n := uint32(len(f.Params))
	if sret {
		n++
	}
	return n
}

// gotoBlock transfers control to target. A forward edge branches straight
// to the enclosing block whose end sits before the target's code; a
// backward edge records the target in the dispatch local and re-enters the
// outer loop so the br_table re-dispatches. Label depth is relative to the
// current block's position (cur) plus any extra nesting the caller opened
// (extraDepth, e.g. the `if` arm in switchIntBody).
func (e *FuncEmitter) gotoBlock(f *mir.Function, dispatchLocal uint32, cur, extraDepth int, target mir.BlockID) {
	idx := blockIndexOf(f, target)
	e.i32Const(int32(idx))
	e.localSet(dispatchLocal)
	if idx > cur {
		e.push(wasm.OpBr, wasm.BranchImm{LabelIdx: uint32(idx - cur - 1 + extraDepth)})
		return
	}
	e.push(wasm.OpBr, wasm.BranchImm{LabelIdx: uint32(len(f.Blocks) - cur + extraDepth)})
}

// discrIsI64 reports whether a switch discriminant occupies a wasm i64,
// matching valTypeOf's scalar mapping so the comparison width agrees with
// what operand() pushes.
func discrIsI64(f *mir.Function, o mir.Operand) bool {
	var ty *mir.Ty
	switch o.Kind {
	case mir.OperandConst:
		ty = o.Const.Type
	case mir.OperandCopy, mir.OperandMove:
		if l := f.Local(o.Place.RootLocal()); l != nil {
			ty = l.Type
		}
	case mir.OperandBorrow:
		if l := f.Local(o.Borrow.Place.RootLocal()); l != nil {
			ty = l.Type
		}
	}
	return ty != nil && ty.Kind == mir.TyInt && ty.IntWidth > 32
}

func blockIndexOf(f *mir.Function, id mir.BlockID) int {
	for i, b := range f.Blocks {
		if b.ID == id {
			return i
		}
	}
	return 0
}

func (e *FuncEmitter) statementsAndTerm(f *mir.Function, b *mir.BasicBlock, blockIdx int, dispatchLocal uint32, sret bool) {
	for _, st := range b.Statements {
		e.statement(f, st)
	}
	e.terminator(f, &b.Terminator, blockIdx, dispatchLocal, sret)
}

func (e *FuncEmitter) statement(f *mir.Function, st mir.Statement) {
	switch st.Kind {
	case mir.StmtAssign:
		if st.Value != nil {
			e.rvalue(f, *st.Value)
			if idx, ok := e.wasmLocal(f, st.Place.RootLocal()); ok {
				e.localSet(idx)
			} else {
				e.push(wasm.OpDrop, nil)
			}
		}
	case mir.StmtMmioStore:
		if place, ok := st.MmioValue.PlaceOf(); ok {
			if idx, ok := e.wasmLocal(f, place.RootLocal()); ok {
				e.MmioStore(st.MmioTarget, idx)
			}
		}
	case mir.StmtAssert:
		e.operand(f, st.AssertCond)
		e.push(wasm.OpI32Eqz, nil)
		e.push(wasm.OpIf, wasm.BlockImm{Type: wasm.BlockTypeVoid})
		e.push(wasm.OpUnreachable, nil)
		e.push(wasm.OpEnd, nil)
	case mir.StmtDrop, mir.StmtDeinit, mir.StmtStorageLive, mir.StmtStorageDead, mir.StmtDeferDrop:
		// Storage/drop bookkeeping lowers to nothing here; StmtDrop and
		// StmtDeinit emit no dispose call.
	case mir.StmtExpression:
		e.operand(f, st.Expr)
		e.push(wasm.OpDrop, nil)
	}
}

func (e *FuncEmitter) wasmLocal(f *mir.Function, id mir.LocalID) (uint32, bool) {
	for i, pid := range f.Params {
		if pid == id {
			return uint32(i) + e.paramOffset, true
		}
	}
	// Non-parameter locals are assigned indices after params/sret/dispatch
	// in declaration order; the module assembler emits a matching
	// LocalEntry list sized the same way.
	next := uint32(len(f.Params)) + e.paramOffset + 1 // +1 for the dispatch local
	for _, l := range f.Locals {
		if l.Kind == mir.LocalKindParameter {
			continue
		}
		if l.ID == id {
			return next, true
		}
		next++
	}
	return 0, false
}

func (e *FuncEmitter) operand(f *mir.Function, o mir.Operand) {
	switch o.Kind {
	case mir.OperandConst:
		switch v := o.Const.Value.(type) {
		case int64:
			// The declared constant type decides the wasm value type; a
			// Go int64 literal may still be a 32-bit-typed constant.
			if t := o.Const.Type; t != nil && t.Kind == mir.TyInt && t.IntWidth > 32 {
				e.i64Const(v)
			} else {
				e.i32Const(int32(v))
			}
		case int32:
			e.i32Const(v)
		case int:
			e.i32Const(int32(v))
		case bool:
			if v {
				e.i32Const(1)
			} else {
				e.i32Const(0)
			}
		case nil:
			e.i32Const(0)
		default:
			e.i32Const(0)
		}
	case mir.OperandCopy, mir.OperandMove:
		if idx, ok := e.wasmLocal(f, o.Place.RootLocal()); ok {
			e.localGet(idx)
		} else {
			e.i32Const(0)
		}
	case mir.OperandBorrow:
		if idx, ok := e.wasmLocal(f, o.Borrow.Place.RootLocal()); ok {
			e.localGet(idx)
		} else {
			e.i32Const(0)
		}
	case mir.OperandPending:
		e.bag.Add(diag.Codegen(diag.PhaseCodegenWasm, "unresolved Pending operand %q reached WASM emitter", o.Pending))
		e.i32Const(0)
	default:
		e.i32Const(0)
	}
}

func (e *FuncEmitter) rvalue(f *mir.Function, rv mir.Rvalue) {
	switch rv.Kind {
	case mir.RvalueUse:
		e.operand(f, rv.Operand)
	case mir.RvalueUnary:
		e.operand(f, rv.LHS)
	case mir.RvalueBinary:
		e.operand(f, rv.LHS)
		e.operand(f, rv.RHS)
		e.push(binOpcode(rv.BinOp), nil)
	case mir.RvalueCast:
		e.operand(f, rv.CastFrom)
	case mir.RvalueLen:
		e.operand(f, rv.LenOf)
	default:
		e.i32Const(0)
	}
}

// binOpcode maps a MIR BinOp to its i32 WASM opcode; the driver widens
// to the i64 variants when operating on a >32-bit integer type (not
// modeled at this level, which works purely from the BinOp tag).
func binOpcode(op mir.BinOp) byte {
	switch op {
	case mir.BinAdd:
		return wasm.OpI32Add
	case mir.BinSub:
		return wasm.OpI32Sub
	case mir.BinMul:
		return wasm.OpI32Mul
	case mir.BinDiv:
		return wasm.OpI32DivS
	case mir.BinRem:
		return wasm.OpI32RemS
	case mir.BinAnd:
		return wasm.OpI32And
	case mir.BinOr:
		return wasm.OpI32Or
	case mir.BinXor:
		return wasm.OpI32Xor
	case mir.BinShl:
		return wasm.OpI32Shl
	case mir.BinShr:
		return wasm.OpI32ShrS
	case mir.BinEq:
		return wasm.OpI32Eq
	case mir.BinNe:
		return wasm.OpI32Ne
	case mir.BinLt:
		return wasm.OpI32LtS
	case mir.BinLe:
		return wasm.OpI32LeS
	case mir.BinGt:
		return wasm.OpI32GtS
	case mir.BinGe:
		return wasm.OpI32GeS
	default:
		return wasm.OpI32Add
	}
}

func (e *FuncEmitter) terminator(f *mir.Function, t *mir.Terminator, blockIdx int, dispatchLocal uint32, sret bool) {
	switch t.Kind {
	case mir.TermReturn:
		if !sret && f.ReturnType != nil && f.ReturnType.Kind != mir.TyUnit {
			if idx, ok := e.wasmLocal(f, f.ReturnLocal); ok {
				e.localGet(idx)
			}
		}
		e.push(wasm.OpReturn, nil)
	case mir.TermGoto:
		e.gotoBlock(f, dispatchLocal, blockIdx, 0, t.Goto)
	case mir.TermSwitchInt:
		e.switchIntBody(f, t, blockIdx, dispatchLocal)
	case mir.TermPanic:
		e.push(wasm.OpUnreachable, nil)
	case mir.TermUnreachable:
		e.push(wasm.OpUnreachable, nil)
	case mir.TermThrow:
		e.push(wasm.OpUnreachable, nil)
	case mir.TermCall:
		e.lowerCall(f, &t.Call)
		e.gotoBlock(f, dispatchLocal, blockIdx, 0, t.Call.Target)
	default:
		// Match/Yield/Await terminators are expanded earlier (the pattern
		// compiler rewrites Match, async lowering rewrites the suspend
		// points); reaching here with one unexpanded is a codegen error.
		e.bag.Add(diag.Codegen(diag.PhaseCodegenWasm, "terminator kind %v reached Function() unexpanded", t.Kind))
		e.push(wasm.OpUnreachable, nil)
	}
}

// lowerCall lowers a Call terminator's invocation (spec.md §4.6): direct
// calls resolve the callee's registered signature and go through `call`,
// closure/trait-object calls extract context+invoke and go through
// `call_indirect`. The continuation branch is the caller's job.
func (e *FuncEmitter) lowerCall(f *mir.Function, c *mir.CallTerm) {
	switch c.Dispatch {
	case mir.DispatchDirect:
		sig, ok := e.Sigs[c.FuncSymbol]
		if !ok {
			e.bag.Add(diag.Codegen(diag.PhaseCodegenWasm, "direct call to unregistered function %q", c.FuncSymbol))
			return
		}
		if sig.Sret && c.Destination != nil {
			// The destination local holds the aggregate's frame pointer;
			// pass it as the implicit out-pointer first argument.
			if idx, ok := e.wasmLocal(f, c.Destination.RootLocal()); ok {
				e.localGet(idx)
			} else {
				e.i32Const(0)
			}
		}
		for _, a := range c.Args {
			if place, ok := a.PlaceOf(); ok {
				if l := f.Local(place.RootLocal()); l != nil && l.Type != nil && l.Type.Kind == mir.TyNullable {
					if idx, ok := e.wasmLocal(f, place.RootLocal()); ok {
						e.unwrapNullableOrTrap(idx)
						continue
					}
				}
			}
			e.operand(f, a)
		}
		e.push(wasm.OpCall, wasm.CallImm{FuncIdx: sig.FuncIndex})
		switch {
		case sig.HasResult && c.Destination != nil:
			if idx, ok := e.wasmLocal(f, c.Destination.RootLocal()); ok {
				e.localSet(idx)
			} else {
				e.push(wasm.OpDrop, nil)
			}
		case sig.HasResult:
			e.push(wasm.OpDrop, nil)
		}
	case mir.DispatchIndirect, mir.DispatchVirtual:
		place, ok := c.Func.PlaceOf()
		if !ok {
			e.bag.Add(diag.Codegen(diag.PhaseCodegenWasm, "indirect call target is not a place"))
			return
		}
		closure, ok := e.wasmLocal(f, place.RootLocal())
		if !ok {
			e.bag.Add(diag.Codegen(diag.PhaseCodegenWasm, "indirect call target local has no wasm slot"))
			return
		}
		var argLocals []uint32
		for _, a := range c.Args {
			ap, ok := a.PlaceOf()
			if !ok {
				e.bag.Add(diag.Codegen(diag.PhaseCodegenWasm, "indirect call arguments must be frame locals"))
				return
			}
			idx, ok := e.wasmLocal(f, ap.RootLocal())
			if !ok {
				e.bag.Add(diag.Codegen(diag.PhaseCodegenWasm, "indirect call argument local has no wasm slot"))
				return
			}
			argLocals = append(argLocals, idx)
		}
		typeIndex := uint32(0)
		if sig, ok := e.Sigs[c.FuncSymbol]; ok {
			typeIndex = sig.TypeIndex
		}
		e.CallIndirect(closure, typeIndex, argLocals, c.Dispatch == mir.DispatchVirtual)
		if c.Destination != nil {
			if idx, ok := e.wasmLocal(f, c.Destination.RootLocal()); ok {
				e.localSet(idx)
			}
		}
	}
}

// switchIntBody lowers a SwitchInt by chaining equality tests, re-reading
// the discriminant per target (a br_table keyed by the already-computed
// case index is the common faster form but requires earlier
// case-densification the frontend doesn't guarantee here).
func (e *FuncEmitter) switchIntBody(f *mir.Function, t *mir.Terminator, blockIdx int, dispatchLocal uint32) {
	wide := discrIsI64(f, t.SwitchDiscr)
	for _, tgt := range t.SwitchTargets {
		e.operand(f, t.SwitchDiscr)
		if wide {
			e.i64Const(tgt.Value)
			e.push(wasm.OpI64Eq, nil)
		} else {
			e.i32Const(int32(tgt.Value))
			e.push(wasm.OpI32Eq, nil)
		}
		e.push(wasm.OpIf, wasm.BlockImm{Type: wasm.BlockTypeVoid})
		e.gotoBlock(f, dispatchLocal, blockIdx, 1, tgt.Block)
		e.push(wasm.OpEnd, nil)
	}
	e.gotoBlock(f, dispatchLocal, blockIdx, 0, t.SwitchOtherwise)
}
