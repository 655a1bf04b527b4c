package llvm

import (
	"fmt"
	"strings"

	"github.com/chic-lang/chicc/internal/diag"
	"github.com/chic-lang/chicc/internal/mir"
	"github.com/chic-lang/chicc/internal/pattern"
)

// TaskFlags mirrors spec.md §4.5/§5's task status bits.
const (
	FlagReady     = 1 << 0
	FlagCompleted = 1 << 1
	FlagCancelled = 1 << 2
)

// Generator emits one function's LLVM IR into an internal buffer; callers
// drain Output() once the whole module has been walked.
type Generator struct {
	Layouts *mir.TypeLayoutTable

	buf      strings.Builder
	regCount int
	bag      *diag.Bag

	exceptionBaseName string
}

func NewGenerator(layouts *mir.TypeLayoutTable, exceptionBaseName string) *Generator {
	return &Generator{Layouts: layouts, bag: &diag.Bag{}, exceptionBaseName: exceptionBaseName}
}

func (g *Generator) Output() string   { return g.buf.String() }
func (g *Generator) Diagnostics() *diag.Bag { return g.bag }

func (g *Generator) nextReg() string {
	g.regCount++
	return fmt.Sprintf("%%r%d", g.regCount)
}

func (g *Generator) emit(format string, args ...any) {
	g.buf.WriteString(fmt.Sprintf(format, args...))
	g.buf.WriteByte('\n')
}

func blockLabel(b *mir.BasicBlock) string {
	if b.Label != "" {
		return b.Label
	}
	return fmt.Sprintf("bb%d", b.ID)
}

// Function emits one MIR function as an LLVM IR `define`.
func (g *Generator) Function(f *mir.Function, sret bool) {
	retTy := "void"
	if !sret {
		retTy = MapType(f.ReturnType)
	}
	params := make([]string, 0, len(f.Params)+1)
	if sret {
		params = append(params, MapType(f.ReturnType)+"* %sret")
	}
	for _, pid := range f.Params {
		l := f.Local(pid)
		ty := MapType(l.Type)
		switch l.ParamMode {
		case mir.ParamRef, mir.ParamOut:
			ty += "*"
		}
		params = append(params, fmt.Sprintf("%s %%%s", ty, l.Name))
	}
	g.emit("define %s @%s(%s) {", retTy, f.Name, strings.Join(params, ", "))
	for _, b := range f.Blocks {
		g.emit("%s:", blockLabel(b))
		for _, st := range b.Statements {
			g.statement(st, f)
		}
		g.terminator(&b.Terminator, f, sret)
	}
	g.emit("}")
}

func (g *Generator) operand(o mir.Operand) string {
	switch o.Kind {
	case mir.OperandConst:
		return fmt.Sprintf("%v", o.Const.Value)
	case mir.OperandCopy, mir.OperandMove, mir.OperandBorrow:
		reg := g.nextReg()
		g.emit("  %s = load ; place operand", reg)
		return reg
	case mir.OperandPending:
		g.bag.Add(diag.Codegen(diag.PhaseCodegenLLVM, "unresolved Pending operand %q reached LLVM emitter", o.Pending))
		return "undef"
	default:
		return "undef"
	}
}

func (g *Generator) statement(st mir.Statement, f *mir.Function) {
	switch st.Kind {
	case mir.StmtAssign:
		if st.Value != nil {
			g.rvalue(*st.Value)
		}
	case mir.StmtDrop:
		g.emit("  call void @chic_rt_drop_place() ; drop")
	case mir.StmtDeinit:
		g.emit("  call void @chic_rt_deinit_place() ; deinit")
	case mir.StmtMmioStore:
		g.mmioAccess(st.MmioTarget, true)
	case mir.StmtAssert:
		cond := g.operand(st.AssertCond)
		g.emit("  call void @chic_rt_assert(i1 %s, ptr @.assert_msg)", cond)
	}
}

func (g *Generator) rvalue(rv mir.Rvalue) string {
	switch rv.Kind {
	case mir.RvalueUse:
		return g.operand(rv.Operand)
	case mir.RvalueUnary:
		v := g.operand(rv.LHS)
		r := g.nextReg()
		g.emit("  %s = ; unop on %s", r, v)
		return r
	case mir.RvalueBinary:
		lhs, rhs := g.operand(rv.LHS), g.operand(rv.RHS)
		r := g.nextReg()
		g.emit("  %s = %s %s, %s", r, binOpName(rv.BinOp), lhs, rhs)
		return r
	case mir.RvalueAggregate:
		for _, f := range rv.Fields {
			g.operand(f)
		}
		r := g.nextReg()
		g.emit("  %s = insertvalue ; aggregate", r)
		return r
	case mir.RvalueAddressOf:
		r := g.nextReg()
		g.emit("  %s = ; address-of place", r)
		return r
	case mir.RvalueLen:
		v := g.operand(rv.LenOf)
		r := g.nextReg()
		g.emit("  %s = extractvalue %s, 1 ; len", r, v)
		return r
	case mir.RvalueCast:
		v := g.operand(rv.CastFrom)
		r := g.nextReg()
		g.emit("  %s = bitcast %s to %s", r, v, MapType(rv.CastTo))
		return r
	case mir.RvalueNumericIntrinsic:
		for _, a := range rv.IntrinsicArgs {
			g.operand(a)
		}
		r := g.nextReg()
		g.emit("  %s = call @chic_rt_numeric_intrinsic() ; numeric intrinsic", r)
		return r
	case mir.RvalueAtomic:
		addr, val := g.operand(rv.AtomicAddr), g.operand(rv.AtomicVal)
		r := g.nextReg()
		g.emit("  %s = atomicrmw %s, %s", r, addr, val)
		return r
	default:
		return "undef"
	}
}

func binOpName(op mir.BinOp) string {
	names := [...]string{"add", "sub", "mul", "sdiv", "srem", "and", "or", "xor", "shl", "ashr",
		"icmp eq", "icmp ne", "icmp slt", "icmp sle", "icmp sgt", "icmp sge", "and", "or"}
	if int(op) < len(names) {
		return names[op]
	}
	return "add"
}

func (g *Generator) mmioAccess(m mir.MmioOperand, store bool) {
	addr := m.Base + m.Offset
	flags := uint64(m.AddressSpace)<<8
	if m.BigEndian {
		flags |= 1
	}
	verb := "load"
	if store {
		verb = "store"
	}
	g.emit("  call void @chic_rt_mmio_%s(i64 %d, i32 %d, i32 %d)", verb, addr, m.WidthBits, flags)
}

// terminator lowers spec.md §4.5's terminator contracts.
func (g *Generator) terminator(t *mir.Terminator, f *mir.Function, sret bool) {
	switch t.Kind {
	case mir.TermReturn:
		g.returnTerm(f, sret)
	case mir.TermGoto:
		g.emit("  br label %%%s", blockLabelByID(f, t.Goto))
	case mir.TermSwitchInt:
		g.switchInt(t, f)
	case mir.TermMatch:
		g.match(t, f)
	case mir.TermCall:
		g.call(t, f)
	case mir.TermThrow:
		g.throw(t, f, sret)
	case mir.TermYield:
		g.emit("  br label %%%s ; yield", blockLabelByID(f, t.Yield.Resume))
	case mir.TermAwait:
		g.await(t, f)
	case mir.TermPanic:
		g.emit("  call void @llvm.trap()")
		g.emit("  unreachable")
	case mir.TermUnreachable:
		g.emit("  unreachable")
	}
}

func blockLabelByID(f *mir.Function, id mir.BlockID) string {
	if b := f.Block(id); b != nil {
		return blockLabel(b)
	}
	return fmt.Sprintf("bb%d", id)
}

// operandTy resolves an operand's MIR type: the declared constant type for
// literals, the root local's declared type for place operands.
func operandTy(f *mir.Function, o mir.Operand) *mir.Ty {
	switch o.Kind {
	case mir.OperandConst:
		return o.Const.Type
	case mir.OperandCopy, mir.OperandMove:
		if l := f.Local(o.Place.RootLocal()); l != nil {
			return l.Type
		}
	case mir.OperandBorrow:
		if l := f.Local(o.Borrow.Place.RootLocal()); l != nil {
			return l.Type
		}
	}
	return nil
}

// returnTerm honors sret (void return) else loads the return local and
// emits `ret <ty> <val>`; for async functions with no suspend points it
// first synthesizes a ready Task<T> (spec.md §4.5 "Ready-task synthesis").
func (g *Generator) returnTerm(f *mir.Function, sret bool) {
	if f.IsAsync && f.Async != nil && len(f.Async.SuspendPoints) == 0 {
		g.synthesizeReadyTask(f, sret)
		return
	}
	if sret {
		g.emit("  ret void")
		return
	}
	if f.ReturnType == nil || f.ReturnType.Kind == mir.TyUnit {
		g.emit("  ret void")
		return
	}
	ty := MapType(f.ReturnType)
	g.emit("  %%retval = load %s, %s* %%%s", ty, ty, f.Local(f.ReturnLocal).Name)
	g.emit("  ret %s %%retval", ty)
}

// synthesizeReadyTask implements spec.md §4.5's zero-suspend-point Return
// rule: zero-init the task (preserving Cancelled), set READY|COMPLETED on
// both the outer Flags and the inner future header's Flags, write the
// vtable pointer, Completed=1, and the result — each through its own
// field-offset GEP — then return the completed task value.
func (g *Generator) synthesizeReadyTask(f *mir.Function, sret bool) {
	taskTy := mir.Named("Task", f.Async.ResultType)
	canon := taskTy.CanonicalName()
	tyStr := MapType(taskTy)

	layout, haveLayout := g.Layouts.LookupForTy(taskTy)
	if !haveLayout {
		// Without a registered Task<T> layout the field offsets fall back
		// to the {Header, Flags, InnerFuture} shape heuristic; surface
		// that as a warning so a diverging user-defined Task is visible in
		// --log-format json output instead of silently mis-computing.
		g.bag.Add(diag.Warn(diag.PhaseCodegenLLVM, diag.KindCodegen,
			"no layout registered for %s; computing inner-future offset from header size/align", canon))
	}

	// Heuristic offsets: the outer Flags word follows the task header, the
	// inner future follows the Flags word rounded up to its alignment.
	const headerSize, headerAlign, futureAlign = uint64(16), uint64(8), uint64(8)
	flagsOff := alignTo(headerSize, headerAlign)
	innerOff := flagsOff + alignTo(4, futureAlign)
	if haveLayout {
		if off, ok := g.Layouts.FieldOffset(canon, "Flags"); ok {
			flagsOff = off
		}
		if off, ok := g.Layouts.FieldOffset(canon, "InnerFuture"); ok {
			innerOff = off
		}
	}
	// Inside the inner future: header Flags first, the vtable slot after
	// the flags word, then Completed and the result payload past the header.
	vtableOff := innerOff + 8
	completedOff := innerOff + headerSize
	resultOff := completedOff + 8

	dst := "%sret"
	if !sret {
		dst = "%task.slot"
		g.emit("  %s = alloca %s", dst, tyStr)
	}
	g.emit("  %%task.i8 = bitcast %s* %s to i8*", tyStr, dst)

	outerFlags := g.taskFieldPtr("flags", flagsOff, "i32")
	g.emit("  %%cancelled.bit = load i32, i32* %s ; preserve Cancelled before zero-init", outerFlags)
	g.emit("  %%cancelled.masked = and i32 %%cancelled.bit, %d", FlagCancelled)

	sizeArg := fmt.Sprintf("ptrtoint (%s* getelementptr (%s, %s* null, i32 1) to i64)", tyStr, tyStr, tyStr)
	if haveLayout && layout.Size > 0 {
		sizeArg = fmt.Sprintf("%d", layout.Size)
	}
	g.emit("  call void @llvm.memset.p0i8.i64(i8* %%task.i8, i8 0, i64 %s, i1 false)", sizeArg)

	g.emit("  %%flags = or i32 %%cancelled.masked, %d", FlagReady|FlagCompleted)
	g.emit("  store i32 %%flags, i32* %s ; outer Flags", outerFlags)
	innerFlags := g.taskFieldPtr("inner.flags", innerOff, "i32")
	g.emit("  store i32 %%flags, i32* %s ; inner future Header.Flags", innerFlags)
	if f.Async.VTableSymbol != "" {
		vt := g.taskFieldPtr("vtable", vtableOff, "ptr")
		g.emit("  store ptr @%s, ptr %s", f.Async.VTableSymbol, vt)
	}
	completed := g.taskFieldPtr("completed", completedOff, "i1")
	g.emit("  store i1 1, i1* %s ; Completed", completed)
	if f.Async.ResultType != nil {
		if l := f.Local(f.Async.ResultLocal); l != nil {
			resTy := MapType(f.Async.ResultType)
			g.emit("  %%result = load %s, %s* %%%s", resTy, resTy, l.Name)
			resPtr := g.taskFieldPtr("result", resultOff, resTy)
			g.emit("  store %s %%result, %s* %s ; Result", resTy, resTy, resPtr)
		}
	}
	if sret {
		g.emit("  ret void")
		return
	}
	g.emit("  %%task.val = load %s, %s* %s", tyStr, tyStr, dst)
	g.emit("  ret %s %%task.val", tyStr)
}

// taskFieldPtr addresses a scalar field at a byte offset inside the task
// being synthesized: an i8 GEP off the task base followed by a cast to the
// field's pointer type.
func (g *Generator) taskFieldPtr(label string, off uint64, ty string) string {
	raw := fmt.Sprintf("%%task.%s.raw", label)
	g.emit("  %s = getelementptr i8, i8* %%task.i8, i64 %d", raw, off)
	target := ty + "*"
	if ty == "ptr" {
		target = "ptr"
	}
	ptr := fmt.Sprintf("%%task.%s.ptr", label)
	g.emit("  %s = bitcast i8* %s to %s", ptr, raw, target)
	return ptr
}

func alignTo(v, a uint64) uint64 {
	if a == 0 {
		return v
	}
	return (v + a - 1) / a * a
}

func (g *Generator) switchInt(t *mir.Terminator, f *mir.Function) {
	discr := g.operand(t.SwitchDiscr)
	ty := "i32"
	if dt := operandTy(f, t.SwitchDiscr); dt != nil {
		switch dt.Kind {
		case mir.TyInt, mir.TyBool, mir.TyChar:
			ty = MapType(dt)
		}
	}
	var cases []string
	for _, tgt := range t.SwitchTargets {
		cases = append(cases, fmt.Sprintf("%s %d, label %%%s", ty, tgt.Value, blockLabelByID(f, tgt.Block)))
	}
	g.emit("  switch %s %s, label %%%s [ %s ]", ty, discr, blockLabelByID(f, t.SwitchOtherwise), strings.Join(cases, " "))
}

// match implements spec.md §4.5's "Match lowering": either a plain switch
// (when the arms are all simple-dispatchable, delegated to internal/pattern)
// or the type-test vtable chain of icmp/or reductions.
func (g *Generator) match(t *mir.Terminator, f *mir.Function) {
	arms := t.MatchArms
	if pattern.CanSimpleDispatch(arms) {
		sw := pattern.CompileSwitch(t.MatchValue, arms)
		g.switchInt(&sw, f)
		return
	}
	val := g.operand(t.MatchValue)
	vt := g.nextReg()
	g.emit("  %s = load ptr, ptr %s ; vtable pointer", vt, val)
	for _, arm := range arms {
		if arm.Pattern == nil || arm.Pattern.Kind != mir.PatType {
			continue
		}
		syms := pattern.TypeTestVTableSet(g.Layouts, arm.Pattern.TypeTest, g.exceptionBaseName)
		var conds []string
		for _, sym := range syms {
			r := g.nextReg()
			g.emit("  %s = icmp eq ptr %s, @%s", r, vt, sym)
			conds = append(conds, r)
		}
		cond := "0"
		if len(conds) > 0 {
			cond = conds[0]
			for _, c := range conds[1:] {
				r := g.nextReg()
				g.emit("  %s = or i1 %s, %s", r, cond, c)
				cond = r
			}
		}
		nextLabel := g.nextReg()
		g.emit("  br i1 %s, label %%%s, label %s", cond, blockLabelByID(f, arm.Target), nextLabel)
		g.emit("%s:", strings.TrimPrefix(nextLabel, "%"))
	}
	g.emit("  br label %%%s", blockLabelByID(f, t.MatchOtherwise))
}

// call implements spec.md §4.5's call-lowering contract: sret prepends an
// out-pointer, Ref/Out parameters pass a pointer to local storage (In and
// Owned arguments pass by value), and
// the presence of an unwind target selects call vs invoke.
func (g *Generator) call(t *mir.Terminator, f *mir.Function) {
	var args []string
	if t.Call.Destination != nil {
		destTy := "ptr"
		args = append(args, destTy+" %sret.arg")
	}
	for i, a := range t.Call.Args {
		val := g.operand(a)
		mode := mir.ParamIn
		if i < len(t.Call.ArgModes) {
			mode = t.Call.ArgModes[i]
		}
		ty := "i64"
		if mode == mir.ParamRef || mode == mir.ParamOut {
			ty += "*"
		}
		args = append(args, fmt.Sprintf("%s %s", ty, val))
	}
	callee := "@" + t.Call.FuncSymbol
	if t.Call.Dispatch != mir.DispatchDirect {
		callee = g.operand(t.Call.Func)
	}
	reg := ""
	if t.Call.Destination != nil {
		reg = g.nextReg() + " = "
	}
	verb := "call"
	if t.Call.Unwind != nil {
		verb = "invoke"
	}
	g.emit("  %s%s void %s(%s)", reg, verb, callee, strings.Join(args, ", "))
	if t.Call.Unwind != nil {
		g.emit("  to label %%%s unwind label %%%s", blockLabelByID(f, t.Call.Target), blockLabelByID(f, *t.Call.Unwind))
		return
	}
	g.emit("  br label %%%s", blockLabelByID(f, t.Call.Target))
}

// throw constructs the (payload, type_id) pair and tail-calls
// chic_rt_throw, then returns a default value (spec.md §4.5).
func (g *Generator) throw(t *mir.Terminator, f *mir.Function, sret bool) {
	payload := "null"
	if t.Throw.Exception != nil {
		payload = g.operand(*t.Throw.Exception)
	}
	typeID := int64(0)
	if t.Throw.Type != nil {
		typeID = int64(t.Throw.Type.NameHash(0, 0) & 0x7fffffffffffffff)
	}
	g.emit("  call void @chic_rt_throw(ptr %s, i64 %d)", payload, typeID)
	if sret || f.ReturnType == nil || f.ReturnType.Kind == mir.TyUnit {
		g.emit("  ret void")
		return
	}
	g.emit("  ret %s %s", MapType(f.ReturnType), ZeroValue(f.ReturnType))
}

// await calls chic_rt_await and branches on its status: READY (1) goes to
// resume, anything else to drop, storing the result first when the arm is
// ready and the await has a destination (spec.md §4.5).
func (g *Generator) await(t *mir.Terminator, f *mir.Function) {
	future := g.operand(t.Await.Future)
	status := g.nextReg()
	g.emit("  %s = call i32 @chic_rt_await(ptr %%chic.ctx, ptr %s)", status, future)
	cond := g.nextReg()
	g.emit("  %s = icmp eq i32 %s, 1", cond, status)
	readyLabel := g.nextReg()
	g.emit("  br i1 %s, label %s, label %%%s", cond, readyLabel, blockLabelByID(f, t.Await.Drop))
	g.emit("%s:", strings.TrimPrefix(readyLabel, "%"))
	if t.Await.Destination != nil {
		// The runtime helper copies the completed value out of the future
		// header into the destination's storage; it gets the ctx, the
		// header pointer, and the destination pointer, and reads the
		// result layout from the header's vtable.
		destName := "%sret"
		if l := f.Local(t.Await.Destination.RootLocal()); l != nil && l.Name != "" {
			destName = "%" + l.Name
		}
		g.emit("  call void @chic_rt_store_task_result(ptr %%chic.ctx, ptr %s, ptr %s)", future, destName)
	}
	g.emit("  br label %%%s", blockLabelByID(f, t.Await.Resume))
}
