package borrow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chic-lang/chicc/internal/diag"
	"github.com/chic-lang/chicc/internal/mir"
)

// Check runs the BorrowChecker over f and returns every diagnostic raised
// (spec.md §4.2). Layouts resolves union views and struct layouts for the
// union-view and view-dependency rules.
func Check(f *mir.Function, layouts *mir.TypeLayoutTable) *diag.Bag {
	c := &checker{f: f, layouts: layouts, bag: &diag.Bag{}}
	c.run()
	return c.bag
}

type checker struct {
	f       *mir.Function
	layouts *mir.TypeLayoutTable
	bag     *diag.Bag
}

func (c *checker) entryFacts() BlockFacts {
	bf := newBlockFacts()
	for _, l := range c.f.Locals {
		lf := LocalFacts{Null: NullUnknown, ActiveView: -1, ViewKnown: true}
		switch l.Kind {
		case mir.LocalKindParameter:
			// Out parameters carry no value in; they start uninitialized so
			// the completion rule at Return can observe whether the body
			// assigned them (spec.md §4.2).
			if l.ParamMode == mir.ParamOut {
				lf.Init = StateUninit
			} else {
				lf.Init = StateInit
			}
			if l.Nullable {
				lf.Null = NullUnknown
			} else {
				lf.Null = NullNonNull
			}
		case mir.LocalKindReturn:
			lf.Init = StateUninit
		default:
			lf.Init = StateUninit
		}
		bf.set(l.ID, lf)
	}
	return bf
}

// run drives the forward worklist fixpoint over c.f's CFG, then re-walks
// every block with its final entry facts to emit diagnostics exactly once.
func (c *checker) run() {
	blocks := c.f.Blocks
	if len(blocks) == 0 {
		return
	}
	entry := make(map[mir.BlockID]BlockFacts, len(blocks))
	exit := make(map[mir.BlockID]BlockFacts, len(blocks))
	for _, b := range blocks {
		exit[b.ID] = newBlockFacts()
	}

	worklist := make([]mir.BlockID, len(blocks))
	queued := map[mir.BlockID]bool{}
	for i, b := range blocks {
		worklist[i] = b.ID
		queued[b.ID] = true
	}

	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		queued[id] = false

		preds := c.f.Predecessors(id)
		var merged BlockFacts
		if len(preds) == 0 {
			merged = c.entryFacts()
		} else {
			merged = exit[preds[0]].clone()
			for _, p := range preds[1:] {
				merged = mergeBlockFacts(merged, exit[p])
			}
		}
		entry[id] = merged

		newExit := c.transferBlock(c.f.Block(id), merged, false)
		if !factsEqual(newExit, exit[id]) {
			exit[id] = newExit
			for _, s := range c.f.Successors(id) {
				if !queued[s] {
					worklist = append(worklist, s)
					queued[s] = true
				}
			}
		}
	}

	// Second pass: replay each block with its converged entry facts,
	// actually emitting diagnostics (the fixpoint pass above must stay
	// side-effect free or the bag would fill with duplicates across
	// worklist iterations).
	for _, b := range blocks {
		c.transferBlock(b, entry[b.ID], true)
	}
}

func factsEqual(a, b BlockFacts) bool {
	if len(a.Locals) != len(b.Locals) || len(a.Loans) != len(b.Loans) {
		return false
	}
	for id, fa := range a.Locals {
		fb, ok := b.Locals[id]
		if !ok || fa != fb {
			return false
		}
	}
	return true
}

// transferBlock applies every statement and the terminator of b to facts,
// returning the resulting exit facts. When report is true it also adds
// diagnostics for violations observed along the way.
func (c *checker) transferBlock(b *mir.BasicBlock, facts BlockFacts, report bool) BlockFacts {
	cur := facts.clone()
	for _, st := range b.Statements {
		c.transferStatement(st, &cur, report)
	}
	c.transferTerminator(&b.Terminator, &cur, report)
	return cur
}

func (c *checker) err(kind diag.Kind, local string, detail string, args ...any) {
	c.bag.Add(&diag.Diagnostic{Phase: diag.PhaseBorrowCheck, Kind: kind, Severity: diag.SeverityError, Func: c.f.Name, Local: local, Detail: sprintfOrEmpty(detail, args...)})
}

func (c *checker) warn(kind diag.Kind, local string, detail string, args ...any) {
	c.bag.Add(&diag.Diagnostic{Phase: diag.PhaseBorrowCheck, Kind: kind, Severity: diag.SeverityWarning, Func: c.f.Name, Local: local, Detail: sprintfOrEmpty(detail, args...)})
}

// errPath is err with a Path attached, for the view/struct-dependency
// diagnostics that carry a projection chain worth surfacing to the user.
func (c *checker) errPath(kind diag.Kind, local string, path []string, detail string, args ...any) {
	c.bag.Add(&diag.Diagnostic{Phase: diag.PhaseBorrowCheck, Kind: kind, Severity: diag.SeverityError, Func: c.f.Name, Local: local, Path: path, Detail: sprintfOrEmpty(detail, args...)})
}

func sprintfOrEmpty(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func (c *checker) localName(id mir.LocalID) string {
	if l := c.f.Local(id); l != nil && l.Name != "" {
		return l.Name
	}
	return "_" + strconv.Itoa(int(id))
}

// checkUse validates a use-site operand against the init/null facts,
// reporting UseOfUninit / NullUse / MaybeNullUse as appropriate
// (spec.md §4.2). derefed indicates the operand is dereferenced/projected,
// which enables the NullUse / MaybeNullUse checks.
func (c *checker) checkUse(o mir.Operand, facts *BlockFacts, report bool, derefed bool) {
	place, ok := o.PlaceOf()
	if !ok {
		return
	}
	root := place.RootLocal()
	lf := facts.get(root)

	if report {
		l := c.f.Local(root)
		switch lf.Init {
		case StateUninit:
			c.err(diag.KindUseOfUninit, c.localName(root), "use of possibly-uninitialized local")
		case StateMaybe:
			// Maybe-init is an error only for locals declared requires_init
			// (spec.md §4.2); others tolerate the merge.
			if l != nil && l.RequiresInit {
				c.err(diag.KindUseOfUninit, c.localName(root), "use of a local that is not initialized on every path")
			}
		}
	}

	switch o.Kind {
	case mir.OperandCopy, mir.OperandMove:
		c.checkUnionRead(place, facts, report)
	case mir.OperandBorrow:
		c.checkUnionBorrow(o.Borrow, facts, report)
	}

	if derefed && report {
		switch lf.Null {
		case NullIsNull:
			c.err(diag.KindNullUse, c.localName(root), "dereference of a value known to be null")
		case NullUnknown:
			c.warn(diag.KindMaybeNullUse, c.localName(root), "dereference without a preceding null check")
		}
	}

	if o.Kind == mir.OperandMove {
		l := c.f.Local(root)
		if report && l != nil {
			if l.Kind == mir.LocalKindParameter && l.ParamMode != mir.ParamOwned {
				c.err(diag.KindMoveOfParam, c.localName(root), "cannot move out of a non-owned parameter")
			}
			if owner, deps, ok := c.viewDependents(place); ok {
				c.errPath(diag.KindMoveBreaksViewDep, c.localName(root), append([]string{owner}, deps...),
					"cannot move `%s` because dependent view field(s) [%s] must be dropped or reassigned first",
					owner, strings.Join(deps, ", "))
			}
			if l.Pinned {
				c.err(diag.KindMoveOfPinned, c.localName(root), "cannot move a pinned value")
			}
			for _, loan := range facts.Loans {
				if loan.Place.IsPrefixOf(place) || place.IsPrefixOf(loan.Place) {
					c.err(diag.KindMoveWhileBorrowed, c.localName(root), "cannot move while a loan is outstanding")
					break
				}
			}
		}
		lf.Moved = true
		lf.Init = StateUninit
		lf.ActiveView = -1
		lf.ViewKnown = true
		facts.set(root, lf)
	}
}

func (c *checker) checkBorrow(bop mir.BorrowOperand, facts *BlockFacts, report bool) {
	root := bop.Place.RootLocal()
	lf := facts.get(root)
	if report && bop.Kind != mir.BorrowRaw {
		for _, loan := range facts.Loans {
			conflict := loan.Place.Equal(bop.Place) && (loan.Kind == mir.BorrowUnique || bop.Kind == mir.BorrowUnique)
			if conflict {
				c.err(diag.KindBorrowConflict, c.localName(root), "conflicting borrow of the same place")
				break
			}
		}
	}
	facts.Loans = append(facts.Loans, Loan{Kind: bop.Kind, Place: bop.Place, Span: bop.Span})
	_ = lf
}

// unionLayoutFor resolves local's UnionLayout, or nil when local isn't a
// union-typed place (spec.md §3 UnionLayout).
func (c *checker) unionLayoutFor(id mir.LocalID) *mir.UnionLayout {
	l := c.f.Local(id)
	if l == nil || l.Type == nil {
		return nil
	}
	layout, ok := c.layouts.LookupForTy(l.Type)
	if !ok || layout.Kind != mir.LayoutUnion {
		return nil
	}
	return layout.Union
}

// unionFieldIndex returns the trailing ProjUnionField index of place, if
// its last projection element is a union-view projection.
func unionFieldIndex(p mir.Place) (int, bool) {
	if len(p.Proj) == 0 {
		return 0, false
	}
	last := p.Proj[len(p.Proj)-1]
	if last.Kind != mir.ProjUnionField {
		return 0, false
	}
	return last.UnionFieldIndex, true
}

func (c *checker) unionFieldName(u *mir.UnionLayout, idx int) string {
	if v, ok := u.ViewByIndex(idx); ok {
		return v.Name
	}
	return strconv.Itoa(idx)
}

// checkUnionRead implements spec.md §4.2's "Union views" read contract:
// reading a view requires it to be the active one. A never-activated (or
// flow-merged Unknown) view raises UnionInactive; an activated-but-
// different view raises UnionViewMismatch.
func (c *checker) checkUnionRead(place mir.Place, facts *BlockFacts, report bool) {
	if !report {
		return
	}
	union := c.unionLayoutFor(place.RootLocal())
	if union == nil {
		return
	}
	idx, ok := unionFieldIndex(place)
	if !ok {
		return
	}
	view, ok := union.ViewByIndex(idx)
	if !ok {
		return
	}
	root := place.RootLocal()
	lf := facts.get(root)
	switch {
	case lf.ActiveView == idx:
		// the requested view is the active one; nothing to report.
	case lf.ActiveView >= 0:
		c.err(diag.KindUnionViewMismatch, c.localName(root),
			"cannot read union view `%s` while `%s` is active", view.Name, c.unionFieldName(union, lf.ActiveView))
	default:
		c.err(diag.KindUnionInactive, c.localName(root), "union view `%s` is not active", view.Name)
	}
}

// checkUnionBorrow implements spec.md §4.2's "Readonly views reject unique
// borrows" rule on top of checkUnionRead's activation check.
func (c *checker) checkUnionBorrow(bop mir.BorrowOperand, facts *BlockFacts, report bool) {
	c.checkUnionRead(bop.Place, facts, report)
	if !report {
		return
	}
	union := c.unionLayoutFor(bop.Place.RootLocal())
	if union == nil {
		return
	}
	idx, ok := unionFieldIndex(bop.Place)
	if !ok {
		return
	}
	view, ok := union.ViewByIndex(idx)
	if !ok {
		return
	}
	if view.Mode == mir.FieldReadOnly && bop.Kind == mir.BorrowUnique {
		c.err(diag.KindUnionReadonly, c.localName(bop.Place.RootLocal()),
			"cannot take a mutable borrow of readonly union view `%s`", view.Name)
	}
}

// determineUnionAssignment implements spec.md §4.2's union activation rule
// for an assignment into dest: assigning directly through a union-field
// place activates that field (rejecting readonly targets); assigning the
// whole union from a union-view construction or from another place/local
// with known active state propagates that state; anything else leaves the
// active view Unknown. The second return value is false when dest's root
// local isn't union-typed at all, in which case no union bookkeeping
// applies.
func (c *checker) determineUnionAssignment(dest mir.Place, rv *mir.Rvalue, report bool) (int, bool) {
	union := c.unionLayoutFor(dest.RootLocal())
	if union == nil {
		return 0, false
	}
	if idx, ok := unionFieldIndex(dest); ok {
		if view, ok := union.ViewByIndex(idx); ok && view.Mode == mir.FieldReadOnly && report {
			c.err(diag.KindUnionReadonly, c.localName(dest.RootLocal()),
				"cannot assign to readonly union view `%s`", view.Name)
		}
		return idx, true
	}
	if rv == nil {
		return -1, true
	}
	if rv.Kind == mir.RvalueAggregate && rv.AggKind == mir.AggregateUnion {
		return rv.UnionView, true
	}
	if rv.Kind == mir.RvalueUse {
		switch rv.Operand.Kind {
		case mir.OperandCopy, mir.OperandMove:
			if idx, ok := unionFieldIndex(rv.Operand.Place); ok {
				return idx, true
			}
		case mir.OperandBorrow:
			if idx, ok := unionFieldIndex(rv.Operand.Borrow.Place); ok {
				return idx, true
			}
		}
	}
	return -1, true
}

// viewDependents implements spec.md §4.2's "Move breaks view" rule: moving
// a struct/class field that owns a dependent view field (view_of == that
// field's name) is rejected, regardless of whether the view is currently
// read. Only fires for a field-projected place, per the owning-field
// concept the check is grounded on.
func (c *checker) viewDependents(place mir.Place) (owner string, dependents []string, ok bool) {
	if len(place.Proj) == 0 {
		return "", nil, false
	}
	l := c.f.Local(place.RootLocal())
	if l == nil {
		return "", nil, false
	}
	ty := l.Type
	var ownerName string
	var ownerFields []mir.StructField
	haveOwner := false
	for _, elem := range place.Proj {
		switch elem.Kind {
		case mir.ProjField:
			layout := c.structLayoutForTy(ty)
			if layout == nil {
				return "", nil, false
			}
			var field *mir.StructField
			for i := range layout.Fields {
				if layout.Fields[i].Index == elem.FieldIndex {
					field = &layout.Fields[i]
					break
				}
			}
			if field == nil {
				return "", nil, false
			}
			ownerName = field.Name
			ownerFields = layout.Fields
			haveOwner = true
			ty = field.Type
		case mir.ProjDeref:
			ty = derefTy(ty)
			if ty == nil {
				return "", nil, false
			}
			haveOwner = false
		default:
			return "", nil, false
		}
	}
	if !haveOwner {
		return "", nil, false
	}
	for _, f := range ownerFields {
		if f.ViewOf == ownerName {
			dependents = append(dependents, f.Name)
		}
	}
	if len(dependents) == 0 {
		return "", nil, false
	}
	return ownerName, dependents, true
}

// structLayoutForTy resolves ty to its StructLayout, looking through
// Nullable/Pointer wrappers the same way the move-breaks-view check's
// owning-field walk does.
func (c *checker) structLayoutForTy(ty *mir.Ty) *mir.StructLayout {
	if ty == nil {
		return nil
	}
	switch ty.Kind {
	case mir.TyNamed:
		layout, ok := c.layouts.LookupForTy(ty)
		if !ok || (layout.Kind != mir.LayoutStruct && layout.Kind != mir.LayoutClass) {
			return nil
		}
		return layout.Struct
	case mir.TyNullable, mir.TyPointer:
		return c.structLayoutForTy(ty.Elem)
	default:
		return nil
	}
}

func derefTy(ty *mir.Ty) *mir.Ty {
	if ty == nil {
		return nil
	}
	switch ty.Kind {
	case mir.TyPointer:
		return ty.Elem
	case mir.TyNullable:
		return derefTy(ty.Elem)
	default:
		return nil
	}
}

func (c *checker) transferStatement(st mir.Statement, facts *BlockFacts, report bool) {
	switch st.Kind {
	case mir.StmtAssign:
		if st.Value != nil {
			c.useRvalue(*st.Value, facts, report)
		}
		root := st.Place.RootLocal()
		lf := facts.get(root)
		l := c.f.Local(root)

		// Assigning over a place releases any loan targeting it (spec.md
		// §4.2 loan expiration).
		kept := facts.Loans[:0:0]
		for _, loan := range facts.Loans {
			if !st.Place.IsPrefixOf(loan.Place) {
				kept = append(kept, loan)
			}
		}
		facts.Loans = kept

		if report && lf.Init != StateUninit && l != nil && !l.Mutable && l.Kind != mir.LocalKindReturn &&
			!(l.Kind == mir.LocalKindParameter && l.ParamMode == mir.ParamOut) {
			c.err(diag.KindImmutableAssignment, c.localName(root), "reassignment of an immutable local")
		}

		lf.Init = StateInit
		lf.Moved = false
		if st.Value != nil && st.Value.Kind == mir.RvalueSpanStackAlloc {
			lf.StackOrigin = true
		}
		if idx, isUnion := c.determineUnionAssignment(st.Place, st.Value, report); isUnion {
			lf.ActiveView = idx
			lf.ViewKnown = true
		}
		c.applyNullAssign(st.Place, st.Value, &lf, facts, report)
		facts.set(root, lf)
	case mir.StmtStorageLive:
		lf := facts.get(st.Local)
		lf.Init = StateUninit
		facts.set(st.Local, lf)
	case mir.StmtStorageDead:
		facts.Loans = dropLoansOn(facts.Loans, st.Local)
	case mir.StmtDeferDrop, mir.StmtDrop, mir.StmtDeinit:
		root := st.DropPlace.RootLocal()
		lf := facts.get(root)
		lf.Init = StateUninit
		facts.set(root, lf)
		facts.Loans = dropLoansOn(facts.Loans, root)
	case mir.StmtMmioStore:
		c.checkUse(st.MmioValue, facts, report, false)
	case mir.StmtExpression:
		c.checkUse(st.Expr, facts, report, false)
	case mir.StmtAssert:
		c.checkUse(st.AssertCond, facts, report, false)
	}
}

func dropLoansOn(loans []Loan, id mir.LocalID) []Loan {
	out := loans[:0:0]
	for _, l := range loans {
		if l.Place.RootLocal() != id {
			out = append(out, l)
		}
	}
	return out
}

// placeNullState returns place's tracked NullState, treating any
// non-nullable-typed local as unconditionally NonNull: a local of a
// non-nullable type can never actually hold null regardless of whatever
// default its facts carry before first assignment.
func (c *checker) placeNullState(place mir.Place, facts *BlockFacts) NullState {
	if l := c.f.Local(place.RootLocal()); l != nil && !l.Nullable {
		return NullNonNull
	}
	return facts.get(place.RootLocal()).Null
}

// operandNullState implements the Copy/Move/Borrow/Const/Mmio/Pending null
// hint rules: a literal constant is Null or NonNull outright; Copy/Move/
// Borrow inherit the source place's state; Mmio and Pending carry no hint
// at all (ok=false) since their null-ness isn't tracked.
func (c *checker) operandNullState(o mir.Operand, facts *BlockFacts) (state NullState, ok bool) {
	switch o.Kind {
	case mir.OperandConst:
		if o.Const.Value == nil {
			return NullIsNull, true
		}
		return NullNonNull, true
	case mir.OperandCopy, mir.OperandMove:
		return c.placeNullState(o.Place, facts), true
	case mir.OperandBorrow:
		return c.placeNullState(o.Borrow.Place, facts), true
	default:
		return NullUnknown, false
	}
}

// rvalueNullState implements spec.md §4.2's null-hint propagation: only
// Use/Unary/Cast rvalues carry a null hint from their operand, mirroring
// the ground-truth rule that an aggregate, address-of, or intrinsic result
// is never itself null-tracked.
func (c *checker) rvalueNullState(rv *mir.Rvalue, facts *BlockFacts) (state NullState, ok bool) {
	if rv == nil {
		return NullUnknown, false
	}
	switch rv.Kind {
	case mir.RvalueUse:
		return c.operandNullState(rv.Operand, facts)
	case mir.RvalueUnary:
		return c.operandNullState(rv.LHS, facts)
	case mir.RvalueCast:
		return c.operandNullState(rv.CastFrom, facts)
	default:
		return NullUnknown, false
	}
}

// applyNullAssign updates a local's NullState after an assignment
// (spec.md §4.2). A hint of Null assigned into a non-nullable local is a
// NullAssignment error; a hint of Unknown (an unresolved nullable copied
// in, rather than a value actually known non-null) is a
// MaybeNullAssignment error. Assignments with no hint at all (aggregate
// construction, address-of, MMIO reads, ...) simply reset to Unknown.
func (c *checker) applyNullAssign(dst mir.Place, rv *mir.Rvalue, lf *LocalFacts, facts *BlockFacts, report bool) {
	l := c.f.Local(dst.RootLocal())
	hint, hasHint := c.rvalueNullState(rv, facts)
	if !hasHint {
		lf.Null = NullUnknown
		return
	}
	if report && l != nil && !l.Nullable {
		switch hint {
		case NullIsNull:
			c.err(diag.KindNullAssignment, c.localName(dst.RootLocal()), "null assigned to a non-nullable local")
		case NullUnknown:
			// Flow sensitivity widens only through explicit guards, so an
			// unresolved nullable flowing into a non-nullable binding is a
			// hard error, not a warning (the use-site warnings stay soft).
			c.err(diag.KindMaybeNullAssignment, c.localName(dst.RootLocal()), "possibly-null value assigned to a non-nullable local")
		}
	}
	lf.Null = hint
}

func (c *checker) useRvalue(rv mir.Rvalue, facts *BlockFacts, report bool) {
	switch rv.Kind {
	case mir.RvalueUse:
		c.checkUse(rv.Operand, facts, report, false)
	case mir.RvalueUnary:
		c.checkUse(rv.LHS, facts, report, false)
	case mir.RvalueBinary:
		c.checkUse(rv.LHS, facts, report, false)
		c.checkUse(rv.RHS, facts, report, false)
	case mir.RvalueAggregate:
		for _, f := range rv.Fields {
			c.checkUse(f, facts, report, false)
		}
	case mir.RvalueAddressOf:
		c.checkUse(mir.CopyOf(rv.Place), facts, report, false)
	case mir.RvalueLen:
		c.checkUse(rv.LenOf, facts, report, false)
	case mir.RvalueCast:
		c.checkUse(rv.CastFrom, facts, report, false)
	case mir.RvalueStringInterpolate:
		for _, p := range rv.Parts {
			c.checkUse(p, facts, report, false)
		}
	case mir.RvalueNumericIntrinsic, mir.RvalueDecimalIntrinsic:
		for _, a := range rv.IntrinsicArgs {
			c.checkUse(a, facts, report, false)
		}
	case mir.RvalueAtomic:
		c.checkUse(rv.AtomicAddr, facts, report, true)
		c.checkUse(rv.AtomicVal, facts, report, false)
	case mir.RvalueSpanStackAlloc:
		c.checkUse(rv.StackAllocLen, facts, report, false)
	}
	if rv.Kind == mir.RvalueUse && rv.Operand.Kind == mir.OperandBorrow {
		c.checkBorrow(rv.Operand.Borrow, facts, report)
	}
}

func (c *checker) transferTerminator(t *mir.Terminator, facts *BlockFacts, report bool) {
	switch t.Kind {
	case mir.TermSwitchInt:
		c.checkUse(t.SwitchDiscr, facts, report, false)
	case mir.TermMatch:
		c.checkUse(t.MatchValue, facts, report, true)
		for _, arm := range t.MatchArms {
			if arm.Guard != nil {
				c.checkUse(*arm.Guard, facts, report, false)
			}
		}
	case mir.TermCall:
		c.checkUse(t.Call.Func, facts, report, false)
		for _, a := range t.Call.Args {
			c.checkUse(a, facts, report, false)
		}
		if t.Call.Destination != nil {
			root := t.Call.Destination.RootLocal()
			lf := facts.get(root)
			lf.Init = StateInit
			lf.Null = NullUnknown
			facts.set(root, lf)
		}
	case mir.TermThrow:
		if t.Throw.Exception != nil {
			c.checkUse(*t.Throw.Exception, facts, report, false)
		}
	case mir.TermYield:
		c.checkUse(t.Yield.Value, facts, report, false)
	case mir.TermAwait:
		c.checkUse(t.Await.Future, facts, report, false)
		if t.Await.Destination != nil {
			root := t.Await.Destination.RootLocal()
			lf := facts.get(root)
			lf.Init = StateInit
			facts.set(root, lf)
		}
	case mir.TermReturn:
		if report {
			c.checkReturn(facts)
		}
	}
}

// checkReturn enforces the Out-parameter-completion rule: every Out-mode
// parameter must be Init on every path reaching a Return (spec.md §4.2).
func (c *checker) checkReturn(facts *BlockFacts) {
	for _, l := range c.f.Locals {
		if l.Kind == mir.LocalKindParameter && l.ParamMode == mir.ParamOut {
			if facts.get(l.ID).Init != StateInit {
				c.err(diag.KindOutNotAssigned, l.Name, "out parameter not assigned on all paths to return")
			}
		}
	}
}
