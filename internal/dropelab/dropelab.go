// Package dropelab elaborates DeferDrop/StorageDead markers left by the
// lowerer into explicit Drop/Deinit statement sequences (spec.md §4.3).
//
// Grounded on the same forward-worklist shape as internal/borrow (itself
// grounded on the teacher's asyncify liveness analyzer), specialized to a
// single per-local boolean: moved-out.
package dropelab

import (
	"github.com/chic-lang/chicc/internal/dataflow"
	"github.com/chic-lang/chicc/internal/mir"
)

// Elaborate rewrites f's blocks in place, splicing in Drop/Deinit statements
// for every DeferDrop/StorageDead the function contains (spec.md §4.3).
func Elaborate(f *mir.Function, layouts *mir.TypeLayoutTable) {
	movedOut := computeMovedOut(f)
	entryActive := computeEntryActives(f)

	for bi, b := range f.Blocks {
		e := &elaborator{
			f:       f,
			layouts: layouts,
			active:  append([]activeDrop{}, entryActive[b.ID]...),
			moved:   movedOut[bi].Clone(),
			block:   b.ID,
		}
		b.Statements = e.rewriteStatements(b.Statements)
		e.flushAtExit(b)
	}
}

// computeEntryActives propagates the ordered DeferDrop stack across the CFG
// so an exit terminator flushes defers scheduled in earlier blocks too. The
// merge keeps only entries active on every incoming path, in the first
// predecessor's order (a defer active on just one path already had its
// StorageDead elaborated there).
func computeEntryActives(f *mir.Function) map[mir.BlockID][]activeDrop {
	entry := make(map[mir.BlockID][]activeDrop, len(f.Blocks))
	exit := make(map[mir.BlockID][]activeDrop, len(f.Blocks))

	apply := func(b *mir.BasicBlock, in []activeDrop) []activeDrop {
		active := append([]activeDrop{}, in...)
		for _, st := range b.Statements {
			switch st.Kind {
			case mir.StmtDeferDrop:
				active = append(active, activeDrop{local: st.Local, place: st.DropPlace})
			case mir.StmtStorageDead:
				for i := len(active) - 1; i >= 0; i-- {
					if active[i].local == st.Local {
						active = append(active[:i], active[i+1:]...)
						break
					}
				}
			}
		}
		return active
	}

	intersect := func(a, b []activeDrop) []activeDrop {
		out := a[:0:0]
		for _, e := range a {
			for _, o := range b {
				if e.local == o.local && e.place.Equal(o.place) {
					out = append(out, e)
					break
				}
			}
		}
		return out
	}

	equal := func(a, b []activeDrop) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i].local != b[i].local || !a[i].place.Equal(b[i].place) {
				return false
			}
		}
		return true
	}

	worklist := make([]mir.BlockID, 0, len(f.Blocks))
	queued := map[mir.BlockID]bool{}
	for _, b := range f.Blocks {
		worklist = append(worklist, b.ID)
		queued[b.ID] = true
	}
	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		queued[id] = false

		preds := f.Predecessors(id)
		var in []activeDrop
		if len(preds) > 0 {
			in = append([]activeDrop{}, exit[preds[0]]...)
			for _, p := range preds[1:] {
				in = intersect(in, exit[p])
			}
		}
		entry[id] = in

		out := apply(f.Block(id), in)
		if !equal(out, exit[id]) {
			exit[id] = out
			for _, s := range f.Successors(id) {
				if !queued[s] {
					worklist = append(worklist, s)
					queued[s] = true
				}
			}
		}
	}
	return entry
}

// computeMovedOut runs the forward worklist fixpoint spec.md §4.3 describes:
// an assignment to a root place clears the bit, a Move operand sets it,
// merged across predecessors by union (moved on any incoming path means
// moved here too).
func computeMovedOut(f *mir.Function) []*dataflow.BitSet {
	g := f.Graph()
	return dataflow.RunForward(g,
		func() *dataflow.BitSet { return dataflow.NewBitSet(len(f.Locals) + 1) },
		func(a, b *dataflow.BitSet) *dataflow.BitSet { a.Union(b); return a },
		func(blockIdx int, entry *dataflow.BitSet) *dataflow.BitSet {
			out := entry.Clone()
			b := f.Blocks[blockIdx]
			for _, st := range b.Statements {
				markMoves(st, out)
			}
			markTermMoves(b.Terminator, out)
			return out
		})
}

func markMoves(st mir.Statement, out *dataflow.BitSet) {
	if st.Kind == mir.StmtAssign && st.Place.IsRoot() {
		out.Clear(uint32(st.Place.Local))
	}
	if st.Kind == mir.StmtAssign && st.Value != nil {
		walkRvalueMoves(*st.Value, out)
	}
	if st.Kind == mir.StmtExpression {
		walkOperandMove(st.Expr, out)
	}
}

func markTermMoves(t mir.Terminator, out *dataflow.BitSet) {
	switch t.Kind {
	case mir.TermCall:
		for _, a := range t.Call.Args {
			walkOperandMove(a, out)
		}
		if t.Call.Destination != nil && t.Call.Destination.IsRoot() {
			out.Clear(uint32(t.Call.Destination.Local))
		}
	case mir.TermThrow:
		if t.Throw.Exception != nil {
			walkOperandMove(*t.Throw.Exception, out)
		}
	case mir.TermYield:
		walkOperandMove(t.Yield.Value, out)
	case mir.TermAwait:
		walkOperandMove(t.Await.Future, out)
		if t.Await.Destination != nil && t.Await.Destination.IsRoot() {
			out.Clear(uint32(t.Await.Destination.Local))
		}
	}
}

func walkOperandMove(o mir.Operand, out *dataflow.BitSet) {
	if o.Kind == mir.OperandMove && o.Place.IsRoot() {
		out.Set(uint32(o.Place.Local))
	}
}

func walkRvalueMoves(rv mir.Rvalue, out *dataflow.BitSet) {
	switch rv.Kind {
	case mir.RvalueUse:
		walkOperandMove(rv.Operand, out)
	case mir.RvalueUnary:
		walkOperandMove(rv.LHS, out)
	case mir.RvalueBinary:
		walkOperandMove(rv.LHS, out)
		walkOperandMove(rv.RHS, out)
	case mir.RvalueAggregate:
		for _, f := range rv.Fields {
			walkOperandMove(f, out)
		}
	case mir.RvalueCast:
		walkOperandMove(rv.CastFrom, out)
	}
}

// activeDrop is one still-live DeferDrop entry awaiting its StorageDead.
type activeDrop struct {
	local mir.LocalID
	place mir.Place
}

type elaborator struct {
	f       *mir.Function
	layouts *mir.TypeLayoutTable
	active  []activeDrop
	moved   *dataflow.BitSet
	block   mir.BlockID
}

// rewriteStatements walks a block's statements linearly, maintaining the
// active DeferDrop stack and splicing in drop sequences at each
// StorageDead (spec.md §4.3).
func (e *elaborator) rewriteStatements(stmts []mir.Statement) []mir.Statement {
	out := make([]mir.Statement, 0, len(stmts))
	for _, st := range stmts {
		switch st.Kind {
		case mir.StmtDeferDrop:
			e.active = append(e.active, activeDrop{local: st.Local, place: st.DropPlace})
			out = append(out, st)
		case mir.StmtStorageDead:
			out = append(out, st)
			if idx := e.popMatching(st.Local); idx >= 0 {
				if !e.moved.Has(uint32(st.Local)) {
					out = append(out, e.dropSequence(e.active[idx].place)...)
				}
				e.active = append(e.active[:idx], e.active[idx+1:]...)
			}
		default:
			// Keep the moved set current as the walk passes moves and
			// reassignments inside this block, so a StorageDead after an
			// intra-block move doesn't drop a moved-out value.
			markMoves(st, e.moved)
			out = append(out, st)
		}
	}
	return out
}

// popMatching finds the topmost active entry for local, returning its index
// or -1. spec.md §4.3 says "topmost matching entry", so search from the end.
func (e *elaborator) popMatching(local mir.LocalID) int {
	for i := len(e.active) - 1; i >= 0; i-- {
		if e.active[i].local == local {
			return i
		}
	}
	return -1
}

// dropSequence implements spec.md §4.3's four-step drop-sequence synthesis
// for place's declared type.
func (e *elaborator) dropSequence(place mir.Place) []mir.Statement {
	ty := e.placeType(place)
	if ty == nil || !e.layouts.TyRequiresDrop(ty) {
		return nil
	}
	return e.dropSequenceForType(place, ty)
}

func (e *elaborator) placeType(place mir.Place) *mir.Ty {
	l := e.f.Local(place.RootLocal())
	if l == nil {
		return nil
	}
	return l.Type
}

func (e *elaborator) dropSequenceForType(place mir.Place, ty *mir.Ty) []mir.Statement {
	var out []mir.Statement

	if ty.Kind == mir.TyNullable {
		return e.dropSequenceForType(place, ty.Elem)
	}

	if ty.Kind == mir.TyTuple {
		for i := len(ty.Elems) - 1; i >= 0; i-- {
			out = append(out, e.dropSequenceForType(place.WithField(i), ty.Elems[i])...)
		}
		out = append(out, mir.Drop(place, e.block, nil))
		return out
	}

	if ty.Kind != mir.TyNamed {
		out = append(out, mir.Drop(place, e.block, nil))
		return out
	}

	layout, ok := e.layouts.LookupForTy(ty)
	if !ok || layout.Kind != mir.LayoutStruct {
		out = append(out, mir.Drop(place, e.block, nil))
		return out
	}

	// MaybeUninit<T> short-circuits to a single unconditional drop
	// (spec.md §4.3).
	if ty.Name == "MaybeUninit" {
		out = append(out, mir.Drop(place, e.block, nil))
		return out
	}

	sl := layout.Struct
	if sl.Dispose != "" {
		out = append(out, mir.Deinit(place))
	}

	viewFields, plainFields := splitViewFields(sl)
	for i := len(viewFields) - 1; i >= 0; i-- {
		fld := viewFields[i]
		out = append(out, e.dropSequenceForType(place.WithField(fld.Index), fld.Type)...)
	}
	for i := len(plainFields) - 1; i >= 0; i-- {
		fld := plainFields[i]
		out = append(out, e.dropSequenceForType(place.WithField(fld.Index), fld.Type)...)
	}

	out = append(out, mir.Drop(place, e.block, nil))
	return out
}

func splitViewFields(sl *mir.StructLayout) (views, plain []mir.StructField) {
	for _, f := range sl.Fields {
		if f.ViewOf != "" {
			views = append(views, f)
		} else {
			plain = append(plain, f)
		}
	}
	return
}

// flushAtExit implements spec.md §4.3's exit-terminator rule: Return/Throw/
// Panic flush every still-active DeferDrop in LIFO order, skipping any
// local in the moved-out set.
func (e *elaborator) flushAtExit(b *mir.BasicBlock) {
	switch b.Terminator.Kind {
	case mir.TermReturn, mir.TermThrow, mir.TermPanic:
	default:
		return
	}
	markTermMoves(b.Terminator, e.moved)
	var flushed []mir.Statement
	for i := len(e.active) - 1; i >= 0; i-- {
		entry := e.active[i]
		if e.moved.Has(uint32(entry.local)) {
			continue
		}
		flushed = append(flushed, e.dropSequence(entry.place)...)
	}
	b.Statements = append(b.Statements, flushed...)
}
