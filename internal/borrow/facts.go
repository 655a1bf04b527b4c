// Package borrow implements the BorrowChecker: a forward dataflow pass over
// a MIR function's CFG that enforces ownership, borrowing, and null-safety
// invariants (spec.md §4.2).
//
// Grounded on the teacher's asyncify liveness analyzer's worklist shape
// (asyncify/internal/engine/liveness.go) and internal/dataflow.RunForward,
// generalized from a flat bitset to a per-local richer fact (init/null
// state, active loans, union view) since spec.md §4.2's lattice carries
// more than one bit per local.
package borrow

import "github.com/chic-lang/chicc/internal/mir"

// InitState is spec.md §4.2's three-valued initialization lattice:
// Init∧Init=Init, Init∨Uninit=Maybe.
type InitState int

const (
	StateUninit InitState = iota
	StateMaybe
	StateInit
)

func mergeInit(a, b InitState) InitState {
	if a == b {
		return a
	}
	if a == StateUninit && b == StateUninit {
		return StateUninit
	}
	return StateMaybe
}

// NullState is spec.md §4.2's null-tracking lattice: NonNull⊔Null=Unknown.
type NullState int

const (
	NullUnknown NullState = iota
	NullNonNull
	NullIsNull
)

func mergeNull(a, b NullState) NullState {
	if a == b {
		return a
	}
	return NullUnknown
}

// Loan records one outstanding borrow of a place.
type Loan struct {
	Kind  mir.BorrowKind
	Place mir.Place
	Span  mir.Span
}

// LocalFacts is the per-local fact vector: init state, nullability,
// moved-out status, stack-alloc origin, and union-view state. Active loans
// are tracked per program point in BlockFacts; the pinned flag is read from
// the LocalDecl.
type LocalFacts struct {
	Init         InitState
	Null         NullState
	Moved        bool   // moved-out and not since reassigned
	LastMoveSpan mir.Span
	StackOrigin  bool // true if bound to a SpanStackAlloc result (recorded only; no check reads it)
	ActiveView   int  // active union view index, or -1 if none/unknown
	ViewKnown    bool // false once paths disagree on ActiveView
}

func (f LocalFacts) merge(o LocalFacts) LocalFacts {
	out := LocalFacts{
		Init:        mergeInit(f.Init, o.Init),
		Null:        mergeNull(f.Null, o.Null),
		Moved:       f.Moved || o.Moved,
		StackOrigin: f.StackOrigin && o.StackOrigin,
	}
	if f.ViewKnown && o.ViewKnown && f.ActiveView == o.ActiveView {
		out.ActiveView = f.ActiveView
		out.ViewKnown = true
	} else {
		out.ActiveView = -1
		out.ViewKnown = false
	}
	return out
}

// BlockFacts is the fact map in effect at a program point: per-local facts
// plus the set of loans currently outstanding against any place.
type BlockFacts struct {
	Locals map[mir.LocalID]LocalFacts
	Loans  []Loan
}

func newBlockFacts() BlockFacts {
	return BlockFacts{Locals: map[mir.LocalID]LocalFacts{}}
}

func (bf BlockFacts) clone() BlockFacts {
	out := BlockFacts{Locals: make(map[mir.LocalID]LocalFacts, len(bf.Locals)), Loans: append([]Loan{}, bf.Loans...)}
	for k, v := range bf.Locals {
		out.Locals[k] = v
	}
	return out
}

func (bf BlockFacts) get(id mir.LocalID) LocalFacts {
	if f, ok := bf.Locals[id]; ok {
		return f
	}
	return LocalFacts{Init: StateUninit, Null: NullUnknown, ActiveView: -1}
}

func (bf *BlockFacts) set(id mir.LocalID, f LocalFacts) { bf.Locals[id] = f }

func mergeBlockFacts(a, b BlockFacts) BlockFacts {
	out := newBlockFacts()
	for id, fa := range a.Locals {
		if fb, ok := b.Locals[id]; ok {
			out.Locals[id] = fa.merge(fb)
		} else {
			out.Locals[id] = fa.merge(LocalFacts{Init: StateUninit, Null: NullUnknown, ActiveView: -1})
		}
	}
	for id, fb := range b.Locals {
		if _, ok := out.Locals[id]; !ok {
			out.Locals[id] = fb.merge(LocalFacts{Init: StateUninit, Null: NullUnknown, ActiveView: -1})
		}
	}
	// Loans merge by union: a loan outstanding on any incoming path is
	// conservatively treated as outstanding (spec.md §4.2 loan conflict rule
	// errs toward reporting, not missing, a conflict).
	out.Loans = append(out.Loans, a.Loans...)
	for _, l := range b.Loans {
		dup := false
		for _, e := range out.Loans {
			if e.Place.Equal(l.Place) && e.Kind == l.Kind {
				dup = true
				break
			}
		}
		if !dup {
			out.Loans = append(out.Loans, l)
		}
	}
	return out
}

func (i InitState) String() string {
	switch i {
	case StateInit:
		return "Init"
	case StateMaybe:
		return "Maybe"
	default:
		return "Uninit"
	}
}

func (n NullState) String() string {
	switch n {
	case NullNonNull:
		return "NonNull"
	case NullIsNull:
		return "Null"
	default:
		return "Unknown"
	}
}
