package dropelab

import (
	"testing"

	"github.com/chic-lang/chicc/internal/mir"
)

func constUnit() mir.Operand {
	return mir.ConstOf(mir.ConstValue{Type: mir.Unit(), Value: nil})
}

func dropTargets(stmts []mir.Statement) []mir.Place {
	var out []mir.Place
	for _, s := range stmts {
		if s.Kind == mir.StmtDrop {
			out = append(out, s.DropPlace)
		}
	}
	return out
}

// TestElaborateSplicesDropAtStorageDead verifies the basic DeferDrop ->
// StorageDead -> Drop sequence (spec.md §4.3, testable property 1): the
// Drop statement is preceded by the matching DeferDrop on this path.
func TestElaborateSplicesDropAtStorageDead(t *testing.T) {
	f := mir.NewFunction("f")
	f.ReturnType = mir.Unit()
	layouts := mir.NewTypeLayoutTable()
	layouts.Register("Resource", &mir.TypeLayout{Kind: mir.LayoutStruct, Struct: &mir.StructLayout{Name: "Resource", Dispose: "Resource_dispose"}})
	r := f.AddLocal(&mir.LocalDecl{Name: "r", Type: mir.Named("Resource"), Kind: mir.LocalKindLocal, Mutable: true})

	b := &mir.BasicBlock{ID: 0}
	b.Statements = []mir.Statement{
		mir.StorageLive(r),
		mir.DeferDrop(r, mir.NewPlace(r)),
		mir.StorageDead(r),
	}
	b.Terminator = mir.Return()
	f.AddBlock(b)

	Elaborate(f, layouts)

	stmts := f.Blocks[0].Statements
	sawDeferDrop, sawDrop, sawDeinit := false, false, false
	for _, s := range stmts {
		switch s.Kind {
		case mir.StmtDeferDrop:
			sawDeferDrop = true
		case mir.StmtDeinit:
			if sawDrop {
				t.Fatal("Deinit should precede Drop, not follow it")
			}
			sawDeinit = true
		case mir.StmtDrop:
			if !sawDeferDrop {
				t.Fatal("Drop must be preceded by its matching DeferDrop")
			}
			sawDrop = true
		}
	}
	if !sawDrop || !sawDeinit {
		t.Fatalf("expected both Deinit and Drop to be spliced in, got %+v", stmts)
	}
}

func TestElaborateSkipsDropForUnregisteredNonDroppableType(t *testing.T) {
	f := mir.NewFunction("f")
	f.ReturnType = mir.Unit()
	layouts := mir.NewTypeLayoutTable()
	x := f.AddLocal(&mir.LocalDecl{Name: "x", Type: mir.Int(32, true), Kind: mir.LocalKindLocal, Mutable: true})

	b := &mir.BasicBlock{ID: 0}
	b.Statements = []mir.Statement{
		mir.StorageLive(x),
		mir.DeferDrop(x, mir.NewPlace(x)),
		mir.StorageDead(x),
	}
	b.Terminator = mir.Return()
	f.AddBlock(b)

	Elaborate(f, layouts)

	for _, s := range f.Blocks[0].Statements {
		if s.Kind == mir.StmtDrop {
			t.Fatal("a primitive int local should never require a Drop statement")
		}
	}
}

// TestElaborateDropsViewFieldsBeforePlainFields checks spec.md §4.3 step 2:
// view fields drop first (reverse index order), then plain fields (reverse
// index order).
func TestElaborateDropsViewFieldsBeforePlainFields(t *testing.T) {
	f := mir.NewFunction("f")
	f.ReturnType = mir.Unit()
	layouts := mir.NewTypeLayoutTable()
	layouts.Register("Droppable", &mir.TypeLayout{Kind: mir.LayoutStruct, Struct: &mir.StructLayout{Name: "Droppable", Dispose: "d"}})
	layouts.Register("Holder", &mir.TypeLayout{
		Kind: mir.LayoutStruct,
		Struct: &mir.StructLayout{
			Name: "Holder",
			Fields: []mir.StructField{
				{Name: "plainA", Index: 0, Type: mir.Named("Droppable")},
				{Name: "viewB", Index: 1, Type: mir.Named("Droppable"), ViewOf: "plainA"},
				{Name: "plainC", Index: 2, Type: mir.Named("Droppable")},
			},
		},
	})
	holder := f.AddLocal(&mir.LocalDecl{Name: "h", Type: mir.Named("Holder"), Kind: mir.LocalKindLocal, Mutable: true})

	b := &mir.BasicBlock{ID: 0}
	b.Statements = []mir.Statement{
		mir.StorageLive(holder),
		mir.DeferDrop(holder, mir.NewPlace(holder)),
		mir.StorageDead(holder),
	}
	b.Terminator = mir.Return()
	f.AddBlock(b)

	Elaborate(f, layouts)

	places := dropTargets(f.Blocks[0].Statements)
	// Expect: field 1 (the only view field) drops first, then field 2,
	// then field 0 (plain fields in reverse index order), then the
	// struct itself.
	if len(places) != 4 {
		t.Fatalf("expected 4 Drop statements (3 fields plus the struct itself), got %d: %+v", len(places), places)
	}
	fieldIndexOf := func(p mir.Place) int {
		if len(p.Proj) == 0 {
			return -1
		}
		return p.Proj[0].FieldIndex
	}
	if fieldIndexOf(places[0]) != 1 {
		t.Fatalf("view field (index 1) should drop first, got field order %v", places)
	}
	if fieldIndexOf(places[1]) != 2 || fieldIndexOf(places[2]) != 0 {
		t.Fatalf("plain fields should drop in reverse index order (2 then 0), got %v", places)
	}
	if fieldIndexOf(places[3]) != -1 {
		t.Fatal("the struct itself should be the last Drop")
	}
}

// TestElaborateFlushesLIFOAtReturnSkippingMovedOut verifies spec.md §4.3's
// exit-terminator rule: still-active DeferDrop entries flush in LIFO order
// at Return, except locals in the moved-out set.
func TestElaborateFlushesLIFOAtReturnSkippingMovedOut(t *testing.T) {
	f := mir.NewFunction("f")
	f.ReturnType = mir.Unit()
	layouts := mir.NewTypeLayoutTable()
	layouts.Register("Resource", &mir.TypeLayout{Kind: mir.LayoutStruct, Struct: &mir.StructLayout{Name: "Resource", Dispose: "d"}})
	a := f.AddLocal(&mir.LocalDecl{Name: "a", Type: mir.Named("Resource"), Kind: mir.LocalKindLocal, Mutable: true})
	c := f.AddLocal(&mir.LocalDecl{Name: "c", Type: mir.Named("Resource"), Kind: mir.LocalKindLocal, Mutable: true})
	sink := f.AddLocal(&mir.LocalDecl{Name: "sink", Type: mir.Named("Resource"), Kind: mir.LocalKindLocal, Mutable: true})

	b := &mir.BasicBlock{ID: 0}
	b.Statements = []mir.Statement{
		mir.StorageLive(a),
		mir.DeferDrop(a, mir.NewPlace(a)),
		mir.StorageLive(c),
		mir.DeferDrop(c, mir.NewPlace(c)),
		// a is moved out before the implicit return flush, so it must
		// not be dropped; c was never moved, so it must be.
		mir.Assign(mir.NewPlace(sink), mir.UseOf(mir.MoveOf(mir.NewPlace(a)))),
	}
	b.Terminator = mir.Return()
	f.AddBlock(b)

	Elaborate(f, layouts)

	places := dropTargets(f.Blocks[0].Statements)
	if len(places) != 1 {
		t.Fatalf("expected exactly 1 flushed Drop (c, not the moved-out a), got %d: %+v", len(places), places)
	}
	if places[0].RootLocal() != c {
		t.Fatalf("the flushed Drop should target c, got local %d", places[0].RootLocal())
	}
}

func TestElaborateMaybeUninitShortCircuitsToSingleDrop(t *testing.T) {
	f := mir.NewFunction("f")
	f.ReturnType = mir.Unit()
	layouts := mir.NewTypeLayoutTable()
	layouts.Register("Resource", &mir.TypeLayout{Kind: mir.LayoutStruct, Struct: &mir.StructLayout{Name: "Resource", Dispose: "d"}})
	m := f.AddLocal(&mir.LocalDecl{Name: "m", Type: mir.Named("MaybeUninit", mir.Named("Resource")), Kind: mir.LocalKindLocal, Mutable: true})

	b := &mir.BasicBlock{ID: 0}
	b.Statements = []mir.Statement{
		mir.StorageLive(m),
		mir.DeferDrop(m, mir.NewPlace(m)),
		mir.StorageDead(m),
	}
	b.Terminator = mir.Return()
	f.AddBlock(b)

	Elaborate(f, layouts)

	places := dropTargets(f.Blocks[0].Statements)
	if len(places) != 1 {
		t.Fatalf("MaybeUninit<T> should elaborate to exactly one Drop of itself, got %d: %+v", len(places), places)
	}
	if !places[0].IsRoot() {
		t.Fatal("MaybeUninit<T>'s single Drop should target the place itself, not a field inside it")
	}
}
