package mir

import "testing"

// buildSimpleFunction creates a one-local, one-block function returning
// unit, a minimal well-formed skeleton for the invariant tests below.
func buildSimpleFunction() *Function {
	f := NewFunction("f")
	f.ReturnType = Unit()
	x := f.AddLocal(&LocalDecl{Name: "x", Type: Int(32, true), Kind: LocalKindLocal})
	b := &BasicBlock{ID: 0}
	b.Statements = []Statement{Assign(NewPlace(x), UseOf(ConstOf(ConstValue{Type: Int(32, true), Value: int64(1)})))}
	b.Terminator = Return()
	f.AddBlock(b)
	f.EntryBlock = 0
	return f
}

func TestValidateWellFormedFunctionHasNoDiagnostics(t *testing.T) {
	f := buildSimpleFunction()
	bag := Validate(f)
	if len(bag.Items()) != 0 {
		t.Fatalf("Validate on well-formed function returned %d diagnostics: %v", len(bag.Items()), bag.Items())
	}
}

func TestValidateCatchesUnknownBlockReference(t *testing.T) {
	f := buildSimpleFunction()
	f.Blocks[0].Terminator = GotoTo(99)
	bag := Validate(f)
	if len(bag.Items()) == 0 {
		t.Fatal("Validate should flag a goto to an unknown block")
	}
}

func TestValidateCatchesUnknownLocalReference(t *testing.T) {
	f := buildSimpleFunction()
	f.Blocks[0].Statements = append(f.Blocks[0].Statements, Statement{Kind: StmtStorageLive, Local: 42})
	bag := Validate(f)
	if len(bag.Items()) == 0 {
		t.Fatal("Validate should flag a reference to an unknown local")
	}
}

func TestValidateCatchesUnresolvedPendingOperand(t *testing.T) {
	f := buildSimpleFunction()
	f.Blocks[0].Statements = []Statement{{Kind: StmtExpression, Expr: PendingOf("unresolved-call")}}
	bag := Validate(f)
	if len(bag.Items()) == 0 {
		t.Fatal("Validate should flag an unresolved Pending operand reaching the back end")
	}
}

func TestValidateImmutableAssignmentTwiceFlagged(t *testing.T) {
	f := NewFunction("g")
	f.ReturnType = Unit()
	x := f.AddLocal(&LocalDecl{Name: "x", Type: Int(32, true), Kind: LocalKindLocal, Mutable: false})
	b := &BasicBlock{ID: 0}
	one := UseOf(ConstOf(ConstValue{Type: Int(32, true), Value: int64(1)}))
	two := UseOf(ConstOf(ConstValue{Type: Int(32, true), Value: int64(2)}))
	b.Statements = []Statement{Assign(NewPlace(x), one), Assign(NewPlace(x), two)}
	b.Terminator = Return()
	f.AddBlock(b)

	bag := Validate(f)
	found := false
	for _, d := range bag.Items() {
		if d.Kind == "ImmutableAssignment" {
			found = true
		}
	}
	if !found {
		t.Fatal("Validate should flag a second assignment to an immutable local (I3)")
	}
}

func TestValidateAllowsMultipleAssignmentToMutableLocal(t *testing.T) {
	f := NewFunction("g")
	f.ReturnType = Unit()
	x := f.AddLocal(&LocalDecl{Name: "x", Type: Int(32, true), Kind: LocalKindLocal, Mutable: true})
	b := &BasicBlock{ID: 0}
	one := UseOf(ConstOf(ConstValue{Type: Int(32, true), Value: int64(1)}))
	two := UseOf(ConstOf(ConstValue{Type: Int(32, true), Value: int64(2)}))
	b.Statements = []Statement{Assign(NewPlace(x), one), Assign(NewPlace(x), two)}
	b.Terminator = Return()
	f.AddBlock(b)

	bag := Validate(f)
	for _, d := range bag.Items() {
		if d.Kind == "ImmutableAssignment" {
			t.Fatalf("mutable local reassigned twice should not be flagged, got %v", d)
		}
	}
}

func TestPlaceIsPrefixOf(t *testing.T) {
	a := NewPlace(1)
	af := a.WithField(0)
	if !a.IsPrefixOf(af) {
		t.Error("a should be a prefix of a.f")
	}
	if af.IsPrefixOf(a) {
		t.Error("a.f should not be a prefix of a")
	}
	other := NewPlace(2)
	if a.IsPrefixOf(other) {
		t.Error("places on different locals should never be prefixes")
	}
}
