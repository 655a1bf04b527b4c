package mir

import "testing"

func TestTypeLayoutTableShortNameDisambiguation(t *testing.T) {
	table := NewTypeLayoutTable()
	table.Register("pkg.Point", &TypeLayout{Kind: LayoutStruct, Struct: &StructLayout{Name: "Point"}})

	if _, ambiguous, ok := table.LookupShort("Point"); ambiguous || !ok {
		t.Fatalf("LookupShort(Point) = ambiguous:%v ok:%v, want ok", ambiguous, ok)
	}

	table.Register("other.Point", &TypeLayout{Kind: LayoutStruct, Struct: &StructLayout{Name: "Point"}})
	if _, ambiguous, ok := table.LookupShort("Point"); !ambiguous || ok {
		t.Fatalf("LookupShort(Point) after second registration = ambiguous:%v ok:%v, want ambiguous", ambiguous, ok)
	}
}

func TestFieldOffset(t *testing.T) {
	off := uint64(8)
	table := NewTypeLayoutTable()
	table.Register("Foo", &TypeLayout{
		Kind: LayoutStruct,
		Struct: &StructLayout{
			Name:   "Foo",
			Fields: []StructField{{Name: "x", Index: 0, Offset: &off}},
		},
	})
	got, ok := table.FieldOffset("Foo", "x")
	if !ok || got != 8 {
		t.Fatalf("FieldOffset = (%d, %v), want (8, true)", got, ok)
	}
	if _, ok := table.FieldOffset("Foo", "missing"); ok {
		t.Fatal("FieldOffset(missing) should fail")
	}
}

func TestTyRequiresDropPrimitivesAndPointers(t *testing.T) {
	table := NewTypeLayoutTable()
	cases := []*Ty{Int(32, true), Bool(), Float(F64), Str(), PointerTo(Named("Owns"), false), RefTo(Named("Owns"), true)}
	for _, ty := range cases {
		if table.TyRequiresDrop(ty) {
			t.Errorf("TyRequiresDrop(%s) = true, want false", ty.CanonicalName())
		}
	}
}

func TestTyRequiresDropUnknownNamedIsConservativeTrue(t *testing.T) {
	table := NewTypeLayoutTable()
	if !table.TyRequiresDrop(Named("Mystery")) {
		t.Error("TyRequiresDrop on an unregistered named type should conservatively be true")
	}
}

func TestTyRequiresDropStructWithDispose(t *testing.T) {
	table := NewTypeLayoutTable()
	table.Register("Resource", &TypeLayout{
		Kind:   LayoutStruct,
		Struct: &StructLayout{Name: "Resource", Dispose: "Resource_dispose"},
	})
	if !table.TyRequiresDrop(Named("Resource")) {
		t.Error("a struct with a dispose callback should require drop")
	}
}

func TestTyRequiresDropStructWithDroppableField(t *testing.T) {
	table := NewTypeLayoutTable()
	table.Register("Inner", &TypeLayout{Kind: LayoutStruct, Struct: &StructLayout{Name: "Inner", Dispose: "Inner_dispose"}})
	table.Register("Outer", &TypeLayout{
		Kind: LayoutStruct,
		Struct: &StructLayout{
			Name:   "Outer",
			Fields: []StructField{{Name: "inner", Index: 0, Type: Named("Inner")}},
		},
	})
	if !table.TyRequiresDrop(Named("Outer")) {
		t.Error("Outer embeds a droppable field, should require drop")
	}
}

func TestTyRequiresDropStructWithoutDisposeOrDroppableFields(t *testing.T) {
	table := NewTypeLayoutTable()
	table.Register("Plain", &TypeLayout{
		Kind: LayoutStruct,
		Struct: &StructLayout{
			Name:   "Plain",
			Fields: []StructField{{Name: "x", Index: 0, Type: Int(32, true)}},
		},
	})
	if table.TyRequiresDrop(Named("Plain")) {
		t.Error("Plain has no dispose and no droppable fields, should not require drop")
	}
}

func TestTyRequiresDropMaybeUninitShortCircuits(t *testing.T) {
	table := NewTypeLayoutTable()
	// MaybeUninit<T> requires drop of itself only, regardless of payload,
	// and must not recurse into an unregistered (conservatively-true)
	// payload type to reach that answer via the generic path instead.
	ty := Named("MaybeUninit", Named("Unregistered"))
	if !table.TyRequiresDrop(ty) {
		t.Error("MaybeUninit<T> should require drop")
	}
}

func TestTyRequiresDropUnionNeverAutoDrops(t *testing.T) {
	table := NewTypeLayoutTable()
	table.Register("U", &TypeLayout{
		Kind: LayoutUnion,
		Union: &UnionLayout{
			Name:  "U",
			Views: []UnionView{{Name: "asInt", Index: 0, Type: Named("Resource")}},
		},
	})
	if table.TyRequiresDrop(Named("U")) {
		t.Error("unions never auto-drop their payload")
	}
}

func TestTyRequiresDropNullableDelegatesToElem(t *testing.T) {
	table := NewTypeLayoutTable()
	table.Register("Resource", &TypeLayout{Kind: LayoutStruct, Struct: &StructLayout{Name: "Resource", Dispose: "d"}})
	if !table.TyRequiresDrop(NullableOf(Named("Resource"))) {
		t.Error("Nullable<Resource> should require drop when Resource does")
	}
	if table.TyRequiresDrop(NullableOf(Int(32, true))) {
		t.Error("Nullable<i32> should not require drop")
	}
}

func TestHasTraitExplicitOverride(t *testing.T) {
	sl := &StructLayout{AutoTraits: map[string]bool{"Copy": false, "Send": true}}
	if sl.HasTrait("Copy") {
		t.Error("explicit override should suppress the trait")
	}
	if !sl.HasTrait("Send") {
		t.Error("explicit override should grant the trait")
	}
	if sl.HasTrait("Unknown") {
		t.Error("absent trait should default false")
	}
}
