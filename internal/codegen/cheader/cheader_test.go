package cheader

import (
	"strings"
	"testing"

	"github.com/chic-lang/chicc/internal/mir"
)

func TestCTypeScalars(t *testing.T) {
	cases := []struct {
		ty   *mir.Ty
		want string
	}{
		{mir.Unit(), "void"},
		{mir.Bool(), "bool"},
		{mir.Int(32, true), "int32_t"},
		{mir.Int(8, false), "uint8_t"},
		{mir.Float(mir.F32), "float"},
		{mir.Float(mir.F64), "double"},
		{mir.Char(), "uint32_t"},
		{mir.Str(), "chic_str_t"},
		{mir.PointerTo(mir.Int(32, true), true), "int32_t*"},
		{mir.NullableOf(mir.Int(32, true)), "int32_t"},
		{nil, "void"},
	}
	for _, c := range cases {
		if got := CType(c.ty); got != c.want {
			t.Errorf("CType(%+v) = %q, want %q", c.ty, got, c.want)
		}
	}
}

func TestCTypeNamedIsPointerToTag(t *testing.T) {
	got := CType(mir.Named("my.Point"))
	if got != "struct my_Point*" {
		t.Errorf("CType(Named(my.Point)) = %q, want %q", got, "struct my_Point*")
	}
}

func TestEmitStructLayout(t *testing.T) {
	layouts := mir.NewTypeLayoutTable()
	layouts.Register("Point", &mir.TypeLayout{Kind: mir.LayoutStruct, Struct: &mir.StructLayout{
		Name: "Point",
		Fields: []mir.StructField{
			{Name: "x", Index: 0, Type: mir.Int(32, true)},
			{Name: "y", Index: 1, Type: mir.Int(32, true)},
		},
	}})

	out := Emit(layouts, nil, "POINT_H")
	if !strings.Contains(out, "#ifndef POINT_H") || !strings.Contains(out, "#endif /* POINT_H */") {
		t.Fatalf("expected an include guard named POINT_H, got:\n%s", out)
	}
	if !strings.Contains(out, "struct Point {") {
		t.Fatalf("expected a Point struct tag, got:\n%s", out)
	}
	if !strings.Contains(out, "int32_t x;") || !strings.Contains(out, "int32_t y;") {
		t.Fatalf("expected both x and y fields, got:\n%s", out)
	}
}

func TestEmitEnumLayout(t *testing.T) {
	layouts := mir.NewTypeLayoutTable()
	layouts.Register("Opt", &mir.TypeLayout{Kind: mir.LayoutEnum, Enum: &mir.EnumLayout{
		Name: "Opt",
		Variants: []mir.EnumVariant{
			{Name: "None", Discriminant: 0},
			{Name: "Some", Discriminant: 1, PayloadFields: []*mir.Ty{mir.Int(32, true)}, FieldNames: []string{"value"}},
		},
	}})

	out := Emit(layouts, nil, "OPT_H")
	if !strings.Contains(out, "Opt_None = 0") || !strings.Contains(out, "Opt_Some = 1") {
		t.Fatalf("expected both discriminants in the tag enum, got:\n%s", out)
	}
	if !strings.Contains(out, "int32_t value;") {
		t.Fatalf("expected the Some variant's payload field, got:\n%s", out)
	}
}

func TestEmitFunctionPrototypeSretVsDirect(t *testing.T) {
	layouts := mir.NewTypeLayoutTable()
	funcs := []FuncSig{
		{Name: "addOne", ParamTypes: []*mir.Ty{mir.Int(32, true)}, ReturnType: mir.Int(32, true), Sret: false},
		{Name: "makePoint", ReturnType: mir.Named("Point"), Sret: true},
	}
	out := Emit(layouts, funcs, "H")
	if !strings.Contains(out, "int32_t addOne(int32_t arg0);") {
		t.Fatalf("expected a direct-return prototype for addOne, got:\n%s", out)
	}
	if !strings.Contains(out, "void makePoint(struct Point* out);") {
		t.Fatalf("expected an sret prototype for makePoint, got:\n%s", out)
	}
}

func TestEmitNoArgFunctionTakesVoid(t *testing.T) {
	out := Emit(mir.NewTypeLayoutTable(), []FuncSig{{Name: "tick", ReturnType: mir.Unit()}}, "H")
	if !strings.Contains(out, "void tick(void);") {
		t.Fatalf("expected tick(void), got:\n%s", out)
	}
}
