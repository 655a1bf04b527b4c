// Package cheader emits a C header for `chic header` (spec.md §6) by
// walking a TypeLayoutTable's struct/enum/union layouts and a function
// signature list, reusing the same sret/by-pointer ABI decisions
// internal/driver's needsSret rule makes so the header and the compiled
// object agree on calling convention.
//
// Grounded on internal/codegen/llvm's MapType: the same Ty-to-scalar
// mapping rules, retargeted from LLVM type strings to C type spellings.
package cheader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chic-lang/chicc/internal/mir"
)

// CType renders a MIR Ty as a C type spelling; aggregates map to a
// pointer to the generated struct/enum/union tag, matching the
// emitters' by-pointer aggregate passing.
func CType(t *mir.Ty) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case mir.TyUnit:
		return "void"
	case mir.TyBool:
		return "bool"
	case mir.TyInt:
		prefix := "int"
		if !t.IntSigned {
			prefix = "uint"
		}
		return fmt.Sprintf("%s%d_t", prefix, t.IntWidth)
	case mir.TyFloat:
		if t.FloatW == mir.F32 {
			return "float"
		}
		return "double"
	case mir.TyChar:
		return "uint32_t"
	case mir.TyStr, mir.TyString:
		return "chic_str_t"
	case mir.TyPointer, mir.TyRef, mir.TyRc, mir.TyArc:
		return CType(t.Elem) + "*"
	case mir.TyNullable:
		return CType(t.Elem) // nullable scalars are represented inline; pointers are already nullable in C
	case mir.TyNamed:
		return "struct " + cIdent(t.Name) + "*"
	default:
		return "void*"
	}
}

func cIdent(name string) string {
	return strings.NewReplacer(".", "_", "<", "_", ">", "_", ",", "_").Replace(name)
}

// FuncSig is one exported function's C prototype source.
type FuncSig struct {
	Name       string
	ParamTypes []*mir.Ty
	ReturnType *mir.Ty
	Sret       bool
}

// Emit writes a self-contained C header: a fixed prelude (stdint/stdbool
// and the chic_str_t string-handle typedef every emitted module's ABI
// uses), then one struct/enum tag per registered layout, then one
// prototype per function.
func Emit(layouts *mir.TypeLayoutTable, funcs []FuncSig, guardName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guardName, guardName)
	b.WriteString("#include <stdint.h>\n#include <stdbool.h>\n\n")
	b.WriteString("typedef struct { int64_t handle; } chic_str_t;\n\n")

	names := layouts.Names()
	sort.Strings(names)
	for _, name := range names {
		layout, ok := layouts.Lookup(name)
		if !ok {
			continue
		}
		emitLayout(&b, name, layout)
	}

	for _, f := range funcs {
		emitPrototype(&b, f)
	}

	fmt.Fprintf(&b, "\n#endif /* %s */\n", guardName)
	return b.String()
}

func emitLayout(b *strings.Builder, name string, layout *mir.TypeLayout) {
	tag := cIdent(name)
	switch layout.Kind {
	case mir.LayoutStruct, mir.LayoutClass:
		fmt.Fprintf(b, "struct %s {\n", tag)
		for _, f := range layout.Struct.Fields {
			fmt.Fprintf(b, "    %s %s;\n", CType(f.Type), f.Name)
		}
		for i, s := range layout.Struct.PositionalSlots {
			fmt.Fprintf(b, "    %s _%d;\n", CType(s), i)
		}
		b.WriteString("};\n\n")
	case mir.LayoutEnum:
		fmt.Fprintf(b, "enum %s_tag {\n", tag)
		for _, v := range layout.Enum.Variants {
			fmt.Fprintf(b, "    %s_%s = %d,\n", tag, cIdent(v.Name), v.Discriminant)
		}
		b.WriteString("};\n\n")
		fmt.Fprintf(b, "struct %s {\n    enum %s_tag tag;\n    union {\n", tag, tag)
		for _, v := range layout.Enum.Variants {
			if len(v.PayloadFields) == 0 {
				continue
			}
			fmt.Fprintf(b, "        struct {\n")
			for i, p := range v.PayloadFields {
				field := fmt.Sprintf("_%d", i)
				if i < len(v.FieldNames) && v.FieldNames[i] != "" {
					field = v.FieldNames[i]
				}
				fmt.Fprintf(b, "            %s %s;\n", CType(p), field)
			}
			fmt.Fprintf(b, "        } %s;\n", cIdent(v.Name))
		}
		b.WriteString("    } payload;\n};\n\n")
	case mir.LayoutUnion:
		fmt.Fprintf(b, "union %s {\n", tag)
		for _, v := range layout.Union.Views {
			fmt.Fprintf(b, "    %s %s;\n", CType(v.Type), cIdent(v.Name))
		}
		b.WriteString("};\n\n")
	}
}

func emitPrototype(b *strings.Builder, f FuncSig) {
	ret := "void"
	var params []string
	if f.Sret {
		params = append(params, CType(f.ReturnType)+" out")
	} else {
		ret = CType(f.ReturnType)
	}
	for i, p := range f.ParamTypes {
		params = append(params, fmt.Sprintf("%s arg%d", CType(p), i))
	}
	if len(params) == 0 {
		params = append(params, "void")
	}
	fmt.Fprintf(b, "%s %s(%s);\n", ret, cIdent(f.Name), strings.Join(params, ", "))
}
