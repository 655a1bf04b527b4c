// Package llvm emits LLVM textual IR from MIR (spec.md §4.5).
//
// Grounded on malphas-lang's internal/codegen/mir2llvm generator: a single
// Generator struct holding a register counter and an output buffer, with
// nextReg()/emit() as the two primitives every lowering rule builds on.
package llvm

import (
	"fmt"

	"github.com/chic-lang/chicc/internal/mir"
)

// MapType renders a MIR Ty as an LLVM type string.
func MapType(t *mir.Ty) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case mir.TyUnit:
		return "void"
	case mir.TyBool:
		return "i1"
	case mir.TyInt:
		return fmt.Sprintf("i%d", t.IntWidth)
	case mir.TyFloat:
		switch t.FloatW {
		case mir.F16:
			return "half"
		case mir.F32:
			return "float"
		case mir.F64:
			return "double"
		default:
			return "fp128"
		}
	case mir.TyChar:
		return "i32"
	case mir.TyDecimal:
		return "i128"
	case mir.TyStr, mir.TyString:
		return "%chic.str"
	case mir.TyPointer, mir.TyRef, mir.TyRc, mir.TyArc:
		return MapType(t.Elem) + "*"
	case mir.TySpan, mir.TyReadOnlySpan, mir.TyVec:
		return "%chic.slice"
	case mir.TyArray:
		return fmt.Sprintf("[%d x %s]", t.Len, MapType(t.Elem))
	case mir.TyTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = MapType(e)
		}
		out := "{"
		for i, p := range parts {
			if i > 0 {
				out += ", "
			}
			out += p
		}
		return out + "}"
	case mir.TyNullable:
		return MapType(t.Elem) + "*"
	case mir.TyNamed:
		return "%" + t.Name
	case mir.TyFn:
		return "void*"
	default:
		return "i8*"
	}
}

// ZeroValue renders the LLVM zero/default literal for t, used by the
// Throw lowering's return (spec.md §4.5).
func ZeroValue(t *mir.Ty) string {
	if t == nil || t.Kind == mir.TyUnit {
		return ""
	}
	if t.Kind == mir.TyFloat {
		return "0.0"
	}
	if t.Kind == mir.TyBool || t.Kind == mir.TyInt || t.Kind == mir.TyChar {
		return "0"
	}
	return "zeroinitializer"
}
