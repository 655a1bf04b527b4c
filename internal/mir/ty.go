// Package mir implements the typed mid-level intermediate representation
// (spec.md §3) and the TypeLayoutTable (spec.md §4.1). Shape is grounded on
// malphas-lang's internal/mir package (Function/BasicBlock/Local/Operand/
// Rvalue as Go sum-type-by-interface trees) generalized to the full type and
// statement surface spec.md §3 requires (ownership, nullability, MMIO, async).
package mir

import (
	"fmt"
	"strings"

	"github.com/dchest/siphash"
)

// TyKind tags the variant of a Ty.
type TyKind int

const (
	TyUnit TyKind = iota
	TyBool
	TyInt
	TyFloat
	TyDecimal
	TyChar
	TyStr
	TyString
	TyTuple
	TyArray
	TySpan
	TyReadOnlySpan
	TyVec
	TyPointer
	TyRef
	TyRc
	TyArc
	TyNullable
	TyFn
	TyNamed
	TyUnknown
)

// FloatWidth enumerates the supported float widths (spec.md §3).
type FloatWidth int

const (
	F16 FloatWidth = iota
	F32
	F64
	F128
)

// FnTy describes a function type's signature for Ty{Kind: TyFn}.
type FnTy struct {
	Params  []*Ty
	Result  *Ty
	Variadic bool
}

// Ty is the tagged variant type from spec.md §3. Every Ty has a canonical
// textual name (CanonicalName) used as the key into the TypeLayoutTable —
// this is invariant (I-Ty) relied on throughout the compiler.
type Ty struct {
	Kind TyKind

	// TyInt
	IntWidth    int // 8,16,32,64,128
	IntSigned   bool

	// TyFloat
	FloatW FloatWidth

	// TyTuple
	Elems []*Ty

	// TyArray / TySpan / TyReadOnlySpan / TyVec / TyPointer / TyRef / TyRc / TyArc / TyNullable
	Elem    *Ty
	Len     int64 // TyArray fixed length, -1 if dynamic
	Mutable bool  // TyPointer/TyRef mutability

	// TyFn
	Fn *FnTy

	// TyNamed
	Name        string
	GenericArgs []*Ty

	canon string
}

func Unit() *Ty  { return &Ty{Kind: TyUnit} }
func Bool() *Ty  { return &Ty{Kind: TyBool} }
func Char() *Ty  { return &Ty{Kind: TyChar} }
func Str() *Ty   { return &Ty{Kind: TyStr} }
func Strng() *Ty { return &Ty{Kind: TyString} }
func Unknown() *Ty { return &Ty{Kind: TyUnknown} }

func Int(width int, signed bool) *Ty {
	return &Ty{Kind: TyInt, IntWidth: width, IntSigned: signed}
}

func Float(w FloatWidth) *Ty { return &Ty{Kind: TyFloat, FloatW: w} }

func Decimal() *Ty { return &Ty{Kind: TyDecimal} }

func TupleOf(elems ...*Ty) *Ty { return &Ty{Kind: TyTuple, Elems: elems} }

func ArrayOf(elem *Ty, length int64) *Ty { return &Ty{Kind: TyArray, Elem: elem, Len: length} }

func SpanOf(elem *Ty, readonly bool) *Ty {
	if readonly {
		return &Ty{Kind: TyReadOnlySpan, Elem: elem}
	}
	return &Ty{Kind: TySpan, Elem: elem}
}

func VecOf(elem *Ty) *Ty { return &Ty{Kind: TyVec, Elem: elem} }

func PointerTo(elem *Ty, mutable bool) *Ty {
	return &Ty{Kind: TyPointer, Elem: elem, Mutable: mutable}
}

func RefTo(elem *Ty, mutable bool) *Ty {
	return &Ty{Kind: TyRef, Elem: elem, Mutable: mutable}
}

func RcOf(elem *Ty) *Ty  { return &Ty{Kind: TyRc, Elem: elem} }
func ArcOf(elem *Ty) *Ty { return &Ty{Kind: TyArc, Elem: elem} }

func NullableOf(inner *Ty) *Ty { return &Ty{Kind: TyNullable, Elem: inner} }

func FnTyOf(fn *FnTy) *Ty { return &Ty{Kind: TyFn, Fn: fn} }

func Named(name string, args ...*Ty) *Ty { return &Ty{Kind: TyNamed, Name: name, GenericArgs: args} }

// CanonicalName computes (and caches) the canonical textual name used as
// the TypeLayoutTable key (invariant in spec.md §3).
func (t *Ty) CanonicalName() string {
	if t == nil {
		return "<nil>"
	}
	if t.canon != "" {
		return t.canon
	}
	t.canon = t.computeCanonical()
	return t.canon
}

func (t *Ty) computeCanonical() string {
	switch t.Kind {
	case TyUnit:
		return "unit"
	case TyBool:
		return "bool"
	case TyInt:
		sign := "i"
		if !t.IntSigned {
			sign = "u"
		}
		return fmt.Sprintf("%s%d", sign, t.IntWidth)
	case TyFloat:
		names := [...]string{"f16", "f32", "f64", "f128"}
		return names[t.FloatW]
	case TyDecimal:
		return "decimal"
	case TyChar:
		return "char"
	case TyStr:
		return "str"
	case TyString:
		return "string"
	case TyTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.CanonicalName()
		}
		return "(" + strings.Join(parts, ",") + ")"
	case TyArray:
		if t.Len >= 0 {
			return fmt.Sprintf("[%s;%d]", t.Elem.CanonicalName(), t.Len)
		}
		return fmt.Sprintf("[%s]", t.Elem.CanonicalName())
	case TySpan:
		return "Span<" + t.Elem.CanonicalName() + ">"
	case TyReadOnlySpan:
		return "ReadOnlySpan<" + t.Elem.CanonicalName() + ">"
	case TyVec:
		return "Vec<" + t.Elem.CanonicalName() + ">"
	case TyPointer:
		m := ""
		if t.Mutable {
			m = "mut "
		}
		return "*" + m + t.Elem.CanonicalName()
	case TyRef:
		m := ""
		if t.Mutable {
			m = "mut "
		}
		return "&" + m + t.Elem.CanonicalName()
	case TyRc:
		return "Rc<" + t.Elem.CanonicalName() + ">"
	case TyArc:
		return "Arc<" + t.Elem.CanonicalName() + ">"
	case TyNullable:
		return t.Elem.CanonicalName() + "?"
	case TyFn:
		parts := make([]string, len(t.Fn.Params))
		for i, p := range t.Fn.Params {
			parts[i] = p.CanonicalName()
		}
		ret := "unit"
		if t.Fn.Result != nil {
			ret = t.Fn.Result.CanonicalName()
		}
		return "fn(" + strings.Join(parts, ",") + ")->" + ret
	case TyNamed:
		if len(t.GenericArgs) == 0 {
			return t.Name
		}
		parts := make([]string, len(t.GenericArgs))
		for i, a := range t.GenericArgs {
			parts[i] = a.CanonicalName()
		}
		return t.Name + "<" + strings.Join(parts, ",") + ">"
	case TyUnknown:
		return "<unknown>"
	}
	return "<invalid>"
}

// NameHash returns a stable SipHash-2-4 of the canonical name; the LLVM
// emitter uses it as a thrown exception's type id (spec.md §11 domain-stack
// note on siphash).
func (t *Ty) NameHash(k0, k1 uint64) uint64 {
	return siphash.Hash(k0, k1, []byte(t.CanonicalName()))
}

// IsPrimitive reports whether t is a scalar with no TypeLayoutTable entry.
func (t *Ty) IsPrimitive() bool {
	switch t.Kind {
	case TyUnit, TyBool, TyInt, TyFloat, TyDecimal, TyChar:
		return true
	default:
		return false
	}
}

// IsPointerDepthPositive reports whether t is a raw pointer or reference,
// which per spec.md §4.1 never requires drop regardless of pointee.
func (t *Ty) IsPointerDepthPositive() bool {
	return t.Kind == TyPointer || t.Kind == TyRef
}
