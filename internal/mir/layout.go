package mir

import (
	"strings"

	"golang.org/x/exp/maps"
)

// LayoutKind tags the variant of a TypeLayout.
type LayoutKind int

const (
	LayoutStruct LayoutKind = iota
	LayoutClass
	LayoutEnum
	LayoutUnion
)

// FieldMode distinguishes readonly union views from mutable ones
// (spec.md §3 UnionLayout).
type FieldMode int

const (
	FieldReadOnly FieldMode = iota
	FieldMutable
)

// MmioRegisterSpec carries an @register(...) attribute's offset/width/access
// (spec.md §6 attribute surface) for a struct field that is a memory-mapped
// register.
type MmioRegisterSpec struct {
	Offset uint64
	Width  int // bits: 8,16,32,64
	Access string // "ro" | "wo" | "rw"
}

// StructField is one ordered named field of a StructLayout.
type StructField struct {
	Name     string
	Index    int
	Type     *Ty
	Offset   *uint64 // nil when not yet computed / MMIO-relative
	Register *MmioRegisterSpec
	ViewOf   string // non-empty when this field is a view over another owning field
	Nullable bool
	ReadOnly bool
}

// StructLayout is spec.md §3's StructLayout (also used, with VTable set, for
// classes per spec's "StructLayout ... a reference to a VTable symbol
// (classes)").
type StructLayout struct {
	Name           string
	Fields         []StructField  // ordered named fields
	PositionalSlots []*Ty          // positional (tuple-like) slots
	Dispose        string          // dispose callback symbol, empty if none
	AutoTraits     map[string]bool // trait name -> present, with explicit overrides
	VTableSymbol   string          // classes only
	Bases          []string        // class base names, for type-test closure (spec.md §4.4)
	IsClass        bool
	IsError        bool // true for exception-hierarchy classes (spec.md §4.4 "exception base")
}

func (s *StructLayout) FieldByName(name string) (*StructField, bool) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// HasTrait reports whether trait is present, honoring explicit overrides
// over the auto-derived default (false if absent from the map at all).
func (s *StructLayout) HasTrait(trait string) bool {
	v, ok := s.AutoTraits[trait]
	return ok && v
}

// EnumVariant is one variant of an EnumLayout.
type EnumVariant struct {
	Name          string
	Discriminant  int64
	PayloadFields []*Ty  // tuple-style payload; empty for unit variants
	FieldNames    []string // struct-style payload field names, parallel to PayloadFields
}

type EnumLayout struct {
	Name     string
	Variants []EnumVariant
}

func (e *EnumLayout) VariantByName(name string) (*EnumVariant, int, bool) {
	for i := range e.Variants {
		if e.Variants[i].Name == name {
			return &e.Variants[i], i, true
		}
	}
	return nil, -1, false
}

// UnionView is one named view of a UnionLayout, i.e. one interpretation of
// the union's shared storage.
type UnionView struct {
	Name  string
	Index int
	Type  *Ty
	Mode  FieldMode
}

type UnionLayout struct {
	Name  string
	Views []UnionView
}

func (u *UnionLayout) ViewByIndex(idx int) (*UnionView, bool) {
	for i := range u.Views {
		if u.Views[i].Index == idx {
			return &u.Views[i], true
		}
	}
	return nil, false
}

// TypeLayout is the tagged variant stored per canonical type name.
type TypeLayout struct {
	Kind   LayoutKind
	Struct *StructLayout
	Enum   *EnumLayout
	Union  *UnionLayout

	Size  uint64
	Align uint64
}

// TypeLayoutTable maps canonical type names to their layout, with
// short-name disambiguation (spec.md §4.1).
type TypeLayoutTable struct {
	byCanonical map[string]*TypeLayout
	byShort     map[string][]string // short name -> list of canonical names sharing it
}

func NewTypeLayoutTable() *TypeLayoutTable {
	return &TypeLayoutTable{
		byCanonical: make(map[string]*TypeLayout),
		byShort:     make(map[string][]string),
	}
}

func shortName(canonical string) string {
	if i := strings.IndexByte(canonical, '<'); i >= 0 {
		canonical = canonical[:i]
	}
	if i := strings.LastIndexByte(canonical, '.'); i >= 0 {
		canonical = canonical[i+1:]
	}
	return canonical
}

// Register adds or replaces the layout for a canonical type name.
func (t *TypeLayoutTable) Register(canonical string, layout *TypeLayout) {
	t.byCanonical[canonical] = layout
	sn := shortName(canonical)
	for _, existing := range t.byShort[sn] {
		if existing == canonical {
			return
		}
	}
	t.byShort[sn] = append(t.byShort[sn], canonical)
}

// Lookup resolves a canonical type name to its layout.
func (t *TypeLayoutTable) Lookup(canonical string) (*TypeLayout, bool) {
	l, ok := t.byCanonical[canonical]
	return l, ok
}

// LookupShort resolves a bare (unqualified, non-generic) name, returning
// ambiguous=true when more than one canonical name shares the short name
// (spec.md §4.1 "layout lookup including short-name disambiguation").
func (t *TypeLayoutTable) LookupShort(short string) (layout *TypeLayout, ambiguous bool, ok bool) {
	candidates := t.byShort[short]
	if len(candidates) == 0 {
		return nil, false, false
	}
	if len(candidates) > 1 {
		return nil, true, false
	}
	l := t.byCanonical[candidates[0]]
	return l, false, l != nil
}

// LookupForTy resolves the layout for a Ty by its canonical name.
func (t *TypeLayoutTable) LookupForTy(ty *Ty) (*TypeLayout, bool) {
	return t.Lookup(ty.CanonicalName())
}

// FieldOffset returns the byte offset of a named field in a struct/class
// layout, if known.
func (t *TypeLayoutTable) FieldOffset(canonical, field string) (uint64, bool) {
	l, ok := t.byCanonical[canonical]
	if !ok || l.Struct == nil {
		return 0, false
	}
	f, ok := l.Struct.FieldByName(field)
	if !ok || f.Offset == nil {
		return 0, false
	}
	return *f.Offset, true
}

// SizeOf / AlignOf return the size/alignment of a named type, 0 if unknown.
func (t *TypeLayoutTable) SizeOf(canonical string) uint64 {
	if l, ok := t.byCanonical[canonical]; ok {
		return l.Size
	}
	return 0
}

func (t *TypeLayoutTable) AlignOf(canonical string) uint64 {
	if l, ok := t.byCanonical[canonical]; ok {
		return l.Align
	}
	return 0
}

// Names returns every registered canonical name via maps.Keys, in
// unspecified map order; callers that need a reproducible order sort it.
func (t *TypeLayoutTable) Names() []string {
	return maps.Keys(t.byCanonical)
}

// TyRequiresDrop implements spec.md §4.1's ty_requires_drop: true when the
// type owns resources (has dispose), carries any field that itself requires
// drop, or is a generic named type whose layout is unknown (conservative
// true). Primitives and pointer-depth>0 named types never require drop.
// MaybeUninit<T> is special-cased: it requires drop (of itself only; the
// elaborator never recurses into its payload, spec.md §4.1/§4.3).
func (t *TypeLayoutTable) TyRequiresDrop(ty *Ty) bool {
	if ty == nil {
		return false
	}
	if ty.IsPrimitive() || ty.IsPointerDepthPositive() {
		return false
	}
	switch ty.Kind {
	case TyStr:
		return false
	case TyString, TyVec, TySpan, TyReadOnlySpan:
		return true
	case TyRc, TyArc:
		return true
	case TyNullable:
		return t.TyRequiresDrop(ty.Elem)
	case TyTuple:
		for _, e := range ty.Elems {
			if t.TyRequiresDrop(e) {
				return true
			}
		}
		return false
	case TyArray:
		return t.TyRequiresDrop(ty.Elem)
	case TyNamed:
		if ty.Name == "MaybeUninit" {
			return true
		}
		layout, ok := t.LookupForTy(ty)
		if !ok {
			// Unknown user-defined type: conservative true (spec.md §4.1).
			return true
		}
		switch layout.Kind {
		case LayoutStruct, LayoutClass:
			if layout.Struct.Dispose != "" {
				return true
			}
			for _, f := range layout.Struct.Fields {
				if t.TyRequiresDrop(f.Type) {
					return true
				}
			}
			for _, s := range layout.Struct.PositionalSlots {
				if t.TyRequiresDrop(s) {
					return true
				}
			}
			return false
		case LayoutEnum:
			for _, v := range layout.Enum.Variants {
				for _, p := range v.PayloadFields {
					if t.TyRequiresDrop(p) {
						return true
					}
				}
			}
			return false
		case LayoutUnion:
			// Unions never auto-drop their payload; only an explicit
			// dispose on the union type itself would require it, and
			// UnionLayout carries no dispose field by construction.
			return false
		}
	}
	return false
}
