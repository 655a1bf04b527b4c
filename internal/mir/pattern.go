package mir

// PatternKind tags the variant of a Pattern (spec.md §4.4).
type PatternKind int

const (
	PatWildcard PatternKind = iota
	PatBinding
	PatLiteral
	PatTuple
	PatStruct
	PatEnumVariant
	PatType
	PatList
)

// VariantPayloadShape distinguishes unit/tuple/struct enum-variant patterns.
type VariantPayloadShape int

const (
	VariantUnit VariantPayloadShape = iota
	VariantTuple
	VariantStruct
)

// Pattern is spec.md §4.4's MatchArm pattern sum type.
type Pattern struct {
	Kind PatternKind
	Type *Ty // scrutinee type, filled in by the lowerer for literal normalization

	// PatBinding
	BindingName string
	BindingSub  *Pattern // e.g. `x @ Some(y)`-style sub-pattern, nil if absent

	// PatLiteral
	LiteralValue  any
	LiteralWidth  int
	LiteralSigned bool
	LiteralHasMeta bool

	// PatTuple / PatStruct / PatEnumVariant (tuple/struct shaped) / PatList prefix+suffix
	Elems      []*Pattern
	FieldNames []string // PatStruct: parallel to Elems

	// PatEnumVariant
	VariantName  string
	VariantShape VariantPayloadShape

	// PatType
	TypeTest *Ty

	// PatList
	Prefix  []*Pattern
	Slice   *Pattern // nil if no binding for the middle slice
	Suffix  []*Pattern
}

// Bindings walks the pattern and returns every binding name with the
// projection path (relative to the match scrutinee) that extracts it,
// per spec.md §4.4 "extract bindings by walking the pattern".
type Binding struct {
	Name string
	Path []ProjElem
}

func (p *Pattern) CollectBindings() []Binding {
	var out []Binding
	var walk func(pat *Pattern, path []ProjElem)
	walk = func(pat *Pattern, path []ProjElem) {
		if pat == nil {
			return
		}
		switch pat.Kind {
		case PatBinding:
			cp := append([]ProjElem{}, path...)
			out = append(out, Binding{Name: pat.BindingName, Path: cp})
			walk(pat.BindingSub, path)
		case PatTuple:
			for i, e := range pat.Elems {
				walk(e, append(path, ProjElem{Kind: ProjField, FieldIndex: i}))
			}
		case PatStruct:
			for i, e := range pat.Elems {
				walk(e, append(path, ProjElem{Kind: ProjFieldNamed, FieldName: pat.FieldNames[i]}))
			}
		case PatEnumVariant:
			downcast := ProjElem{Kind: ProjDowncast, DowncastVariant: pat.VariantName}
			for i, e := range pat.Elems {
				var proj ProjElem
				if pat.VariantShape == VariantStruct {
					proj = ProjElem{Kind: ProjFieldNamed, FieldName: pat.FieldNames[i]}
				} else {
					proj = ProjElem{Kind: ProjField, FieldIndex: i}
				}
				walk(e, append(append(append([]ProjElem{}, path...), downcast), proj))
			}
		case PatList:
			for i, e := range pat.Prefix {
				walk(e, append(path, ProjElem{Kind: ProjConstantIndex, ConstOffset: uint64(i)}))
			}
			if pat.Slice != nil {
				walk(pat.Slice, append(path, ProjElem{Kind: ProjSubslice, SubsliceFrom: uint64(len(pat.Prefix)), SubsliceTo: uint64(len(pat.Suffix))}))
			}
			for i, e := range pat.Suffix {
				walk(e, append(path, ProjElem{Kind: ProjConstantIndex, ConstOffset: uint64(i), ConstFromEnd: true}))
			}
		}
	}
	walk(p, nil)
	return out
}

// IsRefutable reports whether a pattern can fail to match (anything but a
// bare wildcard/binding).
func (p *Pattern) IsRefutable() bool {
	return p.Kind != PatWildcard && p.Kind != PatBinding
}

// IsSimpleDispatchable reports whether a pattern is eligible for the
// SwitchInt fast path (spec.md §4.4): wildcard/binding or integer/char
// literal, with no nested structure.
func (p *Pattern) IsSimpleDispatchable() bool {
	switch p.Kind {
	case PatWildcard, PatBinding:
		return true
	case PatLiteral:
		switch p.LiteralValue.(type) {
		case int64, int32, int:
			return true
		default:
			return false
		}
	default:
		return false
	}
}
