// Package pattern compiles spec.md §4.4 match arms into MIR terminators:
// the SwitchInt fast path for simple dispatch, vtable-set computation for
// type tests, and guard synthesis plus binding-path extraction for
// structural and list patterns.
//
// Grounded on internal/mir's Pattern/MatchArm data model (itself grounded
// on malphas-lang's mir package) and on the async suspend-point lowering
// style of vovakirdan/surge's async_lowering_single.go for the
// "synthesize a guard expression, then re-lower" pattern.
package pattern

import "github.com/chic-lang/chicc/internal/mir"

// CanSimpleDispatch reports whether every arm is wildcard/binding or an
// integer/char literal with no guard (spec.md §4.4 "Simple dispatch").
func CanSimpleDispatch(arms []mir.MatchArm) bool {
	for _, a := range arms {
		if a.Guard != nil {
			return false
		}
		if a.Pattern == nil || !a.Pattern.IsSimpleDispatchable() {
			return false
		}
		if a.Pattern.Kind == mir.PatBinding && a.Pattern.BindingSub != nil {
			return false
		}
	}
	return true
}

// CompileSwitch lowers a simple-dispatch arm list into a SwitchInt
// terminator. The caller must have verified CanSimpleDispatch first.
// The first wildcard/binding arm encountered becomes the otherwise target;
// every preceding literal arm becomes a SwitchTarget.
func CompileSwitch(scrutinee mir.Operand, arms []mir.MatchArm) mir.Terminator {
	t := mir.Terminator{Kind: mir.TermSwitchInt, SwitchDiscr: scrutinee}
	for _, a := range arms {
		if a.Pattern.Kind == mir.PatLiteral {
			t.SwitchTargets = append(t.SwitchTargets, mir.SwitchTarget{
				Value: literalAsInt64(a.Pattern.LiteralValue),
				Block: a.Target,
			})
			continue
		}
		// First wildcard/binding arm terminates the scan: it is the
		// otherwise target, and any arms after it are unreachable by
		// construction (the lowerer should have already rejected that).
		t.SwitchOtherwise = a.Target
		break
	}
	return t
}

func literalAsInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}

// TypeTestVTableSet computes the set of vtable symbols that satisfy a
// Pattern::Type(ty) test: the transitive closure of every class whose
// bases chain reaches ty's name, plus ty's own vtable symbol
// (spec.md §4.4 "matching a base class also matches derived classes").
// When ty names the exception base, the set is every class whose layout
// is IsError instead.
func TypeTestVTableSet(layouts *mir.TypeLayoutTable, ty *mir.Ty, exceptionBaseName string) []string {
	name := ty.CanonicalName()
	if ty.Kind == mir.TyNamed {
		name = ty.Name
	}

	if name == exceptionBaseName {
		var out []string
		for _, n := range layouts.Names() {
			l, ok := layouts.Lookup(n)
			if !ok || l.Kind != mir.LayoutClass || l.Struct == nil {
				continue
			}
			if l.Struct.IsError && l.Struct.VTableSymbol != "" {
				out = append(out, l.Struct.VTableSymbol)
			}
		}
		return out
	}

	derives := func(className string) bool {
		seen := map[string]bool{}
		var walk func(string) bool
		walk = func(cur string) bool {
			if cur == name {
				return true
			}
			if seen[cur] {
				return false
			}
			seen[cur] = true
			l, ok := layouts.Lookup(cur)
			if !ok || l.Struct == nil {
				return false
			}
			for _, base := range l.Struct.Bases {
				if walk(base) {
					return true
				}
			}
			return false
		}
		return walk(className)
	}

	var out []string
	for _, n := range layouts.Names() {
		l, ok := layouts.Lookup(n)
		if !ok || l.Kind != mir.LayoutClass || l.Struct == nil {
			continue
		}
		if derives(l.Struct.Name) && l.Struct.VTableSymbol != "" {
			out = append(out, l.Struct.VTableSymbol)
		}
	}
	return out
}

// ListGuardOp is the comparison operator synthesized for a list pattern's
// length guard (spec.md §4.4).
type ListGuardOp int

const (
	ListLenEq ListGuardOp = iota
	ListLenGe
)

// ListLengthGuard returns the operator and minimum length a list pattern
// requires: an exact-length guard when there is no open slice, else a
// minimum-length guard (prefix+suffix count).
func ListLengthGuard(p *mir.Pattern) (ListGuardOp, int) {
	n := len(p.Prefix) + len(p.Suffix)
	if p.Slice == nil {
		return ListLenEq, n
	}
	return ListLenGe, n
}

// NormalizeLiteral rewrites a literal pattern's width/signedness to match
// the scrutinee type when they conflict (spec.md §4.4 "literal
// normalization"). No-op for non-integer scrutinees or patterns.
func NormalizeLiteral(p *mir.Pattern, scrutinee *mir.Ty) {
	if p == nil || p.Kind != mir.PatLiteral || scrutinee == nil || scrutinee.Kind != mir.TyInt {
		return
	}
	if p.LiteralWidth == scrutinee.IntWidth && p.LiteralSigned == scrutinee.IntSigned {
		return
	}
	p.LiteralWidth = scrutinee.IntWidth
	p.LiteralSigned = scrutinee.IntSigned
	p.LiteralHasMeta = true
}

// Bindings is a thin re-export point: structural/list pattern lowering
// extracts bindings by walking the pattern (spec.md §4.4); the walk itself
// is mir.Pattern.CollectBindings.
func Bindings(p *mir.Pattern) []mir.Binding { return p.CollectBindings() }
