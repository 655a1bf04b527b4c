// Package diag provides the structured diagnostic type shared by the
// BorrowChecker, DropLowering, pattern compiler, and both code generators.
//
// Shape is grounded on the teacher's errors package (Phase/Kind/Builder),
// generalized here: Phase tracks which pass raised the diagnostic and Kind
// is the fixed vocabulary from the specification's error-handling design.
package diag

import (
	"fmt"
	"strings"
)

// Phase indicates which compiler pass raised the diagnostic.
type Phase string

const (
	PhaseBorrowCheck Phase = "borrowck"
	PhaseDropElab    Phase = "dropelab"
	PhasePattern     Phase = "pattern"
	PhaseCodegenLLVM Phase = "codegen_llvm"
	PhaseCodegenWasm Phase = "codegen_wasm"
	PhaseExecutor    Phase = "executor"
	PhaseMIR         Phase = "mir"
)

// Kind enumerates the diagnostic kinds from spec.md §7. Code generation
// errors use KindCodegen with Detail carrying the free-form message for
// malformed MIR that should never have reached an emitter.
type Kind string

const (
	KindUseOfUninit            Kind = "UseOfUninit"
	KindMoveWhileBorrowed      Kind = "MoveWhileBorrowed"
	KindMoveOfParam            Kind = "MoveOfParam"
	KindMoveOfPinned           Kind = "MoveOfPinned"
	KindMoveBreaksViewDep      Kind = "MoveBreaksViewDependency"
	KindImmutableAssignment    Kind = "ImmutableAssignment"
	KindBorrowConflict         Kind = "BorrowConflict"
	KindNullAssignment         Kind = "NullAssignment"
	KindMaybeNullAssignment    Kind = "MaybeNullAssignment"
	KindNullUse                Kind = "NullUse"
	KindMaybeNullUse           Kind = "MaybeNullUse"
	KindUnionInactive          Kind = "UnionInactive"
	KindUnionViewMismatch      Kind = "UnionViewMismatch"
	KindUnionReadonly          Kind = "UnionReadonly"
	KindOutNotAssigned         Kind = "OutNotAssigned"
	KindCodegen                Kind = "Codegen"
)

// Severity distinguishes hard errors (which block emission, per spec §7)
// from warnings (Unknown null-state dereferences, etc.) that are merely
// reported.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is a single borrow-check/codegen finding.
type Diagnostic struct {
	Phase    Phase
	Kind     Kind
	Severity Severity
	Func     string   // enclosing MIR function name, if any
	Local    string   // local/place name involved, if any
	Path     []string // dependency/projection path, for view and struct diagnostics
	Detail   string
	Cause    error
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(d.Phase))
	b.WriteString("] ")
	b.WriteString(string(d.Kind))
	if d.Func != "" {
		b.WriteString(" in ")
		b.WriteString(d.Func)
	}
	if d.Local != "" {
		b.WriteString(": ")
		b.WriteString(d.Local)
	}
	if len(d.Path) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(d.Path, "."))
		b.WriteByte(')')
	}
	if d.Detail != "" {
		b.WriteString(" - ")
		b.WriteString(d.Detail)
	}
	if d.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(d.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (d *Diagnostic) Unwrap() error { return d.Cause }

func (d *Diagnostic) Is(target error) bool {
	t, ok := target.(*Diagnostic)
	if !ok {
		return false
	}
	return d.Phase == t.Phase && d.Kind == t.Kind
}

func (d *Diagnostic) IsError() bool { return d.Severity == SeverityError }

// New builds an error-severity diagnostic.
func New(phase Phase, kind Kind, detail string, args ...any) *Diagnostic {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Diagnostic{Phase: phase, Kind: kind, Severity: SeverityError, Detail: detail}
}

// Warn builds a warning-severity diagnostic (e.g. MaybeNullUse).
func Warn(phase Phase, kind Kind, detail string, args ...any) *Diagnostic {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Diagnostic{Phase: phase, Kind: kind, Severity: SeverityWarning, Detail: detail}
}

// Codegen builds a Codegen-kind diagnostic for malformed MIR reaching an
// emitter (Pending* nodes, unresolved terminators from partial parses).
func Codegen(phase Phase, detail string, args ...any) *Diagnostic {
	return New(phase, KindCodegen, detail, args...)
}

// Bag collects diagnostics across a pass instead of aborting on the first
// one, matching the "collect diagnostics rather than aborting" policy of
// spec.md §7.
type Bag struct {
	items []*Diagnostic
}

func (b *Bag) Add(d *Diagnostic) { b.items = append(b.items, d) }

func (b *Bag) Items() []*Diagnostic { return b.items }

// HasErrors reports whether any collected diagnostic is error-severity.
// The driver refuses to emit when this is true (spec.md §7).
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.IsError() {
			return true
		}
	}
	return false
}

func (b *Bag) Errors() []*Diagnostic {
	var out []*Diagnostic
	for _, d := range b.items {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// Err combines every error-severity diagnostic into a single error using
// multierr, so the driver can propagate a bag as one error value without
// losing any individual diagnostic.
func (b *Bag) Err() error {
	errs := b.Errors()
	if len(errs) == 0 {
		return nil
	}
	combined := make([]error, len(errs))
	for i, e := range errs {
		combined[i] = e
	}
	return combineErrors(combined)
}
