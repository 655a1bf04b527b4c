// Package frontend declares the contract boundary spec.md §1 draws
// between this repository's core (MIR onward) and the surface parser,
// name resolution, and type checker, which spec.md §1 "OUT OF SCOPE"
// explicitly assigns to an external collaborator: "only the contracts
// they must satisfy toward the core are specified".
//
// This package is that contract: a Loader takes source paths and an
// entry-point selector and hands back typed MIR ready for
// internal/borrow, internal/dropelab, and the two code generators. No
// implementation ships here; cmd/chic is wired against whatever Loader a
// build configures, with ErrNotImplemented as the zero-value default so
// the CLI's flag/exit-code/archive plumbing (spec.md §6) is exercised and
// testable independently of a concrete frontend.
package frontend

import (
	"context"
	"errors"

	"github.com/chic-lang/chicc/internal/mir"
)

// ErrNotImplemented is returned by the NullLoader; a real build replaces
// the Loader passed to the driver with one backed by an actual parser.
var ErrNotImplemented = errors.New("frontend: no parser/resolver/type-checker wired into this build")

// Options carries the handful of frontend-affecting settings the CLI
// surface (spec.md §6) exposes: which stdlib inputs to prepend, and the
// lint config path to honor while resolving attributes.
type Options struct {
	StdlibInputs []string
	LintConfig   string
}

// Loader lowers a set of source file paths into a MIR Module. Spec.md §6's
// attribute surface (@mmio, @register, @trace, @cost, @pin) is expected to
// already be reflected in the returned layouts/locals by the time Load
// returns; the core never parses attributes itself.
type Loader interface {
	Load(ctx context.Context, sources []string, opts Options) (*mir.Module, error)
}

// NullLoader is the zero-value Loader: it always fails with
// ErrNotImplemented, letting the driver's non-frontend plumbing (flag
// parsing, env wiring, exit codes, archive writing) be built and tested
// ahead of a real frontend landing in this repository.
type NullLoader struct{}

func (NullLoader) Load(ctx context.Context, sources []string, opts Options) (*mir.Module, error) {
	return nil, ErrNotImplemented
}
