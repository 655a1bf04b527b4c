package llvm

import (
	"strings"
	"testing"

	"github.com/chic-lang/chicc/internal/mir"
)

// S3: match n { 0 => A, 1 => B, _ => C } must lower to a single LLVM
// switch, never a chain of icmp instructions (spec.md §8 S3).
func TestMatchLowersToSwitchNotIcmpChain(t *testing.T) {
	f := mir.NewFunction("classify")
	f.ReturnType = mir.Unit()
	n := f.AddLocal(&mir.LocalDecl{Name: "n", Type: mir.Int(32, true), Kind: mir.LocalKindParameter, ParamMode: mir.ParamOwned})
	f.Params = []mir.LocalID{n}

	entry := &mir.BasicBlock{ID: 0}
	entry.Terminator = mir.Terminator{
		Kind:       mir.TermMatch,
		MatchValue: mir.CopyOf(mir.NewPlace(n)),
		MatchArms: []mir.MatchArm{
			{Pattern: &mir.Pattern{Kind: mir.PatLiteral, LiteralValue: int64(0)}, Target: 1},
			{Pattern: &mir.Pattern{Kind: mir.PatLiteral, LiteralValue: int64(1)}, Target: 2},
			{Pattern: &mir.Pattern{Kind: mir.PatWildcard}, Target: 3},
		},
		MatchOtherwise: 3,
	}
	f.AddBlock(entry)
	for _, id := range []mir.BlockID{1, 2, 3} {
		b := &mir.BasicBlock{ID: id}
		b.Terminator = mir.Return()
		f.AddBlock(b)
	}

	g := NewGenerator(mir.NewTypeLayoutTable(), "chic.Error")
	g.Function(f, false)
	out := g.Output()

	if !strings.Contains(out, "switch i32") {
		t.Fatalf("expected a single `switch i32`, got:\n%s", out)
	}
	if strings.Contains(out, "icmp") {
		t.Fatalf("a simple-dispatchable match must not emit icmp chains, got:\n%s", out)
	}
	if got := strings.Count(out, "switch "); got != 1 {
		t.Fatalf("expected exactly 1 switch instruction, got %d:\n%s", got, out)
	}
}

// TestMatchFallsBackToVTableChainForTypeTests verifies the type-test arm
// path still uses icmp/or reductions against the layout's vtable symbols
// (spec.md §4.4/§4.5 "type-test vtable chain").
func TestMatchFallsBackToVTableChainForTypeTests(t *testing.T) {
	layouts := mir.NewTypeLayoutTable()
	layouts.Register("Shape", &mir.TypeLayout{Kind: mir.LayoutClass, Struct: &mir.StructLayout{Name: "Shape", IsClass: true, VTableSymbol: "vt_Shape"}})

	f := mir.NewFunction("describe")
	f.ReturnType = mir.Unit()
	v := f.AddLocal(&mir.LocalDecl{Name: "v", Type: mir.Named("Shape"), Kind: mir.LocalKindParameter, ParamMode: mir.ParamOwned})
	f.Params = []mir.LocalID{v}

	entry := &mir.BasicBlock{ID: 0}
	entry.Terminator = mir.Terminator{
		Kind:       mir.TermMatch,
		MatchValue: mir.CopyOf(mir.NewPlace(v)),
		MatchArms: []mir.MatchArm{
			{Pattern: &mir.Pattern{Kind: mir.PatType, TypeTest: mir.Named("Shape")}, Target: 1},
		},
		MatchOtherwise: 2,
	}
	f.AddBlock(entry)
	for _, id := range []mir.BlockID{1, 2} {
		b := &mir.BasicBlock{ID: id}
		b.Terminator = mir.Return()
		f.AddBlock(b)
	}

	g := NewGenerator(layouts, "chic.Error")
	g.Function(f, false)
	out := g.Output()
	if !strings.Contains(out, "icmp eq ptr") {
		t.Fatalf("a type-test arm should emit an icmp against the vtable pointer, got:\n%s", out)
	}
}

// S4: an async function with zero suspend points returns an already-ready,
// already-completed Task (spec.md §8 S4 "Flags == READY | COMPLETED").
func TestReturnSynthesizesReadyTaskForZeroSuspendAsync(t *testing.T) {
	f := mir.NewFunction("compute")
	f.IsAsync = true
	resultLocal := f.AddLocal(&mir.LocalDecl{Name: "result", Type: mir.Int(32, true), Kind: mir.LocalKindLocal})
	f.Async = &mir.AsyncStateMachine{
		SuspendPoints: nil,
		ResultLocal:   resultLocal,
		ResultType:    mir.Int(32, true),
		VTableSymbol:  "vt_compute_task",
	}
	f.ReturnType = mir.Int(32, true)

	b := &mir.BasicBlock{ID: 0}
	b.Terminator = mir.Return()
	f.AddBlock(b)

	g := NewGenerator(mir.NewTypeLayoutTable(), "chic.Error")
	g.Function(f, false)
	out := g.Output()

	if !strings.Contains(out, "@vt_compute_task") {
		t.Fatalf("ready-task synthesis should store the async function's vtable symbol, got:\n%s", out)
	}
	wantFlags := FlagReady | FlagCompleted
	if wantFlags != 3 {
		t.Fatalf("sanity: FlagReady|FlagCompleted should be 3, got %d", wantFlags)
	}
	if !strings.Contains(out, "or i32 %cancelled.masked, 3") {
		t.Fatalf("expected Flags to be set to READY|COMPLETED (3), got:\n%s", out)
	}
	if !strings.Contains(out, "store i1 1") {
		t.Fatalf("ready-task synthesis should mark Completed, got:\n%s", out)
	}
}

func TestReturnOrdinaryFunctionSkipsReadyTaskSynthesis(t *testing.T) {
	f := mir.NewFunction("plain")
	f.ReturnType = mir.Int(32, true)
	rl := f.AddLocal(&mir.LocalDecl{Name: "retval", Type: mir.Int(32, true), Kind: mir.LocalKindReturn})
	f.ReturnLocal = rl

	b := &mir.BasicBlock{ID: 0}
	b.Terminator = mir.Return()
	f.AddBlock(b)

	g := NewGenerator(mir.NewTypeLayoutTable(), "chic.Error")
	g.Function(f, false)
	out := g.Output()
	if strings.Contains(out, "READY|COMPLETED") || strings.Contains(out, "task.slot") {
		t.Fatalf("a non-async function must not go through ready-task synthesis, got:\n%s", out)
	}
	if !strings.Contains(out, "ret i32") {
		t.Fatalf("expected a plain `ret i32`, got:\n%s", out)
	}
}
