package main

import (
	"testing"

	"github.com/chic-lang/chicc/internal/driver"
	"github.com/chic-lang/chicc/internal/mir"
)

func TestDefaultOutputName(t *testing.T) {
	cases := []struct {
		source   string
		backend  driver.Backend
		emitLib  bool
		want     string
	}{
		{"main.chic", driver.BackendWasm, false, "main.wasm"},
		{"main.chic", driver.BackendLLVM, false, "main.ll"},
		{"main.chic", driver.BackendWasm, true, "main.clrlib"},
		{"src/pkg/main.chic", driver.BackendWasm, false, "main.wasm"},
	}
	for _, c := range cases {
		if got := defaultOutputName(c.source, c.backend, c.emitLib, ""); got != c.want {
			t.Errorf("defaultOutputName(%q, %v, %v) = %q, want %q", c.source, c.backend, c.emitLib, got, c.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	if got := baseName("src/pkg/main.chic"); got != "main.chic" {
		t.Errorf("baseName(nested path) = %q, want main.chic", got)
	}
	if got := baseName("main.chic"); got != "main.chic" {
		t.Errorf("baseName(bare name) = %q, want main.chic", got)
	}
}

func TestNeedsSret(t *testing.T) {
	if needsSret(nil) {
		t.Error("needsSret(nil) should be false")
	}
	if needsSret(mir.Int(32, true)) {
		t.Error("a scalar int return should not need sret")
	}
	if !needsSret(mir.Named("Point")) {
		t.Error("a named aggregate return should need sret")
	}
}

func TestTestFunctionNamesFiltersByPrefix(t *testing.T) {
	order := []string{"test_addition", "helper", "test_division", "main"}
	got := testFunctionNames(order)
	want := []string{"test_addition", "test_division"}
	if len(got) != len(want) {
		t.Fatalf("testFunctionNames(%v) = %v, want %v", order, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("testFunctionNames(%v)[%d] = %q, want %q", order, i, got[i], want[i])
		}
	}
}

func TestTestFunctionNamesEmptyWhenNoneMatch(t *testing.T) {
	if got := testFunctionNames([]string{"helper", "main"}); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}
