package config

import "testing"

func TestFromEnvironDefaults(t *testing.T) {
	e := FromEnviron()
	if e.SkipStdlib || e.RunEntry || e.DebugAsyncReady {
		t.Fatalf("expected all toggles unset by default, got %+v", e)
	}
}

func TestFromEnvironParsesToggles(t *testing.T) {
	t.Setenv("CHIC_SKIP_STDLIB", "1")
	t.Setenv("CHIC_RUN_ENTRY", "1")
	t.Setenv("CHIC_ASYNC_STDLIB_OVERRIDE", "/tmp/async.chic")

	e := FromEnviron()
	if !e.SkipStdlib {
		t.Error("SkipStdlib should be true")
	}
	if !e.RunEntry {
		t.Error("RunEntry should be true")
	}
	if e.AsyncStdlibOverride != "/tmp/async.chic" {
		t.Errorf("AsyncStdlibOverride = %q", e.AsyncStdlibOverride)
	}
}

func TestStdlibInputsSkipped(t *testing.T) {
	e := Env{SkipStdlib: true}
	if got := e.StdlibInputs("a", "b"); got != nil {
		t.Fatalf("expected nil inputs when SkipStdlib, got %v", got)
	}
}

func TestStdlibInputsOverride(t *testing.T) {
	e := Env{AsyncStdlibOverride: "custom_async.chic"}
	got := e.StdlibInputs("default_async.chic", "default_startup.chic")
	if len(got) != 2 || got[0] != "custom_async.chic" || got[1] != "default_startup.chic" {
		t.Fatalf("StdlibInputs = %v", got)
	}
}
