// Package config reads the CHIC_* environment variables the driver and
// core subsystems consult (spec.md §6 "Environment variables").
//
// Grounded on the teacher's cmd/run/main.go, which reads its own runtime
// toggles with flat os.Getenv calls rather than a config-file library;
// this package keeps that idiom and just centralizes the variable names.
package config

import (
	"os"
	"strconv"
)

// Env holds every CHIC_* toggle the driver and core subsystems read,
// snapshotted once at process start.
type Env struct {
	SkipStdlib bool

	AsyncStdlibOverride   string
	StartupStdlibOverride string
	LintConfig            string

	RunEntry bool

	DebugAsyncReady bool
	DebugWasmExec   bool
	DebugWasmMMIO   bool
	ProfileAutoTrace bool

	EnableCodegenExec bool
	EnableCodegenPerf bool
}

// FromEnviron reads the process environment. Safe to call more than once;
// each call takes a fresh snapshot (tests override os.Setenv per case).
func FromEnviron() Env {
	return Env{
		SkipStdlib: boolEnv("CHIC_SKIP_STDLIB"),

		AsyncStdlibOverride:   os.Getenv("CHIC_ASYNC_STDLIB_OVERRIDE"),
		StartupStdlibOverride: os.Getenv("CHIC_STARTUP_STDLIB_OVERRIDE"),
		LintConfig:            os.Getenv("CHIC_LINT_CONFIG"),

		RunEntry: boolEnv("CHIC_RUN_ENTRY"),

		DebugAsyncReady:  boolEnv("CHIC_DEBUG_ASYNC_READY"),
		DebugWasmExec:    boolEnv("CHIC_DEBUG_WASM_EXEC"),
		DebugWasmMMIO:    boolEnv("CHIC_DEBUG_WASM_MMIO"),
		ProfileAutoTrace: boolEnv("CHIC_PROFILE_AUTO_TRACE"),

		EnableCodegenExec: boolEnv("CHIC_ENABLE_CODEGEN_EXEC"),
		EnableCodegenPerf: boolEnv("CHIC_ENABLE_CODEGEN_PERF"),
	}
}

// boolEnv treats any of "1"/"true"/"yes" (case-sensitive match on "1" is
// the documented form, the others are accepted for convenience) as set.
func boolEnv(name string) bool {
	v := os.Getenv(name)
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v == "yes"
}

// StdlibInputs returns the source paths the driver should feed the
// lowerer ahead of user sources, honoring CHIC_SKIP_STDLIB and the two
// override variables. An empty slice with SkipStdlib false and no
// overrides means "use the driver's compiled-in default stdlib paths",
// which this package does not know about (frontend concern); callers
// check SkipStdlib first.
func (e Env) StdlibInputs(defaultAsync, defaultStartup string) []string {
	if e.SkipStdlib {
		return nil
	}
	async := defaultAsync
	if e.AsyncStdlibOverride != "" {
		async = e.AsyncStdlibOverride
	}
	startup := defaultStartup
	if e.StartupStdlibOverride != "" {
		startup = e.StartupStdlibOverride
	}
	var out []string
	if async != "" {
		out = append(out, async)
	}
	if startup != "" {
		out = append(out, startup)
	}
	return out
}
