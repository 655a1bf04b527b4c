package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/chic-lang/chicc/internal/config"
	"github.com/chic-lang/chicc/internal/driver"
	"github.com/chic-lang/chicc/internal/frontend"
	"github.com/chic-lang/chicc/internal/wasmexec"
)

// runRun implements `chic run`: compile then execute under the watchdog
// timeout, mapping the guest outcome to the exit codes spec.md §6 fixes
// (0 ok, 1 failure, 124 timeout, 3 executor-internal error).
func runRun(ctx context.Context, args []string, env config.Env, log *zap.Logger) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	backend := fs.String("backend", "wasm", "llvm|wasm")
	timeoutMs := fs.Int64("run-timeout", 0, "milliseconds before the run is killed (0 = no timeout)")
	logFormat := fs.String("log-format", "text", "text|json")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	sources := fs.Args()
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "chic run: no source files given")
		return 1
	}

	b, err := driver.ParseBackend(*backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chic run: %v\n", err)
		return 1
	}
	if b != driver.BackendWasm {
		fmt.Fprintln(os.Stderr, "chic run: only --backend wasm is directly executable; use `chic build --backend llvm` and an external linker for the LLVM path")
		return 1
	}

	mod, err := loader.Load(ctx, sources, frontend.Options{
		StdlibInputs: env.StdlibInputs("", ""),
		LintConfig:   env.LintConfig,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "chic run: %v\n", err)
		return 1
	}

	res := driver.Compile(mod, driver.Options{Backend: b, Log: log})
	if res.Diagnostics.HasErrors() {
		printDiagnostics(res)
		return 1
	}
	if !env.RunEntry {
		fmt.Fprintln(os.Stderr, "chic run: set CHIC_RUN_ENTRY=1 to execute Main")
		return 1
	}

	runCtx := ctx
	if *timeoutMs > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(*timeoutMs)*time.Millisecond)
		defer cancel()
	}

	exec, err := wasmexec.New(runCtx, wasmexec.Options{Log: log, Stdout: os.Stdout, Stderr: os.Stderr})
	if err != nil {
		fmt.Fprintf(os.Stderr, "chic run: %v\n", err)
		return wasmexec.ExitInternal
	}
	defer exec.Close(runCtx)

	result, err := exec.RunModule(runCtx, "main", res.WasmBinary, "Main")
	if runCtx.Err() != nil {
		fmt.Fprintln(os.Stderr, "chic run: timed out")
		return wasmexec.ExitTimeout
	}
	code := wasmexec.ExitCodeFor(result, err)
	if *logFormat == "json" {
		emitJSONResult(result, err, code)
	}
	return code
}

func emitJSONResult(result wasmexec.Result, err error, code int) {
	trap := ""
	if result.Trap != nil {
		trap = result.Trap.Error()
	} else if err != nil {
		trap = err.Error()
	}
	fmt.Printf("{\"exit_code\":%d,\"trap\":%q}\n", code, trap)
}
