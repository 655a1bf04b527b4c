package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/chic-lang/chicc/internal/config"
	"github.com/chic-lang/chicc/internal/driver"
	"github.com/chic-lang/chicc/internal/frontend"
	"github.com/chic-lang/chicc/internal/wasmexec"
)

// testOutcome is one `test_`-prefixed function's result; spec.md §7 fixes
// the three lines a test run prints: "[PASS] <name>", "[FAIL] <name> --
// <reason>", "[SKIP] <name>".
type testOutcome struct {
	name   string
	status string // "PASS", "FAIL", "SKIP"
	reason string
}

func runTest(ctx context.Context, args []string, env config.Env, log *zap.Logger) int {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	backend := fs.String("backend", "wasm", "llvm|wasm")
	watchdogMs := fs.Int64("watchdog-timeout", 5000, "milliseconds before a single test is considered hung")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	sources := fs.Args()
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "chic test: no source files given")
		return 1
	}

	b, err := driver.ParseBackend(*backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chic test: %v\n", err)
		return 1
	}

	mod, err := loader.Load(ctx, sources, frontend.Options{
		StdlibInputs: env.StdlibInputs("", ""),
		LintConfig:   env.LintConfig,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "chic test: %v\n", err)
		return 1
	}

	res := driver.Compile(mod, driver.Options{Backend: b, Log: log})
	if res.Diagnostics.HasErrors() {
		printDiagnostics(res)
		return 1
	}

	names := testFunctionNames(res.FuncOrder)
	if len(names) == 0 {
		fmt.Println("no test_ functions found")
		return 0
	}

	exec, err := wasmexec.New(ctx, wasmexec.Options{Log: log, Stdout: os.Stdout, Stderr: os.Stderr})
	if err != nil {
		fmt.Fprintf(os.Stderr, "chic test: %v\n", err)
		return wasmexec.ExitInternal
	}
	defer exec.Close(ctx)

	watchdog := time.Duration(*watchdogMs) * time.Millisecond
	outcomes := runOutcomes(ctx, exec, res.WasmBinary, names, watchdog)

	if term.IsTerminal(int(os.Stdout.Fd())) {
		renderInteractive(outcomes)
	} else {
		renderPlain(outcomes)
	}

	for _, o := range outcomes {
		if o.status == "FAIL" {
			return wasmexec.ExitFailure
		}
	}
	return wasmexec.ExitOK
}

// testFunctionNames filters the compiled function order down to the
// test_-prefixed convention chic test dispatches; non-prefixed functions
// (helpers the tests call) are skipped, matching "[SKIP]" only applying
// to genuinely disabled tests, not ordinary code.
func testFunctionNames(order []string) []string {
	var out []string
	for _, n := range order {
		if strings.HasPrefix(n, "test_") {
			out = append(out, n)
		}
	}
	return out
}

func runOutcomes(ctx context.Context, exec *wasmexec.Executor, wasmBinary []byte, names []string, watchdog time.Duration) []testOutcome {
	outcomes := make([]testOutcome, 0, len(names))
	for _, name := range names {
		runCtx := ctx
		var cancel context.CancelFunc
		if watchdog > 0 {
			runCtx, cancel = context.WithTimeout(ctx, watchdog)
		}
		result, err := exec.RunModule(runCtx, "test", wasmBinary, name)
		if cancel != nil {
			cancel()
		}
		switch {
		case runCtx.Err() != nil:
			outcomes = append(outcomes, testOutcome{name: name, status: "FAIL", reason: "watchdog timeout"})
		case err != nil:
			outcomes = append(outcomes, testOutcome{name: name, status: "FAIL", reason: err.Error()})
		case result.Trap != nil:
			outcomes = append(outcomes, testOutcome{name: name, status: "FAIL", reason: result.Trap.Error()})
		case len(result.Values) > 0 && result.Values[0] != 0:
			outcomes = append(outcomes, testOutcome{name: name, status: "FAIL", reason: fmt.Sprintf("exit %d", result.Values[0])})
		default:
			outcomes = append(outcomes, testOutcome{name: name, status: "PASS"})
		}
	}
	return outcomes
}

func renderPlain(outcomes []testOutcome) {
	for _, o := range outcomes {
		switch o.status {
		case "PASS":
			fmt.Printf("[PASS] %s\n", o.name)
		case "FAIL":
			fmt.Printf("[FAIL] %s -- %s\n", o.name, o.reason)
		default:
			fmt.Printf("[SKIP] %s\n", o.name)
		}
	}
}

func renderInteractive(outcomes []testOutcome) {
	p := tea.NewProgram(newTestListModel(outcomes))
	if _, err := p.Run(); err != nil {
		renderPlain(outcomes)
	}
}
