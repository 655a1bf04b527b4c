// Command chic is the compiler driver's external interface (spec.md §6):
// build/run/test/header subcommands over the MIR->borrow check->drop
// lowering->pattern compile->codegen pipeline in internal/driver.
//
// Grounded on the teacher's cmd/run/main.go: flag-based subcommand
// dispatch read directly off os.Args rather than a cobra/spf13 command
// tree, matching the teacher's "flag.Parse, not a framework" idiom.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/chic-lang/chicc/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chic: logger init failed: %v\n", err)
		os.Exit(3)
	}
	defer log.Sync()

	env := config.FromEnviron()
	ctx := context.Background()

	cmd, args := os.Args[1], os.Args[2:]
	var code int
	switch cmd {
	case "build":
		code = runBuild(ctx, args, env, log)
	case "run":
		code = runRun(ctx, args, env, log)
	case "test":
		code = runTest(ctx, args, env, log)
	case "header":
		code = runHeader(ctx, args, env, log)
	case "-h", "--help", "help":
		usage()
		code = 0
	default:
		fmt.Fprintf(os.Stderr, "chic: unknown command %q\n", cmd)
		usage()
		code = 1
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: chic <command> [arguments]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  build <sources>... [--backend llvm|wasm] [--crate-type bin|lib] [--emit-lib] [-o <path>]")
	fmt.Fprintln(os.Stderr, "  run   <sources>... [--backend ...] [--run-timeout ms] [--log-format text|json]")
	fmt.Fprintln(os.Stderr, "  test  <sources>... [--backend ...] [--watchdog-timeout ms]")
	fmt.Fprintln(os.Stderr, "  header <source> [-o <path>]")
}

// newLogger mirrors the teacher's engine/logger.go default: a console
// encoder at info level unless CHIC_DEBUG_* env toggles request more.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	if os.Getenv("CHIC_DEBUG_WASM_EXEC") != "" || os.Getenv("CHIC_DEBUG_WASM_MMIO") != "" || os.Getenv("CHIC_DEBUG_ASYNC_READY") != "" {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
