package wasmexec

import (
	"context"
	"fmt"
	"io"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
)

// Exit codes the CLI driver maps onto process exit status: 0 success, 1
// a reported test/program failure, 124 a timeout, 3 an executor-internal
// error (module failed to instantiate, trap outside guest control).
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitTimeout = 124
	ExitInternal = 3
)

// Executor is the `chic run` / `chic test` backend: one wazero runtime
// per process, with the env/chic_rt/chic_rt_mmio host modules bound once
// and a fresh guest instance per module executed.
//
// Grounded on wippyai-wasm-runtime's runtime.Runtime (engine + host
// registry pair), with the WIT component-model loader dropped since this
// executor targets the emitter's flat core-wasm output directly.
type Executor struct {
	log     *zap.Logger
	runtime wazero.Runtime
	hosts   *hostRegistry
	strings *StringHeap
	mmio    *MmioHost
	bound   bool
}

type Options struct {
	Log    *zap.Logger
	Stdout io.Writer
	Stderr io.Writer
}

func New(ctx context.Context, opts Options) (*Executor, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	rt := wazero.NewRuntime(ctx)

	heap := NewStringHeap()
	mmio := NewMmioHost(log)
	hosts := newHostRegistry(log)
	hosts.register(NewEnvHost(log, opts.Stdout, opts.Stderr))
	hosts.register(NewChicRTHost(log, heap))
	hosts.register(mmio)

	return &Executor{log: log, runtime: rt, hosts: hosts, strings: heap, mmio: mmio}, nil
}

func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

func (e *Executor) ensureBound(ctx context.Context) error {
	if e.bound {
		return nil
	}
	if err := e.hosts.bind(ctx, e.runtime); err != nil {
		return fmt.Errorf("bind host modules: %w", err)
	}
	e.bound = true
	return nil
}

// Result is one exported-function invocation's outcome.
type Result struct {
	Values []uint64
	Trap   error
}

// RunModule instantiates wasmBytes under moduleName as the guest's module
// name and invokes entryFunc with args, returning its raw i32/i64 result
// words. A trap (including an uncaught exception surfaced through
// chic_rt_throw, per spec.md's error-handling contract) is reported as
// Result.Trap rather than a Go panic.
func (e *Executor) RunModule(ctx context.Context, moduleName string, wasmBytes []byte, entryFunc string, args ...uint64) (Result, error) {
	if err := e.ensureBound(ctx); err != nil {
		return Result{}, err
	}

	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return Result{}, fmt.Errorf("compile module: %w", err)
	}

	cfg := wazero.NewModuleConfig().WithName(moduleName)
	mod, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("instantiate module: %w", err)
	}
	defer mod.Close(ctx)

	fn := mod.ExportedFunction(entryFunc)
	if fn == nil {
		return Result{}, fmt.Errorf("module %s has no exported function %q", moduleName, entryFunc)
	}

	vals, err := fn.Call(ctx, args...)
	if err != nil {
		e.log.Debug("guest trap", zap.String("function", entryFunc), zap.Error(err))
		return Result{Trap: err}, nil
	}
	return Result{Values: vals}, nil
}

// ExitCodeFor maps a RunModule outcome to the process exit codes
// chic run/chic test report.
func ExitCodeFor(res Result, err error) int {
	if err != nil {
		return ExitInternal
	}
	if res.Trap != nil {
		return ExitFailure
	}
	if len(res.Values) > 0 && res.Values[0] != 0 {
		return ExitFailure
	}
	return ExitOK
}
