package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/chic-lang/chicc/internal/archive"
	"github.com/chic-lang/chicc/internal/config"
	"github.com/chic-lang/chicc/internal/driver"
	"github.com/chic-lang/chicc/internal/frontend"
)

// loader is the Loader build/run/test/header compile against; a real
// build replaces this with a parser/resolver/type-checker-backed
// implementation (internal/frontend's doc comment explains the
// boundary). Left as frontend.NullLoader here so the CLI's flag/archive/
// exit-code plumbing builds and is testable without one.
var loader frontend.Loader = frontend.NullLoader{}

func runBuild(ctx context.Context, args []string, env config.Env, log *zap.Logger) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	backend := fs.String("backend", "wasm", "llvm|wasm")
	crateType := fs.String("crate-type", "bin", "bin|lib")
	emitLib := fs.Bool("emit-lib", false, "emit a .clrlib static library instead of an executable artifact")
	out := fs.String("o", "", "output path")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	sources := fs.Args()
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "chic build: no source files given")
		return 1
	}

	b, err := driver.ParseBackend(*backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chic build: %v\n", err)
		return 1
	}

	mod, err := loader.Load(ctx, sources, frontend.Options{
		StdlibInputs: env.StdlibInputs("", ""),
		LintConfig:   env.LintConfig,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "chic build: %v\n", err)
		return 1
	}

	res := driver.Compile(mod, driver.Options{Backend: b, Log: log})
	if res.Diagnostics.HasErrors() {
		printDiagnostics(res)
		return 1
	}

	outPath := *out
	if outPath == "" {
		outPath = defaultOutputName(sources[0], b, *emitLib, *crateType)
	}

	if *emitLib {
		return writeArchive(res, outPath, sources)
	}
	return writeArtifact(res, b, outPath)
}

func defaultOutputName(firstSource string, b driver.Backend, emitLib bool, crateType string) string {
	stem := strings.TrimSuffix(firstSource, ".chic")
	if idx := strings.LastIndexByte(stem, '/'); idx >= 0 {
		stem = stem[idx+1:]
	}
	switch {
	case emitLib:
		return stem + ".clrlib"
	case b == driver.BackendWasm:
		return stem + ".wasm"
	default:
		return stem + ".ll"
	}
}

func writeArtifact(res *driver.Result, b driver.Backend, outPath string) int {
	var data []byte
	if b == driver.BackendWasm {
		data = res.WasmBinary
	} else {
		data = []byte(res.LLVMText)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "chic build: write %s: %v\n", outPath, err)
		return 1
	}
	fmt.Printf("wrote %s\n", outPath)
	return 0
}

func writeArchive(res *driver.Result, outPath string, sources []string) int {
	bld := &archive.Builder{Compress: true}
	for _, sym := range res.FuncOrder {
		bld.Exports = append(bld.Exports, archive.ExportEntry{Symbol: sym})
	}
	payload := res.WasmBinary
	if payload == nil {
		payload = []byte(res.LLVMText)
	}
	name := strings.Join(sources, ",")
	if _, err := bld.AddFile(archive.RoleObject, name, payload); err != nil {
		fmt.Fprintf(os.Stderr, "chic build: %v\n", err)
		return 1
	}
	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chic build: create %s: %v\n", outPath, err)
		return 1
	}
	defer f.Close()
	if err := bld.Write(f); err != nil {
		fmt.Fprintf(os.Stderr, "chic build: %v\n", err)
		return 1
	}
	fmt.Printf("wrote %s\n", outPath)
	return 0
}
