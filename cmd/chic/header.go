package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/chic-lang/chicc/internal/codegen/cheader"
	"github.com/chic-lang/chicc/internal/config"
	"github.com/chic-lang/chicc/internal/frontend"
	"github.com/chic-lang/chicc/internal/mir"
)

func runHeader(ctx context.Context, args []string, env config.Env, log *zap.Logger) int {
	fs := flag.NewFlagSet("header", flag.ContinueOnError)
	out := fs.String("o", "", "output path (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	sources := fs.Args()
	if len(sources) != 1 {
		fmt.Fprintln(os.Stderr, "chic header: expected exactly one source file")
		return 1
	}

	mod, err := loader.Load(ctx, sources, frontend.Options{
		StdlibInputs: env.StdlibInputs("", ""),
		LintConfig:   env.LintConfig,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "chic header: %v\n", err)
		return 1
	}

	var funcs []cheader.FuncSig
	for _, fn := range mod.Functions {
		sig := cheader.FuncSig{Name: fn.Name, ReturnType: fn.ReturnType}
		for _, pid := range fn.Params {
			sig.ParamTypes = append(sig.ParamTypes, fn.Local(pid).Type)
		}
		sig.Sret = needsSret(fn.ReturnType)
		funcs = append(funcs, sig)
	}

	guard := "CHIC_" + strings.ToUpper(strings.TrimSuffix(baseName(sources[0]), ".chic")) + "_H"
	text := cheader.Emit(mod.Layouts, funcs, guard)

	if *out == "" {
		fmt.Print(text)
		return 0
	}
	if err := os.WriteFile(*out, []byte(text), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "chic header: write %s: %v\n", *out, err)
		return 1
	}
	return 0
}

// needsSret mirrors internal/driver's rule so the header and the
// compiled object agree on which return types pass through an
// out-pointer (spec.md §4.5/§4.6).
func needsSret(t *mir.Ty) bool {
	if t == nil {
		return false
	}
	return t.Kind == mir.TyNamed || t.Kind == mir.TyTuple || t.Kind == mir.TyArray
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		path = path[idx+1:]
	}
	return path
}
