package wasmexec

import (
	"context"
	"reflect"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
)

// Host is a group of related host functions sharing one wasm import
// module name ("env", "chic_rt" or "chic_rt_mmio"). Every exported method becomes an
// import; method names map to snake_case wasm function names the emitter
// already agrees on (CheckedAdd -> not a Host method; methods here are
// named to match the wasm import exactly, e.g. StringLen exports
// "string_len").
//
// Generalized from wippyai-wasm-runtime's runtime.Host/HostRegistry,
// dropping the WIT canonical-ABI lowering: this executor's imports are
// plain i32/i64 wasm value types, so functions bind to wazero's
// HostModuleBuilder directly instead of through a component-model
// adapter.
type Host interface {
	Namespace() string
}

// ExplicitNames lets a Host give exact wasm import names instead of the
// registrar deriving them from method names via reflection.
type ExplicitNames interface {
	Functions() map[string]any
}

type hostRegistry struct {
	log   *zap.Logger
	funcs map[string]map[string]any
}

func newHostRegistry(log *zap.Logger) *hostRegistry {
	return &hostRegistry{log: log, funcs: make(map[string]map[string]any)}
}

func (r *hostRegistry) register(h Host) {
	ns := h.Namespace()
	if r.funcs[ns] == nil {
		r.funcs[ns] = make(map[string]any)
	}
	if en, ok := h.(ExplicitNames); ok {
		for name, fn := range en.Functions() {
			r.funcs[ns][name] = fn
		}
		return
	}
	rv := reflect.ValueOf(h)
	rt := rv.Type()
	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if !m.IsExported() || m.Name == "Namespace" {
			continue
		}
		r.funcs[ns][toSnakeCase(m.Name)] = rv.Method(i).Interface()
	}
}

// bind constructs and instantiates a wazero host module per namespace,
// logging each bound module (namespace and function count) at debug level
// the way the teacher's Runtime traces binds at Load time. Individual host
// calls are not traced here.
func (r *hostRegistry) bind(ctx context.Context, rt wazero.Runtime) error {
	for ns, fns := range r.funcs {
		b := rt.NewHostModuleBuilder(ns)
		for name, fn := range fns {
			b.NewFunctionBuilder().WithFunc(fn).Export(name)
		}
		if _, err := b.Instantiate(ctx); err != nil {
			r.log.Error("host module bind failed", zap.String("namespace", ns), zap.Error(err))
			return err
		}
		r.log.Debug("bound host module", zap.String("namespace", ns), zap.Int("functions", len(fns)))
	}
	return nil
}

func toSnakeCase(s string) string {
	out := make([]byte, 0, len(s)+4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			out = append(out, c-'A'+'a')
		} else {
			out = append(out, c)
		}
	}
	return string(out)
}
