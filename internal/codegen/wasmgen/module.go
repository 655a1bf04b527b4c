// Module assembly: wires per-function FuncEmitter bodies into a complete
// wasm.Module (spec.md §6 "WASM binary is a standalone module loadable by
// the built-in executor; imports follow the name/signature contracts in
// §4.7"), grounded on the kept wasm package's Module/FuncType/FuncBody
// types and EncodeInstructions helper.
package wasmgen

import (
	"fmt"

	"github.com/chic-lang/chicc/internal/diag"
	"github.com/chic-lang/chicc/internal/mir"
	wasm "github.com/chic-lang/chicc/internal/wasmbin"
)

// HostImport is one host function the assembled module imports; the
// (module, name) pair must match a Host registered with the executor
// (spec.md §4.7's env/chic_rt groups).
type HostImport struct {
	Module  string
	Name    string
	Params  []wasm.ValType
	Results []wasm.ValType
}

// MmioHostImports are the two runtime hooks every MMIO access routes
// through (spec.md §4.6); fixed signatures regardless of the program's
// own register layout.
var MmioHostImports = []HostImport{
	{Module: "chic_rt_mmio", Name: "mmio_read", Params: []wasm.ValType{wasm.ValI64, wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI64}},
	{Module: "chic_rt_mmio", Name: "mmio_write", Params: []wasm.ValType{wasm.ValI64, wasm.ValI64, wasm.ValI32, wasm.ValI32}, Results: nil},
}

// ModuleBuilder assembles one wasm.Module from a sequence of MIR
// functions plus the fixed host import set, assigning type/function
// indices as it goes.
type ModuleBuilder struct {
	Layouts *mir.TypeLayoutTable
	Sigs    map[string]CallSignature

	mod        wasm.Module
	funcIdx    map[string]uint32 // MIR function name -> wasm func index
	typeIdx    map[string]uint32 // canonical FuncType signature string -> type index
	importCnt  uint32
	bag        *diag.Bag
}

func NewModuleBuilder(layouts *mir.TypeLayoutTable) *ModuleBuilder {
	return &ModuleBuilder{
		Layouts: layouts,
		Sigs:    map[string]CallSignature{},
		funcIdx: map[string]uint32{},
		typeIdx: map[string]uint32{},
		bag:     &diag.Bag{},
	}
}

func (b *ModuleBuilder) Diagnostics() *diag.Bag { return b.bag }

func sigKey(params, results []wasm.ValType) string {
	return fmt.Sprintf("%v->%v", params, results)
}

// internType returns the type index for (params, results), registering a
// new FuncType the first time a signature is seen.
func (b *ModuleBuilder) internType(params, results []wasm.ValType) uint32 {
	key := sigKey(params, results)
	if idx, ok := b.typeIdx[key]; ok {
		return idx
	}
	idx := uint32(len(b.mod.Types))
	ft := wasm.FuncType{Params: params, Results: results}
	b.mod.Types = append(b.mod.Types, ft)
	b.mod.TypeDefs = append(b.mod.TypeDefs, wasm.TypeDef{Func: &ft})
	b.typeIdx[key] = idx
	return idx
}

// Memory declares the module's single linear memory (spec.md §4.7's host
// shims and §4.6's MMIO/aggregate passing all assume one addressable
// memory 0), sized in 64KiB pages.
func (b *ModuleBuilder) Memory(minPages uint64, maxPages *uint64) {
	b.mod.Memories = append(b.mod.Memories, wasm.MemoryType{Limits: wasm.Limits{Min: minPages, Max: maxPages}})
	b.mod.Exports = append(b.mod.Exports, wasm.Export{Name: "memory", Kind: wasm.KindMemory, Idx: 0})
}

// ImportHosts declares every env/chic_rt/chic_rt_mmio host function the
// module body may call, in a fixed order so FuncEmitter's hand-rolled
// function indices (mmioHookIndex, and the CallSignature.FuncIndex values
// the driver numbers after the imports) line up with the import section's
// assigned indices. Callers pass the same ordered
// list used when emitting call instructions.
func (b *ModuleBuilder) ImportHosts(hosts []HostImport) map[string]uint32 {
	indices := make(map[string]uint32, len(hosts))
	for _, h := range hosts {
		typeIdx := b.internType(h.Params, h.Results)
		b.mod.Imports = append(b.mod.Imports, wasm.Import{
			Module: h.Module,
			Name:   h.Name,
			Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: typeIdx},
		})
		indices[h.Module+"."+h.Name] = b.importCnt
		b.importCnt++
	}
	return indices
}

// AddFunction registers a MIR function's body (already lowered to
// wasm.Instructions by a FuncEmitter) into the module: a FuncType entry,
// a Funcs type-index slot, a FuncBody, and (when export is true) an
// Export entry named after the MIR function.
func (b *ModuleBuilder) AddFunction(f *mir.Function, sret bool, locals []wasm.LocalEntry, code []wasm.Instruction, export bool) uint32 {
	params, results := b.signature(f, sret)
	typeIdx := b.internType(params, results)
	b.mod.Funcs = append(b.mod.Funcs, typeIdx)

	body := append([]wasm.Instruction{}, code...)
	if len(body) == 0 || body[len(body)-1].Opcode != wasm.OpEnd {
		body = append(body, wasm.Instruction{Opcode: wasm.OpEnd})
	}
	b.mod.Code = append(b.mod.Code, wasm.FuncBody{
		Locals: locals,
		Code:   wasm.EncodeInstructions(body),
	})

	idx := b.importCnt + uint32(len(b.mod.Funcs)) - 1
	b.funcIdx[f.Name] = idx
	if export {
		b.mod.Exports = append(b.mod.Exports, wasm.Export{Name: f.Name, Kind: wasm.KindFunc, Idx: idx})
	}
	return idx
}

func (b *ModuleBuilder) signature(f *mir.Function, sret bool) (params, results []wasm.ValType) {
	if sret {
		params = append(params, wasm.ValI32) // out-pointer
	}
	for _, pid := range f.Params {
		l := f.Local(pid)
		params = append(params, valTypeOf(l.Type))
	}
	if !sret && f.ReturnType != nil && f.ReturnType.Kind != mir.TyUnit {
		results = append(results, valTypeOf(f.ReturnType))
	}
	return
}

// valTypeOf maps a MIR scalar type to the wasm core value type that
// carries it; aggregates are always passed/returned through linear
// memory pointers (i32) per spec.md §4.6's sret/by-pointer handling.
func valTypeOf(t *mir.Ty) wasm.ValType {
	if t == nil {
		return wasm.ValI32
	}
	switch t.Kind {
	case mir.TyFloat:
		if t.FloatW == mir.F32 {
			return wasm.ValF32
		}
		return wasm.ValF64
	case mir.TyInt:
		if t.IntWidth > 32 {
			return wasm.ValI64
		}
		return wasm.ValI32
	case mir.TyBool, mir.TyChar:
		return wasm.ValI32
	default:
		return wasm.ValI32 // pointer/handle-sized
	}
}

// LocalEntriesFor computes the FuncBody.Locals list a function compiled
// through FuncEmitter.Function needs: one i32 entry for the synthetic
// block-dispatch local, then one entry per non-parameter MIR local, in
// the same order wasmLocal's index arithmetic assumes.
func LocalEntriesFor(f *mir.Function) []wasm.LocalEntry {
	entries := []wasm.LocalEntry{{Count: 1, ValType: wasm.ValI32}}
	for _, l := range f.Locals {
		if l.Kind == mir.LocalKindParameter {
			continue
		}
		entries = append(entries, wasm.LocalEntry{Count: 1, ValType: valTypeOf(l.Type)})
	}
	return entries
}

// FuncIndex resolves a previously-added function's wasm index, used when
// a direct call needs a funcIdx before every function in the module has
// necessarily been added (two-pass assembly: declare all signatures,
// then emit bodies).
func (b *ModuleBuilder) FuncIndex(name string) (uint32, bool) {
	idx, ok := b.funcIdx[name]
	return idx, ok
}

// Encode finalizes and serializes the assembled module.
func (b *ModuleBuilder) Encode() []byte {
	b.declareIndirectCallTable()
	return b.mod.Encode()
}

// declareIndirectCallTable gives CallIndirect something to call against: a
// funcref table sized to every function in the module (imports included,
// since a closure's invoke slot stores a plain function index), filled by
// an identity element segment so a function's own wasm index doubles as
// its table slot.
func (b *ModuleBuilder) declareIndirectCallTable() {
	total := b.importCnt + uint32(len(b.mod.Funcs))
	if total == 0 {
		return
	}
	max := uint64(total)
	b.mod.Tables = []wasm.TableType{{ElemType: byte(wasm.ValFuncRef), Limits: wasm.Limits{Min: max, Max: &max}}}

	idxs := make([]uint32, total)
	for i := range idxs {
		idxs[i] = uint32(i)
	}
	offset := wasm.EncodeInstructions([]wasm.Instruction{
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 0}},
		{Opcode: wasm.OpEnd},
	})
	b.mod.Elements = []wasm.Element{{Offset: offset, FuncIdxs: idxs}}
}
