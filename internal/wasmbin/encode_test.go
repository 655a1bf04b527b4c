package wasmbin

import (
	"bytes"
	"testing"
)

func TestEncodeEmptyModule(t *testing.T) {
	m := &Module{}
	data := m.Encode()
	want := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(data, want) {
		t.Errorf("empty module = % X, want % X", data, want)
	}
}

func TestEncodeTypeSection(t *testing.T) {
	ft := FuncType{Params: []ValType{ValI32, ValI32}, Results: []ValType{ValI32}}
	m := &Module{TypeDefs: []TypeDef{{Func: &ft}}}
	data := m.Encode()

	// magic(4) + version(4), then section id 1, length, count 1, then the
	// func type: 0x60, params vec, results vec.
	body := []byte{
		FuncTypeByte,
		0x02, byte(ValI32), byte(ValI32), // 2 params
		0x01, byte(ValI32), // 1 result
	}
	want := append([]byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}, SectionType)
	want = append(want, byte(len(body)+1), 0x01) // section length includes the count byte
	want = append(want, body...)
	if !bytes.Equal(data, want) {
		t.Errorf("type section = % X, want % X", data, want)
	}
}

func TestEncodeImportFunctionMemoryExport(t *testing.T) {
	ft := FuncType{Params: []ValType{ValI32}, Results: []ValType{ValI32}}
	maxPages := uint64(4)
	m := &Module{
		TypeDefs: []TypeDef{{Func: &ft}},
		Imports:  []Import{{Module: "env", Name: "f", Desc: ImportDesc{Kind: KindFunc, TypeIdx: 0}}},
		Funcs:    []uint32{0},
		Memories: []MemoryType{{Limits: Limits{Min: 1, Max: &maxPages}}},
		Exports: []Export{
			{Name: "memory", Kind: KindMemory, Idx: 0},
			{Name: "run", Kind: KindFunc, Idx: 1},
		},
		Code: []FuncBody{{Code: []byte{OpLocalGet, 0, OpEnd}}},
	}
	data := m.Encode()

	if !bytes.HasPrefix(data, []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}) {
		t.Fatal("missing magic/version prefix")
	}
	if !bytes.Contains(data, []byte("env")) || !bytes.Contains(data, []byte("memory")) || !bytes.Contains(data, []byte("run")) {
		t.Error("encoded module is missing expected names")
	}
	if !bytes.Contains(data, []byte{SectionMemory}) {
		t.Error("missing memory section id")
	}
	if !bytes.Contains(data, []byte{SectionCode}) {
		t.Error("missing code section id")
	}
}

func TestEncodeIdentityTable(t *testing.T) {
	offset := EncodeInstructions([]Instruction{
		{Opcode: OpI32Const, Imm: I32Imm{Value: 0}},
		{Opcode: OpEnd},
	})
	max := uint64(2)
	m := &Module{
		Tables: []TableType{{ElemType: byte(ValFuncRef), Limits: Limits{Min: 2, Max: &max}}},
		Elements: []Element{
			{Offset: offset, FuncIdxs: []uint32{0, 1}},
		},
	}
	data := m.Encode()

	if !bytes.Contains(data, []byte{SectionTable}) {
		t.Error("missing table section")
	}
	if !bytes.Contains(data, []byte{SectionElement}) {
		t.Error("missing element section")
	}
	if !bytes.Contains(data, []byte{byte(ValFuncRef)}) {
		t.Error("table elem type byte not found")
	}
}

func TestEncodeFuncBodyLocals(t *testing.T) {
	m := &Module{
		Code: []FuncBody{{
			Locals: []LocalEntry{{Count: 2, ValType: ValI32}, {Count: 1, ValType: ValI64}},
			Code:   []byte{OpEnd},
		}},
	}
	data := m.Encode()
	if !bytes.Contains(data, []byte{byte(ValI32)}) || !bytes.Contains(data, []byte{byte(ValI64)}) {
		t.Error("encoded module is missing local value types")
	}
}
