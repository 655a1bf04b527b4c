package wasmbin

import (
	"bytes"
	"testing"
)

func TestEncodeInstructionsConst(t *testing.T) {
	instrs := []Instruction{
		{Opcode: OpI32Const, Imm: I32Imm{Value: 42}},
		{Opcode: OpI64Const, Imm: I64Imm{Value: -1}},
		{Opcode: OpEnd},
	}
	got := EncodeInstructions(instrs)
	want := []byte{OpI32Const, 42, OpI64Const, 0x7F, OpEnd}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeInstructions = % X, want % X", got, want)
	}
}

func TestEncodeInstructionsCall(t *testing.T) {
	instrs := []Instruction{
		{Opcode: OpCall, Imm: CallImm{FuncIdx: 3}},
		{Opcode: OpCallIndirect, Imm: CallIndirectImm{TypeIdx: 1, TableIdx: 0}},
	}
	got := EncodeInstructions(instrs)
	want := []byte{OpCall, 3, OpCallIndirect, 1, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeInstructions = % X, want % X", got, want)
	}
}

func TestEncodeInstructionsBlockAndBranch(t *testing.T) {
	instrs := []Instruction{
		{Opcode: OpBlock, Imm: BlockImm{Type: BlockTypeVoid}},
		{Opcode: OpBr, Imm: BranchImm{LabelIdx: 0}},
		{Opcode: OpEnd},
	}
	got := EncodeInstructions(instrs)
	want := []byte{OpBlock, 0x40, OpBr, 0x00, OpEnd}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeInstructions = % X, want % X", got, want)
	}
}

func TestEncodeInstructionsBrTable(t *testing.T) {
	instrs := []Instruction{
		{Opcode: OpBrTable, Imm: BrTableImm{Labels: []uint32{0, 1}, Default: 2}},
	}
	got := EncodeInstructions(instrs)
	want := []byte{OpBrTable, 2, 0, 1, 2}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeInstructions = % X, want % X", got, want)
	}
}

func TestEncodeInstructionsNoImmediate(t *testing.T) {
	instrs := []Instruction{{Opcode: OpI32Add}, {Opcode: OpDrop}, {Opcode: OpUnreachable}}
	got := EncodeInstructions(instrs)
	want := []byte{OpI32Add, OpDrop, OpUnreachable}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeInstructions = % X, want % X", got, want)
	}
}

func TestInstructionGetCallTarget(t *testing.T) {
	call := Instruction{Opcode: OpCall, Imm: CallImm{FuncIdx: 7}}
	idx, ok := call.GetCallTarget()
	if !ok || idx != 7 {
		t.Errorf("GetCallTarget = (%d, %v), want (7, true)", idx, ok)
	}

	nop := Instruction{Opcode: OpUnreachable}
	if _, ok := nop.GetCallTarget(); ok {
		t.Error("GetCallTarget should fail for a non-call instruction")
	}
}

func TestInstructionIsIndirectCall(t *testing.T) {
	callInd := Instruction{Opcode: OpCallIndirect, Imm: CallIndirectImm{TypeIdx: 1}}
	if !callInd.IsIndirectCall() {
		t.Error("expected IsIndirectCall true")
	}
	call := Instruction{Opcode: OpCall, Imm: CallImm{FuncIdx: 1}}
	if call.IsIndirectCall() {
		t.Error("expected IsIndirectCall false for a direct call")
	}
}
