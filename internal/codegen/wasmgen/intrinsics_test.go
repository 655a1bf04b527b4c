package wasmgen

import (
	"math"
	"testing"

	"github.com/chic-lang/chicc/internal/mir"
	wasm "github.com/chic-lang/chicc/internal/wasmbin"
)

// S5: checked arithmetic reports overflow instead of wrapping silently
// (spec.md §8 S5).
func TestCheckedAddSignedOverflow(t *testing.T) {
	r := CheckedAdd(math.MaxInt32, 1, 32, true)
	if !r.Overflow {
		t.Fatalf("MaxInt32+1 at width 32 signed should overflow, got %+v", r)
	}
}

func TestCheckedAddSignedNoOverflow(t *testing.T) {
	r := CheckedAdd(10, 20, 32, true)
	if r.Overflow || r.Value != 30 {
		t.Fatalf("10+20 should not overflow and should equal 30, got %+v", r)
	}
}

func TestCheckedAddUnsignedOverflow(t *testing.T) {
	r := CheckedAdd(int64(math.MaxUint8), 1, 8, false)
	if !r.Overflow {
		t.Fatalf("255+1 at width 8 unsigned should overflow, got %+v", r)
	}
}

func TestCheckedSubSignedUnderflow(t *testing.T) {
	r := CheckedSub(math.MinInt8, 1, 8, true)
	if !r.Overflow {
		t.Fatalf("MinInt8-1 at width 8 signed should overflow, got %+v", r)
	}
}

func TestCheckedSubUnsignedUnderflow(t *testing.T) {
	r := CheckedSub(0, 1, 8, false)
	if !r.Overflow {
		t.Fatalf("0-1 unsigned should overflow, got %+v", r)
	}
}

func TestCheckedNegSignedMinOverflows(t *testing.T) {
	minVal := int64(-1) << 31
	r := CheckedNeg(minVal, 32, true)
	if !r.Overflow {
		t.Fatalf("negating the signed minimum must overflow, got %+v", r)
	}
}

func TestCheckedNegOrdinaryValue(t *testing.T) {
	r := CheckedNeg(5, 32, true)
	if r.Overflow || r.Value != -5 {
		t.Fatalf("neg(5) should be -5 with no overflow, got %+v", r)
	}
}

func TestCheckedMulSigned32Overflow(t *testing.T) {
	r := CheckedMul(math.MaxInt32, 2, 32, true)
	if !r.Overflow {
		t.Fatalf("MaxInt32*2 at width 32 signed should overflow, got %+v", r)
	}
}

func TestCheckedMulUnsigned32NoOverflow(t *testing.T) {
	r := CheckedMul(1000, 1000, 32, false)
	if r.Overflow || r.Value != 1_000_000 {
		t.Fatalf("1000*1000 should not overflow and equal 1000000, got %+v", r)
	}
}

func TestCheckedMulSigned64MinTimesNegOneOverflows(t *testing.T) {
	minVal := int64(-1) << 63
	r := CheckedMul(minVal, -1, 64, true)
	if !r.Overflow {
		t.Fatalf("MinInt64 * -1 must overflow at width 64 signed, got %+v", r)
	}
}

func TestCheckedMulUnsigned64Overflow(t *testing.T) {
	r := CheckedMul(int64(uint64(1)<<40), int64(uint64(1)<<40), 64, false)
	if !r.Overflow {
		t.Fatalf("a 64-bit unsigned multiply that exceeds 2^64 must overflow, got %+v", r)
	}
}

func TestCheckedMulSigned64NoOverflow(t *testing.T) {
	r := CheckedMul(100, 200, 64, true)
	if r.Overflow || r.Value != 20000 {
		t.Fatalf("100*200 at width 64 should not overflow and equal 20000, got %+v", r)
	}
}

func TestBitIntrinsicPopCount(t *testing.T) {
	if got := BitIntrinsic(mir.IntrinsicPopCount, 0b1011, 8); got != 3 {
		t.Errorf("PopCount(0b1011) = %d, want 3", got)
	}
}

func TestBitIntrinsicLeadingZeroCount(t *testing.T) {
	if got := BitIntrinsic(mir.IntrinsicLeadingZeroCount, 0b0001, 8); got != 7 {
		t.Errorf("LeadingZeroCount(0b0001, width 8) = %d, want 7", got)
	}
}

func TestBitIntrinsicTrailingZeroCount(t *testing.T) {
	if got := BitIntrinsic(mir.IntrinsicTrailingZeroCount, 0b1000, 8); got != 3 {
		t.Errorf("TrailingZeroCount(0b1000, width 8) = %d, want 3", got)
	}
}

func TestBitIntrinsicIsPowerOfTwo(t *testing.T) {
	if got := BitIntrinsic(mir.IntrinsicIsPowerOfTwo, 16, 8); got != 1 {
		t.Errorf("IsPowerOfTwo(16) = %d, want 1", got)
	}
	if got := BitIntrinsic(mir.IntrinsicIsPowerOfTwo, 6, 8); got != 0 {
		t.Errorf("IsPowerOfTwo(6) = %d, want 0", got)
	}
}

func TestRotateLeftWraps(t *testing.T) {
	got := Rotate(0b0000_0001, 1, 8, true)
	if got != 0b0000_0010 {
		t.Errorf("RotateLeft(1, 1, width 8) = %08b, want %08b", got, 0b0000_0010)
	}
	got = Rotate(0b1000_0000, 1, 8, true)
	if got != 0b0000_0001 {
		t.Errorf("RotateLeft(0x80, 1, width 8) = %08b, want %08b (wraps around)", got, 0b0000_0001)
	}
}

func TestRotateRightWraps(t *testing.T) {
	got := Rotate(0b0000_0001, 1, 8, false)
	if got != 0b1000_0000 {
		t.Errorf("RotateRight(1, 1, width 8) = %08b, want %08b", got, 0b1000_0000)
	}
}

func TestReverseEndianness16(t *testing.T) {
	got, ok := ReverseEndianness(0x1234, 16)
	if !ok || got != 0x3412 {
		t.Fatalf("ReverseEndianness(0x1234, 16) = (%x, %v), want (0x3412, true)", got, ok)
	}
}

func TestReverseEndianness32(t *testing.T) {
	got, ok := ReverseEndianness(0x01020304, 32)
	if !ok || got != 0x04030201 {
		t.Fatalf("ReverseEndianness(0x01020304, 32) = (%x, %v), want (0x04030201, true)", got, ok)
	}
}

func TestReverseEndiannessUnsupportedWidth(t *testing.T) {
	if _, ok := ReverseEndianness(0x1, 24); ok {
		t.Fatal("ReverseEndianness should reject an unsupported width like 24")
	}
}

// S5's codegen half: the TryAdd sequence must gate the value write on the
// overflow flag — the destination local is only set inside an `if` arm
// entered when the flag is zero.
func TestCheckedAddSeqCommitsOnlyWithoutOverflow(t *testing.T) {
	e := NewFuncEmitter(mir.NewTypeLayoutTable(), nil)
	e.CheckedAddSeq(0, 1, 2, 3, 4, 32, true)
	code := e.Code()
	if len(code) < 6 {
		t.Fatalf("expected a full checked-add sequence, got %d instructions", len(code))
	}
	tail := code[len(code)-6:]
	wantOps := []byte{wasm.OpLocalGet, wasm.OpI32Eqz, wasm.OpIf, wasm.OpLocalGet, wasm.OpLocalSet, wasm.OpEnd}
	for i, instr := range tail {
		if instr.Opcode != wantOps[i] {
			t.Fatalf("tail instruction %d = %#x, want %#x (flag-gated commit shape)", i, instr.Opcode, wantOps[i])
		}
	}
	if imm := tail[4].Imm.(wasm.LocalImm); imm.LocalIdx != 2 {
		t.Fatalf("the gated store should target the out local (2), got %d", imm.LocalIdx)
	}
}

func TestCheckedAddSeqUnsignedUsesUnsignedCompare(t *testing.T) {
	e := NewFuncEmitter(mir.NewTypeLayoutTable(), nil)
	e.CheckedAddSeq(0, 1, 2, 3, 4, 8, false)
	found := false
	for _, instr := range e.Code() {
		if instr.Opcode == wasm.OpI32LtU {
			found = true
		}
		if instr.Opcode == wasm.OpI32LtS {
			t.Fatal("an unsigned checked add must not use a signed compare")
		}
	}
	if !found {
		t.Fatal("expected the unsigned overflow check to compare with i32.lt_u")
	}
}
