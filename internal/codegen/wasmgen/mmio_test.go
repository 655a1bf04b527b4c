package wasmgen

import "testing"

// S6: MMIO flag and value encoding round-trip (spec.md §8 testable
// property 5: encode ∘ decode = id).
func TestEncodeDecodeFlagsRoundTrip(t *testing.T) {
	cases := []struct {
		addressSpace uint16
		bigEndian    bool
	}{
		{0, false},
		{1, true},
		{0xFFFF, false},
		{0x00AB, true},
	}
	for _, c := range cases {
		flags := EncodeFlags(c.addressSpace, c.bigEndian)
		gotSpace, gotEndian := DecodeFlags(flags)
		if gotSpace != c.addressSpace || gotEndian != c.bigEndian {
			t.Errorf("DecodeFlags(EncodeFlags(%d, %v)) = (%d, %v), want (%d, %v)",
				c.addressSpace, c.bigEndian, gotSpace, gotEndian, c.addressSpace, c.bigEndian)
		}
	}
}

func TestEncodeValueBigEndian16(t *testing.T) {
	got := EncodeValue(0x1234, 16, true)
	if got != 0x3412 {
		t.Fatalf("EncodeValue(0x1234, 16, bigEndian) = %x, want 0x3412", got)
	}
}

func TestEncodeValueLittleEndianIsUnchanged(t *testing.T) {
	got := EncodeValue(0x1234, 16, false)
	if got != 0x1234 {
		t.Fatalf("EncodeValue(0x1234, 16, littleEndian) = %x, want 0x1234 unchanged", got)
	}
}

func TestEncodeDecodeValueRoundTripAllWidths(t *testing.T) {
	widths := []int{8, 16, 32, 64}
	values := map[int]uint64{8: 0xAB, 16: 0x1234, 32: 0x01020304, 64: 0x0102030405060708}
	for _, w := range widths {
		for _, be := range []bool{true, false} {
			v := values[w]
			encoded := EncodeValue(v, w, be)
			decoded := DecodeValue(encoded, w, be)
			if decoded != v {
				t.Errorf("width=%d bigEndian=%v: round-trip %x -> %x -> %x, want back to %x", w, be, v, encoded, decoded, v)
			}
		}
	}
}
