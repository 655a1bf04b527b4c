package wasmgen

// EncodeFlags packs MMIO access flags per spec.md §6: endianness in bit 0,
// address-space id in bits 8..23.
func EncodeFlags(addressSpace uint16, bigEndian bool) uint32 {
	flags := uint32(addressSpace) << 8
	if bigEndian {
		flags |= 1
	}
	return flags
}

// DecodeFlags is EncodeFlags's inverse (spec.md §8 testable property 5:
// encode_flags ∘ decode_flags = id).
func DecodeFlags(flags uint32) (addressSpace uint16, bigEndian bool) {
	return uint16(flags >> 8), flags&1 != 0
}

// EncodeValue byte-swaps v to big-endian wire order for the given width
// when bigEndian is true, else returns it unchanged (little-endian is the
// wasm-native order).
func EncodeValue(v uint64, width int, bigEndian bool) uint64 {
	if !bigEndian {
		return v & widthMask(width)
	}
	out, ok := ReverseEndianness(v&widthMask(width), width)
	if !ok {
		return v & widthMask(width)
	}
	return out
}

// DecodeValue is EncodeValue's inverse for any width in {8,16,32,64}
// (spec.md §8 testable property 5).
func DecodeValue(v uint64, width int, bigEndian bool) uint64 {
	return EncodeValue(v, width, bigEndian)
}
