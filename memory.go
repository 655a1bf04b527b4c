package chicc

// Memory describes bounds-checked, byte-addressed access to WASM linear
// memory. No package in this module implements or consumes it: the
// executor's env/chic_rt host functions use wazero's api.Memory directly,
// and the MMIO hooks keep their own per-address-space register file.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of WASM linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator allocates memory in WASM linear memory. The executor's "malloc"
// family does not go through it (it uses wasmexec's own per-module bump
// allocator), and chic_rt strings live in a host-side handle table.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}
