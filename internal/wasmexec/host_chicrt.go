package wasmexec

import (
	"context"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// ChicRTHost is the "chic_rt" import group: the string ADT and its
// lifecycle operations. Guest code never sees a heap layout for strings,
// only the StringHandle the host hands back, so the small-string-inline
// optimization in StringHeap is invisible to the emitted module.
type ChicRTHost struct {
	log      *zap.Logger
	heap     *StringHeap
	instance uuid.UUID
}

func NewChicRTHost(log *zap.Logger, heap *StringHeap) *ChicRTHost {
	return &ChicRTHost{log: log, heap: heap, instance: uuid.New()}
}

func (*ChicRTHost) Namespace() string { return "chic_rt" }

// StringFromUtf8 validates and interns length bytes of guest memory at
// ptr, reporting StatusUTF8 on invalid encoding instead of trapping.
func (h *ChicRTHost) StringFromUtf8(ctx context.Context, mod api.Module, ptr, length uint32) (int64, int32) {
	buf, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return 0, int32(StatusOutOfBounds)
	}
	if !utf8.Valid(buf) {
		return 0, int32(StatusUTF8)
	}
	handle := h.heap.Intern(string(buf))
	return int64(handle), int32(StatusSuccess)
}

func (h *ChicRTHost) StringLen(ctx context.Context, handle int64) int32 {
	s, ok := h.heap.Lookup(StringHandle(handle))
	if !ok {
		return -1
	}
	return int32(len(s))
}

func (h *ChicRTHost) StringByteAt(ctx context.Context, handle int64, index uint32) int32 {
	s, ok := h.heap.Lookup(StringHandle(handle))
	if !ok || int(index) >= len(s) {
		return -1
	}
	return int32(s[index])
}

// StringWrite copies a handle's bytes into guest memory at ptr, reporting
// a too-small destination by returning StatusCapacityOverflow rather
// than writing a truncated string.
func (h *ChicRTHost) StringWrite(ctx context.Context, mod api.Module, handle int64, ptr, capacity uint32) int32 {
	s, ok := h.heap.Lookup(StringHandle(handle))
	if !ok {
		return int32(StatusInvalidPointer)
	}
	if uint32(len(s)) > capacity {
		return int32(StatusCapacityOverflow)
	}
	if !mod.Memory().Write(ptr, []byte(s)) {
		return int32(StatusOutOfBounds)
	}
	return int32(StatusSuccess)
}

func (h *ChicRTHost) StringConcat(ctx context.Context, a, b int64) (int64, int32) {
	handle, status := h.heap.Concat(StringHandle(a), StringHandle(b))
	return int64(handle), int32(status)
}

func (h *ChicRTHost) StringSlice(ctx context.Context, handle int64, start, end uint32) (int64, int32) {
	out, status := h.heap.Slice(StringHandle(handle), start, end)
	return int64(out), int32(status)
}

func (h *ChicRTHost) StringEq(ctx context.Context, a, b int64) int32 {
	sa, okA := h.heap.Lookup(StringHandle(a))
	sb, okB := h.heap.Lookup(StringHandle(b))
	if !okA || !okB {
		return 0
	}
	if sa == sb {
		return 1
	}
	return 0
}

// StringNew / StringWithCapacity intern the empty string; capacity is
// advisory in the handle model (the host heap reallocates transparently).
func (h *ChicRTHost) StringNew(ctx context.Context) int64 {
	return int64(h.heap.Intern(""))
}

func (h *ChicRTHost) StringWithCapacity(ctx context.Context, capacity uint32) int64 {
	return int64(h.heap.Intern(""))
}

func (h *ChicRTHost) StringFromChar(ctx context.Context, ch int32) (int64, int32) {
	r := rune(ch)
	if !utf8.ValidRune(r) {
		return 0, int32(StatusUTF8)
	}
	return int64(h.heap.Intern(string(r))), int32(StatusSuccess)
}

// Typed append helpers: each renders its value and concatenates onto the
// string named by handle, returning the new handle plus a status word
// (zero indicates success, matching the string-append status contract).
func (h *ChicRTHost) appendText(handle int64, text string) (int64, int32) {
	s, ok := h.heap.Lookup(StringHandle(handle))
	if !ok {
		return 0, int32(StatusInvalidPointer)
	}
	if uint64(len(s))+uint64(len(text)) > 0xFFFFFFFF {
		return 0, int32(StatusCapacityOverflow)
	}
	return int64(h.heap.Intern(s + text)), int32(StatusSuccess)
}

func (h *ChicRTHost) StringAppendSigned(ctx context.Context, handle, v int64) (int64, int32) {
	return h.appendText(handle, strconv.FormatInt(v, 10))
}

func (h *ChicRTHost) StringAppendUnsigned(ctx context.Context, handle int64, v uint64) (int64, int32) {
	return h.appendText(handle, strconv.FormatUint(v, 10))
}

func (h *ChicRTHost) StringAppendF32(ctx context.Context, handle int64, v float32) (int64, int32) {
	return h.appendText(handle, strconv.FormatFloat(float64(v), 'g', -1, 32))
}

func (h *ChicRTHost) StringAppendF64(ctx context.Context, handle int64, v float64) (int64, int32) {
	return h.appendText(handle, strconv.FormatFloat(v, 'g', -1, 64))
}

func (h *ChicRTHost) StringAppendChar(ctx context.Context, handle int64, ch int32) (int64, int32) {
	r := rune(ch)
	if !utf8.ValidRune(r) {
		return 0, int32(StatusUTF8)
	}
	return h.appendText(handle, string(r))
}

func (h *ChicRTHost) StringAppendBool(ctx context.Context, handle int64, v int32) (int64, int32) {
	if v != 0 {
		return h.appendText(handle, "true")
	}
	return h.appendText(handle, "false")
}

// StringTruncate shortens the string to newLen bytes; lengthening is a
// capacity error, not a zero-fill.
func (h *ChicRTHost) StringTruncate(ctx context.Context, handle int64, newLen uint32) (int64, int32) {
	s, ok := h.heap.Lookup(StringHandle(handle))
	if !ok {
		return 0, int32(StatusInvalidPointer)
	}
	if int(newLen) > len(s) {
		return 0, int32(StatusCapacityOverflow)
	}
	return int64(h.heap.Intern(s[:newLen])), int32(StatusSuccess)
}

func (h *ChicRTHost) StringClone(ctx context.Context, handle int64) (int64, int32) {
	s, ok := h.heap.Lookup(StringHandle(handle))
	if !ok {
		return 0, int32(StatusInvalidPointer)
	}
	return int64(h.heap.Intern(s)), int32(StatusSuccess)
}

// StringErrorMessage interns the textual name of a status code so guest
// diagnostics can print it without a status table of their own.
func (h *ChicRTHost) StringErrorMessage(ctx context.Context, status int32) int64 {
	return int64(h.heap.Intern(Status(status).String()))
}

func (h *ChicRTHost) StringDrop(ctx context.Context, handle int64) {
	h.heap.Release(StringHandle(handle))
	h.log.Debug("string released", zap.Int64("handle", handle), zap.String("instance", h.instance.String()))
}

// MmioRead/MmioWrite are the runtime hooks wasmgen.FuncEmitter's
// MmioLoad/MmioStore call through; address-space id and endianness are
// packed in flags per EncodeFlags, and the executor keeps a flat
// byte-addressable register file per address space for test/run use.
type MmioHost struct {
	log   *zap.Logger
	space map[uint16]map[uint64]uint64
}

func NewMmioHost(log *zap.Logger) *MmioHost {
	return &MmioHost{log: log, space: make(map[uint16]map[uint64]uint64)}
}

func (*MmioHost) Namespace() string { return "chic_rt_mmio" }

func (m *MmioHost) MmioRead(ctx context.Context, addr uint64, widthBits int32, flags uint32) int64 {
	space, _ := decodeFlagsLocal(flags)
	regs := m.space[space]
	if regs == nil {
		return 0
	}
	return int64(maskWidth(regs[addr], int(widthBits)))
}

func (m *MmioHost) MmioWrite(ctx context.Context, addr uint64, value int64, widthBits int32, flags uint32) {
	space, _ := decodeFlagsLocal(flags)
	regs := m.space[space]
	if regs == nil {
		regs = make(map[uint64]uint64)
		m.space[space] = regs
	}
	regs[addr] = maskWidth(uint64(value), int(widthBits))
}

func decodeFlagsLocal(flags uint32) (addressSpace uint16, bigEndian bool) {
	return uint16(flags >> 8), flags&1 != 0
}

func maskWidth(v uint64, width int) uint64 {
	if width >= 64 {
		return v
	}
	return v & ((uint64(1) << uint(width)) - 1)
}
