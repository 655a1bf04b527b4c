package wasmbin

import (
	"bytes"
	"encoding/binary"
)

// sectionWriter accumulates one section body (or the whole module) as
// LEB128-framed bytes; it replaces the teacher's standalone internal/binary
// package now that only the encode half survives.
type sectionWriter struct{ buf bytes.Buffer }

func (w *sectionWriter) Bytes() []byte          { return w.buf.Bytes() }
func (w *sectionWriter) Byte(b byte)            { w.buf.WriteByte(b) }
func (w *sectionWriter) WriteBytes(p []byte)    { w.buf.Write(p) }
func (w *sectionWriter) WriteU32(v uint32)      { WriteLEB128u(&w.buf, v) }
func (w *sectionWriter) WriteName(s string) {
	WriteLEB128u(&w.buf, uint32(len(s)))
	w.buf.WriteString(s)
}
func (w *sectionWriter) WriteU32LE(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// Encode serializes the module to WebAssembly binary format.
func (m *Module) Encode() []byte {
	w := &sectionWriter{}
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)

	if len(m.TypeDefs) > 0 {
		sec := &sectionWriter{}
		sec.WriteU32(uint32(len(m.TypeDefs)))
		for _, td := range m.TypeDefs {
			writeTypeDef(sec, td)
		}
		writeSection(w, SectionType, sec.Bytes())
	}

	if len(m.Imports) > 0 {
		sec := &sectionWriter{}
		sec.WriteU32(uint32(len(m.Imports)))
		for _, imp := range m.Imports {
			sec.WriteName(imp.Module)
			sec.WriteName(imp.Name)
			sec.Byte(imp.Desc.Kind)
			sec.WriteU32(imp.Desc.TypeIdx)
		}
		writeSection(w, SectionImport, sec.Bytes())
	}

	if len(m.Funcs) > 0 {
		sec := &sectionWriter{}
		sec.WriteU32(uint32(len(m.Funcs)))
		for _, typeIdx := range m.Funcs {
			sec.WriteU32(typeIdx)
		}
		writeSection(w, SectionFunction, sec.Bytes())
	}

	if len(m.Tables) > 0 {
		sec := &sectionWriter{}
		sec.WriteU32(uint32(len(m.Tables)))
		for _, t := range m.Tables {
			writeTableType(sec, t)
		}
		writeSection(w, SectionTable, sec.Bytes())
	}

	if len(m.Memories) > 0 {
		sec := &sectionWriter{}
		sec.WriteU32(uint32(len(m.Memories)))
		for _, mem := range m.Memories {
			writeLimits(sec, mem.Limits)
		}
		writeSection(w, SectionMemory, sec.Bytes())
	}

	if len(m.Exports) > 0 {
		sec := &sectionWriter{}
		sec.WriteU32(uint32(len(m.Exports)))
		for _, exp := range m.Exports {
			sec.WriteName(exp.Name)
			sec.Byte(exp.Kind)
			sec.WriteU32(exp.Idx)
		}
		writeSection(w, SectionExport, sec.Bytes())
	}

	if len(m.Elements) > 0 {
		sec := &sectionWriter{}
		sec.WriteU32(uint32(len(m.Elements)))
		for _, elem := range m.Elements {
			sec.WriteU32(0) // flags: active, table 0, funcidx vector
			sec.WriteBytes(elem.Offset)
			sec.WriteU32(uint32(len(elem.FuncIdxs)))
			for _, idx := range elem.FuncIdxs {
				sec.WriteU32(idx)
			}
		}
		writeSection(w, SectionElement, sec.Bytes())
	}

	if len(m.Code) > 0 {
		sec := &sectionWriter{}
		sec.WriteU32(uint32(len(m.Code)))
		for _, body := range m.Code {
			bodyBuf := &sectionWriter{}
			bodyBuf.WriteU32(uint32(len(body.Locals)))
			for _, local := range body.Locals {
				bodyBuf.WriteU32(local.Count)
				bodyBuf.Byte(byte(local.ValType))
			}
			bodyBuf.WriteBytes(body.Code)
			sec.WriteU32(uint32(len(bodyBuf.Bytes())))
			sec.WriteBytes(bodyBuf.Bytes())
		}
		writeSection(w, SectionCode, sec.Bytes())
	}

	return w.Bytes()
}

func writeSection(w *sectionWriter, id byte, data []byte) {
	w.Byte(id)
	w.WriteU32(uint32(len(data)))
	w.WriteBytes(data)
}

func writeValTypes(w *sectionWriter, types []ValType) {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}

func writeLimits(w *sectionWriter, l Limits) {
	if l.Max != nil {
		w.Byte(LimitsHasMax)
		w.WriteU32(uint32(l.Min))
		w.WriteU32(uint32(*l.Max))
		return
	}
	w.Byte(LimitsNoMax)
	w.WriteU32(uint32(l.Min))
}

func writeTableType(w *sectionWriter, t TableType) {
	w.Byte(t.ElemType)
	writeLimits(w, t.Limits)
}

func writeTypeDef(w *sectionWriter, td TypeDef) {
	w.Byte(FuncTypeByte)
	writeFuncType(w, *td.Func)
}

func writeFuncType(w *sectionWriter, ft FuncType) {
	writeValTypes(w, ft.Params)
	writeValTypes(w, ft.Results)
}
