// Package archive implements the .clrlib static-library archive format
// (spec.md §6): an 8-byte magic, a u32 LE version, a length-prefixed JSON
// manifest, and the concatenated file entries the manifest describes.
//
// Grounded on the teacher's component/decoder.go framed binary-parsing
// style (explicit magic/version/length-prefixed sections read with
// encoding/binary) and on wasm/internal/binary's reader/writer helpers
// for the same length-prefixed-section idiom used throughout this repo.
package archive

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Magic is the 8-byte file signature every .clrlib begins with.
var Magic = [8]byte{'C', 'L', 'R', 'L', 'I', 'B', 0, 0}

// Version is the only manifest version this package writes and the only
// one it accepts on read.
const Version uint32 = 2

// RoleObject is the FileEntry.Role of a compiled object; spec.md §6 only
// fixes "object" as a named role, others are free-form strings a builder
// may set ("source", "header", "debug").
const RoleObject = "object"

// ExportEntry is one manifest export: spec.md §6 only requires a symbol
// name but leaves room for richer ABI metadata a builder attaches.
type ExportEntry struct {
	Symbol    string `json:"symbol"`
	Mangled   string `json:"mangled,omitempty"`
	TypeIndex *int   `json:"type_index,omitempty"`
}

// FileEntry describes one concatenated payload following the manifest.
type FileEntry struct {
	Role        string `json:"role"`
	Name        string `json:"name"`
	Offset      uint64 `json:"offset"`
	Size        uint64 `json:"size"`
	Compressed  bool   `json:"compressed,omitempty"`
	RawSize     uint64 `json:"raw_size,omitempty"`
}

// Manifest is the archive's JSON header.
type Manifest struct {
	Kind    string        `json:"kind"`
	Exports []ExportEntry `json:"exports"`
	Files   []FileEntry   `json:"files"`
}

// Builder accumulates files for a single .clrlib, compressing payloads
// above CompressThreshold with klauspost/compress/flate when Compress is
// set (spec.md §11's DOMAIN STACK wiring for --emit-lib size-sensitive
// embedded builds).
type Builder struct {
	Exports  []ExportEntry
	Compress bool

	// CompressThreshold is the minimum raw payload size, in bytes, worth
	// paying flate's framing overhead for. Below it entries are stored
	// verbatim even when Compress is set.
	CompressThreshold int

	files   []FileEntry
	payload bytes.Buffer
}

// AddFile appends one file entry's bytes, returning the FileEntry recorded
// in the manifest (callers rarely need it; Write() emits the manifest).
func (b *Builder) AddFile(role, name string, data []byte) (FileEntry, error) {
	threshold := b.CompressThreshold
	if threshold == 0 {
		threshold = 256
	}
	entry := FileEntry{Role: role, Name: name, Offset: uint64(b.payload.Len())}
	if b.Compress && len(data) >= threshold {
		var compressed bytes.Buffer
		w, err := flate.NewWriter(&compressed, flate.DefaultCompression)
		if err != nil {
			return FileEntry{}, fmt.Errorf("archive: create flate writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return FileEntry{}, fmt.Errorf("archive: compress %s: %w", name, err)
		}
		if err := w.Close(); err != nil {
			return FileEntry{}, fmt.Errorf("archive: finish compressing %s: %w", name, err)
		}
		entry.Compressed = true
		entry.RawSize = uint64(len(data))
		entry.Size = uint64(compressed.Len())
		b.payload.Write(compressed.Bytes())
	} else {
		entry.Size = uint64(len(data))
		b.payload.Write(data)
	}
	b.files = append(b.files, entry)
	return entry, nil
}

// Write serializes the accumulated manifest and file entries per spec.md
// §6's header layout: magic, version, manifest_len, manifest, then the
// concatenated payload.
func (b *Builder) Write(w io.Writer) error {
	manifest := Manifest{Kind: "static-library", Exports: b.Exports, Files: b.files}
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest: %w", err)
	}
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, Version); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(manifestBytes))); err != nil {
		return err
	}
	if _, err := w.Write(manifestBytes); err != nil {
		return err
	}
	_, err = w.Write(b.payload.Bytes())
	return err
}

// Archive is a parsed .clrlib: the manifest plus the raw post-manifest
// payload, from which Reader resolves individual file entries.
type Archive struct {
	Manifest Manifest
	payload  []byte
}

// Read parses a .clrlib from data, validating the magic and version and
// decoding the manifest (spec.md §6).
func Read(data []byte) (*Archive, error) {
	if len(data) < 16 {
		return nil, fmt.Errorf("archive: truncated header (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:8], Magic[:]) {
		return nil, fmt.Errorf("archive: bad magic %x", data[:8])
	}
	version := binary.LittleEndian.Uint32(data[8:12])
	if version != Version {
		return nil, fmt.Errorf("archive: unsupported version %d", version)
	}
	manifestLen := binary.LittleEndian.Uint32(data[12:16])
	if uint64(16)+uint64(manifestLen) > uint64(len(data)) {
		return nil, fmt.Errorf("archive: manifest_len %d exceeds file size", manifestLen)
	}
	var manifest Manifest
	if err := json.Unmarshal(data[16:16+manifestLen], &manifest); err != nil {
		return nil, fmt.Errorf("archive: decode manifest: %w", err)
	}
	return &Archive{Manifest: manifest, payload: data[16+manifestLen:]}, nil
}

// File returns the decompressed bytes of the named file entry.
func (a *Archive) File(name string) ([]byte, error) {
	for _, f := range a.Manifest.Files {
		if f.Name != name {
			continue
		}
		if f.Offset+f.Size > uint64(len(a.payload)) {
			return nil, fmt.Errorf("archive: entry %s out of bounds", name)
		}
		raw := a.payload[f.Offset : f.Offset+f.Size]
		if !f.Compressed {
			return raw, nil
		}
		r := flate.NewReader(bytes.NewReader(raw))
		defer r.Close()
		out := make([]byte, 0, f.RawSize)
		buf := bytes.NewBuffer(out)
		if _, err := io.Copy(buf, r); err != nil {
			return nil, fmt.Errorf("archive: inflate %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("archive: no such file entry %q", name)
}
