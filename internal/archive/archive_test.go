package archive

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	b := &Builder{Exports: []ExportEntry{{Symbol: "chic_main"}}}
	if _, err := b.AddFile(RoleObject, "main.o", []byte("fake object bytes")); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	a, err := Read(buf.Bytes())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if a.Manifest.Kind != "static-library" {
		t.Fatalf("Kind = %q", a.Manifest.Kind)
	}
	if len(a.Manifest.Exports) != 1 || a.Manifest.Exports[0].Symbol != "chic_main" {
		t.Fatalf("Exports = %+v", a.Manifest.Exports)
	}
	got, err := a.File("main.o")
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if string(got) != "fake object bytes" {
		t.Fatalf("File content = %q", got)
	}
}

func TestWriteReadCompressed(t *testing.T) {
	b := &Builder{Compress: true, CompressThreshold: 4}
	payload := bytes.Repeat([]byte("abcdefgh"), 64)
	if _, err := b.AddFile(RoleObject, "big.o", payload); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() >= len(payload) {
		t.Fatalf("expected compression to shrink payload: archive=%d raw=%d", buf.Len(), len(payload))
	}

	a, err := Read(buf.Bytes())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got, err := a.File("big.o")
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("decompressed payload mismatch")
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	data := append([]byte("NOTCLRLB"), make([]byte, 8)...)
	if _, err := Read(data); err == nil || !strings.Contains(err.Error(), "magic") {
		t.Fatalf("expected magic error, got %v", err)
	}
}

func TestReadRejectsWrongVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.Write([]byte{99, 0, 0, 0}) // version 99 LE
	buf.Write([]byte{0, 0, 0, 0})  // manifest_len 0
	if _, err := Read(buf.Bytes()); err == nil || !strings.Contains(err.Error(), "version") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestFileNotFound(t *testing.T) {
	b := &Builder{}
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	a, err := Read(buf.Bytes())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if _, err := a.File("missing.o"); err == nil {
		t.Fatal("expected error for missing file entry")
	}
}
