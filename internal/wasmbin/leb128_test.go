package wasmbin

import (
	"bytes"
	"testing"
)

func TestWriteLEB128u(t *testing.T) {
	cases := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xE5, 0x8E, 0x26}},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		WriteLEB128u(&buf, c.v)
		if !bytes.Equal(buf.Bytes(), c.want) {
			t.Errorf("WriteLEB128u(%d) = % X, want % X", c.v, buf.Bytes(), c.want)
		}
	}
}

func TestWriteLEB128s(t *testing.T) {
	cases := []struct {
		v    int32
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x7F}},
		{-64, []byte{0x40}},
		{-129, []byte{0xFF, 0x7E}},
		{63, []byte{0x3F}},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		WriteLEB128s(&buf, c.v)
		if !bytes.Equal(buf.Bytes(), c.want) {
			t.Errorf("WriteLEB128s(%d) = % X, want % X", c.v, buf.Bytes(), c.want)
		}
	}
}

func TestWriteLEB128u64MultiByteTerminates(t *testing.T) {
	var buf bytes.Buffer
	WriteLEB128u64(&buf, 1<<35)
	if buf.Len() == 0 {
		t.Fatal("expected non-empty encoding")
	}
	if buf.Bytes()[buf.Len()-1]&0x80 != 0 {
		t.Error("last byte must not have continuation bit set")
	}
}

func TestWriteLEB128s64Negative(t *testing.T) {
	var buf bytes.Buffer
	WriteLEB128s64(&buf, -1)
	if !bytes.Equal(buf.Bytes(), []byte{0x7F}) {
		t.Errorf("WriteLEB128s64(-1) = % X, want 7F", buf.Bytes())
	}
}
