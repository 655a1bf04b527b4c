package wasmexec

import "testing"

func TestStringHeapInlineRoundTrip(t *testing.T) {
	h := NewStringHeap()
	cases := []string{"", "a", "hello", "1234567"}
	for _, c := range cases {
		handle := h.Intern(c)
		if !handle.inline() {
			t.Fatalf("Intern(%q): expected inline handle, got table handle %d", c, handle)
		}
		got, ok := h.Lookup(handle)
		if !ok || got != c {
			t.Fatalf("Lookup(%q): got (%q, %v)", c, got, ok)
		}
	}
}

func TestStringHeapTableRoundTrip(t *testing.T) {
	h := NewStringHeap()
	s := "this string exceeds the inline threshold by a wide margin"
	handle := h.Intern(s)
	if handle.inline() {
		t.Fatalf("Intern(%q): expected table handle, got inline", s)
	}
	got, ok := h.Lookup(handle)
	if !ok || got != s {
		t.Fatalf("Lookup: got (%q, %v), want (%q, true)", got, ok, s)
	}
	h.Release(handle)
	if _, ok := h.Lookup(handle); ok {
		t.Fatalf("Lookup after Release: expected ok=false")
	}
}

func TestStringHeapConcat(t *testing.T) {
	h := NewStringHeap()
	a := h.Intern("foo")
	b := h.Intern("bar")
	out, status := h.Concat(a, b)
	if status != StatusSuccess {
		t.Fatalf("Concat status = %v, want success", status)
	}
	got, _ := h.Lookup(out)
	if got != "foobar" {
		t.Fatalf("Concat result = %q, want foobar", got)
	}
}

func TestStringHeapSliceOutOfBounds(t *testing.T) {
	h := NewStringHeap()
	handle := h.Intern("hello world, this is long enough to use the table")
	if _, status := h.Slice(handle, 5, 3); status != StatusOutOfBounds {
		t.Fatalf("Slice(5,3) status = %v, want OutOfBounds", status)
	}
	if _, status := h.Slice(handle, 0, 1000); status != StatusOutOfBounds {
		t.Fatalf("Slice(0,1000) status = %v, want OutOfBounds", status)
	}
}

func TestStringHeapEq(t *testing.T) {
	h := NewStringHeap()
	ch := NewChicRTHost(nil, h)
	a := h.Intern("same")
	b := h.Intern("same")
	if ch.StringEq(nil, int64(a), int64(b)) != 1 {
		t.Fatalf("StringEq: expected equal strings to compare equal")
	}
}
