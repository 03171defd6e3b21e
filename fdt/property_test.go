package fdt

import (
	"errors"
	"testing"
)

func TestPropertyAsU32(t *testing.T) {
	p := Property{name: "phandle", value: []byte{0x00, 0x00, 0x00, 0x2a}}
	v, err := p.AsU32()
	if err != nil {
		t.Fatalf("AsU32: %v", err)
	}
	if v != 42 {
		t.Errorf("AsU32() = %d, want 42", v)
	}

	bad := Property{name: "bad", value: []byte{0x00, 0x01}}
	if _, err := bad.AsU32(); !errors.Is(err, ErrPropInvalidLength) {
		t.Errorf("AsU32 on short value: got %v, want ErrPropInvalidLength", err)
	}
}

func TestPropertyAsString(t *testing.T) {
	p := Property{name: "model", value: []byte("acme,board\x00")}
	s, err := p.AsString()
	if err != nil {
		t.Fatalf("AsString: %v", err)
	}
	if s != "acme,board" {
		t.Errorf("AsString() = %q, want %q", s, "acme,board")
	}

	noNul := Property{name: "model", value: []byte("acme,board")}
	if _, err := noNul.AsString(); !errors.Is(err, ErrPropInvalidString) {
		t.Errorf("AsString without NUL: got %v, want ErrPropInvalidString", err)
	}

	embeddedNul := Property{name: "model", value: []byte("a\x00b\x00")}
	if _, err := embeddedNul.AsString(); !errors.Is(err, ErrPropInvalidString) {
		t.Errorf("AsString with embedded NUL: got %v, want ErrPropInvalidString", err)
	}
}

func TestPropertyAsStringList(t *testing.T) {
	p := Property{name: "compatible", value: []byte("acme,a\x00acme,b\x00")}
	it, err := p.AsStringList()
	if err != nil {
		t.Fatalf("AsStringList: %v", err)
	}
	var got []string
	for it.Next() {
		got = append(got, it.String())
	}
	want := []string{"acme,a", "acme,b"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("AsStringList() = %v, want %v", got, want)
	}
}

func TestPropertyAsStringListEmpty(t *testing.T) {
	p := Property{name: "compatible", value: nil}
	it, err := p.AsStringList()
	if err != nil {
		t.Fatalf("AsStringList on empty value: %v", err)
	}
	if it.Next() {
		t.Errorf("expected no entries, got %q", it.String())
	}
}

func TestPropertyAsPropEncodedArray(t *testing.T) {
	value := []byte{
		0x00, 0x00, 0x00, 0x10, // address
		0x00, 0x00, 0x00, 0x20, // size
		0x00, 0x00, 0x00, 0x30,
		0x00, 0x00, 0x00, 0x40,
	}
	p := Property{name: "reg", value: value}
	it, err := p.AsPropEncodedArray(1, 1)
	if err != nil {
		t.Fatalf("AsPropEncodedArray: %v", err)
	}
	var addrs []uint32
	for it.Next() {
		rec := it.Record()
		addr, err := ToUint[uint32](rec[0])
		if err != nil {
			t.Fatalf("ToUint: %v", err)
		}
		addrs = append(addrs, addr)
	}
	if len(addrs) != 2 || addrs[0] != 0x10 || addrs[1] != 0x30 {
		t.Errorf("addresses = %#x, want [0x10 0x30]", addrs)
	}

	bad := Property{name: "reg", value: value[:len(value)-1]}
	if _, err := bad.AsPropEncodedArray(1, 1); err == nil {
		t.Errorf("AsPropEncodedArray with misaligned length: want error, got nil")
	}
}
