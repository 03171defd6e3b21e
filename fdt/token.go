package fdt

import (
	"bytes"
	"unsafe"
)

const (
	tokenBeginNode uint32 = 1
	tokenEndNode   uint32 = 2
	tokenProp      uint32 = 3
	tokenNop       uint32 = 4
	tokenEnd       uint32 = 9
)

// structEnd returns the byte offset one past the end of the structure
// block.
func (f *Fdt) structEnd() int {
	return int(f.h.offDtStruct) + int(f.h.sizeDtStruct)
}

// stringsEnd returns the byte offset one past the end of the strings
// block.
func (f *Fdt) stringsEnd() int {
	return int(f.h.offDtStrings) + int(f.h.sizeDtStrings)
}

// readToken reads the 4-byte token at off, which must lie inside the
// structure block.
func (f *Fdt) readToken(off int) (uint32, error) {
	if off < int(f.h.offDtStruct) || off+4 > f.structEnd() {
		return 0, parseErr(ErrInvalidOffset, off)
	}
	return ReadU32BE(f.data, off)
}

// readString resolves a nameoff (an offset relative to the start of the
// strings block) to a NUL-terminated string borrowed from the blob.
func (f *Fdt) readString(nameoff uint32) (string, error) {
	abs := int(f.h.offDtStrings) + int(nameoff)
	if abs < int(f.h.offDtStrings) || abs >= f.stringsEnd() {
		return "", parseErr(ErrInvalidString, abs)
	}
	region := f.data[abs:f.stringsEnd()]
	nul := bytes.IndexByte(region, 0)
	if nul < 0 {
		return "", parseErr(ErrInvalidString, abs)
	}
	return bstr(region[:nul]), nil
}

// readNodeName reads a node's NUL-terminated name starting at off (just
// past the BEGIN_NODE token) and returns the name plus the offset of the
// next 4-byte-aligned token.
func (f *Fdt) readNodeName(off int) (string, int, error) {
	end := f.structEnd()
	if off > end {
		return "", 0, parseErr(ErrInvalidOffset, off)
	}
	region := f.data[off:end]
	nul := bytes.IndexByte(region, 0)
	if nul < 0 {
		return "", 0, parseErr(ErrInvalidString, off)
	}
	name := bstr(region[:nul])
	next := Align4(off + nul + 1)
	return name, next, nil
}

// rawProp is a PROP token's fixed-size header fields plus the location of
// its value, decoded but not yet resolved to a name.
type rawProp struct {
	len     uint32
	nameoff uint32
	value   int // absolute offset of the value bytes
	next    int // absolute offset of the next token, 4-byte aligned
}

// readProp decodes a PROP token's header (len, nameoff) starting just
// after the token word at off.
func (f *Fdt) readProp(off int) (rawProp, error) {
	var p rawProp
	l, err := ReadU32BE(f.data, off)
	if err != nil {
		return p, err
	}
	nameoff, err := ReadU32BE(f.data, off+4)
	if err != nil {
		return p, err
	}
	p.len = l
	p.nameoff = nameoff
	p.value = off + 8
	end := p.value + int(l)
	if end > f.structEnd() {
		return p, parseErr(ErrInvalidOffset, p.value)
	}
	p.next = Align4(end)
	return p, nil
}

// skipNop returns the offset just past a NOP token: the 4 bytes of the
// token itself having already been consumed by the caller, NOP carries no
// payload.
func (f *Fdt) skipNop(off int) int {
	return off
}

// bstr converts a byte slice borrowed from the blob to a string without
// copying, so that traversal never allocates. The blob outlives the Fdt
// that borrows it, and neither ever mutates the bytes after Open, so this
// is sound for as long as the returned string is used alongside the Fdt.
func bstr(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
