// Package fdt implements a zero-copy, read-only view over a Flattened
// Device Tree (FDT / DTB) blob: header validation, structure-block
// tokenization, and property decoding. Names, strings and property
// values are borrowed from the caller's byte slice, never copied. This is
// not allocation-free: AsPropEncodedArray allocates one record buffer per
// call, and the iterator constructors return pointers to new iterators.
//
// For building or mutating a tree, see the sibling fdtree package, which
// converts a parsed Fdt into an owned, editable model and serializes it
// back to bytes.
package fdt

import "unsafe"

// Fdt is a validated, read-only view over an FDT blob. The zero value is
// not usable; construct one with Open or OpenRaw.
type Fdt struct {
	data []byte
	h    header
}

// Open validates buf as a complete FDT blob and returns a read view over
// it. buf is borrowed, not copied: the returned Fdt is only valid for as
// long as buf is not modified.
func Open(buf []byte) (*Fdt, error) {
	h, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}
	if err := validateHeader(h, len(buf)); err != nil {
		return nil, err
	}
	return &Fdt{data: buf, h: h}, nil
}

// OpenRaw validates the FDT blob found at ptr, discovering its length
// from the header's totalsize field before the rest of the blob is known
// to be addressable. This is for callers that only have a pointer into
// memory owned outside the Go heap (e.g. a bootloader-provided device
// tree); Open is the safe entry point for an ordinary []byte.
//
// The caller must guarantee that at least headerSize bytes starting at
// ptr are valid to read, and that once totalsize is known, the full
// totalsize bytes are valid to read for the lifetime of the returned Fdt.
func OpenRaw(ptr unsafe.Pointer) (*Fdt, error) {
	if ptr == nil {
		return nil, parseErr(ErrInvalidOffset, 0)
	}
	probe := unsafe.Slice((*byte)(ptr), headerSize)
	totalSize, err := ReadU32BE(probe, 4)
	if err != nil {
		return nil, err
	}
	buf := unsafe.Slice((*byte)(ptr), int(totalSize))
	return Open(buf)
}

// Data returns the raw bytes backing this view.
func (f *Fdt) Data() []byte {
	return f.data
}

// Version reports the structure-block version the blob was written with.
func (f *Fdt) Version() uint32 {
	return f.h.version
}

// LastCompVersion reports the oldest version this blob is backward
// compatible with.
func (f *Fdt) LastCompVersion() uint32 {
	return f.h.lastCompVersion
}

// BootCpuidPhys returns the physical CPU ID the boot program was
// executing on, per the header field of the same name.
func (f *Fdt) BootCpuidPhys() uint32 {
	return f.h.bootCpuidPhys
}

// Root returns the tree's root node. validateHeader does not look at the
// structure block's tokens, so the first token is only checked here, on
// first traversal: FDT_BEGIN_NODE starts the root node, and a structure
// block holding only FDT_END yields an empty root with no properties or
// children. Any other first token is a *BadTokenError.
func (f *Fdt) Root() (Node, error) {
	off := int(f.h.offDtStruct)
	tok, err := f.readToken(off)
	if err != nil {
		return Node{}, err
	}
	if tok == tokenEnd {
		return Node{f: f, name: "", offset: off, addressCells: 2, sizeCells: 1}, nil
	}
	if tok != tokenBeginNode {
		return Node{}, parseErr(&BadTokenError{Token: tok}, off)
	}
	name, next, err := f.readNodeName(off + 4)
	if err != nil {
		return Node{}, err
	}
	return Node{f: f, name: name, offset: next, addressCells: 2, sizeCells: 1}, nil
}

// FindNode resolves a slash-separated path against the tree, starting
// from the root. path must begin with "/"; "/" alone returns the root.
// Each non-empty segment is looked up with Node.Child: a "name@unit"
// segment must match a child's full name exactly, while a bare name also
// matches a child whose name without its unit address equals it (see
// Node.Child).
func (f *Fdt) FindNode(path string) (Node, error) {
	if len(path) == 0 || path[0] != '/' {
		return Node{}, parseErr(ErrInvalidString, 0)
	}
	n, err := f.Root()
	if err != nil {
		return Node{}, err
	}
	if path == "/" {
		return n, nil
	}
	start := 1
	for start <= len(path) {
		end := start
		for end < len(path) && path[end] != '/' {
			end++
		}
		seg := path[start:end]
		if seg != "" {
			child, ok, err := n.Child(seg)
			if err != nil {
				return Node{}, err
			}
			if !ok {
				return Node{}, parseErr(ErrInvalidString, 0)
			}
			n = child
		}
		start = end + 1
	}
	return n, nil
}
