package fdt

import "bytes"

// Property is a borrowed view over one PROP token: a name (resolved from
// the strings block) and a raw value slice. Decoding the value into a
// concrete shape (an integer, a string, a list of cells) is explicit and
// fallible, via the As* methods.
type Property struct {
	name  string
	value []byte
}

// Name returns the property's name.
func (p Property) Name() string {
	return p.name
}

// RawValue returns the property's raw, undecoded value bytes.
func (p Property) RawValue() []byte {
	return p.value
}

// AsU32 decodes the value as a single big-endian 32-bit integer.
func (p Property) AsU32() (uint32, error) {
	if len(p.value) != 4 {
		return 0, ErrPropInvalidLength
	}
	return ReadU32BE(p.value, 0)
}

// AsU64 decodes the value as a single big-endian 64-bit integer.
func (p Property) AsU64() (uint64, error) {
	if len(p.value) != 8 {
		return 0, ErrPropInvalidLength
	}
	return ReadU64BE(p.value, 0)
}

// AsString decodes the value as a single NUL-terminated string.
func (p Property) AsString() (string, error) {
	if len(p.value) == 0 || p.value[len(p.value)-1] != 0 {
		return "", ErrPropInvalidString
	}
	body := p.value[:len(p.value)-1]
	if bytes.IndexByte(body, 0) >= 0 {
		return "", ErrPropInvalidString
	}
	return bstr(body), nil
}

// AsStringList decodes the value as a sequence of NUL-terminated strings
// packed back to back, as used by properties like "compatible". An empty
// value is not an error: it yields an empty sequence.
func (p Property) AsStringList() (*StringListIter, error) {
	if len(p.value) > 0 && p.value[len(p.value)-1] != 0 {
		return nil, ErrPropInvalidString
	}
	return &StringListIter{value: p.value}, nil
}

// StringListIter iterates the NUL-separated strings packed into a
// property value.
type StringListIter struct {
	value []byte
	off   int
	cur   string
	done  bool
}

// Next advances the iterator and reports whether another string is
// available via String.
func (it *StringListIter) Next() bool {
	if it.done || it.off >= len(it.value) {
		return false
	}
	nul := bytes.IndexByte(it.value[it.off:], 0)
	if nul < 0 {
		it.done = true
		return false
	}
	it.cur = bstr(it.value[it.off : it.off+nul])
	it.off += nul + 1
	return true
}

// String returns the string produced by the most recent call to Next.
func (it *StringListIter) String() string {
	return it.cur
}

// AsPropEncodedArray decodes the value as a repeated sequence of records,
// where each record is the concatenation of len(fieldCells) cell groups
// whose widths (in 32-bit cells) are given by fieldCells. This is the
// shape used by properties like "reg", whose records are
// (address-cells, size-cells) pairs.
//
// It fails with *PropEncodedArraySizeMismatchError if the value's length
// is not a multiple of the record width. A fieldCells sum of zero is
// degenerate (never produces a record) and is accepted as long as value
// is empty.
func (p Property) AsPropEncodedArray(fieldCells ...uint32) (*PropEncodedArrayIter, error) {
	var totalCells uint32
	for _, c := range fieldCells {
		totalCells += c
	}
	chunkBytes := int(totalCells) * 4
	if chunkBytes == 0 {
		if len(p.value) != 0 {
			return nil, &PropEncodedArraySizeMismatchError{Size: len(p.value), Chunk: 0}
		}
		return &PropEncodedArrayIter{fields: fieldCells}, nil
	}
	if len(p.value)%chunkBytes != 0 {
		return nil, &PropEncodedArraySizeMismatchError{Size: len(p.value), Chunk: int(totalCells)}
	}
	return &PropEncodedArrayIter{
		value:      p.value,
		fields:     fieldCells,
		chunkBytes: chunkBytes,
		cur:        make([]Cells, len(fieldCells)),
	}, nil
}

// PropEncodedArrayIter iterates the fixed-width records of a
// prop-encoded-array property.
type PropEncodedArrayIter struct {
	value      []byte
	fields     []uint32
	chunkBytes int
	off        int
	cur        []Cells // reused across Next calls, never reallocated
}

// Next advances the iterator and reports whether another record is
// available via Record.
func (it *PropEncodedArrayIter) Next() bool {
	if it.chunkBytes == 0 || it.off >= len(it.value) {
		return false
	}
	rec := it.value[it.off : it.off+it.chunkBytes]
	pos := 0
	for i, fc := range it.fields {
		n := int(fc) * 4
		it.cur[i] = Cells{words: rec[pos : pos+n]}
		pos += n
	}
	it.off += it.chunkBytes
	return true
}

// Record returns the field-by-field Cells views for the record produced
// by the most recent call to Next, in the same order as the fieldCells
// passed to AsPropEncodedArray.
func (it *PropEncodedArrayIter) Record() []Cells {
	return it.cur
}
