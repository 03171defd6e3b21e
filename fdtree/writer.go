package fdtree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	magic          = 0xd00dfeed
	fdtVersion     = 17
	lastCompVer    = 16
	headerSize     = 40
	tokenBeginNode = 1
	tokenEndNode   = 2
	tokenProp      = 3
	tokenEnd       = 9
)

// stringTable interns property names in first-seen order, matching the
// layout dtc itself produces and the Rust original's StringMap: offsets
// are assigned as each new name is encountered, so the final strings
// block lists names in the order the struct block first refers to them.
type stringTable struct {
	offsets map[string]uint32
	order   []string
	next    uint32
}

func newStringTable() *stringTable {
	return &stringTable{offsets: make(map[string]uint32)}
}

func (s *stringTable) offsetOf(name string) uint32 {
	if off, ok := s.offsets[name]; ok {
		return off
	}
	off := s.next
	s.offsets[name] = off
	s.order = append(s.order, name)
	s.next += uint32(len(name)) + 1
	return off
}

func (s *stringTable) bytes() []byte {
	var buf bytes.Buffer
	for _, name := range s.order {
		buf.WriteString(name)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// ToBytes serializes the tree to a complete FDT blob: header, memory
// reservation block, structure block, and strings block, in that order.
//
// The only way serialization can fail is if the tree's encoded size
// cannot be represented in the header's 32-bit size fields; like the
// Rust original (which calls u32::try_from(...).expect(...) at the same
// point), that is treated as a programming error on the caller's part
// rather than a recoverable condition, and reported as a panic.
func (t *Tree) ToBytes() []byte {
	strs := newStringTable()

	var structBuf bytes.Buffer
	writeNode(&structBuf, t.Root, strs)
	putU32(&structBuf, tokenEnd)

	structBytes := structBuf.Bytes()
	stringsBytes := strs.bytes()

	var memrsv bytes.Buffer
	for _, r := range t.MemoryReservations {
		putU64(&memrsv, r.Address)
		putU64(&memrsv, r.Size)
	}
	putU64(&memrsv, 0)
	putU64(&memrsv, 0)
	memrsvBytes := memrsv.Bytes()

	offMemRsvmap := headerSize
	offDtStruct := align4(offMemRsvmap + len(memrsvBytes))
	offDtStrings := offDtStruct + len(structBytes)
	totalSize := offDtStrings + len(stringsBytes)

	out := make([]byte, totalSize)
	binary.BigEndian.PutUint32(out[0:4], magic)
	binary.BigEndian.PutUint32(out[4:8], mustU32(totalSize))
	binary.BigEndian.PutUint32(out[8:12], mustU32(offDtStruct))
	binary.BigEndian.PutUint32(out[12:16], mustU32(offDtStrings))
	binary.BigEndian.PutUint32(out[16:20], mustU32(offMemRsvmap))
	binary.BigEndian.PutUint32(out[20:24], fdtVersion)
	binary.BigEndian.PutUint32(out[24:28], lastCompVer)
	binary.BigEndian.PutUint32(out[28:32], 0)
	binary.BigEndian.PutUint32(out[32:36], mustU32(len(stringsBytes)))
	binary.BigEndian.PutUint32(out[36:40], mustU32(len(structBytes)))

	copy(out[offMemRsvmap:], memrsvBytes)
	copy(out[offDtStruct:], structBytes)
	copy(out[offDtStrings:], stringsBytes)

	return out
}

// writeNode emits a BEGIN_NODE token, the node's name, its properties,
// its children, and a matching END_NODE, in that order, mirroring
// build.go's emitNode.
func writeNode(buf *bytes.Buffer, n *Node, strs *stringTable) {
	putU32(buf, tokenBeginNode)
	buf.WriteString(n.Name)
	buf.WriteByte(0)
	padTo4(buf)

	for _, p := range n.Properties() {
		putU32(buf, tokenProp)
		putU32(buf, mustU32(len(p.Value)))
		putU32(buf, strs.offsetOf(p.Name))
		buf.Write(p.Value)
		padTo4(buf)
	}

	for _, c := range n.Children() {
		writeNode(buf, c, strs)
	}

	putU32(buf, tokenEndNode)
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func padTo4(buf *bytes.Buffer) {
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
}

func align4(n int) int {
	return (n + 3) &^ 3
}

func mustU32(n int) uint32 {
	if n < 0 || n > math.MaxUint32 {
		panic(fmt.Sprintf("fdtree: value %d does not fit in a uint32 header field", n))
	}
	return uint32(n)
}
