package fdt

import "strings"

// Node is a borrowed view over one node in the structure block: its name
// plus the offset of the first token following the name (which may be a
// PROP, a NOP, a child BEGIN_NODE, or END_NODE). Node values are cheap to
// copy and carry no ownership; they are valid for as long as the Fdt they
// came from is.
type Node struct {
	f      *Fdt
	name   string
	offset int

	// addressCells/sizeCells are inherited from the parent's #address-cells
	// and #size-cells properties (or the architecture defaults of 2 and 1 at
	// the root). They are resolved eagerly at traversal time since a child's
	// own #address-cells/#size-cells describe its children, not itself.
	addressCells uint32
	sizeCells    uint32
}

// Name returns the node's full name, including any unit address
// ("cpu@0"). The root node's name is the empty string.
func (n Node) Name() string {
	return n.name
}

// NameWithoutAddress returns the node's name with any "@unit-address"
// suffix removed.
func (n Node) NameWithoutAddress() string {
	if i := strings.IndexByte(n.name, '@'); i >= 0 {
		return n.name[:i]
	}
	return n.name
}

// AddressCells returns the #address-cells value that applies to this
// node's own reg-like properties, inherited from the parent.
func (n Node) AddressCells() uint32 {
	if n.addressCells == 0 {
		return 2
	}
	return n.addressCells
}

// SizeCells returns the #size-cells value that applies to this node's own
// reg-like properties, inherited from the parent.
func (n Node) SizeCells() uint32 {
	if n.sizeCells == 0 {
		return 1
	}
	return n.sizeCells
}

// Property looks up a property by name among this node's direct
// properties (not its children's). It reports ok=false, nil error if the
// node simply has no property of that name.
func (n Node) Property(name string) (Property, bool, error) {
	it := n.Properties()
	for it.Next() {
		p := it.Property()
		if p.Name() == name {
			return p, true, nil
		}
	}
	if it.Err() != nil {
		return Property{}, false, it.Err()
	}
	return Property{}, false, nil
}

// Properties returns an iterator over this node's direct properties, in
// structure-block order.
func (n Node) Properties() *PropIter {
	return &PropIter{f: n.f, off: n.offset}
}

// Child looks up a direct child by name. If name contains no "@", it also
// matches a child whose name's unit-address-stripped form equals name;
// the first structural match wins, mirroring the Rust original's `child`
// loose-match rule for bare names.
func (n Node) Child(name string) (Node, bool, error) {
	it := n.Children()
	for it.Next() {
		c := it.Node()
		if c.name == name {
			return c, true, nil
		}
		if !strings.Contains(name, "@") && c.NameWithoutAddress() == name {
			return c, true, nil
		}
	}
	if it.Err() != nil {
		return Node{}, false, it.Err()
	}
	return Node{}, false, nil
}

// Children returns an iterator over this node's direct children, in
// structure-block order.
func (n Node) Children() *ChildIter {
	return &ChildIter{f: n.f, off: n.offset, parent: n}
}

// childCells resolves the #address-cells/#size-cells a child of n should
// inherit, falling back to the architecture defaults when n does not
// define them.
func (n Node) childCells() (uint32, uint32, error) {
	ac := uint32(2)
	sc := uint32(1)
	if p, ok, err := n.Property("#address-cells"); err != nil {
		return 0, 0, err
	} else if ok {
		v, err := p.AsU32()
		if err != nil {
			return 0, 0, err
		}
		ac = v
	}
	if p, ok, err := n.Property("#size-cells"); err != nil {
		return 0, 0, err
	} else if ok {
		v, err := p.AsU32()
		if err != nil {
			return 0, 0, err
		}
		sc = v
	}
	return ac, sc, nil
}

// PropIter walks the PROP tokens at the start of a node's token run,
// transparently skipping NOPs, and stops at the first token that is not
// a PROP or a NOP (the start of the node's children, or its END_NODE).
type PropIter struct {
	f   *Fdt
	off int
	cur Property
	err error
	end bool
}

// Next advances the iterator and reports whether a property is available
// via Property. It returns false both at the end of the run and on
// error; distinguish the two with Err.
func (it *PropIter) Next() bool {
	if it.end || it.err != nil {
		return false
	}
	for {
		tok, err := it.f.readToken(it.off)
		if err != nil {
			it.err = err
			return false
		}
		switch tok {
		case tokenNop:
			it.off += 4
			continue
		case tokenProp:
			rp, err := it.f.readProp(it.off + 4)
			if err != nil {
				it.err = err
				return false
			}
			name, err := it.f.readString(rp.nameoff)
			if err != nil {
				it.err = err
				return false
			}
			it.cur = Property{name: name, value: it.f.data[rp.value : rp.value+int(rp.len)]}
			it.off = rp.next
			return true
		case tokenBeginNode, tokenEndNode, tokenEnd:
			it.end = true
			return false
		default:
			it.err = parseErr(&BadTokenError{Token: tok}, it.off)
			return false
		}
	}
}

// Property returns the property produced by the most recent call to Next.
func (it *PropIter) Property() Property {
	return it.cur
}

// Err reports the first error encountered during iteration, if any.
func (it *PropIter) Err() error {
	return it.err
}

// ChildIter walks the BEGIN_NODE tokens among a node's children, skipping
// over its properties and any NOPs first.
type ChildIter struct {
	f      *Fdt
	off    int
	parent Node
	cur    Node
	err    error
	end    bool
	past   bool // true once the property run has been skipped
}

// Next advances the iterator and reports whether a child is available
// via Node.
func (it *ChildIter) Next() bool {
	if it.end || it.err != nil {
		return false
	}
	if !it.past {
		pi := &PropIter{f: it.f, off: it.off}
		for pi.Next() {
		}
		if pi.Err() != nil {
			it.err = pi.Err()
			return false
		}
		it.off = pi.off
		it.past = true
	}
	for {
		tok, err := it.f.readToken(it.off)
		if err != nil {
			it.err = err
			return false
		}
		switch tok {
		case tokenNop:
			it.off += 4
			continue
		case tokenBeginNode:
			name, next, err := it.f.readNodeName(it.off + 4)
			if err != nil {
				it.err = err
				return false
			}
			ac, sc, err := it.parent.childCells()
			if err != nil {
				it.err = err
				return false
			}
			it.cur = Node{f: it.f, name: name, offset: next, addressCells: ac, sizeCells: sc}
			nextOff, err := it.f.skipSubtree(next)
			if err != nil {
				it.err = err
				return false
			}
			it.off = nextOff
			return true
		case tokenEndNode, tokenEnd:
			it.end = true
			return false
		default:
			it.err = parseErr(&BadTokenError{Token: tok}, it.off)
			return false
		}
	}
}

// Node returns the child produced by the most recent call to Next.
func (it *ChildIter) Node() Node {
	return it.cur
}

// Err reports the first error encountered during iteration, if any.
func (it *ChildIter) Err() error {
	return it.err
}

// skipSubtree advances past a node whose token run starts at off (just
// past its name), returning the offset of the token immediately after
// its matching END_NODE.
func (f *Fdt) skipSubtree(off int) (int, error) {
	depth := 1
	for {
		tok, err := f.readToken(off)
		if err != nil {
			return 0, err
		}
		switch tok {
		case tokenNop:
			off += 4
		case tokenProp:
			rp, err := f.readProp(off + 4)
			if err != nil {
				return 0, err
			}
			off = rp.next
		case tokenBeginNode:
			_, next, err := f.readNodeName(off + 4)
			if err != nil {
				return 0, err
			}
			off = next
			depth++
		case tokenEndNode:
			off += 4
			depth--
			if depth == 0 {
				return off, nil
			}
		default:
			return 0, parseErr(&BadTokenError{Token: tok}, off)
		}
	}
}
