package fdtree

import "github.com/tinyrange/dtkit/fdt"

// FromFdt materializes an owned Tree from a parsed, read-only fdt.Fdt,
// copying every name and property value so the result no longer borrows
// from the source blob.
func FromFdt(src *fdt.Fdt) (*Tree, error) {
	root, err := src.Root()
	if err != nil {
		return nil, err
	}
	t := &Tree{Root: NewNode(root.Name())}
	if err := fillNode(t.Root, root); err != nil {
		return nil, err
	}

	it := src.MemoryReservations()
	for it.Next() {
		r := it.Reservation()
		t.MemoryReservations = append(t.MemoryReservations, MemoryReservation{
			Address: r.Address,
			Size:    r.Size,
		})
	}
	if it.Err() != nil {
		return nil, it.Err()
	}

	return t, nil
}

// fillNode copies src's direct properties and recursively materializes
// its children underneath dst.
func fillNode(dst *Node, src fdt.Node) error {
	pit := src.Properties()
	for pit.Next() {
		p := pit.Property()
		value := append([]byte(nil), p.RawValue()...)
		dst.SetProperty(p.Name(), value)
	}
	if pit.Err() != nil {
		return pit.Err()
	}

	cit := src.Children()
	for cit.Next() {
		c := cit.Node()
		child := dst.AddChild(c.Name())
		if err := fillNode(child, c); err != nil {
			return err
		}
	}
	return cit.Err()
}
