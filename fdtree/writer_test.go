package fdtree

import (
	"bytes"
	"testing"

	"github.com/tinyrange/dtkit/fdt"
)

func TestToBytesRoundTrip(t *testing.T) {
	tree := NewTree()
	tree.Root.SetProperty("#address-cells", u32Bytes(2))
	tree.Root.SetProperty("#size-cells", u32Bytes(1))
	tree.Root.SetProperty("compatible", []byte("acme,board\x00"))
	tree.MemoryReservations = append(tree.MemoryReservations, MemoryReservation{
		Address: 0x1000,
		Size:    0x2000,
	})

	cpus := tree.Root.AddChild("cpus")
	cpus.SetProperty("#address-cells", u32Bytes(1))
	cpus.SetProperty("#size-cells", u32Bytes(0))
	cpu0 := cpus.AddChild("cpu@0")
	cpu0.SetProperty("reg", u32Bytes(0))
	cpu0.SetProperty("device_type", []byte("cpu\x00"))

	mem := tree.Root.AddChild("memory@80000000")
	mem.SetProperty("device_type", []byte("memory\x00"))
	mem.SetProperty("reg", regBytes(0x80000000, 0x40000000))

	blob := tree.ToBytes()

	parsed, err := fdt.Open(blob)
	if err != nil {
		t.Fatalf("fdt.Open(tree.ToBytes()): %v", err)
	}

	root, err := parsed.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.Name() != "" {
		t.Errorf("root name = %q, want empty", root.Name())
	}

	compat, ok, err := root.Property("compatible")
	if err != nil || !ok {
		t.Fatalf("Property(compatible): ok=%v err=%v", ok, err)
	}
	s, err := compat.AsString()
	if err != nil || s != "acme,board" {
		t.Fatalf("AsString() = %q, %v, want %q, nil", s, err, "acme,board")
	}

	cpusNode, ok, err := root.Child("cpus")
	if err != nil || !ok {
		t.Fatalf("Child(cpus): ok=%v err=%v", ok, err)
	}
	cpu0Node, ok, err := cpusNode.Child("cpu@0")
	if err != nil || !ok {
		t.Fatalf("Child(cpu@0): ok=%v err=%v", ok, err)
	}
	if cpu0Node.NameWithoutAddress() != "cpu" {
		t.Errorf("NameWithoutAddress() = %q, want cpu", cpu0Node.NameWithoutAddress())
	}

	memNode, err := parsed.FindNode("/memory@80000000")
	if err != nil {
		t.Fatalf("FindNode: %v", err)
	}
	regProp, ok, err := memNode.Property("reg")
	if err != nil || !ok {
		t.Fatalf("Property(reg): ok=%v err=%v", ok, err)
	}
	recIt, err := regProp.AsPropEncodedArray(2, 1)
	if err != nil {
		t.Fatalf("AsPropEncodedArray: %v", err)
	}
	if !recIt.Next() {
		t.Fatalf("expected one reg record")
	}
	rec := recIt.Record()
	addr, err := fdt.ToUint[uint64](rec[0])
	if err != nil {
		t.Fatalf("ToUint(address): %v", err)
	}
	size, err := fdt.ToUint[uint32](rec[1])
	if err != nil {
		t.Fatalf("ToUint(size): %v", err)
	}
	if addr != 0x80000000 || size != 0x40000000 {
		t.Errorf("reg = (%#x, %#x), want (0x80000000, 0x40000000)", addr, size)
	}

	resIt := parsed.MemoryReservations()
	if !resIt.Next() {
		t.Fatalf("expected one memory reservation")
	}
	r := resIt.Reservation()
	if r.Address != 0x1000 || r.Size != 0x2000 {
		t.Errorf("reservation = %+v, want {0x1000 0x2000}", r)
	}
	if resIt.Next() {
		t.Errorf("expected exactly one memory reservation")
	}
}

func TestFromFdtRoundTrip(t *testing.T) {
	tree := NewTree()
	tree.Root.SetProperty("model", []byte("test board\x00"))
	child := tree.Root.AddChild("soc")
	child.SetProperty("ranges", nil)

	blob := tree.ToBytes()
	parsed, err := fdt.Open(blob)
	if err != nil {
		t.Fatalf("fdt.Open: %v", err)
	}

	owned, err := FromFdt(parsed)
	if err != nil {
		t.Fatalf("FromFdt: %v", err)
	}
	if owned.Root.Name != "" {
		t.Errorf("Root.Name = %q, want empty", owned.Root.Name)
	}
	model, ok := owned.Root.Property("model")
	if !ok || string(model.Value) != "test board\x00" {
		t.Errorf("Property(model) = %q, %v, want %q, true", model.Value, ok, "test board\x00")
	}
	soc, ok := owned.Root.Child("soc")
	if !ok {
		t.Fatalf("Child(soc) not found")
	}
	ranges, ok := soc.Property("ranges")
	if !ok || len(ranges.Value) != 0 {
		t.Errorf("Property(ranges) = %v, %v, want empty slice, true", ranges.Value, ok)
	}

	// The round trip must reserialize identically.
	blob2 := owned.ToBytes()
	if len(blob) != len(blob2) {
		t.Fatalf("reserialized length = %d, want %d", len(blob2), len(blob))
	}
	if !bytes.Equal(blob, blob2) {
		t.Errorf("reserialized blob differs from the original")
	}
}

func u32Bytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// regBytes encodes one reg entry with a two-cell address and a one-cell
// size, matching the root's #address-cells = 2 and #size-cells = 1.
func regBytes(addr uint64, size uint32) []byte {
	b := append(u32Bytes(uint32(addr>>32)), u32Bytes(uint32(addr))...)
	return append(b, u32Bytes(size)...)
}
