package ids

import "testing"

func TestNamespaceDeclareOrder(t *testing.T) {
	ns := NewNamespace[int, BufferMarker]()

	idA, err := ns.Declare("a", 10)
	if err != nil {
		t.Fatalf("Declare(a): %v", err)
	}
	idB, err := ns.Declare("b", 20)
	if err != nil {
		t.Fatalf("Declare(b): %v", err)
	}

	if idA.Index() != 0 || idB.Index() != 1 {
		t.Fatalf("expected IDs 0,1 in declaration order, got %d,%d", idA.Index(), idB.Index())
	}
	if ns.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ns.Len())
	}
}

func TestNamespaceDuplicateName(t *testing.T) {
	ns := NewNamespace[int, BufferMarker]()
	if _, err := ns.Declare("x", 1); err != nil {
		t.Fatalf("first Declare: %v", err)
	}
	if _, err := ns.Declare("x", 2); err != ErrDuplicateName {
		t.Fatalf("second Declare(x) error = %v, want ErrDuplicateName", err)
	}
	if ns.Len() != 1 {
		t.Fatalf("duplicate declare should not grow namespace, Len() = %d", ns.Len())
	}
}

func TestNamespaceLookup(t *testing.T) {
	ns := NewNamespace[string, WgslMarker]()
	id, _ := ns.Declare("shader1", "body")

	got, err := ns.Lookup("shader1")
	if err != nil {
		t.Fatalf("Lookup(shader1): %v", err)
	}
	if got != id {
		t.Fatalf("Lookup(shader1) = %v, want %v", got, id)
	}

	if _, err := ns.Lookup("missing"); err != ErrUnknownName {
		t.Fatalf("Lookup(missing) error = %v, want ErrUnknownName", err)
	}
}

func TestNamespaceGetAndName(t *testing.T) {
	ns := NewNamespace[string, DataMarker]()
	id, _ := ns.Declare("blob", "payload")

	item, ok := ns.Get(id)
	if !ok || item != "payload" {
		t.Fatalf("Get(id) = (%v, %v), want (payload, true)", item, ok)
	}
	if ns.Name(id) != "blob" {
		t.Fatalf("Name(id) = %q, want blob", ns.Name(id))
	}

	if _, ok := ns.Get(New[DataMarker](99)); ok {
		t.Fatal("Get on out-of-range ID should report false")
	}
}

func TestNamespaceForEachIsDeclarationOrder(t *testing.T) {
	ns := NewNamespace[int, FrameMarker]()
	ns.Declare("first", 1)
	ns.Declare("second", 2)
	ns.Declare("third", 3)

	var order []string
	ns.ForEach(func(id ID[FrameMarker], name string, item int) {
		order = append(order, name)
		if int(id.Index()) != item-1 {
			t.Errorf("id %d should correspond to item %d", id.Index(), item)
		}
	})

	want := []string{"first", "second", "third"}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("ForEach order = %v, want %v", order, want)
		}
	}
}
