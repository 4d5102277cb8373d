package ids

import "errors"

// ErrDuplicateName is returned by Declare when a name is already present in
// the namespace (spec §3: "duplicate = compile error").
var ErrDuplicateName = errors.New("ids: duplicate name in namespace")

// ErrUnknownName is returned by Lookup when no such name has been declared.
var ErrUnknownName = errors.New("ids: unknown name in namespace")

// Namespace is one of the analyzer's 23 per-kind symbol tables (spec §4.K.1).
// It is the compiler-time analogue of a GPU resource registry: Declare
// allocates a new, monotonically increasing ID the same way Registry.Register
// does, but there is no Unregister and no epoch, because analyzer namespaces
// are write-once — every name is declared exactly once during the single
// pass over the AST (spec §4.K), and assigned IDs must stay stable for
// byte-identical recompiles (spec §8, ID stability).
type Namespace[T any, M Marker] struct {
	byName map[string]ID[M]
	items  []T
	names  []string
}

// NewNamespace creates an empty namespace.
func NewNamespace[T any, M Marker]() *Namespace[T, M] {
	return &Namespace[T, M]{byName: make(map[string]ID[M])}
}

// Declare assigns the next ID in declaration order to name and stores item.
// It returns ErrDuplicateName, unchanged, if name is already declared.
func (n *Namespace[T, M]) Declare(name string, item T) (ID[M], error) {
	if _, ok := n.byName[name]; ok {
		return ID[M]{}, ErrDuplicateName
	}
	id := New[M](Index(len(n.items)))
	n.byName[name] = id
	n.items = append(n.items, item)
	n.names = append(n.names, name)
	return id, nil
}

// Lookup resolves a declared name to its ID (spec §4.K.2, reference
// resolution of "$namespace.name").
func (n *Namespace[T, M]) Lookup(name string) (ID[M], error) {
	id, ok := n.byName[name]
	if !ok {
		return ID[M]{}, ErrUnknownName
	}
	return id, nil
}

// Has reports whether name has been declared.
func (n *Namespace[T, M]) Has(name string) bool {
	_, ok := n.byName[name]
	return ok
}

// Get returns the item stored at id. The second return is false if id is
// out of range.
func (n *Namespace[T, M]) Get(id ID[M]) (T, bool) {
	i := int(id.Index())
	if i < 0 || i >= len(n.items) {
		var zero T
		return zero, false
	}
	return n.items[i], true
}

// Name returns the declared name for id, or "" if id is out of range.
func (n *Namespace[T, M]) Name(id ID[M]) string {
	i := int(id.Index())
	if i < 0 || i >= len(n.names) {
		return ""
	}
	return n.names[i]
}

// Len returns the number of declared names, i.e. the number of IDs that
// will be assigned in this namespace.
func (n *Namespace[T, M]) Len() int {
	return len(n.items)
}

// ForEach iterates items in declaration order — the same order the DSL
// emitter (spec §4.L) must walk to keep resource-creation bytecode ahead of
// any opcode that references it.
func (n *Namespace[T, M]) ForEach(fn func(ID[M], string, T)) {
	for i, item := range n.items {
		fn(New[M](Index(i)), n.names[i], item)
	}
}
