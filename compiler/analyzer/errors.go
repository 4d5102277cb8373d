package analyzer

import (
	"fmt"
	"strings"
)

// DuplicateName is returned when a namespace declares the same name twice
// (spec §4.K.1).
type DuplicateName struct {
	Namespace string
	Name      string
	Start     int
	End       int
}

func (e *DuplicateName) Error() string {
	return fmt.Sprintf("analyzer: duplicate name %q in namespace %q (at byte %d)", e.Name, e.Namespace, e.Start)
}

// UnresolvedReference is returned when a `$namespace.name` expression does
// not resolve (spec §4.K.2).
type UnresolvedReference struct {
	Namespace string
	Name      string
	Start     int
	End       int
}

func (e *UnresolvedReference) Error() string {
	return fmt.Sprintf("analyzer: unresolved reference $%s.%s (at byte %d)", e.Namespace, e.Name, e.Start)
}

// ImportCycle is returned when the `#wgsl` import graph contains a cycle
// (spec §4.K.3).
type ImportCycle struct {
	Names []string
}

func (e *ImportCycle) Error() string {
	return fmt.Sprintf("analyzer: import cycle: %s", strings.Join(e.Names, " -> "))
}

// InvalidForm is returned for a macro body that violates its own shape
// requirements (e.g. an unknown macro form, or a second #animation).
type InvalidForm struct {
	Message string
	Start   int
	End     int
}

func (e *InvalidForm) Error() string {
	return fmt.Sprintf("analyzer: %s (at byte %d)", e.Message, e.Start)
}

// FieldKind names the expected shape of a property value for a
// TypeMismatch error (spec §6: ExpectedAtom/String/Number/List).
type FieldKind uint8

const (
	ExpectedAtom FieldKind = iota
	ExpectedString
	ExpectedNumber
	ExpectedList
)

func (k FieldKind) String() string {
	switch k {
	case ExpectedAtom:
		return "atom"
	case ExpectedString:
		return "string"
	case ExpectedNumber:
		return "number"
	case ExpectedList:
		return "list"
	default:
		return "value"
	}
}

// TypeMismatch is returned when a property's value does not have the shape
// a macro form requires (e.g. `size="x"` where a number was expected).
type TypeMismatch struct {
	Field    string
	Expected FieldKind
	Start    int
	End      int
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("analyzer: field %q expected a %s (at byte %d)", e.Field, e.Expected, e.Start)
}

// InvalidResourceID describes a reference that resolves to a namespace but
// cannot be mapped to a usable resource (e.g. a `$buffer.x` reference used
// where a sampler was required). No check in this package returns it.
type InvalidResourceID struct {
	Namespace string
	Name      string
	Start     int
	End       int
}

func (e *InvalidResourceID) Error() string {
	return fmt.Sprintf("analyzer: %q is not a valid resource in namespace %q (at byte %d)", e.Name, e.Namespace, e.Start)
}
