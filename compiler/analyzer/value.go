package analyzer

import (
	"sort"
	"strconv"

	"github.com/HugoDaniel/pngine/compiler/parser"
)

// ValueKind tags the shape a property value takes once the flat AST is
// converted into the analyzer's working representation (spec §4.J's
// "values that may be atoms, strings, identifiers, numbers, object bodies,
// arrays, or references").
type ValueKind uint8

const (
	KindString ValueKind = iota
	KindNumber
	KindIdentifier
	KindObject
	KindArray
	KindReference
)

// Value is one property value, resolved to the point where a reference
// carries its target namespace/name until the reference-resolution pass
// fills in ResolvedID. A DSL author can nest Object/Array bodies arbitrarily
// deep (`compiler/parser`'s explicit-stack `parseBody` flattens any depth
// into the AST without complaint), so building and walking the Value tree
// below uses explicit worklists rather than native call recursion, matching
// the no-recursion-anywhere discipline spec §9 requires of the rest of the
// pipeline (lexer, parser, import-cycle DFS, VM dispatcher).
type Value struct {
	Kind ValueKind

	Str string  // String, Identifier
	Num float64 // Number

	Object map[string]*Value
	Array  []*Value

	RefNamespace string // Reference
	RefName      string // Reference

	Start, End int

	resolved   bool
	resolvedID uint16
}

// ResolvedID returns the reference's resolved integer ID. Only valid after
// a successful Analyze call; panics if called on a non-reference or before
// resolution, since that indicates a codegen bug rather than a data error.
func (v *Value) ResolvedID() uint16 {
	if v.Kind != KindReference || !v.resolved {
		panic("analyzer: ResolvedID called on an unresolved or non-reference value")
	}
	return v.resolvedID
}

// AsString returns Str for String/Identifier values, or "" otherwise.
func (v *Value) AsString() (string, bool) {
	if v == nil || (v.Kind != KindString && v.Kind != KindIdentifier) {
		return "", false
	}
	return v.Str, true
}

// AsNumber returns Num for Number values.
func (v *Value) AsNumber() (float64, bool) {
	if v == nil || v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// valueJob is one pending conversion in the worklist valueFromNode and
// propsFromObject share: idx names the AST node to convert, and store is
// called with the resulting Value once it is built (writing it into the
// parent array slot or object map entry that scheduled the job).
type valueJob struct {
	idx   int32
	store func(*Value)
}

// runValueJobs drains stack, converting each pending node into a Value and
// handing it to that job's store callback. Object/Array nodes build their
// container (map/slice) immediately and push one job per child onto stack
// instead of recursing, so nesting depth is bounded only by heap, not by
// the native call stack (spec §9 "no recursion is used anywhere").
func runValueJobs(ast *parser.AST, stack []valueJob) {
	for len(stack) > 0 {
		job := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := ast.Nodes[job.idx]
		switch n.Kind {
		case parser.NodeString:
			job.store(&Value{Kind: KindString, Str: n.Name, Start: n.Start, End: n.End})
		case parser.NodeIdentifier:
			job.store(&Value{Kind: KindIdentifier, Str: n.Name, Start: n.Start, End: n.End})
		case parser.NodeNumber:
			f, _ := strconv.ParseFloat(n.Name, 64)
			job.store(&Value{Kind: KindNumber, Num: f, Start: n.Start, End: n.End})
		case parser.NodeReference:
			job.store(&Value{Kind: KindReference, RefNamespace: n.Name, RefName: n.RefName, Start: n.Start, End: n.End})
		case parser.NodeArray:
			children := ast.Children(n)
			arr := make([]*Value, len(children))
			job.store(&Value{Kind: KindArray, Array: arr, Start: n.Start, End: n.End})
			for i, c := range children {
				i := i
				stack = append(stack, valueJob{idx: c, store: func(v *Value) { arr[i] = v }})
			}
		case parser.NodeObject:
			children := ast.Children(n)
			obj := make(map[string]*Value, len(children))
			job.store(&Value{Kind: KindObject, Object: obj, Start: n.Start, End: n.End})
			for _, c := range children {
				prop := ast.Nodes[c]
				if prop.Kind != parser.NodeProperty {
					continue
				}
				name := prop.Name
				stack = append(stack, valueJob{idx: prop.ValueIdx, store: func(v *Value) { obj[name] = v }})
			}
		default:
			job.store(&Value{Kind: KindString, Start: n.Start, End: n.End})
		}
	}
}

// valueFromNode converts one AST node (and everything under it) into a
// Value tree.
func valueFromNode(ast *parser.AST, idx int32) *Value {
	var result *Value
	runValueJobs(ast, []valueJob{{idx: idx, store: func(v *Value) { result = v }}})
	return result
}

// propsFromObject builds the name->Value map for an Object node's Property
// children.
func propsFromObject(ast *parser.AST, obj parser.Node) map[string]*Value {
	children := ast.Children(obj)
	props := make(map[string]*Value, len(children))
	var stack []valueJob
	for _, c := range children {
		prop := ast.Nodes[c]
		if prop.Kind != parser.NodeProperty {
			continue
		}
		name := prop.Name
		stack = append(stack, valueJob{idx: prop.ValueIdx, store: func(v *Value) { props[name] = v }})
	}
	runValueJobs(ast, stack)
	return props
}

// walk calls fn for v and every Value nested under it (Object values and
// Array elements), using an explicit stack instead of recursing so
// reference resolution can visit an arbitrarily deep descriptor body
// without growing the native call stack (spec §9). Traversal order matches
// the original recursive walk: a node, then its children in order.
func walk(v *Value, fn func(*Value) error) error {
	if v == nil {
		return nil
	}
	stack := []*Value{v}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == nil {
			continue
		}
		if err := fn(cur); err != nil {
			return err
		}
		switch cur.Kind {
		case KindObject:
			// Sorted traversal keeps error reporting deterministic across
			// runs of the same source (map iteration order is not stable).
			keys := make([]string, 0, len(cur.Object))
			for k := range cur.Object {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for i := len(keys) - 1; i >= 0; i-- {
				stack = append(stack, cur.Object[keys[i]])
			}
		case KindArray:
			for i := len(cur.Array) - 1; i >= 0; i-- {
				stack = append(stack, cur.Array[i])
			}
		}
	}
	return nil
}
