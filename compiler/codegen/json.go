package codegen

import (
	"github.com/HugoDaniel/pngine/compiler/analyzer"
	"github.com/HugoDaniel/pngine/internal/ids"
)

// jsonJob is one pending conversion in the worklist valueToJSON drains:
// v is the analyzer.Value to render, and store receives the resulting
// plain Go value (writing it into the parent slice index or map key that
// scheduled the job).
type jsonJob struct {
	v     *analyzer.Value
	store func(interface{})
}

// valueToJSON renders an analyzer.Value tree into a plain Go value suitable
// for encoding/json.Marshal. References are resolved to the concrete
// integers (or, for pool buffers and `$define.name` constants, the inlined
// substitute) a host-side descriptor parser needs — see resolveRefJSON.
//
// A DSL author can nest Object/Array bodies arbitrarily deep, so this walks
// v with an explicit worklist rather than native recursion (spec §9): an
// Object/Array's container is allocated immediately and one job per
// child/entry is pushed onto the stack, including the indirection a
// `$define.name` reference needs to inline another Value tree in its
// place, so nesting depth is bounded only by heap, never the call stack.
//
// Object keys come out of Go's map iteration, but encoding/json.Marshal
// sorts map keys before writing them, so the resulting descriptor bytes are
// still deterministic across compiles of the same source (spec §8, ID
// stability) without this function doing any sorting itself.
func (g *Generator) valueToJSON(v *analyzer.Value) interface{} {
	var result interface{}
	stack := []jsonJob{{v: v, store: func(r interface{}) { result = r }}}
	for len(stack) > 0 {
		job := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cur := job.v
		if cur == nil {
			job.store(nil)
			continue
		}
		switch cur.Kind {
		case analyzer.KindString, analyzer.KindIdentifier:
			job.store(cur.Str)
		case analyzer.KindNumber:
			job.store(cur.Num)
		case analyzer.KindArray:
			arr := make([]interface{}, len(cur.Array))
			job.store(arr)
			for i, e := range cur.Array {
				i := i
				stack = append(stack, jsonJob{v: e, store: func(r interface{}) { arr[i] = r }})
			}
		case analyzer.KindObject:
			m := make(map[string]interface{}, len(cur.Object))
			job.store(m)
			for k, val := range cur.Object {
				k := k
				stack = append(stack, jsonJob{v: val, store: func(r interface{}) { m[k] = r }})
			}
		case analyzer.KindReference:
			stack = g.resolveRefJSON(cur, job.store, stack)
		default:
			job.store(nil)
		}
	}
	return result
}

// resolveRefJSON turns a `$namespace.name` reference into the value a host
// descriptor parser actually needs:
//   - `$define.x` inlines the constant's own value (defines have no runtime
//     table of their own — spec's opcode set has no create_define opcode).
//     Since that value may itself nest further references, the substitution
//     is scheduled as another job on stack (returned to the caller) rather
//     than resolved by a recursive call.
//   - `$data.x` and `$buffer.x` go through the codegen-local remap tables,
//     since those two namespaces don't assign format-level IDs 1:1 with
//     analyzer declaration order (DataSection is shared by every resource
//     kind, and pool buffers expand into multiple sibling buffer IDs).
//   - every other namespace is 1:1 by construction (codegen walks each
//     namespace's ForEach in the same order Declare assigned it), so the
//     resolved analyzer index already is the runtime ID.
func (g *Generator) resolveRefJSON(v *analyzer.Value, store func(interface{}), stack []jsonJob) []jsonJob {
	switch v.RefNamespace {
	case "define":
		d, ok := g.ns.Define.Get(ids.New[ids.DefineMarker](v.ResolvedID()))
		if !ok || d == nil {
			store(nil)
			return stack
		}
		val, ok := d.Props["value"]
		if !ok {
			store(nil)
			return stack
		}
		return append(stack, jsonJob{v: val, store: store})
	case "data":
		store(g.dataIndexToDataID[v.ResolvedID()])
	case "buffer":
		base := g.bufferBaseID[v.ResolvedID()]
		width := g.res.PoolWidths[v.ResolvedID()]
		if width > 1 {
			offset := 0
			if g.currentBindGroupOffsets != nil {
				offset = g.currentBindGroupOffsets[v.ResolvedID()]
			}
			// The VM dispatcher rewrites this at create_bind_group dispatch
			// time using actual_id = bufferId + (frame_counter+offset) mod
			// poolWidth (spec §4.K.5, §4.N.6).
			store(map[string]interface{}{"bufferId": base, "poolWidth": width, "offset": offset})
		} else {
			store(base)
		}
	default:
		store(v.ResolvedID())
	}
	return stack
}
