package codegen

import (
	"fmt"

	"github.com/HugoDaniel/pngine/compiler/analyzer"
	"github.com/HugoDaniel/pngine/format"
	"github.com/HugoDaniel/pngine/internal/ids"
)

func endBehaviorCode(name string) format.EndBehavior {
	switch name {
	case "stop":
		return format.EndStop
	case "restart":
		return format.EndRestart
	default:
		return format.EndHold
	}
}

func formatScene(idStringID, frameStringID format.StringID, startMs, endMs uint32) format.Scene {
	return format.Scene{
		IDStringID:    idStringID,
		FrameStringID: frameStringID,
		StartMs:       startMs,
		EndMs:         endMs,
	}
}

// passEntry is a renderPass or computePass declaration looked up by the
// bare name a `#frame`'s `perform=[...]` list names it with (spec §4.J:
// perform lists name passes directly, not through a `$namespace.name`
// reference — there is exactly one pass namespace per name across both
// render and compute passes in practice, so render is tried first).
type passEntry struct {
	decl      *analyzer.Decl
	isCompute bool
}

func (g *Generator) lookupPass(name string) (passEntry, bool) {
	if id, err := g.ns.RenderPass.Lookup(name); err == nil {
		d, _ := g.ns.RenderPass.Get(id)
		return passEntry{decl: d}, true
	}
	if id, err := g.ns.ComputePass.Lookup(name); err == nil {
		d, _ := g.ns.ComputePass.Get(id)
		return passEntry{decl: d, isCompute: true}, true
	}
	return passEntry{}, false
}

// emitFrames walks every declared `#frame` and, for each name in its
// `perform=[...]` list, emits a fresh define_pass/end_pass_def body
// followed by exec_pass (or exec_pass_once, if the pass declares
// `once=true`) — matching spec §4.L's "recursively emits its passes with
// define_pass…end_pass_def, then exec_pass…". Each frame gets its own
// bytecode pass IDs (a pass referenced from two frames is re-recorded, not
// shared), since the VM dispatcher selects one frame body at a time
// (spec §4.N.7) and never straddles two frames' pass tables.
func (g *Generator) emitFrames() error {
	var nextPassID uint32
	var firstErr error

	g.ns.Frame.ForEach(func(id ids.FrameID, name string, d *analyzer.Decl) {
		if firstErr != nil {
			return
		}
		g.em.DefineFrame(uint32(id.Index()), g.intern(name))

		performVal, ok := d.Props["perform"]
		if ok && performVal.Kind != analyzer.KindArray {
			firstErr = &EmitError{Kind: "InvalidOpList", Message: "frame " + name + ".perform must be an array"}
			return
		}
		if ok {
			for _, item := range performVal.Array {
				passName, ok := item.AsString()
				if !ok {
					firstErr = &EmitError{Kind: "InvalidOpList", Message: "frame " + name + ".perform entries must name a pass"}
					return
				}
				pass, ok := g.lookupPass(passName)
				if !ok {
					firstErr = &EmitError{Kind: "UnknownPass", Message: fmt.Sprintf("frame %s references unknown pass %q", name, passName)}
					return
				}
				passID := nextPassID
				nextPassID++

				g.em.DefinePass(passID, g.intern(passName))
				if pass.isCompute {
					g.emitComputePassBody(passID, pass.decl)
				} else {
					g.emitRenderPassBody(passID, pass.decl)
				}
				g.em.EndPassDef()

				once := false
				if v, ok := pass.decl.Props["once"]; ok {
					once = v.Kind == analyzer.KindIdentifier && v.Str == "true"
				}
				if once {
					g.em.ExecPassOnce(passID)
				} else {
					g.em.ExecPass(passID)
				}
			}
		}
		g.em.Submit()
	})
	return firstErr
}

// passBodyKeys are the #renderPass/#computePass fields this package emits itself,
// as dedicated opcodes rather than folding into the pass descriptor.
var passBodyKeys = map[string]bool{
	"pipeline":      true,
	"bindGroups":    true,
	"vertexBuffers": true,
	"indexBuffer":   true,
	"draw":          true,
	"workgroups":    true,
	"once":          true,
}

// passAttachmentsJSON builds the begin_render_pass/begin_compute_pass
// descriptor from whatever attachment-shaped fields (colorAttachments,
// depthStencilAttachment, timestampWrites, ...) the declaration carries
// beyond the ones emitRenderPassBody/emitComputePassBody already consume as
// dedicated opcodes.
func (g *Generator) passAttachmentsJSON(d *analyzer.Decl) interface{} {
	m := make(map[string]interface{})
	for k, v := range d.Props {
		if passBodyKeys[k] {
			continue
		}
		m[k] = g.valueToJSON(v)
	}
	return m
}

// emitRenderPassBody brackets its body with begin_render_pass/end_pass
// (spec §4.N.5 "emits pass begin/end pairs and body commands"), using a
// descriptor built from whatever attachment-shaped fields the declaration
// carries beyond the ones this function consumes itself.
func (g *Generator) emitRenderPassBody(passID uint32, d *analyzer.Decl) {
	g.em.BeginRenderPass(passID, g.descriptorBytes(g.passAttachmentsJSON(d)))
	defer g.em.EndPass()

	if pipeline, ok := d.Props["pipeline"]; ok {
		if id, ok := g.refUint32(pipeline); ok {
			g.em.SetPipeline(id)
		}
	}
	if groups, ok := d.Props["bindGroups"]; ok && groups.Kind == analyzer.KindArray {
		for i, gref := range groups.Array {
			if id, ok := g.refUint32(gref); ok {
				g.em.SetBindGroup(uint32(i), id)
			}
		}
	}
	if buffers, ok := d.Props["vertexBuffers"]; ok && buffers.Kind == analyzer.KindArray {
		for slot, bref := range buffers.Array {
			if id, ok := g.refUint32(bref); ok {
				g.em.SetVertexBuffer(uint32(slot), id)
			}
		}
	}
	var indexed bool
	if idx, ok := d.Props["indexBuffer"]; ok && idx.Kind == analyzer.KindObject {
		if bufRef, ok := idx.Object["buffer"]; ok {
			if id, ok := g.refUint32(bufRef); ok {
				g.em.SetIndexBuffer(id, indexFormatCode(idx.Object["format"]))
				indexed = true
			}
		}
	}
	count, _ := d.Props["draw"].AsNumber()
	if indexed {
		g.em.DrawIndexed(uint32(count), 1, 0, 0, 0)
	} else {
		g.em.Draw(uint32(count), 1, 0, 0)
	}
}

// emitComputePassBody brackets its body with begin_compute_pass/end_pass,
// mirroring emitRenderPassBody.
func (g *Generator) emitComputePassBody(passID uint32, d *analyzer.Decl) {
	g.em.BeginComputePass(passID, g.descriptorBytes(g.passAttachmentsJSON(d)))
	defer g.em.EndPass()

	if pipeline, ok := d.Props["pipeline"]; ok {
		if id, ok := g.refUint32(pipeline); ok {
			g.em.SetPipeline(id)
		}
	}
	if groups, ok := d.Props["bindGroups"]; ok && groups.Kind == analyzer.KindArray {
		for i, gref := range groups.Array {
			if id, ok := g.refUint32(gref); ok {
				g.em.SetBindGroup(uint32(i), id)
			}
		}
	}
	var x, y, z float64 = 1, 1, 1
	if wg, ok := d.Props["workgroups"]; ok && wg.Kind == analyzer.KindArray && len(wg.Array) == 3 {
		x, _ = wg.Array[0].AsNumber()
		y, _ = wg.Array[1].AsNumber()
		z, _ = wg.Array[2].AsNumber()
	}
	g.em.Dispatch(uint32(x), uint32(y), uint32(z))
}
