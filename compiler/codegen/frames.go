package codegen

import (
	"fmt"

	"github.com/HugoDaniel/pngine/compiler/analyzer"
	"github.com/HugoDaniel/pngine/internal/ids"
)

// EmitError is returned for codegen-local failures the analyzer cannot
// catch because they depend on bytecode-level shape, not AST shape (spec
// §6 EmitError{kind}).
type EmitError struct {
	Kind    string
	Message string
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("codegen: %s: %s", e.Kind, e.Message)
}

// refUint32 resolves a reference Value to the plain numeric ID a bytecode
// opcode argument needs. It follows the same namespace rules as
// resolveRefJSON (json.go) but always returns a bare uint32 — callers that
// need the pool-aware {bufferId,poolWidth} shape for a descriptor go
// through resolveRefJSON/valueToJSON instead. A pool buffer resolves here
// to its base ID (rotation offset 0); per-consumer offsets only apply to
// bind-group entries, recorded separately in Result.BindGroupPoolOffsets.
func (g *Generator) refUint32(v *analyzer.Value) (uint32, bool) {
	if v == nil || v.Kind != analyzer.KindReference {
		if n, ok := v.AsNumber(); ok {
			return uint32(n), true
		}
		return 0, false
	}
	switch v.RefNamespace {
	case "data":
		return g.dataIndexToDataID[v.ResolvedID()], true
	case "buffer":
		return g.bufferBaseID[v.ResolvedID()], true
	default:
		return uint32(v.ResolvedID()), true
	}
}

// emitQueueWrites handles every `#queue` declaration's `writes=[...]` list
// (spec §4.H "Queue operations"). Queue ops are emitted straight-line, with
// no pass wrapper, ahead of any frame body: write_time_uniform in
// particular must run every time the VM walks the stream, since it is how
// the clock uniform is refreshed each frame (spec §6 VM I/O "per-frame time").
func (g *Generator) emitQueueWrites() error {
	var firstErr error
	g.ns.Queue.ForEach(func(_ ids.QueueID, name string, d *analyzer.Decl) {
		if firstErr != nil {
			return
		}
		if err := g.emitOpList(d, name, "writes"); err != nil {
			firstErr = err
		}
	})
	return firstErr
}

// emitInit handles every `#init` declaration's `perform=[...]` op list as a
// one-shot bootstrap block: its ops are wrapped in their own
// define_pass/end_pass_def body and triggered with exec_pass_once, so the
// VM dispatcher's §4.N.5 "exec_pass_once runs only on the first execution
// of the enclosing frame" rule makes them run exactly once across the
// module's lifetime (the global prefix is common to every per-frame walk).
func (g *Generator) emitInit() error {
	var firstErr error
	g.ns.Init.ForEach(func(id ids.InitID, name string, d *analyzer.Decl) {
		if firstErr != nil {
			return
		}
		passID := uint32(id.Index())
		g.em.DefinePass(passID, g.intern(name))
		if err := g.emitOpList(d, name, "perform"); err != nil {
			firstErr = err
			return
		}
		g.em.EndPassDef()
		g.em.ExecPassOnce(passID)
	})
	return firstErr
}

// emitOpList walks a `{ op="..." ... }` list under key and emits the
// matching queue/data-generation opcode for each entry. It is shared by
// #queue and #init since both namespaces use the same op vocabulary; only
// the surrounding wrapper (none vs. a once-only pass) differs.
func (g *Generator) emitOpList(d *analyzer.Decl, ownerName, key string) error {
	list, ok := d.Props[key]
	if !ok {
		return nil
	}
	if list.Kind != analyzer.KindArray {
		return &EmitError{Kind: "InvalidOpList", Message: ownerName + "." + key + " must be an array"}
	}
	for i, opVal := range list.Array {
		if opVal.Kind != analyzer.KindObject {
			return &EmitError{Kind: "InvalidOpList", Message: fmt.Sprintf("%s.%s[%d] must be an object", ownerName, key, i)}
		}
		if err := g.emitOneOp(opVal.Object); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) emitOneOp(props map[string]*analyzer.Value) error {
	kind, _ := props["op"].AsString()
	switch kind {
	case "writeBuffer":
		buf, _ := g.refUint32(props["buffer"])
		offset, _ := props["offset"].AsNumber()
		data, _ := g.refUint32(props["data"])
		g.em.WriteBuffer(buf, uint32(offset), data)
	case "writeTimeUniform":
		buf, _ := g.refUint32(props["buffer"])
		offset, _ := props["offset"].AsNumber()
		g.em.WriteTimeUniform(buf, uint32(offset))
	case "copyBufferToBuffer":
		src, _ := g.refUint32(props["src"])
		srcOffset, _ := props["srcOffset"].AsNumber()
		dst, _ := g.refUint32(props["dst"])
		dstOffset, _ := props["dstOffset"].AsNumber()
		size, _ := props["size"].AsNumber()
		g.em.CopyBufferToBuffer(src, uint32(srcOffset), dst, uint32(dstOffset), uint32(size))
	case "copyTextureToTexture":
		src, _ := g.refUint32(props["src"])
		dst, _ := g.refUint32(props["dst"])
		width, _ := props["width"].AsNumber()
		height, _ := props["height"].AsNumber()
		g.em.CopyTextureToTexture(src, dst, uint32(width), uint32(height))
	case "writeBufferFromWasm":
		buf, _ := g.refUint32(props["buffer"])
		offset, _ := props["offset"].AsNumber()
		call, _ := g.refUint32(props["call"])
		g.em.WriteBufferFromWasm(buf, uint32(offset), call)
	case "copyExternalImageToTexture":
		tex, _ := g.refUint32(props["texture"])
		src, _ := g.refUint32(props["source"])
		g.em.CopyExternalImageToTexture(tex, src)
	case "writeBufferFromArray":
		buf, _ := g.refUint32(props["buffer"])
		data, _ := g.refUint32(props["data"])
		g.em.WriteBufferFromArray(buf, data)
	default:
		return &EmitError{Kind: "UnknownOp", Message: fmt.Sprintf("unknown queue op %q", kind)}
	}
	return nil
}

// emitAnimation populates the module's AnimationTable from the single
// `#animation` declaration, if any (spec §3, §4.F). Scene ordering follows
// declaration order, matching the analyzer's Scene namespace expansion.
func (g *Generator) emitAnimation() {
	if g.ns.Animation.Len() == 0 {
		return
	}
	var d *analyzer.Decl
	g.ns.Animation.ForEach(func(_ ids.AnimationID, _ string, decl *analyzer.Decl) { d = decl })
	if d == nil {
		return
	}

	duration, _ := d.Props["duration"].AsNumber()
	loop := false
	if v, ok := d.Props["loop"]; ok {
		loop = v.Kind == analyzer.KindIdentifier && v.Str == "true"
	}
	endBehaviorName, _ := d.Props["endBehavior"].AsString()

	g.mod.Animation.HasAnimation = true
	g.mod.Animation.NameStringID = g.intern(d.Name)
	g.mod.Animation.DurationMs = uint32(duration)
	g.mod.Animation.Loop = loop
	g.mod.Animation.EndBehavior = endBehaviorCode(endBehaviorName)

	g.ns.Scene.ForEach(func(_ ids.SceneID, name string, scene *analyzer.Decl) {
		frameName, _ := scene.Props["frame"].AsString()
		start, _ := scene.Props["start"].AsNumber()
		end, _ := scene.Props["end"].AsNumber()
		g.mod.Animation.Scenes = append(g.mod.Animation.Scenes, formatScene(
			g.intern(name), g.intern(frameName), uint32(start), uint32(end),
		))
	})
}
