// Package codegen implements the DSL Emitter (spec §4.L): it walks an
// analyzed AST in the fixed order shaders → data → buffers → textures →
// samplers → layouts → pipelines → bind groups → queue writes → frames,
// assigning each namespace's runtime IDs and feeding a bytecode.Emitter
// and a format.Module's tables. It is grounded on a GPU resource core's
// ordered command-recording discipline (resource creation always precedes
// consumption), generalized from one command buffer to PNGB's
// resource-creation-then-frame-structure bytecode.
package codegen

import (
	"encoding/json"

	"github.com/HugoDaniel/pngine/bytecode"
	"github.com/HugoDaniel/pngine/compiler/analyzer"
	"github.com/HugoDaniel/pngine/format"
	"github.com/HugoDaniel/pngine/internal/ids"
)

// Generator holds the mutable state one Generate call accumulates: the
// emitter, the module-in-progress, and the codegen-local ID remap tables
// documented in json.go's resolveRefJSON.
type Generator struct {
	ns  *analyzer.Namespaces
	res *analyzer.Result
	mod *format.Module
	em  *bytecode.Emitter

	dataIndexToDataID map[uint16]uint32
	bufferBaseID      map[uint16]uint32

	// currentBindGroupOffsets is set while emitting one bind group's
	// descriptor JSON, so resolveRefJSON's "buffer" case can attach the
	// per-consumer pool rotation offset the analyzer recorded for it (spec
	// §4.K.5 "records bindGroupsPoolOffsets per consumer"). nil outside of
	// emitBindGroups.
	currentBindGroupOffsets map[uint16]int
}

// Generate runs the full emission pass and returns the assembled (not yet
// serialized) Module plus its bytecode.
func Generate(res *analyzer.Result) (*format.Module, []byte, error) {
	g := &Generator{
		ns:                res.NS,
		res:               res,
		mod:               format.NewModule(),
		em:                bytecode.NewEmitter(),
		dataIndexToDataID: make(map[uint16]uint32),
		bufferBaseID:      make(map[uint16]uint32),
	}
	g.mod.Plugins = res.Plugins

	g.emitShaders()
	g.emitData()
	g.emitBuffers()
	g.emitTextures()
	g.emitSamplers()
	g.emitLayouts()
	g.emitPipelines()
	g.emitBindGroups()
	g.emitUniforms()
	g.emitAnimation()
	g.emitQueueWrites()
	if err := g.emitInit(); err != nil {
		return nil, nil, err
	}
	if err := g.emitFrames(); err != nil {
		return nil, nil, err
	}
	g.em.End()

	g.mod.Bytecode = g.em.Bytes()
	return g.mod, g.mod.Bytecode, nil
}

func (g *Generator) intern(s string) uint16 {
	id, _ := g.mod.Strings.Intern(s)
	return id
}

func (g *Generator) descriptorBytes(v interface{}) uint32 {
	b, _ := json.Marshal(v)
	return uint32(g.mod.Data.AddBytes(b))
}

// emitShaders handles every `#wgsl` declaration: its source goes to
// DataSection, its WgslTable entry records that DataId, and — since the
// grammar has no standalone `#shaderModule` top-level form (spec §4.J
// lists exactly 17 macros) — each `#wgsl` also auto-declares a same-named
// ShaderModule resource and its create_shader_module opcode, 1:1 in
// declaration order.
func (g *Generator) emitShaders() {
	g.ns.Wgsl.ForEach(func(id ids.WgslID, name string, d *analyzer.Decl) {
		code, _ := d.Props["code"].AsString()
		dataID := g.mod.Data.AddBytes([]byte(code))

		var entryPointIDs []format.StringID
		if eps, ok := d.Props["entryPoints"]; ok && eps.Kind == analyzer.KindArray {
			for _, ep := range eps.Array {
				if s, ok := ep.AsString(); ok {
					entryPointIDs = append(entryPointIDs, g.intern(s))
				}
			}
		}

		wgslID, _ := g.mod.Wgsl.Add(format.WgslEntry{
			NameStringID:  g.intern(name),
			DataID:        dataID,
			EntryPointIDs: entryPointIDs,
		})

		shaderModuleID, _ := g.ns.ShaderModule.Declare(name, d)

		// The emitter MUST emit the DataId WgslTable actually stores, never
		// the WgslId itself (spec §8, "Shader-data binding").
		resolvedDataID, _ := g.mod.Wgsl.DataIDFor(wgslID)
		g.em.CreateShaderModule(uint32(shaderModuleID.Index()), uint32(resolvedDataID))
	})
}

// emitData materializes every `#data` declaration's value into DataSection
// and records the analyzer-index -> DataId remap every later `$data.name`
// reference resolves through.
func (g *Generator) emitData() {
	g.ns.Data.ForEach(func(id ids.DataID, _ string, d *analyzer.Decl) {
		var payload interface{}
		if v, ok := d.Props["value"]; ok {
			payload = g.valueToJSON(v)
		}
		dataID := g.descriptorBytes(payload)
		g.dataIndexToDataID[id.Index()] = dataID

		if fill, ok := d.Props["fill"]; ok && fill.Kind == analyzer.KindObject {
			g.emitFillGenerator(dataID, fill.Object)
		}
	})
}

// emitFillGenerator wires a `#data` entry's optional `fill={ kind=... }`
// body to the matching data-generation opcode (spec §4.H "Data
// generation"). Unrecognized kinds are left as static DataSection bytes.
func (g *Generator) emitFillGenerator(dataID uint32, fill map[string]*analyzer.Value) {
	kind, _ := fill["kind"].AsString()
	count, _ := fill["count"].AsNumber()

	switch kind {
	case "constant":
		value, _ := fill["value"].AsNumber()
		g.em.CreateTypedArray(dataID, 0, uint32(count))
		g.em.FillConstant(dataID, uint32(count), float32(value))
	case "linear":
		start, _ := fill["start"].AsNumber()
		step, _ := fill["step"].AsNumber()
		g.em.CreateTypedArray(dataID, 0, uint32(count))
		g.em.FillLinear(dataID, uint32(count), float32(start), float32(step))
	case "elementIndex":
		g.em.CreateTypedArray(dataID, 0, uint32(count))
		g.em.FillElementIndex(dataID, uint32(count))
	case "random":
		seed, _ := fill["seed"].AsNumber()
		g.em.CreateTypedArray(dataID, 0, uint32(count))
		g.em.FillRandom(dataID, uint32(count), uint32(seed))
	case "expression":
		expr, _ := fill["expression"].AsString()
		g.em.CreateTypedArray(dataID, 0, uint32(count))
		g.em.FillExpression(dataID, uint32(count), uint32(g.intern(expr)))
	}
}

// emitBuffers handles `pool=N` expansion: a buffer declared with pool width
// N becomes N sibling create_buffer calls at consecutive IDs, and the
// analyzer index maps to the base (first sibling's) ID.
func (g *Generator) emitBuffers() {
	var next uint32
	g.ns.Buffer.ForEach(func(id ids.BufferID, _ string, d *analyzer.Decl) {
		size, _ := d.Props["size"].AsNumber()
		usage := usageBits(d.Props["usage"], bufferUsageBits)

		width := g.res.PoolWidths[id.Index()]
		if width < 1 {
			width = 1
		}

		base := next
		for i := 0; i < width; i++ {
			g.em.CreateBuffer(next, uint32(size), usage)
			next++
		}
		g.bufferBaseID[id.Index()] = base
	})
}

func (g *Generator) emitTextures() {
	g.ns.Texture.ForEach(func(id ids.TextureID, name string, d *analyzer.Decl) {
		width, height := g.textureDimensions(d)
		formatCode := textureFormatCode(d.Props["format"])
		usage := usageBits(d.Props["usage"], textureUsageBits)

		textureID := uint32(id.Index())
		g.em.CreateTexture(textureID, width, height, formatCode, usage)

		viewID, _ := g.ns.TextureView.Declare(name, d)
		descriptorID := g.descriptorBytes(map[string]interface{}{})
		g.em.CreateTextureView(uint32(viewID.Index()), textureID, descriptorID)
	})
}

// textureDimensions prefers explicit `size={width height}` fields, falling
// back to decoding an image source's header (spec §4.K.4's "texture with
// image source" trigger).
func (g *Generator) textureDimensions(d *analyzer.Decl) (width, height uint32) {
	if sz, ok := d.Props["size"]; ok && sz.Kind == analyzer.KindObject {
		if w, ok := sz.Object["width"].AsNumber(); ok {
			width = uint32(w)
		}
		if h, ok := sz.Object["height"].AsNumber(); ok {
			height = uint32(h)
		}
		if width > 0 && height > 0 {
			return width, height
		}
	}
	if src, ok := d.Props["source"]; ok {
		if s, ok := src.AsString(); ok {
			if w, h, err := analyzer.DecodeImageHeader([]byte(s)); err == nil {
				return uint32(w), uint32(h)
			}
		}
	}
	return width, height
}

func (g *Generator) emitSamplers() {
	g.ns.Sampler.ForEach(func(id ids.SamplerID, _ string, d *analyzer.Decl) {
		descriptorID := g.descriptorBytes(g.propsToJSON(d.Props))
		g.em.CreateSampler(uint32(id.Index()), descriptorID)
	})
}

// emitLayouts derives a BindGroupLayout from every bind group's `entries`
// shape and a PipelineLayout from every pipeline's `bindGroupLayouts`
// list, both auto-named after their owner (spec §3 lists these namespaces
// but the grammar has no dedicated top-level form for either).
func (g *Generator) emitLayouts() {
	g.ns.BindGroup.ForEach(func(_ ids.BindGroupID, name string, d *analyzer.Decl) {
		layoutID, err := g.ns.BindGroupLayout.Declare(name, d)
		if err != nil {
			return
		}
		entries, _ := d.Props["entries"]
		descriptorID := g.descriptorBytes(map[string]interface{}{
			"entries": g.bindGroupLayoutEntriesJSON(entries),
		})
		g.em.CreateBindGroupLayout(uint32(layoutID.Index()), descriptorID)
	})

	emitPipelineLayout := func(name string, d *analyzer.Decl) {
		layoutID, err := g.ns.PipelineLayout.Declare(name, d)
		if err != nil {
			return
		}
		var bindGroupLayoutIDs []uint32
		if refs, ok := d.Props["bindGroupLayouts"]; ok && refs.Kind == analyzer.KindArray {
			for _, r := range refs.Array {
				if r.Kind == analyzer.KindReference {
					bindGroupLayoutIDs = append(bindGroupLayoutIDs, uint32(r.ResolvedID()))
				}
			}
		}
		g.em.CreatePipelineLayout(uint32(layoutID.Index()), bindGroupLayoutIDs)
	}
	g.ns.RenderPipeline.ForEach(func(_ ids.RenderPipelineID, name string, d *analyzer.Decl) { emitPipelineLayout(name, d) })
	g.ns.ComputePipeline.ForEach(func(_ ids.ComputePipelineID, name string, d *analyzer.Decl) { emitPipelineLayout(name, d) })
}

func (g *Generator) bindGroupLayoutEntriesJSON(entries *analyzer.Value) interface{} {
	if entries == nil || entries.Kind != analyzer.KindArray {
		return []interface{}{}
	}
	out := make([]interface{}, 0, len(entries.Array))
	for _, e := range entries.Array {
		if e.Kind != analyzer.KindObject {
			continue
		}
		item := map[string]interface{}{}
		if v, ok := e.Object["binding"]; ok {
			item["binding"] = g.valueToJSON(v)
		}
		if v, ok := e.Object["visibility"]; ok {
			item["visibility"] = g.valueToJSON(v)
		}
		if v, ok := e.Object["type"]; ok {
			item["type"] = g.valueToJSON(v)
		}
		out = append(out, item)
	}
	return out
}

func (g *Generator) emitPipelines() {
	emitOne := func(name string, id uint32, d *analyzer.Decl, isCompute bool) {
		layoutID, _ := g.ns.PipelineLayout.Lookup(name)
		props := g.propsToJSON(d.Props)
		if m, ok := props.(map[string]interface{}); ok {
			m["pipelineLayoutId"] = uint32(layoutID.Index())
		}
		descriptorID := g.descriptorBytes(props)
		if isCompute {
			g.em.CreateComputePipeline(id, descriptorID)
		} else {
			g.em.CreateRenderPipeline(id, descriptorID)
		}
	}
	g.ns.RenderPipeline.ForEach(func(id ids.RenderPipelineID, name string, d *analyzer.Decl) {
		emitOne(name, uint32(id.Index()), d, false)
	})
	g.ns.ComputePipeline.ForEach(func(id ids.ComputePipelineID, name string, d *analyzer.Decl) {
		emitOne(name, uint32(id.Index()), d, true)
	})
}

func (g *Generator) emitBindGroups() {
	g.ns.BindGroup.ForEach(func(id ids.BindGroupID, name string, d *analyzer.Decl) {
		layoutID, _ := g.ns.BindGroupLayout.Lookup(name)
		g.currentBindGroupOffsets = g.res.BindGroupPoolOffsets[id.Index()]
		descriptorID := g.descriptorBytes(g.propsToJSON(d.Props))
		g.currentBindGroupOffsets = nil
		g.em.CreateBindGroup(uint32(id.Index()), uint32(layoutID.Index()), descriptorID)
	})
}

// emitUniforms populates the UniformTable from every buffer's optional
// `uniforms={ group=.. binding=.. fields=[...] }` body (spec §4.E).
func (g *Generator) emitUniforms() {
	g.ns.Buffer.ForEach(func(id ids.BufferID, name string, d *analyzer.Decl) {
		u, ok := d.Props["uniforms"]
		if !ok || u.Kind != analyzer.KindObject {
			return
		}
		group, _ := u.Object["group"].AsNumber()
		binding, _ := u.Object["binding"].AsNumber()

		var fields []format.UniformField
		if fv, ok := u.Object["fields"]; ok && fv.Kind == analyzer.KindArray {
			for _, fieldVal := range fv.Array {
				if fieldVal.Kind != analyzer.KindObject {
					continue
				}
				fields = append(fields, g.uniformFieldFromValue(fieldVal.Object))
			}
		}

		binding2 := format.UniformBinding{
			BufferID:     g.bufferBaseID[id.Index()],
			NameStringID: g.intern(name),
			Group:        uint32(group),
			BindingIndex: uint32(binding),
			Fields:       fields,
		}
		g.mod.Uniforms.Bindings = append(g.mod.Uniforms.Bindings, binding2)
	})
}

var uniformFieldTypes = map[string]format.FieldType{
	"f32":      format.FieldF32,
	"i32":      format.FieldI32,
	"u32":      format.FieldU32,
	"vec2f":    format.FieldVec2F,
	"vec3f":    format.FieldVec3F,
	"vec4f":    format.FieldVec4F,
	"vec2i":    format.FieldVec2I,
	"vec3i":    format.FieldVec3I,
	"vec4i":    format.FieldVec4I,
	"vec2u":    format.FieldVec2U,
	"vec3u":    format.FieldVec3U,
	"vec4u":    format.FieldVec4U,
	"mat3x3f":  format.FieldMat3x3F,
	"mat4x4f":  format.FieldMat4x4F,
}

func (g *Generator) uniformFieldFromValue(props map[string]*analyzer.Value) format.UniformField {
	slot, _ := props["slot"].AsNumber()
	name, _ := props["name"].AsString()
	offset, _ := props["offset"].AsNumber()
	typeName, _ := props["type"].AsString()
	ft := uniformFieldTypes[typeName]
	return format.UniformField{
		Slot:         uint16(slot),
		NameStringID: g.intern(name),
		OffsetBytes:  uint32(offset),
		SizeBytes:    uint32(ft.ByteSize()),
		Type:         ft,
	}
}

func (g *Generator) propsToJSON(props map[string]*analyzer.Value) interface{} {
	m := make(map[string]interface{}, len(props))
	for k, v := range props {
		m[k] = g.valueToJSON(v)
	}
	return m
}
