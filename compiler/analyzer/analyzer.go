// Package analyzer performs the single AST pass described in spec §4.K:
// per-namespace name collection, `$namespace.name` reference resolution,
// `#wgsl` import-cycle detection, plugin-bit detection, and pool-buffer
// bookkeeping. It is grounded on a GPU resource core's per-kind registry
// pattern (one Namespace per DSL namespace, mirroring one Registry per
// resource kind), generalized from a concurrent runtime registry to a
// single-pass, single-threaded compile-time one.
//
// Four of the 23 namespaces spec §3 lists — shaderModule, bindGroupLayout,
// pipelineLayout, and texture_view — have no dedicated top-level macro form
// in the DSL grammar (spec §4.J enumerates exactly 17 top-level forms); they
// are derived resources the codegen package declares into as it assigns IDs.
package analyzer

import (
	"sort"
	"strconv"

	"github.com/HugoDaniel/pngine/compiler/parser"
	"github.com/HugoDaniel/pngine/format"
	"github.com/HugoDaniel/pngine/internal/ids"
)

// Result is everything codegen needs after a successful Analyze: the
// populated namespaces (with references resolved in place on their Value
// trees), the detected plugin bitset, and pool-buffer metadata.
type Result struct {
	NS *Namespaces

	// Plugins is the detected plugin bitset (spec §4.K.4).
	Plugins uint8

	// PoolWidths maps a BufferID (by raw index) declared with `pool=N` to
	// N (spec §4.K.5).
	PoolWidths map[uint16]int

	// BindGroupPoolOffsets maps a BindGroupID to, for each pool buffer it
	// binds, the declared per-consumer rotation offset (spec §4.K.5).
	BindGroupPoolOffsets map[uint16]map[uint16]int
}

// Analyze runs the full analysis pass over a parsed AST.
func Analyze(ast *parser.AST) (*Result, error) {
	ns := NewNamespaces()

	root := ast.Nodes[0]
	for _, childIdx := range ast.Children(root) {
		m := ast.Nodes[childIdx]
		if m.Kind != parser.NodeMacro {
			continue
		}
		body := ast.Nodes[m.ValueIdx]
		props := propsFromObject(ast, body)
		if err := declareMacro(ns, m, props); err != nil {
			return nil, err
		}
	}

	if err := resolveAllReferences(ns); err != nil {
		return nil, err
	}
	if err := detectWgslImportCycles(ns); err != nil {
		return nil, err
	}

	widths := poolWidths(ns)
	offsets := bindGroupPoolOffsets(ns, widths)

	return &Result{
		NS:                   ns,
		Plugins:              detectPlugins(ns),
		PoolWidths:           widths,
		BindGroupPoolOffsets: offsets,
	}, nil
}

func declareGeneric[M ids.Marker](namespace *ids.Namespace[*Decl, M], label string, d *Decl) error {
	if _, err := namespace.Declare(d.Name, d); err != nil {
		return &DuplicateName{Namespace: label, Name: d.Name, Start: d.Start, End: d.End}
	}
	return nil
}

func declareMacro(ns *Namespaces, m parser.Node, props map[string]*Value) error {
	d := &Decl{Name: m.Name, Props: props, Start: m.Start, End: m.End}
	switch m.MacroForm {
	case parser.MacroWgsl:
		return declareGeneric(ns.Wgsl, "wgsl", d)
	case parser.MacroBuffer:
		return declareGeneric(ns.Buffer, "buffer", d)
	case parser.MacroTexture:
		return declareGeneric(ns.Texture, "texture", d)
	case parser.MacroSampler:
		return declareGeneric(ns.Sampler, "sampler", d)
	case parser.MacroBindGroup:
		return declareGeneric(ns.BindGroup, "bindGroup", d)
	case parser.MacroRenderPipeline:
		return declareGeneric(ns.RenderPipeline, "renderPipeline", d)
	case parser.MacroComputePipeline:
		return declareGeneric(ns.ComputePipeline, "computePipeline", d)
	case parser.MacroRenderPass:
		return declareGeneric(ns.RenderPass, "renderPass", d)
	case parser.MacroComputePass:
		return declareGeneric(ns.ComputePass, "computePass", d)
	case parser.MacroQueue:
		return declareGeneric(ns.Queue, "queue", d)
	case parser.MacroFrame:
		return declareGeneric(ns.Frame, "frame", d)
	case parser.MacroData:
		return declareGeneric(ns.Data, "data", d)
	case parser.MacroDefine:
		return declareGeneric(ns.Define, "define", d)
	case parser.MacroWasmCall:
		return declareGeneric(ns.WasmCall, "wasmCall", d)
	case parser.MacroWasmModule:
		return declareGeneric(ns.WasmModule, "wasmModule", d)
	case parser.MacroInit:
		return declareGeneric(ns.Init, "init", d)
	case parser.MacroAnimation:
		return declareAnimation(ns, d)
	default:
		return &InvalidForm{Message: "unknown macro form", Start: m.Start, End: m.End}
	}
}

// declareAnimation declares the single #animation decl and expands its
// `scenes=[...]` array into the Scene namespace (spec §3, §4.F).
func declareAnimation(ns *Namespaces, d *Decl) error {
	if ns.Animation.Len() > 0 {
		return &InvalidForm{Message: "at most one #animation is allowed per module", Start: d.Start, End: d.End}
	}
	if err := declareGeneric(ns.Animation, "animation", d); err != nil {
		return err
	}

	scenesVal, ok := d.Props["scenes"]
	if !ok {
		return nil
	}
	if scenesVal.Kind != KindArray {
		return &TypeMismatch{Field: "scenes", Expected: ExpectedList, Start: scenesVal.Start, End: scenesVal.End}
	}

	for i, sceneVal := range scenesVal.Array {
		if sceneVal.Kind != KindObject {
			return &TypeMismatch{Field: "scenes[]", Expected: ExpectedList, Start: sceneVal.Start, End: sceneVal.End}
		}
		name := d.Name + "." + strconv.Itoa(i)
		if idVal, ok := sceneVal.Object["id"]; ok {
			if s, ok2 := idVal.AsString(); ok2 {
				name = s
			}
		}
		sceneDecl := &Decl{Name: name, Props: sceneVal.Object, Start: sceneVal.Start, End: sceneVal.End}
		if err := declareGeneric(ns.Scene, "scene", sceneDecl); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]*Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// resolveAllReferences walks every declared Decl's Props tree (in
// deterministic, sorted order so the first error reported for an invalid
// source is stable across runs) and resolves each Reference Value in
// place, failing on the first one that doesn't name a declared symbol
// (spec §4.K.2).
func resolveAllReferences(ns *Namespaces) error {
	var firstErr error
	visit := func(d *Decl) {
		if firstErr != nil || d == nil {
			return
		}
		for _, k := range sortedKeys(d.Props) {
			err := walk(d.Props[k], func(v *Value) error {
				if v.Kind != KindReference {
					return nil
				}
				id, ok := ns.Lookup(v.RefNamespace, v.RefName)
				if !ok {
					return &UnresolvedReference{Namespace: v.RefNamespace, Name: v.RefName, Start: v.Start, End: v.End}
				}
				v.resolved = true
				v.resolvedID = id
				return nil
			})
			if err != nil {
				firstErr = err
				return
			}
		}
	}

	ns.Wgsl.ForEach(func(_ ids.WgslID, _ string, d *Decl) { visit(d) })
	ns.Data.ForEach(func(_ ids.DataID, _ string, d *Decl) { visit(d) })
	ns.Buffer.ForEach(func(_ ids.BufferID, _ string, d *Decl) { visit(d) })
	ns.Texture.ForEach(func(_ ids.TextureID, _ string, d *Decl) { visit(d) })
	ns.Sampler.ForEach(func(_ ids.SamplerID, _ string, d *Decl) { visit(d) })
	ns.BindGroup.ForEach(func(_ ids.BindGroupID, _ string, d *Decl) { visit(d) })
	ns.RenderPipeline.ForEach(func(_ ids.RenderPipelineID, _ string, d *Decl) { visit(d) })
	ns.ComputePipeline.ForEach(func(_ ids.ComputePipelineID, _ string, d *Decl) { visit(d) })
	ns.RenderPass.ForEach(func(_ ids.RenderPassID, _ string, d *Decl) { visit(d) })
	ns.ComputePass.ForEach(func(_ ids.ComputePassID, _ string, d *Decl) { visit(d) })
	ns.Queue.ForEach(func(_ ids.QueueID, _ string, d *Decl) { visit(d) })
	ns.Frame.ForEach(func(_ ids.FrameID, _ string, d *Decl) { visit(d) })
	ns.Animation.ForEach(func(_ ids.AnimationID, _ string, d *Decl) { visit(d) })
	ns.Scene.ForEach(func(_ ids.SceneID, _ string, d *Decl) { visit(d) })
	ns.WasmCall.ForEach(func(_ ids.WasmCallID, _ string, d *Decl) { visit(d) })
	ns.WasmModule.ForEach(func(_ ids.WasmModuleID, _ string, d *Decl) { visit(d) })
	ns.Define.ForEach(func(_ ids.DefineID, _ string, d *Decl) { visit(d) })
	ns.Init.ForEach(func(_ ids.InitID, _ string, d *Decl) { visit(d) })

	return firstErr
}

// detectWgslImportCycles walks the `#wgsl` namespace's `imports=[$wgsl.x,
// ...]` graph with an iterative DFS over an explicit stack and a
// tri-color mark array (0 = white/unvisited, 1 = gray/on-stack, 2 =
// black/done), per spec §4.K.3 and §9's "no recursion anywhere".
func detectWgslImportCycles(ns *Namespaces) error {
	n := ns.Wgsl.Len()
	color := make([]uint8, n)

	type frame struct {
		id      uint16
		imports []uint16
		next    int
	}

	for start := 0; start < n; start++ {
		if color[start] != 0 {
			continue
		}
		color[start] = 1
		path := []uint16{uint16(start)}
		stack := []frame{{id: uint16(start), imports: wgslImportsOf(ns, uint16(start))}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(top.imports) {
				color[top.id] = 2
				stack = stack[:len(stack)-1]
				path = path[:len(path)-1]
				continue
			}
			next := top.imports[top.next]
			top.next++

			switch color[next] {
			case 0:
				color[next] = 1
				path = append(path, next)
				stack = append(stack, frame{id: next, imports: wgslImportsOf(ns, next)})
			case 1:
				names := make([]string, 0, len(path)+1)
				for _, id := range path {
					names = append(names, ns.Wgsl.Name(ids.New[ids.WgslMarker](id)))
				}
				names = append(names, ns.Wgsl.Name(ids.New[ids.WgslMarker](next)))
				return &ImportCycle{Names: names}
			case 2:
				// already fully explored via another path, fine
			}
		}
	}
	return nil
}

func wgslImportsOf(ns *Namespaces, id uint16) []uint16 {
	d, ok := ns.Wgsl.Get(ids.New[ids.WgslMarker](id))
	if !ok || d == nil {
		return nil
	}
	importsVal, ok := d.Props["imports"]
	if !ok || importsVal.Kind != KindArray {
		return nil
	}
	out := make([]uint16, 0, len(importsVal.Array))
	for _, v := range importsVal.Array {
		if v.Kind == KindReference && v.RefNamespace == "wgsl" && v.resolved {
			out = append(out, v.resolvedID)
		}
	}
	return out
}

// detectPlugins sets plugin bits from namespace usage (spec §4.K.4). Core
// is always set.
func detectPlugins(ns *Namespaces) uint8 {
	p := format.PluginCore
	if ns.RenderPipeline.Len() > 0 {
		p |= format.PluginRender
	}
	if ns.ComputePipeline.Len() > 0 {
		p |= format.PluginCompute
	}
	if ns.WasmCall.Len() > 0 {
		p |= format.PluginWasm
	}
	if ns.Animation.Len() > 0 {
		p |= format.PluginAnim
	}

	hasImageTexture := false
	ns.Texture.ForEach(func(_ ids.TextureID, _ string, d *Decl) {
		if _, ok := d.Props["source"]; ok {
			hasImageTexture = true
		}
	})
	if hasImageTexture {
		p |= format.PluginTexture
	}
	return p
}

// poolWidths records the declared pool width for every `pool=N` buffer
// (spec §4.K.5).
func poolWidths(ns *Namespaces) map[uint16]int {
	widths := make(map[uint16]int)
	ns.Buffer.ForEach(func(id ids.BufferID, _ string, d *Decl) {
		v, ok := d.Props["pool"]
		if !ok {
			return
		}
		n, ok := v.AsNumber()
		if !ok || n <= 0 {
			return
		}
		widths[id.Index()] = int(n)
	})
	return widths
}

// bindGroupPoolOffsets records, for each bind group that binds a pool
// buffer through an `entries[].resource` reference, the declared rotation
// offset for that consumer (spec §4.K.5: "records bindGroupsPoolOffsets
// per consumer"). An entry with no explicit `offset` field defaults to 0.
func bindGroupPoolOffsets(ns *Namespaces, widths map[uint16]int) map[uint16]map[uint16]int {
	out := make(map[uint16]map[uint16]int)
	ns.BindGroup.ForEach(func(id ids.BindGroupID, _ string, d *Decl) {
		entriesVal, ok := d.Props["entries"]
		if !ok || entriesVal.Kind != KindArray {
			return
		}
		for _, entry := range entriesVal.Array {
			if entry.Kind != KindObject {
				continue
			}
			res, ok := entry.Object["resource"]
			if !ok || res.Kind != KindReference || res.RefNamespace != "buffer" || !res.resolved {
				continue
			}
			bufID := res.resolvedID
			if _, isPool := widths[bufID]; !isPool {
				continue
			}
			offset := 0
			if offVal, ok := entry.Object["offset"]; ok {
				if n, ok2 := offVal.AsNumber(); ok2 {
					offset = int(n)
				}
			}
			if out[id.Index()] == nil {
				out[id.Index()] = make(map[uint16]int)
			}
			out[id.Index()][bufID] = offset
		}
	})
	return out
}
