package analyzer

import "github.com/HugoDaniel/pngine/internal/ids"

// Decl is one named declaration in any of the 23 namespaces: its source
// name, its property body converted to a Value tree, and the span for
// diagnostics. Every namespace uses the same Decl shape because the DSL's
// macro bodies are all `{ key=value ... }` forms (spec §4.J); the
// namespace-specific meaning of each key is interpreted by codegen, not by
// the analyzer's bookkeeping.
type Decl struct {
	Name  string
	Props map[string]*Value
	Start int
	End   int
}

// Namespaces holds one ids.Namespace per analyzer namespace (spec §3, §4.K.1).
type Namespaces struct {
	Wgsl            *ids.Namespace[*Decl, ids.WgslMarker]
	Data            *ids.Namespace[*Decl, ids.DataMarker]
	Buffer          *ids.Namespace[*Decl, ids.BufferMarker]
	Texture         *ids.Namespace[*Decl, ids.TextureMarker]
	Sampler         *ids.Namespace[*Decl, ids.SamplerMarker]
	BindGroup       *ids.Namespace[*Decl, ids.BindGroupMarker]
	BindGroupLayout *ids.Namespace[*Decl, ids.BindGroupLayoutMarker]
	PipelineLayout  *ids.Namespace[*Decl, ids.PipelineLayoutMarker]
	RenderPipeline  *ids.Namespace[*Decl, ids.RenderPipelineMarker]
	ComputePipeline *ids.Namespace[*Decl, ids.ComputePipelineMarker]
	ShaderModule    *ids.Namespace[*Decl, ids.ShaderModuleMarker]
	RenderPass      *ids.Namespace[*Decl, ids.RenderPassMarker]
	ComputePass     *ids.Namespace[*Decl, ids.ComputePassMarker]
	Queue           *ids.Namespace[*Decl, ids.QueueMarker]
	Frame           *ids.Namespace[*Decl, ids.FrameMarker]
	Animation       *ids.Namespace[*Decl, ids.AnimationMarker]
	Scene           *ids.Namespace[*Decl, ids.SceneMarker]
	WasmCall        *ids.Namespace[*Decl, ids.WasmCallMarker]
	WasmModule      *ids.Namespace[*Decl, ids.WasmModuleMarker]
	Define          *ids.Namespace[*Decl, ids.DefineMarker]
	Init            *ids.Namespace[*Decl, ids.InitMarker]
	TextureView     *ids.Namespace[*Decl, ids.TextureViewMarker]
	Descriptor      *ids.Namespace[*Decl, ids.DescriptorMarker]
}

// NewNamespaces creates the 23 empty namespaces.
func NewNamespaces() *Namespaces {
	return &Namespaces{
		Wgsl:            ids.NewNamespace[*Decl, ids.WgslMarker](),
		Data:            ids.NewNamespace[*Decl, ids.DataMarker](),
		Buffer:          ids.NewNamespace[*Decl, ids.BufferMarker](),
		Texture:         ids.NewNamespace[*Decl, ids.TextureMarker](),
		Sampler:         ids.NewNamespace[*Decl, ids.SamplerMarker](),
		BindGroup:       ids.NewNamespace[*Decl, ids.BindGroupMarker](),
		BindGroupLayout: ids.NewNamespace[*Decl, ids.BindGroupLayoutMarker](),
		PipelineLayout:  ids.NewNamespace[*Decl, ids.PipelineLayoutMarker](),
		RenderPipeline:  ids.NewNamespace[*Decl, ids.RenderPipelineMarker](),
		ComputePipeline: ids.NewNamespace[*Decl, ids.ComputePipelineMarker](),
		ShaderModule:    ids.NewNamespace[*Decl, ids.ShaderModuleMarker](),
		RenderPass:      ids.NewNamespace[*Decl, ids.RenderPassMarker](),
		ComputePass:     ids.NewNamespace[*Decl, ids.ComputePassMarker](),
		Queue:           ids.NewNamespace[*Decl, ids.QueueMarker](),
		Frame:           ids.NewNamespace[*Decl, ids.FrameMarker](),
		Animation:       ids.NewNamespace[*Decl, ids.AnimationMarker](),
		Scene:           ids.NewNamespace[*Decl, ids.SceneMarker](),
		WasmCall:        ids.NewNamespace[*Decl, ids.WasmCallMarker](),
		WasmModule:      ids.NewNamespace[*Decl, ids.WasmModuleMarker](),
		Define:          ids.NewNamespace[*Decl, ids.DefineMarker](),
		Init:            ids.NewNamespace[*Decl, ids.InitMarker](),
		TextureView:     ids.NewNamespace[*Decl, ids.TextureViewMarker](),
		Descriptor:      ids.NewNamespace[*Decl, ids.DescriptorMarker](),
	}
}

// Lookup resolves a `$namespace.name` reference to its raw index, the form
// every PNGB opcode argument and descriptor JSON blob ultimately needs
// (spec §4.K.2).
func (ns *Namespaces) Lookup(namespace, name string) (uint16, bool) {
	switch namespace {
	case "wgsl":
		id, err := ns.Wgsl.Lookup(name)
		return id.Index(), err == nil
	case "data":
		id, err := ns.Data.Lookup(name)
		return id.Index(), err == nil
	case "buffer":
		id, err := ns.Buffer.Lookup(name)
		return id.Index(), err == nil
	case "texture":
		id, err := ns.Texture.Lookup(name)
		return id.Index(), err == nil
	case "sampler":
		id, err := ns.Sampler.Lookup(name)
		return id.Index(), err == nil
	case "bindGroup":
		id, err := ns.BindGroup.Lookup(name)
		return id.Index(), err == nil
	case "bindGroupLayout":
		id, err := ns.BindGroupLayout.Lookup(name)
		return id.Index(), err == nil
	case "pipelineLayout":
		id, err := ns.PipelineLayout.Lookup(name)
		return id.Index(), err == nil
	case "renderPipeline":
		id, err := ns.RenderPipeline.Lookup(name)
		return id.Index(), err == nil
	case "computePipeline":
		id, err := ns.ComputePipeline.Lookup(name)
		return id.Index(), err == nil
	case "shaderModule":
		id, err := ns.ShaderModule.Lookup(name)
		return id.Index(), err == nil
	case "renderPass":
		id, err := ns.RenderPass.Lookup(name)
		return id.Index(), err == nil
	case "computePass":
		id, err := ns.ComputePass.Lookup(name)
		return id.Index(), err == nil
	case "queue":
		id, err := ns.Queue.Lookup(name)
		return id.Index(), err == nil
	case "frame":
		id, err := ns.Frame.Lookup(name)
		return id.Index(), err == nil
	case "animation":
		id, err := ns.Animation.Lookup(name)
		return id.Index(), err == nil
	case "scene":
		id, err := ns.Scene.Lookup(name)
		return id.Index(), err == nil
	case "wasmCall":
		id, err := ns.WasmCall.Lookup(name)
		return id.Index(), err == nil
	case "wasmModule":
		id, err := ns.WasmModule.Lookup(name)
		return id.Index(), err == nil
	case "define":
		id, err := ns.Define.Lookup(name)
		return id.Index(), err == nil
	case "init":
		id, err := ns.Init.Lookup(name)
		return id.Index(), err == nil
	case "texture_view", "textureView":
		id, err := ns.TextureView.Lookup(name)
		return id.Index(), err == nil
	default:
		return 0, false
	}
}
