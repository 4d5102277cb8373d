// Package parser turns a lexer.Token stream into a flat AST (spec §4.J).
// The AST is two arrays — Nodes and Extra — never a pointer graph; the
// root node is always Nodes[0].
package parser

// MacroKind identifies which top-level `#form` a Macro node represents.
type MacroKind uint8

const (
	MacroUnknown MacroKind = iota
	MacroWgsl
	MacroBuffer
	MacroTexture
	MacroSampler
	MacroBindGroup
	MacroRenderPipeline
	MacroComputePipeline
	MacroRenderPass
	MacroComputePass
	MacroQueue
	MacroFrame
	MacroData
	MacroDefine
	MacroAnimation
	MacroWasmCall
	MacroWasmModule
	MacroInit
)

var macroKeywords = map[string]MacroKind{
	"wgsl":            MacroWgsl,
	"buffer":          MacroBuffer,
	"texture":         MacroTexture,
	"sampler":         MacroSampler,
	"bindGroup":       MacroBindGroup,
	"renderPipeline":  MacroRenderPipeline,
	"computePipeline": MacroComputePipeline,
	"renderPass":      MacroRenderPass,
	"computePass":     MacroComputePass,
	"queue":           MacroQueue,
	"frame":           MacroFrame,
	"data":            MacroData,
	"define":          MacroDefine,
	"animation":       MacroAnimation,
	"wasmCall":        MacroWasmCall,
	"wasmModule":      MacroWasmModule,
	"init":            MacroInit,
}

// NodeKind tags what a Node represents.
type NodeKind uint8

const (
	NodeRoot NodeKind = iota
	NodeMacro
	NodeObject
	NodeProperty
	NodeArray
	NodeString
	NodeNumber
	NodeIdentifier
	NodeReference
)

// Node is one entry in the flat AST. Which fields are meaningful depends
// on Kind:
//   - NodeRoot: ExtraStart/ExtraCount index Macro node children.
//   - NodeMacro: MacroForm, Name (the macro's own identifier, may be
//     empty for anonymous forms), ValueIdx (the body Object node).
//   - NodeObject: ExtraStart/ExtraCount index Property node children.
//   - NodeProperty: Name (the key), ValueIdx (the value node).
//   - NodeArray: ExtraStart/ExtraCount index element node children.
//   - NodeString/NodeNumber/NodeIdentifier: Name holds the literal text.
//   - NodeReference: Name holds the namespace, RefName the symbol name,
//     for a `$namespace.name` expression.
type Node struct {
	Kind       NodeKind
	Name       string
	RefName    string
	MacroForm  MacroKind
	ValueIdx   int32
	ExtraStart int32
	ExtraCount int32
	Start      int
	End        int
}

// AST is the parser's output: a flat node array plus the shared
// child-index array nodes with ExtraStart/ExtraCount slice into.
type AST struct {
	Nodes []Node
	Extra []int32
}

// Children returns the child node indices an ExtraStart/ExtraCount pair
// refers to.
func (a *AST) Children(n Node) []int32 {
	return a.Extra[n.ExtraStart : n.ExtraStart+n.ExtraCount]
}
