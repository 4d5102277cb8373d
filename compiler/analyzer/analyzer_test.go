package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/pngine/compiler/parser"
	"github.com/HugoDaniel/pngine/format"
	"github.com/HugoDaniel/pngine/internal/ids"
)

func mustParse(t *testing.T, src string) *parser.AST {
	t.Helper()
	ast, err := parser.Parse(src)
	require.NoError(t, err)
	return ast
}

func TestAnalyzeMinimalTriangle(t *testing.T) {
	ast := mustParse(t, `#wgsl s { code="x" }
#renderPipeline p { shader=$wgsl.s }
#renderPass drawTri { pipeline=$renderPipeline.p draw=3 }
#frame main { perform=[drawTri] }`)

	res, err := Analyze(ast)
	require.NoError(t, err)
	require.Equal(t, 1, res.NS.Wgsl.Len())
	require.Equal(t, 1, res.NS.RenderPipeline.Len())
	require.Equal(t, 1, res.NS.RenderPass.Len())
	require.Equal(t, 1, res.NS.Frame.Len())
	require.Equal(t, format.PluginCore|format.PluginRender, res.Plugins)
}

func TestAnalyzeDuplicateNameFails(t *testing.T) {
	ast := mustParse(t, `#buffer x { size=16 } #buffer x { size=32 }`)
	_, err := Analyze(ast)
	require.Error(t, err)
	var dup *DuplicateName
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "buffer", dup.Namespace)
	require.Equal(t, "x", dup.Name)
}

func TestAnalyzeUnresolvedReferenceFails(t *testing.T) {
	ast := mustParse(t, `#renderPass p { pipeline=$renderPipeline.missing }`)
	_, err := Analyze(ast)
	require.Error(t, err)
	var unresolved *UnresolvedReference
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, "renderPipeline", unresolved.Namespace)
	require.Equal(t, "missing", unresolved.Name)
}

func TestAnalyzeReferenceResolvesToDeclarationOrderID(t *testing.T) {
	ast := mustParse(t, `#buffer a { size=16 }
#buffer b { size=16 }
#bindGroup g { entries=[{ resource=$buffer.b }] }`)

	res, err := Analyze(ast)
	require.NoError(t, err)

	var gotResource *Value
	res.NS.BindGroup.ForEach(func(_ ids.BindGroupID, _ string, d *Decl) {
		entries := d.Props["entries"]
		gotResource = entries.Array[0].Object["resource"]
	})
	require.NotNil(t, gotResource)
	require.Equal(t, uint16(1), gotResource.ResolvedID())
}

func TestAnalyzeWgslImportCycleFails(t *testing.T) {
	ast := mustParse(t, `#wgsl a { code="x" imports=[$wgsl.b] }
#wgsl b { code="y" imports=[$wgsl.a] }`)

	_, err := Analyze(ast)
	require.Error(t, err)
	var cyc *ImportCycle
	require.ErrorAs(t, err, &cyc)
}

func TestAnalyzeWgslImportChainWithoutCycleSucceeds(t *testing.T) {
	ast := mustParse(t, `#wgsl a { code="x" }
#wgsl b { code="y" imports=[$wgsl.a] }
#wgsl c { code="z" imports=[$wgsl.b] }`)

	res, err := Analyze(ast)
	require.NoError(t, err)
	require.Equal(t, 3, res.NS.Wgsl.Len())
}

func TestAnalyzePluginDetection(t *testing.T) {
	ast := mustParse(t, `#computePipeline p { shader=$wgsl.s }
#wgsl s { code="x" }
#wasmCall c { module=$wasmModule.m name="f" }
#wasmModule m { source="y" }
#animation anim { duration=1000 loop=true endBehavior=hold scenes=[{ id="a" frame="main" start=0 end=1000 }] }
#frame main { perform=[] }`)

	res, err := Analyze(ast)
	require.NoError(t, err)
	want := format.PluginCore | format.PluginCompute | format.PluginWasm | format.PluginAnim
	require.Equal(t, want, res.Plugins)
	require.Equal(t, 1, res.NS.Scene.Len())
}

func TestAnalyzePoolBufferWidthAndOffset(t *testing.T) {
	ast := mustParse(t, `#buffer ring { size=16 pool=3 }
#bindGroup g { entries=[{ resource=$buffer.ring offset=1 }] }`)

	res, err := Analyze(ast)
	require.NoError(t, err)
	require.Equal(t, 3, res.PoolWidths[0])
	require.Equal(t, 1, res.BindGroupPoolOffsets[0][0])
}

func TestAnalyzeSecondAnimationFails(t *testing.T) {
	ast := mustParse(t, `#animation a { duration=1 } #animation b { duration=2 }`)
	_, err := Analyze(ast)
	require.Error(t, err)
	var invalid *InvalidForm
	require.ErrorAs(t, err, &invalid)
}

// TestAnalyzeDeeplyNestedObjectDoesNotPanic is a regression for
// valueFromNode/walk: a DSL author can nest object bodies arbitrarily deep
// (the parser's explicit stack flattens any depth into the AST without
// complaint), so converting/walking that shape must not blow the native
// call stack. 5000 levels is far beyond any real descriptor but well within
// what a handful of KB of source text can produce.
func TestAnalyzeDeeplyNestedObjectDoesNotPanic(t *testing.T) {
	const depth = 5000
	var src strings.Builder
	src.WriteString("#buffer x { size=16 a")
	for i := 0; i < depth; i++ {
		src.WriteString("={a")
	}
	src.WriteString("=1")
	for i := 0; i < depth; i++ {
		src.WriteString("}")
	}
	src.WriteString(" }")

	ast := mustParse(t, src.String())
	require.NotPanics(t, func() {
		_, err := Analyze(ast)
		require.NoError(t, err)
	})
}
