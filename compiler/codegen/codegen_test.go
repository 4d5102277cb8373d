package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/pngine/bytecode"
	"github.com/HugoDaniel/pngine/compiler/analyzer"
	"github.com/HugoDaniel/pngine/compiler/parser"
	"github.com/HugoDaniel/pngine/format"
)

func mustAnalyze(t *testing.T, src string) *analyzer.Result {
	t.Helper()
	ast, err := parser.Parse(src)
	require.NoError(t, err)
	res, err := analyzer.Analyze(ast)
	require.NoError(t, err)
	return res
}

func TestGenerateMinimalTriangle(t *testing.T) {
	res := mustAnalyze(t, `#wgsl s { code="x" }
#renderPipeline p { shader=$wgsl.s }
#renderPass drawTri { pipeline=$renderPipeline.p draw=3 }
#frame main { perform=[drawTri] }`)

	mod, code, err := Generate(res)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	require.Equal(t, 1, res.NS.Wgsl.Len())
	require.Equal(t, 1, res.NS.RenderPipeline.Len())
	require.Equal(t, 1, res.NS.RenderPass.Len())
	require.Equal(t, 1, res.NS.Frame.Len())

	require.Equal(t, format.VersionV5, mod.Version)
	require.Equal(t, 1, mod.Wgsl.Len())

	require.Equal(t, bytecode.Op(code[0]), bytecode.OpCreateShaderModule)
	require.Equal(t, bytecode.OpEnd, bytecode.Op(code[len(code)-1]))
}

// TestGenerateShaderDataBinding is the regression named in spec §8: the
// create_shader_module opcode's data argument must index the DataSection
// blob holding the #wgsl source, never the WgslId itself.
func TestGenerateShaderDataBinding(t *testing.T) {
	res := mustAnalyze(t, `#wgsl s { code="fn main() {}" }
#renderPipeline p { shader=$wgsl.s }
#renderPass drawTri { pipeline=$renderPipeline.p draw=3 }
#frame main { perform=[drawTri] }`)

	mod, code, err := Generate(res)
	require.NoError(t, err)

	require.Equal(t, bytecode.OpCreateShaderModule, bytecode.Op(code[0]))
	// Arg layout: op(1) + varint(shaderID) + varint(dataID); shaderID==0 is
	// a single-byte varint (<128), so the next byte is the dataID's varint.
	dataID := code[2]
	blob, err := mod.Data.Get(uint16(dataID))
	require.NoError(t, err)
	require.Equal(t, "fn main() {}", string(blob))
}

func TestGenerateQueueWriteTimeUniform(t *testing.T) {
	res := mustAnalyze(t, `#buffer u { size=16 usage=[UNIFORM] }
#queue q { writes=[{ op="writeTimeUniform" buffer=$buffer.u offset=0 }] }
#frame main { perform=[] }`)

	_, code, err := Generate(res)
	require.NoError(t, err)

	var found bool
	for _, b := range code {
		if bytecode.Op(b) == bytecode.OpWriteTimeUniform {
			found = true
		}
	}
	require.True(t, found)
}

func TestGenerateInitWrapsExecPassOnce(t *testing.T) {
	res := mustAnalyze(t, `#buffer u { size=16 usage=[UNIFORM] }
#data seed { value=1 }
#init boot { perform=[{ op="writeBufferFromArray" buffer=$buffer.u data=$data.seed }] }
#frame main { perform=[] }`)

	_, code, err := Generate(res)
	require.NoError(t, err)

	var sawDefinePass, sawExecPassOnce bool
	for _, b := range code {
		switch bytecode.Op(b) {
		case bytecode.OpDefinePass:
			sawDefinePass = true
		case bytecode.OpExecPassOnce:
			sawExecPassOnce = true
		}
	}
	require.True(t, sawDefinePass)
	require.True(t, sawExecPassOnce)
}

func TestGenerateAnimationTable(t *testing.T) {
	res := mustAnalyze(t, `#frame a { perform=[] }
#frame b { perform=[] }
#animation anim {
  duration=10000
  loop=true
  endBehavior=hold
  scenes=[
    { frame="a" start=0 end=5000 }
    { frame="b" start=5000 end=10000 }
  ]
}`)

	mod, _, err := Generate(res)
	require.NoError(t, err)

	require.True(t, mod.Animation.HasAnimation)
	require.Equal(t, uint32(10000), mod.Animation.DurationMs)
	require.True(t, mod.Animation.Loop)
	require.Len(t, mod.Animation.Scenes, 2)
	require.Equal(t, uint32(0), mod.Animation.Scenes[0].StartMs)
	require.Equal(t, uint32(5000), mod.Animation.Scenes[0].EndMs)
}

// TestGenerateDeeplyNestedDescriptorDoesNotPanic is a regression for
// valueToJSON: a descriptor property can nest object bodies arbitrarily
// deep, and rendering that tree into JSON must use an explicit worklist
// rather than native recursion so it cannot blow the call stack.
func TestGenerateDeeplyNestedDescriptorDoesNotPanic(t *testing.T) {
	const depth = 5000
	var src strings.Builder
	src.WriteString("#sampler s { a")
	for i := 0; i < depth; i++ {
		src.WriteString("={a")
	}
	src.WriteString("=1")
	for i := 0; i < depth; i++ {
		src.WriteString("}")
	}
	src.WriteString(" }")

	res := mustAnalyze(t, src.String())
	require.NotPanics(t, func() {
		_, _, err := Generate(res)
		require.NoError(t, err)
	})
}

func TestGenerateUnknownPassFails(t *testing.T) {
	res := mustAnalyze(t, `#frame main { perform=[missing] }`)
	_, _, err := Generate(res)
	require.Error(t, err)
	var emitErr *EmitError
	require.ErrorAs(t, err, &emitErr)
	require.Equal(t, "UnknownPass", emitErr.Kind)
}
