package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HugoDaniel/pngine/format"
)

const minimalTriangle = `#wgsl s { code="fn main() {}" }
#renderPipeline p { shader=$wgsl.s }
#renderPass drawTri { pipeline=$renderPipeline.p draw=3 }
#frame main { perform=[drawTri] }`

func TestCompileMinimalTriangle(t *testing.T) {
	res, err := Compile(minimalTriangle)
	require.NoError(t, err)
	require.NotEmpty(t, res.PNGB)
	require.Equal(t, format.VersionV5, res.Module.Version)

	again, err := Compile(minimalTriangle)
	require.NoError(t, err)
	require.Equal(t, res.PNGB, again.PNGB, "compiling the same source twice must be byte-identical (spec §8 ID stability)")

	mod, err := format.Deserialize(res.PNGB)
	require.NoError(t, err)
	require.Equal(t, res.Module.Bytecode, mod.Bytecode)
}

func TestCompileStripsLeadingBOM(t *testing.T) {
	bom := "\xef\xbb\xbf" + minimalTriangle
	withBOM, err := Compile(bom)
	require.NoError(t, err)
	without, err := Compile(minimalTriangle)
	require.NoError(t, err)
	require.Equal(t, without.PNGB, withBOM.PNGB)
}

func TestCompileDuplicateName(t *testing.T) {
	_, err := Compile(`#buffer x { size=16 usage=[UNIFORM] }
#buffer x { size=16 usage=[UNIFORM] }`)
	require.Error(t, err)
}

func TestCompileLegacyFirstFrameOnlyUnsupported(t *testing.T) {
	_, err := Compile(minimalTriangle, WithLegacyFirstFrameOnly())
	require.ErrorIs(t, err, ErrUnsupportedOption)
}

func TestLocationFormatsLineAndColumn(t *testing.T) {
	src := "#frame main {\n  perform=[$renderPass.missing]\n}"
	_, err := Compile(src)
	require.Error(t, err)

	loc := Location("scene.pngine", src, err)
	require.Contains(t, loc, "scene.pngine:2:")
}

func TestLocationFallsBackWithoutSpan(t *testing.T) {
	loc := Location("scene.pngb", "", format.ErrInvalidFormat)
	require.Equal(t, "scene.pngb: "+format.ErrInvalidFormat.Error(), loc)
}
