package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMinimalTriangleSource(t *testing.T) {
	src := `#wgsl s { code="x" }
#renderPipeline p { shader=$s.code }
#renderPass drawTri { pipeline=$renderPipeline.p draw=3 }
#frame main { perform=[drawTri] }`

	ast, err := Parse(src)
	require.NoError(t, err)

	root := ast.Nodes[0]
	require.Equal(t, NodeRoot, root.Kind)
	macros := ast.Children(root)
	require.Len(t, macros, 4)

	wgsl := ast.Nodes[macros[0]]
	require.Equal(t, NodeMacro, wgsl.Kind)
	require.Equal(t, MacroWgsl, wgsl.MacroForm)
	require.Equal(t, "s", wgsl.Name)

	body := ast.Nodes[wgsl.ValueIdx]
	require.Equal(t, NodeObject, body.Kind)
	props := ast.Children(body)
	require.Len(t, props, 1)
	codeProp := ast.Nodes[props[0]]
	require.Equal(t, "code", codeProp.Name)
	require.Equal(t, NodeString, ast.Nodes[codeProp.ValueIdx].Kind)
	require.Equal(t, "x", ast.Nodes[codeProp.ValueIdx].Name)

	frame := ast.Nodes[macros[3]]
	require.Equal(t, MacroFrame, frame.MacroForm)
	frameBody := ast.Nodes[frame.ValueIdx]
	performProp := ast.Nodes[ast.Children(frameBody)[0]]
	require.Equal(t, "perform", performProp.Name)
	arr := ast.Nodes[performProp.ValueIdx]
	require.Equal(t, NodeArray, arr.Kind)
	elems := ast.Children(arr)
	require.Len(t, elems, 1)
	require.Equal(t, NodeIdentifier, ast.Nodes[elems[0]].Kind)
	require.Equal(t, "drawTri", ast.Nodes[elems[0]].Name)
}

func TestParseReferenceExpression(t *testing.T) {
	ast, err := Parse(`#renderPass p { pipeline=$renderPipeline.main }`)
	require.NoError(t, err)

	macro := ast.Nodes[ast.Children(ast.Nodes[0])[0]]
	body := ast.Nodes[macro.ValueIdx]
	prop := ast.Nodes[ast.Children(body)[0]]
	ref := ast.Nodes[prop.ValueIdx]
	require.Equal(t, NodeReference, ref.Kind)
	require.Equal(t, "renderPipeline", ref.Name)
	require.Equal(t, "main", ref.RefName)
}

func TestParseNestedObjectValue(t *testing.T) {
	ast, err := Parse(`#texture t { size={ width=256 height=256 } }`)
	require.NoError(t, err)

	macro := ast.Nodes[ast.Children(ast.Nodes[0])[0]]
	body := ast.Nodes[macro.ValueIdx]
	sizeProp := ast.Nodes[ast.Children(body)[0]]
	require.Equal(t, "size", sizeProp.Name)
	sizeObj := ast.Nodes[sizeProp.ValueIdx]
	require.Equal(t, NodeObject, sizeObj.Kind)
	fields := ast.Children(sizeObj)
	require.Len(t, fields, 2)
	require.Equal(t, "width", ast.Nodes[fields[0]].Name)
	require.Equal(t, "height", ast.Nodes[fields[1]].Name)
}

func TestParseArrayOfObjects(t *testing.T) {
	ast, err := Parse(`#bindGroup g { entries=[{ binding=0 } { binding=1 }] }`)
	require.NoError(t, err)

	macro := ast.Nodes[ast.Children(ast.Nodes[0])[0]]
	body := ast.Nodes[macro.ValueIdx]
	prop := ast.Nodes[ast.Children(body)[0]]
	arr := ast.Nodes[prop.ValueIdx]
	require.Equal(t, NodeArray, arr.Kind)
	elems := ast.Children(arr)
	require.Len(t, elems, 2)
	for _, e := range elems {
		require.Equal(t, NodeObject, ast.Nodes[e].Kind)
	}
}

func TestParseUnknownMacroFormIsError(t *testing.T) {
	_, err := Parse(`#bogus x { a=1 }`)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
}

func TestParseMissingEqualsIsError(t *testing.T) {
	_, err := Parse(`#buffer b { size 4 }`)
	require.Error(t, err)
}

func TestParseUnterminatedObjectIsError(t *testing.T) {
	_, err := Parse(`#buffer b { size=4`)
	require.Error(t, err)
}

func TestParseAnonymousMacroForm(t *testing.T) {
	ast, err := Parse(`#init { run=true }`)
	require.NoError(t, err)
	macro := ast.Nodes[ast.Children(ast.Nodes[0])[0]]
	require.Equal(t, MacroInit, macro.MacroForm)
	require.Equal(t, "", macro.Name)
}
