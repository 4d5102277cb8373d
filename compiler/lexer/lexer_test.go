package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func allTokens(t *testing.T, source string) []Token {
	t.Helper()
	l := New(source)
	var out []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		out = append(out, tok)
		if tok.Kind == Eof {
			return out
		}
	}
}

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexerPunctuation(t *testing.T) {
	toks := allTokens(t, "#{}[]=.$,")
	require.Equal(t, []Kind{Hash, LBrace, RBrace, LBracket, RBracket, Equals, Dot, Dollar, Comma, Eof}, kinds(toks))
}

func TestLexerIdentifierAndNumber(t *testing.T) {
	toks := allTokens(t, "renderPipeline 127 -3.5")
	require.Equal(t, []Kind{Identifier, Number, Number, Eof}, kinds(toks))
	require.Equal(t, "renderPipeline", toks[0].Text)
	require.Equal(t, "127", toks[1].Text)
	require.Equal(t, "-3.5", toks[2].Text)
}

func TestLexerStringWithEscapes(t *testing.T) {
	toks := allTokens(t, `"hello \"world\"\n"`)
	require.Equal(t, []Kind{String, Eof}, kinds(toks))
	require.Equal(t, "hello \"world\"\n", toks[0].Text)
}

func TestLexerSkipsCommentsAndWhitespace(t *testing.T) {
	toks := allTokens(t, "  // a comment\n\tfoo // trailing\n")
	require.Equal(t, []Kind{Identifier, Eof}, kinds(toks))
	require.Equal(t, "foo", toks[0].Text)
}

func TestLexerReferenceExpression(t *testing.T) {
	toks := allTokens(t, "$renderPipeline.p")
	require.Equal(t, []Kind{Dollar, Identifier, Dot, Identifier, Eof}, kinds(toks))
}

func TestLexerUnterminatedStringIsError(t *testing.T) {
	l := New(`"unterminated`)
	_, err := l.Next()
	require.Error(t, err)
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
}

func TestLexerUnexpectedByteIsError(t *testing.T) {
	l := New("@")
	_, err := l.Next()
	require.Error(t, err)
}

func TestLexerNeverReadsPastSentinel(t *testing.T) {
	l := New("")
	for i := 0; i < 5; i++ {
		tok, err := l.Next()
		require.NoError(t, err)
		require.Equal(t, Eof, tok.Kind)
	}
}

func TestLexerMinimalTriangleSource(t *testing.T) {
	src := `#shaderModule s { code="x" }
#renderPipeline p { shader=$s }
#renderPass drawTri { pipeline=$renderPipeline.p draw=3 }
#frame main { perform=[drawTri] }`
	toks := allTokens(t, src)
	require.Greater(t, len(toks), 10)
	require.Equal(t, Hash, toks[0].Kind)
	require.Equal(t, Eof, toks[len(toks)-1].Kind)
}
