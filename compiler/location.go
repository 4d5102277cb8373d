package compiler

import (
	"fmt"
	"strings"

	"github.com/HugoDaniel/pngine/compiler/analyzer"
	"github.com/HugoDaniel/pngine/compiler/lexer"
	"github.com/HugoDaniel/pngine/compiler/parser"
)

// Location formats err as "path:line:col: message" (spec §7 "compile
// errors are written to stderr with path:line:col: message"), using
// source to translate the error's byte offset into a 1-based line/column.
// Errors with no byte span (e.g. a format or emit error) are formatted as
// "path: message".
func Location(path, source string, err error) string {
	off, ok := offsetOf(err)
	if !ok {
		return fmt.Sprintf("%s: %s", path, err)
	}
	line, col := lineCol(source, off)
	return fmt.Sprintf("%s:%d:%d: %s", path, line, col, err)
}

// offsetOf extracts the byte offset of err's span, if any. It covers every
// span-carrying error type the lexer/parser/analyzer packages define;
// errors from format/bytecode/codegen have no source span and fall
// through to false.
func offsetOf(err error) (int, bool) {
	switch e := err.(type) {
	case *lexer.Error:
		return e.Start, true
	case *parser.Error:
		return e.Start, true
	case *analyzer.DuplicateName:
		return e.Start, true
	case *analyzer.UnresolvedReference:
		return e.Start, true
	case *analyzer.InvalidForm:
		return e.Start, true
	case *analyzer.TypeMismatch:
		return e.Start, true
	case *analyzer.InvalidResourceID:
		return e.Start, true
	default:
		return 0, false
	}
}

// lineCol converts a 0-based byte offset into source to a 1-based
// (line, column) pair, counting columns in bytes (the DSL source is
// restricted to the ASCII/UTF-8 token set §4.I lexes, so a byte count is
// an adequate column unit for diagnostics).
func lineCol(source string, offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(source) {
		offset = len(source)
	}
	line = 1 + strings.Count(source[:offset], "\n")
	if i := strings.LastIndexByte(source[:offset], '\n'); i >= 0 {
		col = offset - i
	} else {
		col = offset + 1
	}
	return line, col
}
