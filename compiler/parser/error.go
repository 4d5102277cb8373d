package parser

import "fmt"

// Error reports a syntax error with the byte span that triggered it. The
// parser is total: every malformed input produces an Error, never a panic.
type Error struct {
	Start   int
	End     int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parser: %s (at byte %d)", e.Message, e.Start)
}
