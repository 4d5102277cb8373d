package lexer

import "fmt"

// Error reports a lexical error with the byte span that triggered it.
type Error struct {
	Start   int
	End     int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lexer: %s (at byte %d)", e.Message, e.Start)
}
