package lexer

import "strings"

// sentinel is appended to every source buffer so the scanner's current-byte
// checks are a plain comparison against 0 (spec §4.I); only multi-byte
// lookahead through at() also checks the length.
const sentinel = 0

// Lexer scans a 0-terminated byte slice into tokens. It holds no
// recursive call state; Next is a single bounded loop.
type Lexer struct {
	src []byte
	pos int
}

// New returns a Lexer over source, appending the sentinel byte.
func New(source string) *Lexer {
	buf := make([]byte, len(source)+1)
	copy(buf, source)
	buf[len(source)] = sentinel
	return &Lexer{src: buf}
}

func (l *Lexer) cur() byte {
	return l.src[l.pos]
}

func (l *Lexer) at(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return sentinel
	}
	return l.src[l.pos+offset]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// Next scans and returns the next token. Once Kind is Eof, every further
// call keeps returning Eof at the same position.
func (l *Lexer) Next() (Token, error) {
	for {
		for isSpace(l.cur()) {
			l.pos++
		}
		if l.cur() == '/' && l.at(1) == '/' {
			for l.cur() != '\n' && l.cur() != sentinel {
				l.pos++
			}
			continue
		}
		break
	}

	start := l.pos
	b := l.cur()

	switch {
	case b == sentinel:
		return Token{Kind: Eof, Start: start, End: start}, nil

	case b == '#':
		l.pos++
		return Token{Kind: Hash, Start: start, End: l.pos}, nil
	case b == '{':
		l.pos++
		return Token{Kind: LBrace, Start: start, End: l.pos}, nil
	case b == '}':
		l.pos++
		return Token{Kind: RBrace, Start: start, End: l.pos}, nil
	case b == '[':
		l.pos++
		return Token{Kind: LBracket, Start: start, End: l.pos}, nil
	case b == ']':
		l.pos++
		return Token{Kind: RBracket, Start: start, End: l.pos}, nil
	case b == '=':
		l.pos++
		return Token{Kind: Equals, Start: start, End: l.pos}, nil
	case b == '$':
		l.pos++
		return Token{Kind: Dollar, Start: start, End: l.pos}, nil
	case b == '.':
		l.pos++
		return Token{Kind: Dot, Start: start, End: l.pos}, nil
	case b == ',':
		l.pos++
		return Token{Kind: Comma, Start: start, End: l.pos}, nil

	case b == '"':
		return l.scanString(start)

	case isDigit(b) || (b == '-' && isDigit(l.at(1))):
		return l.scanNumber(start), nil

	case isIdentStart(b):
		return l.scanIdentifier(start), nil

	default:
		l.pos++
		return Token{}, &Error{Start: start, End: l.pos, Message: "unexpected byte"}
	}
}

func (l *Lexer) scanIdentifier(start int) Token {
	for isIdentCont(l.cur()) {
		l.pos++
	}
	return Token{Kind: Identifier, Text: string(l.src[start:l.pos]), Start: start, End: l.pos}
}

func (l *Lexer) scanNumber(start int) Token {
	if l.cur() == '-' {
		l.pos++
	}
	for isDigit(l.cur()) {
		l.pos++
	}
	if l.cur() == '.' && isDigit(l.at(1)) {
		l.pos++
		for isDigit(l.cur()) {
			l.pos++
		}
	}
	return Token{Kind: Number, Text: string(l.src[start:l.pos]), Start: start, End: l.pos}
}

func (l *Lexer) scanString(start int) (Token, error) {
	l.pos++ // opening quote
	var b strings.Builder
	for {
		c := l.cur()
		if c == sentinel {
			return Token{}, &Error{Start: start, End: l.pos, Message: "unterminated string"}
		}
		if c == '"' {
			l.pos++
			return Token{Kind: String, Text: b.String(), Start: start, End: l.pos}, nil
		}
		if c == '\\' {
			l.pos++
			esc := l.cur()
			switch esc {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case sentinel:
				return Token{}, &Error{Start: start, End: l.pos, Message: "unterminated string escape"}
			default:
				b.WriteByte(esc)
			}
			l.pos++
			continue
		}
		b.WriteByte(c)
		l.pos++
	}
}
