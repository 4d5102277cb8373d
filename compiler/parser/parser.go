package parser

import (
	"github.com/HugoDaniel/pngine/compiler/lexer"
)

// Parser builds a flat AST from a token stream using an explicit stack for
// nested object/array bodies instead of native call recursion (spec §4.J).
type Parser struct {
	lex *lexer.Lexer
	cur lexer.Token
	ast AST
}

// Parse runs the full macro-level parse of source and returns its AST.
// Parse never panics; malformed input produces an *Error.
func Parse(source string) (*AST, error) {
	p := &Parser{lex: lexer.New(source)}
	if err := p.advance(); err != nil {
		return nil, err
	}

	p.ast.Nodes = append(p.ast.Nodes, Node{}) // placeholder for root at index 0

	var rootChildren []int32
	for p.cur.Kind != lexer.Eof {
		idx, err := p.parseMacro()
		if err != nil {
			return nil, err
		}
		rootChildren = append(rootChildren, idx)
	}

	p.ast.Nodes[0] = Node{Kind: NodeRoot, ExtraStart: p.pushExtra(rootChildren), ExtraCount: int32(len(rootChildren))}
	return &p.ast, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		lexErr, _ := err.(*lexer.Error)
		if lexErr != nil {
			return &Error{Start: lexErr.Start, End: lexErr.End, Message: lexErr.Message}
		}
		return &Error{Message: err.Error()}
	}
	p.cur = tok
	return nil
}

func (p *Parser) expect(k lexer.Kind, what string) error {
	if p.cur.Kind != k {
		return &Error{Start: p.cur.Start, End: p.cur.End, Message: "expected " + what}
	}
	return nil
}

func (p *Parser) pushExtra(idxs []int32) int32 {
	start := int32(len(p.ast.Extra))
	p.ast.Extra = append(p.ast.Extra, idxs...)
	return start
}

func (p *Parser) addNode(n Node) int32 {
	p.ast.Nodes = append(p.ast.Nodes, n)
	return int32(len(p.ast.Nodes) - 1)
}

// parseMacro consumes one `#form [name] { ... }` at the top level.
func (p *Parser) parseMacro() (int32, error) {
	start := p.cur.Start
	if err := p.expect(lexer.Hash, "'#'"); err != nil {
		return 0, err
	}
	if err := p.advance(); err != nil {
		return 0, err
	}
	if err := p.expect(lexer.Identifier, "macro form"); err != nil {
		return 0, err
	}
	formText := p.cur.Text
	form, ok := macroKeywords[formText]
	if !ok {
		return 0, &Error{Start: p.cur.Start, End: p.cur.End, Message: "unknown macro form '" + formText + "'"}
	}
	if err := p.advance(); err != nil {
		return 0, err
	}

	name := ""
	if p.cur.Kind == lexer.Identifier {
		name = p.cur.Text
		if err := p.advance(); err != nil {
			return 0, err
		}
	}

	if err := p.expect(lexer.LBrace, "'{'"); err != nil {
		return 0, err
	}
	bodyIdx, err := p.parseBody()
	if err != nil {
		return 0, err
	}

	return p.addNode(Node{
		Kind:      NodeMacro,
		Name:      name,
		MacroForm: form,
		ValueIdx:  bodyIdx,
		Start:     start,
		End:       p.ast.Nodes[bodyIdx].End,
	}), nil
}

// frame is one level of in-progress object/array construction on the
// explicit parse stack.
type frame struct {
	kind        NodeKind // NodeObject or NodeArray
	start       int
	children    []int32
	propKey     string // set when the parent is an Object and this frame is a property value
	isArrayElem bool   // set when the parent is an Array
}

// parseBody parses a single `{ ... }` object body using an explicit stack,
// so arbitrarily nested object/array values never grow the Go call stack.
func (p *Parser) parseBody() (int32, error) {
	start := p.cur.Start
	if err := p.advance(); err != nil { // consume '{'
		return 0, err
	}
	stack := []frame{{kind: NodeObject, start: start}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		p.skipComma()

		switch top.kind {
		case NodeObject:
			if p.cur.Kind == lexer.RBrace {
				fin := *top
				fin.start = top.start
				closeStart := p.cur.Start
				if err := p.advance(); err != nil {
					return 0, err
				}
				idx := p.addNode(Node{Kind: NodeObject, ExtraStart: p.pushExtra(fin.children), ExtraCount: int32(len(fin.children)), Start: fin.start, End: closeStart + 1})
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return idx, nil
				}
				p.attach(&stack[len(stack)-1], fin, idx)
				continue
			}
			if err := p.expect(lexer.Identifier, "property key"); err != nil {
				return 0, err
			}
			key := p.cur.Text
			keyStart := p.cur.Start
			if err := p.advance(); err != nil {
				return 0, err
			}
			if err := p.expect(lexer.Equals, "'='"); err != nil {
				return 0, err
			}
			if err := p.advance(); err != nil {
				return 0, err
			}
			pushed, immediateIdx, err := p.parseValue(key, false, keyStart)
			if err != nil {
				return 0, err
			}
			if pushed != nil {
				stack = append(stack, *pushed)
			} else {
				propIdx := p.addNode(Node{Kind: NodeProperty, Name: key, ValueIdx: immediateIdx, Start: keyStart, End: p.ast.Nodes[immediateIdx].End})
				top.children = append(top.children, propIdx)
			}

		case NodeArray:
			if p.cur.Kind == lexer.RBracket {
				fin := *top
				closeStart := p.cur.Start
				if err := p.advance(); err != nil {
					return 0, err
				}
				idx := p.addNode(Node{Kind: NodeArray, ExtraStart: p.pushExtra(fin.children), ExtraCount: int32(len(fin.children)), Start: fin.start, End: closeStart + 1})
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return idx, nil
				}
				p.attach(&stack[len(stack)-1], fin, idx)
				continue
			}
			elemStart := p.cur.Start
			pushed, immediateIdx, err := p.parseValue("", true, elemStart)
			if err != nil {
				return 0, err
			}
			if pushed != nil {
				stack = append(stack, *pushed)
			} else {
				top.children = append(top.children, immediateIdx)
			}
		}
	}

	return 0, &Error{Start: start, End: start, Message: "unterminated object body"}
}

// attach wires a just-finished frame's result node into its parent frame,
// either as a Property value (object parent) or a direct element (array
// parent).
func (p *Parser) attach(parent *frame, finished frame, idx int32) {
	if finished.propKey != "" {
		propIdx := p.addNode(Node{Kind: NodeProperty, Name: finished.propKey, ValueIdx: idx, Start: finished.start, End: p.ast.Nodes[idx].End})
		parent.children = append(parent.children, propIdx)
		return
	}
	parent.children = append(parent.children, idx)
}

// parseValue parses one value position (a property value or an array
// element). If the value is a nested object/array it returns a frame to
// push onto the explicit stack and a nil immediate index; otherwise it
// parses the literal immediately and returns its node index.
func (p *Parser) parseValue(propKey string, isArrayElem bool, start int) (*frame, int32, error) {
	switch p.cur.Kind {
	case lexer.LBrace:
		if err := p.advance(); err != nil {
			return nil, 0, err
		}
		return &frame{kind: NodeObject, start: start, propKey: propKey, isArrayElem: isArrayElem}, 0, nil

	case lexer.LBracket:
		if err := p.advance(); err != nil {
			return nil, 0, err
		}
		return &frame{kind: NodeArray, start: start, propKey: propKey, isArrayElem: isArrayElem}, 0, nil

	case lexer.String:
		idx := p.addNode(Node{Kind: NodeString, Name: p.cur.Text, Start: p.cur.Start, End: p.cur.End})
		return nil, idx, p.advance()

	case lexer.Number:
		idx := p.addNode(Node{Kind: NodeNumber, Name: p.cur.Text, Start: p.cur.Start, End: p.cur.End})
		return nil, idx, p.advance()

	case lexer.Identifier:
		idx := p.addNode(Node{Kind: NodeIdentifier, Name: p.cur.Text, Start: p.cur.Start, End: p.cur.End})
		return nil, idx, p.advance()

	case lexer.Dollar:
		idx, err := p.parseReference()
		return nil, idx, err

	default:
		return nil, 0, &Error{Start: p.cur.Start, End: p.cur.End, Message: "expected a value"}
	}
}

// parseReference parses a `$namespace.name` expression.
func (p *Parser) parseReference() (int32, error) {
	start := p.cur.Start
	if err := p.advance(); err != nil { // consume '$'
		return 0, err
	}
	if err := p.expect(lexer.Identifier, "namespace"); err != nil {
		return 0, err
	}
	namespace := p.cur.Text
	if err := p.advance(); err != nil {
		return 0, err
	}
	if err := p.expect(lexer.Dot, "'.'"); err != nil {
		return 0, err
	}
	if err := p.advance(); err != nil {
		return 0, err
	}
	if err := p.expect(lexer.Identifier, "reference name"); err != nil {
		return 0, err
	}
	name := p.cur.Text
	end := p.cur.End
	if err := p.advance(); err != nil {
		return 0, err
	}
	return p.addNode(Node{Kind: NodeReference, Name: namespace, RefName: name, Start: start, End: end}), nil
}

// skipComma treats ',' as an optional separator between properties or
// array elements.
func (p *Parser) skipComma() {
	for p.cur.Kind == lexer.Comma {
		if err := p.advance(); err != nil {
			return
		}
	}
}
