package expr

import (
	"fmt"
	"strconv"
)

// binaryPrecedence maps infix operators to binding power; higher binds
// tighter. The conditional operator sits below all of them.
var binaryPrecedence = map[string]int{
	"??":  1,
	"||":  2,
	"&&":  3,
	"==":  4,
	"!=":  4,
	"===": 4,
	"!==": 4,
	"<":   5,
	"<=":  5,
	">":   5,
	">=":  5,
	"+":   6,
	"-":   6,
	"*":   7,
	"/":   7,
	"%":   7,
}

// parser is a precedence-climbing parser over a token slice.
type parser struct {
	src    string
	tokens []token
	pos    int
}

// Parse parses an expression into an AST.
func Parse(src string) (Node, error) {
	tokens, err := lex(src)
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			se.Expr = src
		}
		return nil, err
	}
	p := &parser{src: src, tokens: tokens}
	node, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %q", tok.text)
	}
	return node, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) isPunct(text string) bool {
	tok := p.peek()
	return tok.kind == tokPunct && tok.text == text
}

func (p *parser) expect(text string) error {
	tok := p.next()
	if tok.kind != tokPunct || tok.text != text {
		return p.errorf(tok, "expected %q", text)
	}
	return nil
}

func (p *parser) errorf(tok token, msg string, args ...any) *SyntaxError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	if tok.kind == tokEOF {
		msg = "unexpected end of expression"
	}
	return &SyntaxError{Expr: p.src, Pos: tok.pos, Msg: msg}
}

// parseConditional handles the right-associative c ? a : b.
func (p *parser) parseConditional() (Node, error) {
	test, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if !p.isPunct("?") {
		return test, nil
	}
	at := p.next().pos
	then, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	otherwise, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	return &Conditional{At: at, Test: test, Then: then, Else: otherwise}, nil
}

// parseBinary parses infix operators with precedence at least minPrec.
func (p *parser) parseBinary(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokPunct {
			return left, nil
		}
		prec, ok := binaryPrecedence[tok.text]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{At: tok.pos, Op: tok.text, X: left, Y: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	tok := p.peek()
	if tok.kind == tokPunct && (tok.text == "!" || tok.text == "-" || tok.text == "+") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{At: tok.pos, Op: tok.text, X: x}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary followed by member, index and call suffixes.
func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokPunct {
			return node, nil
		}
		switch tok.text {
		case ".":
			p.next()
			name := p.next()
			if name.kind != tokIdent {
				return nil, p.errorf(name, "expected property name after '.'")
			}
			node = &Member{At: tok.pos, Object: node, Name: name.text}
		case "?.":
			p.next()
			switch {
			case p.isPunct("["):
				p.next()
				idx, err := p.parseConditional()
				if err != nil {
					return nil, err
				}
				if err := p.expect("]"); err != nil {
					return nil, err
				}
				node = &Index{At: tok.pos, Object: node, Index: idx, Optional: true}
			case p.isPunct("("):
				p.next()
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				node = &Call{At: tok.pos, Callee: node, Args: args, Optional: true}
			default:
				name := p.next()
				if name.kind != tokIdent {
					return nil, p.errorf(name, "expected property name after '?.'")
				}
				node = &Member{At: tok.pos, Object: node, Name: name.text, Optional: true}
			}
		case "[":
			p.next()
			idx, err := p.parseConditional()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			node = &Index{At: tok.pos, Object: node, Index: idx}
		case "(":
			p.next()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			node = &Call{At: tok.pos, Callee: node, Args: args}
		default:
			return node, nil
		}
	}
}

// parseArgs parses a call argument list after the opening parenthesis.
func (p *parser) parseArgs() ([]Node, error) {
	var args []Node
	if p.isPunct(")") {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.isPunct(",") {
			p.next()
			continue
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, p.errorf(tok, "invalid number %q", tok.text)
		}
		return &Literal{At: tok.pos, Value: f}, nil
	case tokString:
		return &Literal{At: tok.pos, Value: tok.str}, nil
	case tokIdent:
		switch tok.text {
		case "true":
			return &Literal{At: tok.pos, Value: true}, nil
		case "false":
			return &Literal{At: tok.pos, Value: false}, nil
		case "null":
			return &Literal{At: tok.pos, Value: nil}, nil
		case "undefined":
			return &Literal{At: tok.pos, Value: Undefined}, nil
		case "this":
			return &This{At: tok.pos}, nil
		}
		return &Ident{At: tok.pos, Name: tok.text, Slot: -1}, nil
	case tokPunct:
		if tok.text == "(" {
			inner, err := p.parseConditional()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
	}
	return nil, p.errorf(tok, "unexpected %q", tok.text)
}
