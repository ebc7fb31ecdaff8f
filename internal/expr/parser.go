package expr

import "fmt"

// Parse parses a single expression. The usual top-level shape for a
// projection is a lambda whose body is an object construction, but any
// expression of the surface grammar is accepted.
func Parse(src string) (Node, error) {
	toks, err := lexAll(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected trailing input at offset %d", p.peek().pos)
	}
	return n, nil
}

func lexAll(src string) ([]token, error) {
	l := &lexer{src: src}
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks, nil
		}
	}
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	t := p.peek()
	if t.kind != k {
		return token{}, fmt.Errorf("expected %s at offset %d, got %q", what, t.pos, t.text)
	}
	return p.advance(), nil
}

// parseExpr handles the lowest level: lambda, then conditional.
func (p *parser) parseExpr() (Node, error) {
	if p.peek().kind == tokIdent && p.peekAt(1).kind == tokArrow {
		param := p.advance().text
		p.advance() // =>
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Lambda{Param: param, Body: body}, nil
	}
	return p.parseConditional()
}

func (p *parser) parseConditional() (Node, error) {
	cond, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokQuestion {
		return cond, nil
	}
	p.advance()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon, "':'"); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Conditional{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseEquality() (Node, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().kind {
		case tokEq:
			op = "=="
		case tokNeq:
			op = "!="
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tokDot, tokQDot:
			optional := p.advance().kind == tokQDot
			name, err := p.expect(tokIdent, "member name")
			if err != nil {
				return nil, err
			}
			n = &Member{Recv: n, Name: name.text, Optional: optional}
		case tokLParen:
			p.advance()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			n = &Call{Fn: n, Args: args}
		default:
			return n, nil
		}
	}
}

func (p *parser) parseArgs() ([]Node, error) {
	var args []Node
	if p.peek().kind == tokRParen {
		p.advance()
		return args, nil
	}
	for {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		switch p.peek().kind {
		case tokComma:
			p.advance()
		case tokRParen:
			p.advance()
			return args, nil
		default:
			return nil, fmt.Errorf("expected ',' or ')' at offset %d", p.peek().pos)
		}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.peek()
	switch t.kind {
	case tokIdent:
		p.advance()
		switch t.text {
		case "null":
			return Null(), nil
		case "true", "false":
			return &Lit{Kind: LitBool, Value: t.text}, nil
		}
		return &Ident{Name: t.text}, nil
	case tokInt:
		p.advance()
		return &Lit{Kind: LitInt, Value: t.text}, nil
	case tokString:
		p.advance()
		return &Lit{Kind: LitString, Value: t.text}, nil
	case tokChar:
		p.advance()
		return &Lit{Kind: LitChar, Value: t.text}, nil
	case tokLBrace:
		return p.parseObject()
	case tokLParen:
		return p.parseParenOrCast()
	}
	return nil, fmt.Errorf("unexpected token %q at offset %d", t.text, t.pos)
}

// parseParenOrCast disambiguates (T)x and (T?)x from plain grouping:
// a parenthesized bare identifier counts as a cast only when it is
// immediately followed by a token that can begin an operand.
func (p *parser) parseParenOrCast() (Node, error) {
	if n, ok, err := p.tryCast(); ok || err != nil {
		return n, err
	}
	p.advance() // (
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return inner, nil
}

func (p *parser) tryCast() (Node, bool, error) {
	i := 1
	if p.peekAt(i).kind != tokIdent {
		return nil, false, nil
	}
	typeName := p.peekAt(i).text
	if typeName == "null" || typeName == "true" || typeName == "false" {
		return nil, false, nil
	}
	i++
	nullable := false
	if p.peekAt(i).kind == tokQuestion {
		nullable = true
		i++
	}
	if p.peekAt(i).kind != tokRParen {
		return nil, false, nil
	}
	i++
	switch p.peekAt(i).kind {
	case tokIdent, tokInt, tokString, tokChar, tokLParen, tokLBrace:
	default:
		return nil, false, nil
	}

	p.pos += i
	val, err := p.parsePostfix()
	if err != nil {
		return nil, false, err
	}
	return &Cast{Type: typeName, Nullable: nullable, Value: val}, true, nil
}

func (p *parser) parseObject() (Node, error) {
	p.advance() // {
	obj := &Object{}
	if p.peek().kind == tokRBrace {
		p.advance()
		return obj, nil
	}
	for {
		var name string
		if p.peek().kind == tokIdent && p.peekAt(1).kind == tokColon {
			name = p.advance().text
			p.advance() // :
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, ObjectField{Name: name, Value: val})
		switch p.peek().kind {
		case tokComma:
			p.advance()
			if p.peek().kind == tokRBrace { // trailing comma
				p.advance()
				return obj, nil
			}
		case tokRBrace:
			p.advance()
			return obj, nil
		default:
			return nil, fmt.Errorf("expected ',' or '}' at offset %d", p.peek().pos)
		}
	}
}
