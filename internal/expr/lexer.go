package expr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokString
	tokChar
	tokDot      // .
	tokQDot     // ?.
	tokQuestion // ?
	tokColon    // :
	tokComma    // ,
	tokLParen   // (
	tokRParen   // )
	tokLBrace   // {
	tokRBrace   // }
	tokArrow    // =>
	tokEq       // ==
	tokNeq      // !=
	tokAnd      // &&
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	src string
	off int
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.off
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := l.src[l.off]
	switch {
	case isIdentStart(rune(c)):
		return l.lexIdent(), nil
	case c >= '0' && c <= '9':
		return l.lexInt(), nil
	case c == '"':
		return l.lexString()
	case c == '\'':
		return l.lexChar()
	}

	two := ""
	if l.off+1 < len(l.src) {
		two = l.src[l.off : l.off+2]
	}
	switch two {
	case "?.":
		l.off += 2
		return token{kind: tokQDot, text: two, pos: start}, nil
	case "=>":
		l.off += 2
		return token{kind: tokArrow, text: two, pos: start}, nil
	case "==":
		l.off += 2
		return token{kind: tokEq, text: two, pos: start}, nil
	case "!=":
		l.off += 2
		return token{kind: tokNeq, text: two, pos: start}, nil
	case "&&":
		l.off += 2
		return token{kind: tokAnd, text: two, pos: start}, nil
	}

	l.off++
	var k tokenKind
	switch c {
	case '.':
		k = tokDot
	case '?':
		k = tokQuestion
	case ':':
		k = tokColon
	case ',':
		k = tokComma
	case '(':
		k = tokLParen
	case ')':
		k = tokRParen
	case '{':
		k = tokLBrace
	case '}':
		k = tokRBrace
	default:
		return token{}, fmt.Errorf("unexpected character %q at offset %d", c, start)
	}
	return token{kind: k, text: string(c), pos: start}, nil
}

func (l *lexer) skipSpace() {
	for l.off < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.off:])
		if !unicode.IsSpace(r) {
			return
		}
		l.off += size
	}
}

func (l *lexer) lexIdent() token {
	start := l.off
	for l.off < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.off:])
		if !isIdentStart(r) && !unicode.IsDigit(r) {
			break
		}
		l.off += size
	}
	return token{kind: tokIdent, text: l.src[start:l.off], pos: start}
}

func (l *lexer) lexInt() token {
	start := l.off
	for l.off < len(l.src) && l.src[l.off] >= '0' && l.src[l.off] <= '9' {
		l.off++
	}
	return token{kind: tokInt, text: l.src[start:l.off], pos: start}
}

func (l *lexer) lexString() (token, error) {
	start := l.off
	l.off++ // opening quote
	var b strings.Builder
	for l.off < len(l.src) {
		c := l.src[l.off]
		if c == '\\' && l.off+1 < len(l.src) {
			b.WriteByte(l.src[l.off+1])
			l.off += 2
			continue
		}
		if c == '"' {
			l.off++
			return token{kind: tokString, text: b.String(), pos: start}, nil
		}
		b.WriteByte(c)
		l.off++
	}
	return token{}, fmt.Errorf("unterminated string at offset %d", start)
}

func (l *lexer) lexChar() (token, error) {
	start := l.off
	l.off++ // opening quote
	var b strings.Builder
	for l.off < len(l.src) {
		c := l.src[l.off]
		if c == '\\' && l.off+1 < len(l.src) {
			b.WriteByte('\\')
			b.WriteByte(l.src[l.off+1])
			l.off += 2
			continue
		}
		if c == '\'' {
			l.off++
			return token{kind: tokChar, text: b.String(), pos: start}, nil
		}
		b.WriteByte(c)
		l.off++
	}
	return token{}, fmt.Errorf("unterminated char literal at offset %d", start)
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}
