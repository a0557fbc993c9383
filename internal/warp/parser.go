package warp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cfgtree/cfgtree/internal/model"
)

// parseCondExpr parses an explicit boolean rule expression into the closed
// condition AST. The grammar is deliberately tiny:
//
//	orExpr  := andExpr { "or" andExpr }
//	andExpr := primary { "and" primary }
//	primary := "(" orExpr ")" | symbol "==" literal
//	literal := 'single quoted' | "double quoted" | bareword
func parseCondExpr(input string) (model.Cond, error) {
	p := &condParser{input: input}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("unexpected trailing input at offset %d", p.pos)
	}
	return cond, nil
}

type condParser struct {
	input string
	pos   int
}

func (p *condParser) parseOr() (model.Cond, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	terms := []model.Cond{first}
	for p.eatKeyword("or") {
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return model.CondOr{Terms: terms}, nil
}

func (p *condParser) parseAnd() (model.Cond, error) {
	first, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	terms := []model.Cond{first}
	for p.eatKeyword("and") {
		next, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return model.CondAnd{Terms: terms}, nil
}

func (p *condParser) parsePrimary() (model.Cond, error) {
	p.skipSpace()
	if p.peek() == '(' {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, fmt.Errorf("missing closing parenthesis at offset %d", p.pos)
		}
		p.pos++
		return inner, nil
	}

	sym := p.readWord()
	if sym == "" {
		return nil, fmt.Errorf("expected follower symbol at offset %d", p.pos)
	}
	p.skipSpace()
	if !strings.HasPrefix(p.input[p.pos:], "==") {
		return nil, fmt.Errorf("expected '==' after %q at offset %d", sym, p.pos)
	}
	p.pos += 2
	lit, err := p.readLiteral()
	if err != nil {
		return nil, err
	}
	return model.CondEq{Sym: sym, Literal: lit}, nil
}

// eatKeyword consumes the keyword if it appears next as a full word.
func (p *condParser) eatKeyword(kw string) bool {
	p.skipSpace()
	rest := p.input[p.pos:]
	if !strings.HasPrefix(rest, kw) {
		return false
	}
	after := rest[len(kw):]
	if after != "" && isWordRune(rune(after[0])) {
		return false
	}
	p.pos += len(kw)
	return true
}

func (p *condParser) readLiteral() (string, error) {
	p.skipSpace()
	switch p.peek() {
	case '\'', '"':
		quote := p.peek()
		p.pos++
		start := p.pos
		for p.pos < len(p.input) && p.input[p.pos] != byte(quote) {
			p.pos++
		}
		if p.pos == len(p.input) {
			return "", fmt.Errorf("unterminated string literal at offset %d", start)
		}
		lit := p.input[start:p.pos]
		p.pos++
		return lit, nil
	default:
		word := p.readWord()
		if word == "" {
			return "", fmt.Errorf("expected literal at offset %d", p.pos)
		}
		return word, nil
	}
}

func (p *condParser) readWord() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && isWordRune(rune(p.input[p.pos])) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *condParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *condParser) peek() rune {
	if p.pos >= len(p.input) {
		return 0
	}
	return rune(p.input[p.pos])
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'
}
