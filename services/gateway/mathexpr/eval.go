// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mathexpr evaluates arithmetic expressions under a closed,
// side-effect-free grammar.
//
// The grammar accepts numbers, the operators + - * / ^, parentheses, unary
// minus, the constants pi and e, and a small function whitelist. There is
// no identifier evaluation outside the whitelist, no assignment, and no
// statement sequencing: anything resembling code execution fails to parse
// rather than being partially evaluated. Evaluation is deterministic and
// pure.
package mathexpr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrParse is the base error for any input the grammar rejects.
var ErrParse = errors.New("expression does not parse")

// functions is the closed whitelist of callable names with their arity.
var functions = map[string]struct {
	arity int
	apply func(args []float64) float64
}{
	"sqrt": {1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	"abs":  {1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"sin":  {1, func(a []float64) float64 { return math.Sin(a[0]) }},
	"cos":  {1, func(a []float64) float64 { return math.Cos(a[0]) }},
	"tan":  {1, func(a []float64) float64 { return math.Tan(a[0]) }},
	"log":  {1, func(a []float64) float64 { return math.Log10(a[0]) }},
	"ln":   {1, func(a []float64) float64 { return math.Log(a[0]) }},
	"exp":  {1, func(a []float64) float64 { return math.Exp(a[0]) }},
	"pow":  {2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"min":  {2, func(a []float64) float64 { return math.Min(a[0], a[1]) }},
	"max":  {2, func(a []float64) float64 { return math.Max(a[0], a[1]) }},
}

// constants are the only bare identifiers the grammar accepts.
var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// Eval parses and evaluates expr. Same input, same output, always.
func Eval(expr string) (float64, error) {
	p := &parser{input: expr}
	p.next()
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.tok.kind != tokEOF {
		return 0, fmt.Errorf("%w: unexpected %q", ErrParse, p.tok.text)
	}
	return v, nil
}

// Format renders a result the way the responder reports it: no exponent
// for ordinary magnitudes, no trailing zeros.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// =============================================================================
// Lexer
// =============================================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp     // + - * / ^
	tokLParen // (
	tokRParen // )
	tokComma  // ,
)

type token struct {
	kind tokenKind
	text string
	val  float64
}

type parser struct {
	input string
	pos   int
	tok   token
	err   error
}

func (p *parser) next() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
	if p.pos >= len(p.input) {
		p.tok = token{kind: tokEOF}
		return
	}

	c := p.input[p.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.input) && (p.input[p.pos] >= '0' && p.input[p.pos] <= '9' || p.input[p.pos] == '.') {
			p.pos++
		}
		text := p.input[start:p.pos]
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.err = fmt.Errorf("%w: bad number %q", ErrParse, text)
			p.tok = token{kind: tokEOF}
			return
		}
		p.tok = token{kind: tokNumber, text: text, val: v}

	case isIdentRune(rune(c)):
		start := p.pos
		for p.pos < len(p.input) && isIdentRune(rune(p.input[p.pos])) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: strings.ToLower(p.input[start:p.pos])}

	case c == '+' || c == '-' || c == '*' || c == '/' || c == '^':
		p.pos++
		p.tok = token{kind: tokOp, text: string(c)}

	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "("}

	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")"}

	case c == ',':
		p.pos++
		p.tok = token{kind: tokComma, text: ","}

	default:
		p.err = fmt.Errorf("%w: unexpected character %q", ErrParse, string(c))
		p.tok = token{kind: tokEOF}
	}
}

func isIdentRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

// =============================================================================
// Recursive-Descent Parser
// =============================================================================

// parseExpr := term (('+' | '-') term)*
func (p *parser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text
		p.next()
		rhs, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			v += rhs
		} else {
			v -= rhs
		}
	}
	return v, p.err
}

// parseTerm := unary (('*' | '/') unary)*
func (p *parser) parseTerm() (float64, error) {
	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/") {
		op := p.tok.text
		p.next()
		rhs, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == "*" {
			v *= rhs
		} else {
			if rhs == 0 {
				return 0, fmt.Errorf("%w: division by zero", ErrParse)
			}
			v /= rhs
		}
	}
	return v, p.err
}

// parseUnary := '-' unary | power
func (p *parser) parseUnary() (float64, error) {
	if p.tok.kind == tokOp && p.tok.text == "-" {
		p.next()
		v, err := p.parseUnary()
		return -v, err
	}
	return p.parsePower()
}

// parsePower := atom ('^' unary)?   right-associative
func (p *parser) parsePower() (float64, error) {
	base, err := p.parseAtom()
	if err != nil {
		return 0, err
	}
	if p.tok.kind == tokOp && p.tok.text == "^" {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

// parseAtom := number | constant | func '(' expr (',' expr)* ')' | '(' expr ')'
func (p *parser) parseAtom() (float64, error) {
	if p.err != nil {
		return 0, p.err
	}

	switch p.tok.kind {
	case tokNumber:
		v := p.tok.val
		p.next()
		return v, nil

	case tokIdent:
		name := p.tok.text
		p.next()
		if c, ok := constants[name]; ok && p.tok.kind != tokLParen {
			return c, nil
		}
		fn, ok := functions[name]
		if !ok {
			return 0, fmt.Errorf("%w: unknown identifier %q", ErrParse, name)
		}
		if p.tok.kind != tokLParen {
			return 0, fmt.Errorf("%w: %q requires arguments", ErrParse, name)
		}
		p.next()
		args := make([]float64, 0, fn.arity)
		for {
			v, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			args = append(args, v)
			if p.tok.kind == tokComma {
				p.next()
				continue
			}
			break
		}
		if p.tok.kind != tokRParen {
			return 0, fmt.Errorf("%w: missing closing parenthesis in %q call", ErrParse, name)
		}
		p.next()
		if len(args) != fn.arity {
			return 0, fmt.Errorf("%w: %q takes %d argument(s), got %d", ErrParse, name, fn.arity, len(args))
		}
		return fn.apply(args), nil

	case tokLParen:
		p.next()
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.tok.kind != tokRParen {
			return 0, fmt.Errorf("%w: missing closing parenthesis", ErrParse)
		}
		p.next()
		return v, nil

	case tokEOF:
		if p.err != nil {
			return 0, p.err
		}
		return 0, fmt.Errorf("%w: unexpected end of expression", ErrParse)

	default:
		return 0, fmt.Errorf("%w: unexpected %q", ErrParse, p.tok.text)
	}
}
