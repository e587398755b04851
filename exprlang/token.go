// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exprlang implements the symbolic expression grammar used to
// define reaction kinetics: a tokenizer, a recursive-descent parser that
// produces a tagged-variant IR tree, and a bounded-stack evaluator.
package exprlang

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokFunc
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

// unaryFuncs is the fixed set of unary functions the grammar recognizes.
var unaryFuncs = map[string]bool{
	"cos": true, "sin": true, "tan": true, "cot": true, "abs": true,
	"sgn": true, "sqrt": true, "log": true, "exp": true,
	"asin": true, "acos": true, "atan": true, "acot": true,
	"sinh": true, "cosh": true, "tanh": true, "coth": true,
	"log10": true, "step": true,
}

// ReservedHydraulicVars are the hydraulic-variable names that must never
// register as user-defined identifiers (species/term/parameter/constant).
var ReservedHydraulicVars = map[string]bool{
	"D": true, "Q": true, "U": true, "Re": true, "Us": true,
	"Ff": true, "Av": true, "Kc": true, "Len": true,
}

type lexer struct {
	src []rune
	pos int
}

func newLexer(s string) *lexer {
	return &lexer{src: []rune(s)}
}

func (l *lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}
func isAlnum(r rune) bool { return isAlpha(r) || isDigit(r) }

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		l.pos++
	}
}

// next returns the next token, or a tokEOF token once the input is exhausted.
func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF}, nil
	}
	r := l.src[l.pos]
	switch {
	case r == '+':
		l.pos++
		return token{kind: tokPlus, text: "+"}, nil
	case r == '-':
		l.pos++
		return token{kind: tokMinus, text: "-"}, nil
	case r == '*':
		l.pos++
		return token{kind: tokStar, text: "*"}, nil
	case r == '/':
		l.pos++
		return token{kind: tokSlash, text: "/"}, nil
	case r == '^':
		l.pos++
		return token{kind: tokCaret, text: "^"}, nil
	case r == '(':
		l.pos++
		return token{kind: tokLParen, text: "("}, nil
	case r == ')':
		l.pos++
		return token{kind: tokRParen, text: ")"}, nil
	case isDigit(r) || r == '.':
		return l.scanNumber()
	case isAlpha(r):
		return l.scanIdent()
	default:
		return token{}, &ParseError{Msg: "unexpected character '" + string(r) + "'"}
	}
}

func (l *lexer) scanNumber() (token, error) {
	start := l.pos
	seenDot := false
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		if isDigit(r) {
			l.pos++
			continue
		}
		if r == '.' {
			if seenDot {
				return token{}, &ParseError{Msg: "numeric literal has more than one decimal point"}
			}
			seenDot = true
			l.pos++
			continue
		}
		break
	}
	// optional scientific-notation exponent: e|E [+|-] digits
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		save := l.pos
		p := l.pos + 1
		if p < len(l.src) && (l.src[p] == '+' || l.src[p] == '-') {
			p++
		}
		q := p
		for q < len(l.src) && isDigit(l.src[q]) {
			q++
		}
		if q > p {
			l.pos = q
		} else {
			l.pos = save
		}
	}
	text := string(l.src[start:l.pos])
	v, err := parseFloat(text)
	if err != nil {
		return token{}, &ParseError{Msg: "malformed numeric literal '" + text + "'"}
	}
	return token{kind: tokNum, text: text, num: v}, nil
}

func (l *lexer) scanIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && isAlnum(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	if unaryFuncs[strings.ToLower(text)] {
		return token{kind: tokFunc, text: strings.ToLower(text)}, nil
	}
	return token{kind: tokIdent, text: text}, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
