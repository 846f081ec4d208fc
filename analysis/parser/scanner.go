// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

// This file defines the tokens of the concrete syntax and a scanner that
// splits source text into them.

import (
	"go/token"
	"strconv"
)

// Token is a lexical token of the concrete syntax.
type Token int

const (
	ILLEGAL Token = iota
	EOF

	IDENT // x
	INT   // 123

	operatorBeg
	LSS // <
	LEQ // <=
	EQL // ==
	NEQ // !=
	GEQ // >=
	GTR // >
	ADD // +
	SUB // -
	MUL // *
	QUO // /
	POW // ^
	operatorEnd

	ASSIGN // =
	ARROW  // ->
	LPAREN // (
	RPAREN // )

	keywordBeg
	FN   // fn
	FUN  // fun
	LET  // let
	IN   // in
	IF   // if
	THEN // then
	ELSE // else
	keywordEnd
)

var tokens = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",
	IDENT:   "IDENT",
	INT:     "INT",
	LSS:     "<",
	LEQ:     "<=",
	EQL:     "==",
	NEQ:     "!=",
	GEQ:     ">=",
	GTR:     ">",
	ADD:     "+",
	SUB:     "-",
	MUL:     "*",
	QUO:     "/",
	POW:     "^",
	ASSIGN:  "=",
	ARROW:   "->",
	LPAREN:  "(",
	RPAREN:  ")",
	FN:      "fn",
	FUN:     "fun",
	LET:     "let",
	IN:      "in",
	IF:      "if",
	THEN:    "then",
	ELSE:    "else",
}

var keywords map[string]Token

func init() {
	keywords = make(map[string]Token)
	for i := keywordBeg + 1; i < keywordEnd; i++ {
		keywords[tokens[i]] = i
	}
}

func (tok Token) String() string {
	if 0 <= tok && int(tok) < len(tokens) && tokens[tok] != "" {
		return tokens[tok]
	}
	return "token(" + strconv.Itoa(int(tok)) + ")"
}

// Precedence returns the binding strength of a binary operator, or 0 if tok
// is not a binary operator.  Larger values bind more tightly.
func (tok Token) Precedence() int {
	switch tok {
	case LSS, LEQ, EQL, NEQ, GEQ, GTR:
		return 1
	case ADD, SUB:
		return 2
	case MUL, QUO:
		return 3
	case POW:
		return 4
	}
	return 0
}

// IsOperator reports whether tok is a binary operator.
func (tok Token) IsOperator() bool { return operatorBeg < tok && tok < operatorEnd }

// IsKeyword reports whether tok is a reserved word.
func (tok Token) IsKeyword() bool { return keywordBeg < tok && tok < keywordEnd }

// A scanner produces the tokens of a single source file.
type scanner struct {
	file *token.File
	src  []byte

	offset int // offset of the next unread byte
}

func (s *scanner) init(file *token.File, src []byte) {
	s.file = file
	s.src = src
	s.offset = 0
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func (s *scanner) skipWhitespace() {
	for s.offset < len(s.src) {
		switch s.src[s.offset] {
		case ' ', '\t', '\n', '\r':
			s.offset++
		case '#':
			// comment to end of line
			for s.offset < len(s.src) && s.src[s.offset] != '\n' {
				s.offset++
			}
		default:
			return
		}
	}
}

// scan returns the next token, its position, and its literal text.
func (s *scanner) scan() (pos token.Pos, tok Token, lit string) {
	s.skipWhitespace()
	start := s.offset
	pos = s.file.Pos(start)
	if s.offset >= len(s.src) {
		return pos, EOF, ""
	}

	ch := s.src[s.offset]
	switch {
	case isLetter(ch):
		for s.offset < len(s.src) && (isLetter(s.src[s.offset]) || isDigit(s.src[s.offset]) || s.src[s.offset] == '\'') {
			s.offset++
		}
		lit = string(s.src[start:s.offset])
		if kw, ok := keywords[lit]; ok {
			return pos, kw, lit
		}
		return pos, IDENT, lit
	case isDigit(ch):
		for s.offset < len(s.src) && isDigit(s.src[s.offset]) {
			s.offset++
		}
		return pos, INT, string(s.src[start:s.offset])
	}

	s.offset++
	next := byte(0)
	if s.offset < len(s.src) {
		next = s.src[s.offset]
	}
	two := func(second byte, long, short Token) Token {
		if next == second {
			s.offset++
			return long
		}
		return short
	}
	switch ch {
	case '(':
		tok = LPAREN
	case ')':
		tok = RPAREN
	case '+':
		tok = ADD
	case '-':
		tok = two('>', ARROW, SUB)
	case '*':
		tok = MUL
	case '/':
		tok = QUO
	case '^':
		tok = POW
	case '<':
		tok = two('=', LEQ, LSS)
	case '>':
		tok = two('=', GEQ, GTR)
	case '=':
		tok = two('=', EQL, ASSIGN)
	case '!':
		tok = two('=', NEQ, ILLEGAL)
	default:
		tok = ILLEGAL
	}
	return pos, tok, string(s.src[start:s.offset])
}
