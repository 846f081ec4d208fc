// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parser reads programs written in the concrete syntax of the
// analyzed language and produces labeled syntax trees.
//
// The grammar, from lowest to highest precedence:
//
//	expr   = "let" ident "=" expr "in" expr
//	       | "if" expr "then" expr "else" expr
//	       | "fn" ident "->" expr
//	       | "fun" ident ident "->" expr
//	       | binary .
//	binary = app { op app } .          (operators are left associative)
//	app    = atom { atom } .           (application is left associative)
//	atom   = ident | ["-"] int | "(" expr ")" | "let" ... | "if" ... | "fn" ... | "fun" ... .
//
// Binary operators, loosest first: < <= == != >= >, then + -, then * /,
// then ^.  A '#' begins a comment that extends to the end of the line.
package parser

import (
	"fmt"
	"go/token"
	"strconv"

	"github.com/godoctor/cfa/analysis/term"
	"github.com/godoctor/cfa/text"
)

// An Error is a syntax error.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return e.Pos.String() + ": " + e.Msg
	}
	return e.Msg
}

// A Program is the result of parsing one source file.  The nodes of Root are
// labeled 1..N in post-order.
type Program struct {
	Root *term.Expression
	Fset *token.FileSet
	File *token.File

	src   []byte
	spans map[term.Label]text.Extent
	nodes map[term.Label]*term.Expression
}

// Parse parses a complete program.  The filename is used only in positions.
func Parse(filename string, src []byte) (*Program, error) {
	fset := token.NewFileSet()
	file := fset.AddFile(filename, -1, len(src))
	file.SetLinesForContent(src)

	p := &parser{file: file, spans: make(map[*term.Expression]text.Extent)}
	p.scanner.init(file, src)

	root, err := p.parseFile()
	if err != nil {
		return nil, err
	}
	n := term.Relabel(root)

	prog := &Program{
		Root:  root,
		Fset:  fset,
		File:  file,
		src:   src,
		spans: make(map[term.Label]text.Extent, n),
		nodes: make(map[term.Label]*term.Expression, n),
	}
	term.Inspect(root, func(e *term.Expression) bool {
		prog.nodes[e.Label] = e
		prog.spans[e.Label] = p.spans[e]
		return true
	})
	return prog, nil
}

// ParseExpr parses a single expression and labels it.  It is a convenience
// for callers that have no use for source positions.
func ParseExpr(src string) (*term.Expression, error) {
	prog, err := Parse("", []byte(src))
	if err != nil {
		return nil, err
	}
	return prog.Root, nil
}

// Node returns the expression labeled l, or nil.
func (p *Program) Node(l term.Label) *term.Expression {
	return p.nodes[l]
}

// Span returns the source region of the expression labeled l.  A
// parenthesized expression's span excludes the parentheses.
func (p *Program) Span(l term.Label) (text.Extent, bool) {
	ext, ok := p.spans[l]
	return ext, ok
}

// Position returns the position of the first character of the expression
// labeled l.
func (p *Program) Position(l term.Label) token.Position {
	ext, ok := p.spans[l]
	if !ok {
		return token.Position{}
	}
	return p.File.Position(p.File.Pos(ext.Offset))
}

// Source returns the text of the expression labeled l.
func (p *Program) Source(l term.Label) string {
	ext, ok := p.spans[l]
	if !ok {
		return ""
	}
	return string(p.src[ext.Offset:ext.OffsetPastEnd()])
}

// Enclosing returns the innermost expression whose span contains the region
// [offset, offset+length), or nil if no expression does.
func (p *Program) Enclosing(offset, length int) *term.Expression {
	var result *term.Expression
	term.Inspect(p.Root, func(e *term.Expression) bool {
		ext := p.spans[e.Label]
		if !ext.Contains(offset, length) {
			return false
		}
		result = e
		return true
	})
	return result
}

// -=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-

type parser struct {
	scanner scanner
	file    *token.File

	pos token.Pos // position of tok
	tok Token     // one token of lookahead
	lit string    // literal text of tok

	prevEnd int // offset just past the last consumed token

	spans map[*term.Expression]text.Extent
}

// bailout is the panic value used to abandon parsing at the first error.
type bailout struct{ err *Error }

func (p *parser) parseFile() (root *term.Expression, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			root, err = nil, b.err
		}
	}()
	p.next()
	root = p.parseExpr()
	if p.tok != EOF {
		p.errorExpected(p.pos, "end of input")
	}
	return root, nil
}

func (p *parser) next() {
	if p.pos.IsValid() {
		p.prevEnd = p.file.Offset(p.pos) + len(p.lit)
	}
	p.pos, p.tok, p.lit = p.scanner.scan()
}

func (p *parser) errorf(pos token.Pos, format string, args ...interface{}) {
	panic(bailout{&Error{
		Pos: p.file.Position(pos),
		Msg: fmt.Sprintf(format, args...),
	}})
}

func (p *parser) errorExpected(pos token.Pos, what string) {
	found := "'" + p.tok.String() + "'"
	switch {
	case p.tok.IsKeyword():
		found = "keyword " + found
	case p.tok.IsOperator():
		found = "operator " + found
	}
	switch p.tok {
	case IDENT, INT:
		found = p.tok.String() + " " + p.lit
	case EOF:
		found = "end of input"
	case ILLEGAL:
		found = strconv.Quote(p.lit)
	}
	p.errorf(pos, "expected %s, found %s", what, found)
}

func (p *parser) expect(tok Token) token.Pos {
	pos := p.pos
	if p.tok != tok {
		p.errorExpected(pos, "'"+tok.String()+"'")
	}
	p.next()
	return pos
}

func (p *parser) ident() term.Variable {
	name := p.lit
	if p.tok != IDENT {
		p.errorExpected(p.pos, "identifier")
	}
	p.next()
	return term.Variable(name)
}

// node wraps t in an Expression spanning from start to the end of the last
// consumed token.
func (p *parser) node(start int, t term.Term) *term.Expression {
	e := &term.Expression{Term: t}
	p.spans[e] = text.Extent{Offset: start, Length: p.prevEnd - start}
	return e
}

func (p *parser) offset() int {
	return p.file.Offset(p.pos)
}

func (p *parser) parseExpr() *term.Expression {
	start := p.offset()
	switch p.tok {
	case LET:
		p.next()
		x := p.ident()
		p.expect(ASSIGN)
		value := p.parseExpr()
		p.expect(IN)
		body := p.parseExpr()
		return p.node(start, &term.Let{Name: x, Value: value, Body: body})

	case IF:
		p.next()
		cond := p.parseExpr()
		p.expect(THEN)
		then := p.parseExpr()
		p.expect(ELSE)
		els := p.parseExpr()
		return p.node(start, &term.IfThenElse{Cond: cond, Then: then, Else: els})

	case FN:
		p.next()
		x := p.ident()
		p.expect(ARROW)
		body := p.parseExpr()
		return p.node(start, &term.Closure{Param: x, Body: body})

	case FUN:
		p.next()
		f := p.ident()
		x := p.ident()
		p.expect(ARROW)
		body := p.parseExpr()
		return p.node(start, &term.RecClosure{Func: f, Param: x, Body: body})
	}
	return p.parseBinaryExpr(1)
}

// parseBinaryExpr parses a sequence of operands joined by operators whose
// precedence is at least prec1.
func (p *parser) parseBinaryExpr(prec1 int) *term.Expression {
	start := p.offset()
	x := p.parseApplication()
	for {
		op := p.tok
		if !op.IsOperator() {
			return x
		}
		oprec := op.Precedence()
		if oprec < prec1 {
			return x
		}
		p.next()
		y := p.parseBinaryExpr(oprec + 1)
		x = p.node(start, &term.BinaryOp{Left: x, Op: op.String(), Right: y})
	}
}

func (p *parser) parseApplication() *term.Expression {
	start := p.offset()
	x := p.parseOperand()
	for p.startsAtom() {
		y := p.parseOperand()
		x = p.node(start, &term.Application{Fun: x, Arg: y})
	}
	return x
}

// startsAtom reports whether the current token can begin an argument.  A
// minus sign cannot: f -1 is a subtraction.
func (p *parser) startsAtom() bool {
	switch p.tok {
	case IDENT, INT, LPAREN, FN, FUN, LET, IF:
		return true
	}
	return false
}

func (p *parser) parseOperand() *term.Expression {
	start := p.offset()
	switch p.tok {
	case IDENT:
		x := term.Variable(p.lit)
		p.next()
		return p.node(start, term.Ref{Name: x})

	case SUB, INT:
		neg := p.tok == SUB
		if neg {
			p.next()
		}
		if p.tok != INT {
			p.errorExpected(p.pos, "integer")
		}
		lit := p.lit
		if neg {
			lit = "-" + lit
		}
		pos := p.pos
		p.next()
		n, err := strconv.ParseInt(lit, 10, 32)
		if err != nil {
			p.errorf(pos, "integer constant %s out of range", lit)
		}
		return p.node(start, term.Constant{Value: int(n)})

	case LPAREN:
		p.next()
		x := p.parseExpr()
		p.expect(RPAREN)
		return x

	case FN, FUN, LET, IF:
		return p.parseExpr()
	}
	p.errorExpected(p.pos, "expression")
	panic("unreachable")
}
