// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package term

import (
	"bytes"
	"strconv"
)

func (c Constant) String() string     { return strconv.Itoa(c.Value) }
func (r Ref) String() string          { return string(r.Name) }
func (t *Closure) String() string     { return format(t, false) }
func (t *RecClosure) String() string  { return format(t, false) }
func (t *Application) String() string { return format(t, false) }
func (t *IfThenElse) String() string  { return format(t, false) }
func (t *Let) String() string         { return format(t, false) }
func (t *BinaryOp) String() string    { return format(t, false) }

// String returns e in concrete syntax, without labels.
func (e *Expression) String() string {
	return format(e.Term, false)
}

// Format returns e in concrete syntax.  If labels is true, every
// sub-expression is annotated with its label, e.g., (fn x -> x^1)^2.
func Format(e *Expression, labels bool) string {
	var buf bytes.Buffer
	p := printer{buf: &buf, labels: labels}
	p.expr(e, false)
	return buf.String()
}

func format(t Term, labels bool) string {
	var buf bytes.Buffer
	p := printer{buf: &buf, labels: labels}
	p.term(t)
	return buf.String()
}

type printer struct {
	buf    *bytes.Buffer
	labels bool
}

// expr prints e, parenthesizing it when paren is true and e is not atomic.
// When labels are printed, every non-atomic expression is parenthesized so
// that the label attaches unambiguously.
func (p *printer) expr(e *Expression, paren bool) {
	atomic := isAtomic(e.Term)
	if !atomic && (paren || p.labels) {
		p.buf.WriteByte('(')
		p.term(e.Term)
		p.buf.WriteByte(')')
	} else {
		p.term(e.Term)
	}
	p.label(e)
}

func (p *printer) label(e *Expression) {
	if p.labels {
		p.buf.WriteByte('^')
		p.buf.WriteString(strconv.Itoa(int(e.Label)))
	}
}

func (p *printer) term(t Term) {
	switch t := t.(type) {
	case Constant, Ref:
		p.buf.WriteString(t.String())
	case *Closure:
		p.buf.WriteString("fn ")
		p.buf.WriteString(string(t.Param))
		p.buf.WriteString(" -> ")
		p.expr(t.Body, false)
	case *RecClosure:
		p.buf.WriteString("fun ")
		p.buf.WriteString(string(t.Func))
		p.buf.WriteByte(' ')
		p.buf.WriteString(string(t.Param))
		p.buf.WriteString(" -> ")
		p.expr(t.Body, false)
	case *Application:
		_, funApp := t.Fun.Term.(*Application)
		p.expr(t.Fun, !funApp)
		p.buf.WriteByte(' ')
		p.argument(t.Arg)
	case *IfThenElse:
		p.buf.WriteString("if ")
		p.expr(t.Cond, false)
		p.buf.WriteString(" then ")
		p.expr(t.Then, false)
		p.buf.WriteString(" else ")
		p.expr(t.Else, false)
	case *Let:
		p.buf.WriteString("let ")
		p.buf.WriteString(string(t.Name))
		p.buf.WriteString(" = ")
		p.expr(t.Value, false)
		p.buf.WriteString(" in ")
		p.expr(t.Body, false)
	case *BinaryOp:
		p.operand(t.Left)
		p.buf.WriteByte(' ')
		p.buf.WriteString(t.Op)
		p.buf.WriteByte(' ')
		p.operand(t.Right)
	default:
		panic(badTerm(t))
	}
}

// operand prints an operand of a binary operator.  Applications bind more
// tightly than any operator and are not parenthesized.
func (p *printer) operand(e *Expression) {
	_, app := e.Term.(*Application)
	p.expr(e, !app)
}

// argument prints the argument of an application.  A negative constant is
// parenthesized so that it is not read as a subtraction.
func (p *printer) argument(e *Expression) {
	if c, ok := e.Term.(Constant); ok && c.Value < 0 {
		p.buf.WriteByte('(')
		p.buf.WriteString(c.String())
		p.buf.WriteByte(')')
		p.label(e)
		return
	}
	p.expr(e, true)
}

func isAtomic(t Term) bool {
	switch t.(type) {
	case Constant, Ref:
		return true
	}
	return false
}
