// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package term defines the labeled syntax trees analyzed by the cfa package:
// constants, variable references, closures, recursive closures,
// applications, conditionals, let-bindings, and binary operations.
//
// Every node of a tree is an Expression, which pairs a Label with a Term.
// An Expression exclusively owns its sub-expressions; trees are never shared
// and are not modified once they have been labeled.
package term

import "fmt"

// A Label identifies one node of a syntax tree.  A well-formed tree carries
// the labels 1..N, each exactly once, where N is the number of nodes.
type Label int

// A Variable is an identifier.  All occurrences of the same name share a
// single abstract location in the analysis, regardless of scope.
type Variable string

// An Expression is a labeled Term.
type Expression struct {
	Label Label
	Term  Term
}

// A Term is the syntactic shape of an Expression.  The set of Terms is
// closed: it is implemented only by the types in this package.
//
// Terms are comparable.  Constant and Ref are values and compare
// structurally; the remaining terms are pointers and compare by occurrence,
// which is the same as structural comparison when labels are unique.
type Term interface {
	term()
	String() string
}

// Constant is an integer literal.  Its value is irrelevant to the analysis
// beyond its identity.
type Constant struct {
	Value int
}

// Ref is a reference to a variable.
type Ref struct {
	Name Variable
}

// Closure is a single-argument function, fn Param -> Body.
type Closure struct {
	Param Variable
	Body  *Expression
}

// RecClosure is a self-referential function, fun Func Param -> Body.  Within
// Body, Func refers to the closure itself.
type RecClosure struct {
	Func  Variable
	Param Variable
	Body  *Expression
}

// Application applies Fun to Arg.
type Application struct {
	Fun *Expression
	Arg *Expression
}

// IfThenElse is a conditional.
type IfThenElse struct {
	Cond *Expression
	Then *Expression
	Else *Expression
}

// Let binds Name to Value within Body.
type Let struct {
	Name  Variable
	Value *Expression
	Body  *Expression
}

// BinaryOp applies an infix operator.  The operator is irrelevant to the
// analysis.
type BinaryOp struct {
	Left  *Expression
	Op    string
	Right *Expression
}

func (Constant) term()     {}
func (Ref) term()          {}
func (*Closure) term()     {}
func (*RecClosure) term()  {}
func (*Application) term() {}
func (*IfThenElse) term()  {}
func (*Let) term()         {}
func (*BinaryOp) term()    {}

// IsAbstraction reports whether t is a Closure or a RecClosure, i.e., a term
// that can be applied.
func IsAbstraction(t Term) bool {
	switch t.(type) {
	case *Closure, *RecClosure:
		return true
	}
	return false
}

// ParamBody returns the parameter and body of an abstraction.  ok is false
// if t is not a Closure or RecClosure.
func ParamBody(t Term) (param Variable, body *Expression, ok bool) {
	switch t := t.(type) {
	case *Closure:
		return t.Param, t.Body, true
	case *RecClosure:
		return t.Param, t.Body, true
	}
	return "", nil, false
}

// Children returns the immediate sub-expressions of e, in source order.
func Children(e *Expression) []*Expression {
	switch t := e.Term.(type) {
	case Constant, Ref:
		return nil
	case *Closure:
		return []*Expression{t.Body}
	case *RecClosure:
		return []*Expression{t.Body}
	case *Application:
		return []*Expression{t.Fun, t.Arg}
	case *IfThenElse:
		return []*Expression{t.Cond, t.Then, t.Else}
	case *Let:
		return []*Expression{t.Value, t.Body}
	case *BinaryOp:
		return []*Expression{t.Left, t.Right}
	default:
		panic(badTerm(e.Term))
	}
}

func badTerm(t Term) string {
	return fmt.Sprintf("term: unexpected term type %T", t)
}
