// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cfa implements a monovariant, flow-insensitive control flow
// analysis (0-CFA) for the language defined in package term.
//
// For every label l, the analysis computes C(l), the set of abstract values
// that may result from evaluating the expression labeled l; for every
// variable x, it computes r(x), the set of abstract values that may be bound
// to x anywhere in the program.  Abstract values are terms of the program
// itself: a closure is identified by the syntax that defines it.
//
// The analysis proceeds in two phases.  Generate derives a finite set of
// subset constraints from a labeled expression, and Solve computes the least
// solution of those constraints with a worklist algorithm.
//
// Variables are identified by name only.  Two unrelated bindings of the
// same name share one abstract location, so shadowing makes the results
// less precise.
package cfa

import (
	"fmt"

	"github.com/godoctor/cfa/analysis/term"
)

// NodeKind distinguishes the three kinds of constraint operands.
type NodeKind int

const (
	// CacheNode is C(l), the values that may result at label l.
	CacheNode NodeKind = iota + 1
	// EnvNode is r(x), the values that may be bound to variable x.
	EnvNode
	// LiteralNode is {t}, a fixed singleton set.
	LiteralNode
)

func (k NodeKind) String() string {
	switch k {
	case CacheNode:
		return "cache"
	case EnvNode:
		return "env"
	case LiteralNode:
		return "literal"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// A Node is an operand of a constraint.  Only the field selected by Kind is
// meaningful.  Nodes are comparable and may be used as map keys.
type Node struct {
	Kind  NodeKind
	Label term.Label
	Var   term.Variable
	Term  term.Term
}

// Cache returns the node C(l).
func Cache(l term.Label) Node { return Node{Kind: CacheNode, Label: l} }

// Env returns the node r(x).
func Env(x term.Variable) Node { return Node{Kind: EnvNode, Var: x} }

// Literal returns the node {t}.
func Literal(t term.Term) Node { return Node{Kind: LiteralNode, Term: t} }

func (n Node) String() string {
	switch n.Kind {
	case CacheNode:
		return fmt.Sprintf("C(%d)", n.Label)
	case EnvNode:
		return fmt.Sprintf("r(%s)", n.Var)
	case LiteralNode:
		return "{" + n.Term.String() + "}"
	}
	return fmt.Sprintf("<invalid node kind %d>", int(n.Kind))
}

// A Constraint is either an Unconditional or a Conditional constraint.
type Constraint interface {
	constraint()
	// Target returns the node whose value the constraint may enlarge.
	Target() Node
	String() string
}

// Unconditional is the constraint From ⊆ To.
type Unconditional struct {
	From, To Node
}

// Conditional is the constraint {Value} ⊆ Guard ⇒ From ⊆ To: whenever Value
// is a member of Guard, From must be a subset of To.
type Conditional struct {
	Value    term.Term
	Guard    Node
	From, To Node
}

func (Unconditional) constraint() {}
func (Conditional) constraint()   {}

func (c Unconditional) Target() Node { return c.To }
func (c Conditional) Target() Node   { return c.To }

func (c Unconditional) String() string {
	return fmt.Sprintf("%s ⊆ %s", c.From, c.To)
}

func (c Conditional) String() string {
	return fmt.Sprintf("{%s} ⊆ %s ⇒ %s ⊆ %s", c.Value, c.Guard, c.From, c.To)
}
