// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfa

import "github.com/godoctor/cfa/analysis/term"

// GenerateOptions control constraint generation.
type GenerateOptions struct {
	// Constants makes every integer constant an abstract value of its own
	// label, i.e., a constant labeled l contributes {c} ⊆ C(l).  Without
	// it, constants contribute no constraints and only closures flow.
	Constants bool
}

// DefaultGenerateOptions are the options used by Analyze.
var DefaultGenerateOptions = GenerateOptions{Constants: true}

// Generate returns the constraints for the labeled expression e, in the
// order they are derived from a pre-order traversal.  Each constraint
// appears once.
//
// At every application e1 e2 labeled l, and for every closure
// t = fn x -> e0 (or fun f x -> e0) anywhere in the program, Generate
// emits
//
//	{t} ⊆ C(e1) ⇒ C(e2) ⊆ r(x)
//	{t} ⊆ C(e1) ⇒ C(e0) ⊆ C(l)
func Generate(e *term.Expression, opts GenerateOptions) []Constraint {
	g := &generator{
		opts: opts,
		fns:  term.Abstractions(term.Subterms(e)),
		seen: make(map[Constraint]struct{}),
	}
	g.expr(e)
	return g.constraints
}

type generator struct {
	opts        GenerateOptions
	fns         []term.Term // every abstraction in the program
	seen        map[Constraint]struct{}
	constraints []Constraint
}

func (g *generator) add(c Constraint) {
	if _, dup := g.seen[c]; dup {
		return
	}
	g.seen[c] = struct{}{}
	g.constraints = append(g.constraints, c)
}

func (g *generator) expr(e *term.Expression) {
	l := Cache(e.Label)
	switch t := e.Term.(type) {
	case term.Constant:
		if g.opts.Constants {
			g.add(Unconditional{Literal(t), l})
		}

	case term.Ref:
		g.add(Unconditional{Env(t.Name), l})

	case *term.Closure:
		g.add(Unconditional{Literal(t), l})
		g.expr(t.Body)

	case *term.RecClosure:
		g.add(Unconditional{Literal(t), l})
		g.add(Unconditional{Literal(t), Env(t.Func)})
		g.expr(t.Body)

	case *term.Application:
		fun, arg := Cache(t.Fun.Label), Cache(t.Arg.Label)
		for _, fn := range g.fns {
			x, body, _ := term.ParamBody(fn)
			g.add(Conditional{fn, fun, arg, Env(x)})
			g.add(Conditional{fn, fun, Cache(body.Label), l})
		}
		g.expr(t.Fun)
		g.expr(t.Arg)

	case *term.IfThenElse:
		// The condition is never evaluated; both branches flow.
		g.add(Unconditional{Cache(t.Then.Label), l})
		g.add(Unconditional{Cache(t.Else.Label), l})
		g.expr(t.Cond)
		g.expr(t.Then)
		g.expr(t.Else)

	case *term.Let:
		g.add(Unconditional{Cache(t.Value.Label), Env(t.Name)})
		g.add(Unconditional{Cache(t.Body.Label), l})
		g.expr(t.Value)
		g.expr(t.Body)

	case *term.BinaryOp:
		g.expr(t.Left)
		g.expr(t.Right)

	default:
		panic("cfa: unexpected term type in Generate")
	}
}
