// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfa

import (
	"fmt"
	"strings"

	"github.com/godoctor/cfa/analysis/term"
)

// Values is a set of abstract values, ordered by their first occurrence in
// a pre-order traversal of the program.
type Values []term.Term

// Contains reports whether t is a member of vs.
func (vs Values) Contains(t term.Term) bool {
	for _, v := range vs {
		if v == t {
			return true
		}
	}
	return false
}

// Strings returns the concrete syntax of each value.
func (vs Values) Strings() []string {
	result := make([]string, len(vs))
	for i, v := range vs {
		result[i] = v.String()
	}
	return result
}

// String returns the concrete syntax of the set.  Textually identical
// abstractions are distinct values but print alike; the text report format
// tells them apart by label.
func (vs Values) String() string {
	return "{" + strings.Join(vs.Strings(), ", ") + "}"
}

// A Solution is the least solution of a set of constraints.  It is not
// modified after it is returned by Solve.
type Solution struct {
	state
	Stats Stats
}

// Results splits the solution into the value of every label and the value
// of every variable.
func (s *Solution) Results() (map[term.Label]Values, map[term.Variable]Values) {
	cache := make(map[term.Label]Values)
	env := make(map[term.Variable]Values)
	for i, n := range s.nodes {
		switch n.Kind {
		case CacheNode:
			cache[n.Label] = s.valuesOf(s.values[i])
		case EnvNode:
			env[n.Var] = s.valuesOf(s.values[i])
		default:
			panic(fmt.Sprintf("cfa: unexpected %s node %s in solution", n.Kind, n))
		}
	}
	return cache, env
}

// Cache returns the value of C(l).
func (s *Solution) Cache(l term.Label) Values {
	return s.Value(Cache(l))
}

// Env returns the value of r(x).
func (s *Solution) Env(x term.Variable) Values {
	return s.Value(Env(x))
}

// Violations returns the constraints among cs that the solution does not
// satisfy.  For a solution returned by Solve, the result is empty.
func (s *Solution) Violations(cs []Constraint) []Constraint {
	var result []Constraint
	for _, c := range cs {
		var from, to Node
		switch c := c.(type) {
		case Unconditional:
			from, to = c.From, c.To
		case Conditional:
			if !s.Contains(c.Guard, c.Value) {
				continue
			}
			from, to = c.From, c.To
		}
		if !s.set(to).IsSuperSet(s.set(from)) {
			result = append(result, c)
		}
	}
	return result
}
