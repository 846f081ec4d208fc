// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package term

// This file contains the structural traversals used by constraint
// generation: labels, variables, and the program-wide subterm index.

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Inspect traverses e in pre-order.  It calls f(e); if f returns true,
// Inspect continues with each child of e in source order.
func Inspect(e *Expression, f func(*Expression) bool) {
	if e == nil || !f(e) {
		return
	}
	for _, c := range Children(e) {
		Inspect(c, f)
	}
}

// Labels returns the label of every node in e, in pre-order.
func Labels(e *Expression) []Label {
	var labels []Label
	Inspect(e, func(n *Expression) bool {
		labels = append(labels, n.Label)
		return true
	})
	return labels
}

// Variables returns every variable name that appears in e in binding or
// reference position.  Each name is returned once, in order of first
// appearance.
func Variables(e *Expression) []Variable {
	seen := make(map[Variable]struct{})
	var vars []Variable
	add := func(xs ...Variable) {
		for _, x := range xs {
			if _, ok := seen[x]; !ok {
				seen[x] = struct{}{}
				vars = append(vars, x)
			}
		}
	}
	Inspect(e, func(n *Expression) bool {
		switch t := n.Term.(type) {
		case Ref:
			add(t.Name)
		case *Closure:
			add(t.Param)
		case *RecClosure:
			add(t.Func, t.Param)
		case *Let:
			add(t.Name)
		}
		return true
	})
	return vars
}

// Subterms returns every distinct Term appearing anywhere in e, including
// e.Term itself, in pre-order.  This is the program-wide subterm index; the
// abstract values computed by the analysis are drawn from it.
func Subterms(e *Expression) []Term {
	seen := make(map[Term]struct{})
	var terms []Term
	Inspect(e, func(n *Expression) bool {
		if _, ok := seen[n.Term]; !ok {
			seen[n.Term] = struct{}{}
			terms = append(terms, n.Term)
		}
		return true
	})
	return terms
}

// FirstLabels maps every distinct Term in e to the label of the first
// expression, in pre-order, whose term it is.  Each Closure and RecClosure
// occurs exactly once, so its label identifies it.
func FirstLabels(e *Expression) map[Term]Label {
	labels := make(map[Term]Label)
	Inspect(e, func(n *Expression) bool {
		if _, ok := labels[n.Term]; !ok {
			labels[n.Term] = n.Label
		}
		return true
	})
	return labels
}

// Abstractions returns the Closures and RecClosures among the given
// subterms.
func Abstractions(subterms []Term) []Term {
	var fns []Term
	for _, t := range subterms {
		if IsAbstraction(t) {
			fns = append(fns, t)
		}
	}
	return fns
}

// Relabel assigns the labels 1..N to the nodes of e in post-order (every
// sub-expression is labeled before its parent, left to right) and returns N.
func Relabel(e *Expression) int {
	next := Label(1)
	var visit func(*Expression)
	visit = func(n *Expression) {
		for _, c := range Children(n) {
			visit(c)
		}
		n.Label = next
		next++
	}
	visit(e)
	return int(next) - 1
}

// CheckLabels returns a non-nil error if the labels of e are not exactly
// 1..N, each used once, where N is the number of nodes in e.
func CheckLabels(e *Expression) error {
	labels := Labels(e)
	n := len(labels)
	seen := make(map[Label]int, n)
	var dups, outside []int
	for _, l := range labels {
		seen[l]++
		if seen[l] == 2 {
			dups = append(dups, int(l))
		}
		if l < 1 || int(l) > n {
			outside = append(outside, int(l))
		}
	}
	switch {
	case len(dups) > 0:
		slices.Sort(dups)
		return fmt.Errorf("duplicate labels %v", dups)
	case len(outside) > 0:
		slices.Sort(outside)
		return fmt.Errorf("labels %v are outside the range 1..%d", outside, n)
	}
	return nil
}
