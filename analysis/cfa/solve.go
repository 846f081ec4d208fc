// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfa

// This file contains the worklist solver, which computes the least solution
// of a set of constraints.

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/container/intsets"

	"github.com/godoctor/cfa/analysis/term"
	"github.com/godoctor/cfa/config"
)

// Order is the order in which the solver removes nodes from its worklist.
// The solution does not depend on the order; only the amount of work does.
type Order int

const (
	// LIFO processes the most recently changed node first.
	LIFO Order = iota
	// FIFO processes nodes in the order they changed.
	FIFO
	// Smallest processes the pending node with the smallest index, i.e.,
	// caches in label order, then variables.
	Smallest
)

var orderNames = [...]string{LIFO: "lifo", FIFO: "fifo", Smallest: "smallest"}

func (o Order) String() string {
	if 0 <= o && int(o) < len(orderNames) {
		return orderNames[o]
	}
	return fmt.Sprintf("Order(%d)", int(o))
}

// ParseOrder returns the Order with the given name.
func ParseOrder(name string) (Order, error) {
	for i, n := range orderNames {
		if strings.EqualFold(n, name) {
			return Order(i), nil
		}
	}
	return LIFO, fmt.Errorf("unknown worklist order %q", name)
}

// SolveOptions control the solver.
type SolveOptions struct {
	Order Order
	// Log, if non-nil, receives a trace of every step at trace level.
	Log *config.LogGroup
}

// Stats describes the work done by a solver.
type Stats struct {
	Nodes       int `json:"nodes" yaml:"nodes"`             // Cache and Env nodes
	Values      int `json:"values" yaml:"values"`           // size of the abstract value universe
	Constraints int `json:"constraints" yaml:"constraints"` // constraints solved
	Edges       int `json:"edges" yaml:"edges"`             // dependency edges
	Steps       int `json:"steps" yaml:"steps"`             // nodes removed from the worklist
	Merges      int `json:"merges" yaml:"merges"`           // subset constraints applied
	Changes     int `json:"changes" yaml:"changes"`         // merges that enlarged a node
}

// state is the part of a solver that is kept in its Solution.
type state struct {
	universe []term.Term       // abstract values, by bit index
	terms    map[term.Term]int // inverse of universe
	nodes    []Node            // Cache and Env nodes, by index
	ids      map[Node]int      // inverse of nodes
	values   []*bitset.BitSet  // value of each node, by index
}

// id returns the index of a Cache or Env node.  The node must exist.
func (st *state) id(n Node) int {
	i, ok := st.ids[n]
	if !ok {
		panic(fmt.Sprintf("cfa: constraint refers to unknown node %s", n))
	}
	return i
}

// bit returns the index of an abstract value.  The term must be a subterm of
// the analyzed program.
func (st *state) bit(t term.Term) uint {
	i, ok := st.terms[t]
	if !ok {
		panic(fmt.Sprintf("cfa: %s is not a term of the analyzed program", t))
	}
	return uint(i)
}

// set returns the current value of n as a bitset.  The value of a literal
// node is a fresh singleton.
func (st *state) set(n Node) *bitset.BitSet {
	if n.Kind == LiteralNode {
		return bitset.New(uint(len(st.universe))).Set(st.bit(n.Term))
	}
	return st.values[st.id(n)]
}

// Value returns the current value of n.  It panics if n is not a node of the
// analyzed program.
func (st *state) Value(n Node) Values {
	return st.valuesOf(st.set(n))
}

// Contains reports whether t is a member of the value of n.
func (st *state) Contains(n Node, t term.Term) bool {
	i, ok := st.terms[t]
	return ok && st.set(n).Test(uint(i))
}

// Nodes returns every Cache and Env node: caches in label order followed by
// variables in order of first appearance.
func (st *state) Nodes() []Node {
	return append([]Node(nil), st.nodes...)
}

func (st *state) valuesOf(b *bitset.BitSet) Values {
	vs := make(Values, 0, b.Count())
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		vs = append(vs, st.universe[i])
	}
	return vs
}

// A Solver computes the least solution of a set of constraints by
// propagating values along dependency edges until no node changes.
type Solver struct {
	state
	edges [][]Constraint // constraints to revisit when a node changes, by node index
	work  worklist
	stats Stats
	log   *config.LogGroup
}

// NewSolver returns a solver for the constraints cs, which were generated
// from the labeled expression e.  Every node starts out empty; the values of
// literal constraints are merged immediately and their targets are added to
// the worklist.
//
// NewSolver panics if a constraint refers to a label or variable that does
// not occur in e, or to a literal that is not a subterm of e.
func NewSolver(e *term.Expression, cs []Constraint, opts SolveOptions) *Solver {
	s := &Solver{
		state: state{
			terms: make(map[term.Term]int),
			ids:   make(map[Node]int),
		},
		work: worklist{order: opts.Order},
		log:  opts.Log,
	}

	s.universe = term.Subterms(e)
	for i, t := range s.universe {
		s.terms[t] = i
	}
	labels := term.Labels(e)
	slices.Sort(labels)
	for _, l := range labels {
		s.addNode(Cache(l))
	}
	for _, x := range term.Variables(e) {
		s.addNode(Env(x))
	}
	s.edges = make([][]Constraint, len(s.nodes))

	for _, c := range cs {
		switch c := c.(type) {
		case Unconditional:
			to := s.id(c.To)
			if c.From.Kind == LiteralNode {
				s.merge(s.set(c.From), to)
				continue
			}
			s.addEdge(s.id(c.From), c)
		case Conditional:
			// check operands now rather than when the guard first holds
			s.id(c.To)
			s.bit(c.Value)
			guard := s.id(c.Guard)
			s.addEdge(guard, c)
			if c.From.Kind != LiteralNode {
				if from := s.id(c.From); from != guard {
					s.addEdge(from, c)
				}
			}
		default:
			panic(fmt.Sprintf("cfa: unexpected constraint type %T", c))
		}
	}

	s.stats.Nodes = len(s.nodes)
	s.stats.Values = len(s.universe)
	s.stats.Constraints = len(cs)
	return s
}

func (s *Solver) addNode(n Node) {
	s.ids[n] = len(s.nodes)
	s.nodes = append(s.nodes, n)
	s.values = append(s.values, bitset.New(uint(len(s.universe))))
}

func (s *Solver) addEdge(from int, c Constraint) {
	s.edges[from] = append(s.edges[from], c)
	s.stats.Edges++
}

// merge adds src to the value of node to.  If that enlarges the value, the
// node is added to the worklist.
func (s *Solver) merge(src *bitset.BitSet, to int) {
	s.stats.Merges++
	dst := s.values[to]
	if dst.IsSuperSet(src) {
		return
	}
	dst.InPlaceUnion(src)
	s.stats.Changes++
	s.work.add(to)
}

func (s *Solver) apply(c Constraint) {
	switch c := c.(type) {
	case Unconditional:
		s.merge(s.set(c.From), s.id(c.To))
	case Conditional:
		if s.set(c.Guard).Test(s.bit(c.Value)) {
			s.merge(s.set(c.From), s.id(c.To))
		}
	}
}

// Step removes one node from the worklist and applies every constraint that
// depends on it.  It returns false if the worklist was empty, i.e., the
// solution is complete.
func (s *Solver) Step() bool {
	q, ok := s.work.take()
	if !ok {
		return false
	}
	s.stats.Steps++
	if s.log != nil {
		s.log.Tracef("step %d: %s = %s", s.stats.Steps, s.nodes[q], s.valuesOf(s.values[q]))
	}
	for _, c := range s.edges[q] {
		s.apply(c)
	}
	return true
}

// Done reports whether the worklist is empty.
func (s *Solver) Done() bool {
	return s.work.empty()
}

// Stats returns the statistics gathered so far.
func (s *Solver) Stats() Stats {
	return s.stats
}

// Solve runs the solver to completion and returns the solution.
func (s *Solver) Solve() *Solution {
	for s.Step() {
	}
	if s.log != nil {
		s.log.Debugf("solved %d constraints over %d nodes: %d steps, %d merges, %d changes",
			s.stats.Constraints, s.stats.Nodes, s.stats.Steps, s.stats.Merges, s.stats.Changes)
	}
	return s.solution()
}

// solution returns a copy of the current state.
func (s *Solver) solution() *Solution {
	values := make([]*bitset.BitSet, len(s.values))
	for i, v := range s.values {
		values[i] = v.Clone()
	}
	st := s.state
	st.values = values
	return &Solution{state: st, Stats: s.stats}
}

// Solve computes the least solution of the constraints cs generated from e.
func Solve(e *term.Expression, cs []Constraint, opts SolveOptions) *Solution {
	return NewSolver(e, cs, opts).Solve()
}

// Analyze generates the constraints for e with the default options and
// solves them.
func Analyze(e *term.Expression) *Solution {
	return Solve(e, Generate(e, DefaultGenerateOptions), SolveOptions{})
}

// -=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-

// A worklist is a set of node indices awaiting processing.  A node is
// pending at most once.
type worklist struct {
	order   Order
	items   []int // pending nodes, for LIFO and FIFO
	head    int   // index of the first item, for FIFO
	pending intsets.Sparse
}

func (w *worklist) add(n int) {
	if !w.pending.Insert(n) {
		return
	}
	if w.order != Smallest {
		w.items = append(w.items, n)
	}
}

func (w *worklist) take() (int, bool) {
	var n int
	switch w.order {
	case Smallest:
		if !w.pending.TakeMin(&n) {
			return 0, false
		}
		return n, true
	case FIFO:
		if w.head == len(w.items) {
			return 0, false
		}
		n = w.items[w.head]
		w.head++
		if w.head == len(w.items) {
			w.items, w.head = w.items[:0], 0
		}
	default:
		if len(w.items) == 0 {
			return 0, false
		}
		n = w.items[len(w.items)-1]
		w.items = w.items[:len(w.items)-1]
	}
	w.pending.Remove(n)
	return n, true
}

func (w *worklist) empty() bool {
	return w.pending.IsEmpty()
}
