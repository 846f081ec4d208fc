// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfa

// This file defines the flow graph of a constraint set, which is used for
// statistics and for rendering the constraints in GraphViz DOT format.

import (
	"fmt"

	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/godoctor/cfa/analysis/term"
)

// A FlowGraph has a vertex for every node mentioned by a set of
// constraints.  Each constraint A ⊆ B contributes an edge from A to B, and
// each guard G of a conditional constraint contributes an edge from G to the
// constraint's target.
//
// A FlowGraph implements the graph.Iterator interface of
// github.com/yourbasic/graph.
type FlowGraph struct {
	nodes []Node
	ids   map[Node]int
	succ  [][]int             // successors of each vertex, in insertion order
	kinds map[[2]int]edgeKind // kind of each edge
}

type edgeKind int

const (
	flowEdge  edgeKind = iota + 1 // From ⊆ To
	guardEdge                     // Guard ⇒ To
)

// NewFlowGraph returns the flow graph of cs.  Vertices are numbered in order
// of first appearance.
func NewFlowGraph(cs []Constraint) *FlowGraph {
	g := &FlowGraph{
		ids:   make(map[Node]int),
		kinds: make(map[[2]int]edgeKind),
	}
	for _, c := range cs {
		switch c := c.(type) {
		case Unconditional:
			g.addEdge(c.From, c.To, flowEdge)
		case Conditional:
			g.addEdge(c.Guard, c.To, guardEdge)
			g.addEdge(c.From, c.To, flowEdge)
		}
	}
	return g
}

func (g *FlowGraph) vertex(n Node) int {
	if v, ok := g.ids[n]; ok {
		return v
	}
	v := len(g.nodes)
	g.ids[n] = v
	g.nodes = append(g.nodes, n)
	g.succ = append(g.succ, nil)
	return v
}

func (g *FlowGraph) addEdge(from, to Node, kind edgeKind) {
	v, w := g.vertex(from), g.vertex(to)
	key := [2]int{v, w}
	old, ok := g.kinds[key]
	if !ok {
		g.succ[v] = append(g.succ[v], w)
	}
	if !ok || old == guardEdge {
		g.kinds[key] = kind
	}
}

// Order returns the number of vertices.
func (g *FlowGraph) Order() int {
	return len(g.nodes)
}

// Visit calls the do function for each successor w of vertex v.  If do
// returns true, Visit returns immediately, skipping any remaining
// successors, and returns true.
func (g *FlowGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	for _, w := range g.succ[v] {
		if do(w, 1) {
			return true
		}
	}
	return false
}

// Node returns the node of vertex v.
func (g *FlowGraph) Node(v int) Node {
	return g.nodes[v]
}

// Cycles returns the strongly connected components of the graph that contain
// more than one node, i.e., groups of mutually dependent nodes.  Nodes in
// each component are ordered by vertex number, and components by their
// first node.
func (g *FlowGraph) Cycles() [][]Node {
	var result [][]Node
	comps := graph.StrongComponents(g)
	for _, comp := range comps {
		if len(comp) < 2 {
			continue
		}
		slices.Sort(comp)
		nodes := make([]Node, len(comp))
		for i, v := range comp {
			nodes[i] = g.nodes[v]
		}
		result = append(result, nodes)
	}
	slices.SortFunc(result, func(a, b []Node) bool {
		return g.ids[a[0]] < g.ids[b[0]]
	})
	return result
}

// GraphStats summarizes the shape of a flow graph.
type GraphStats struct {
	Vertices   int  `json:"vertices" yaml:"vertices"`
	Edges      int  `json:"edges" yaml:"edges"`
	GuardEdges int  `json:"guard-edges" yaml:"guard-edges"`
	Loops      int  `json:"loops" yaml:"loops"` // self edges, e.g., C(l) ⊆ C(l)
	Sinks      int  `json:"sinks" yaml:"sinks"` // vertices without successors
	Cycles     int  `json:"cycles" yaml:"cycles"`
	Acyclic    bool `json:"acyclic" yaml:"acyclic"`
}

// Stats returns statistics about the graph.
func (g *FlowGraph) Stats() GraphStats {
	check := graph.Check(g)
	guards, sinks := 0, 0
	for _, k := range g.kinds {
		if k == guardEdge {
			guards++
		}
	}
	for _, succ := range g.succ {
		if len(succ) == 0 {
			sinks++
		}
	}
	return GraphStats{
		Vertices:   g.Order(),
		Edges:      check.Size,
		GuardEdges: guards,
		Loops:      check.Loops,
		Sinks:      sinks,
		Cycles:     len(g.Cycles()),
		Acyclic:    graph.Acyclic(g),
	}
}

// DOT renders the graph in GraphViz DOT format.  Guard edges are dashed.
// Literal nodes are drawn as boxes.  Textually identical abstractions are
// distinct values, so the ID of an abstraction literal carries its label
// from labels (or its vertex number, if it has none) and the literal itself
// becomes the node's display label.
func (g *FlowGraph) DOT(name string, labels map[term.Term]term.Label) ([]byte, error) {
	dg := simple.NewDirectedGraph()
	for v, n := range g.nodes {
		dn := dotNode{id: int64(v), node: n}
		if n.Kind == LiteralNode && term.IsAbstraction(n.Term) {
			dn.label = n.String()
			if l, ok := labels[n.Term]; ok {
				dn.dotID = fmt.Sprintf("%s@%d", dn.label, l)
			} else {
				dn.dotID = fmt.Sprintf("%s@#%d", dn.label, v)
			}
		}
		dg.AddNode(dn)
	}
	for v, succ := range g.succ {
		for _, w := range succ {
			if v == w {
				continue // self edges are not representable and add no flow
			}
			dg.SetEdge(dotEdge{
				from:  dg.Node(int64(v)),
				to:    dg.Node(int64(w)),
				guard: g.kinds[[2]int{v, w}] == guardEdge,
			})
		}
	}
	return dot.Marshal(dg, name, "", "  ")
}

type dotNode struct {
	id    int64
	node  Node
	dotID string // unique ID of an abstraction literal
	label string // display text when dotID is set
}

func (n dotNode) ID() int64 { return n.id }

func (n dotNode) DOTID() string {
	if n.dotID != "" {
		return n.dotID
	}
	return n.node.String()
}

func (n dotNode) Attributes() []encoding.Attribute {
	if n.node.Kind != LiteralNode {
		return nil
	}
	if n.label != "" {
		return []encoding.Attribute{
			{Key: "label", Value: n.label},
			{Key: "shape", Value: "box"},
		}
	}
	return []encoding.Attribute{{Key: "shape", Value: "box"}}
}

type dotEdge struct {
	from, to gonum.Node
	guard    bool
}

func (e dotEdge) From() gonum.Node { return e.from }
func (e dotEdge) To() gonum.Node   { return e.to }
func (e dotEdge) ReversedEdge() gonum.Edge {
	return dotEdge{from: e.to, to: e.from, guard: e.guard}
}
func (e dotEdge) Attributes() []encoding.Attribute {
	if e.guard {
		return []encoding.Attribute{{Key: "style", Value: "dashed"}}
	}
	return nil
}
