// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfa

import (
	"strings"
	"testing"

	"github.com/godoctor/cfa/analysis/term"
)

func TestFlowGraphStats(t *testing.T) {
	c := analyze(t, "(fn x -> x) (fn y -> y)", DefaultGenerateOptions)
	g := NewFlowGraph(c.cs)
	want := GraphStats{
		Vertices:   9,
		Edges:      11,
		GuardEdges: 3,
		Loops:      0,
		Sinks:      1,
		Cycles:     0,
		Acyclic:    true,
	}
	if got := g.Stats(); got != want {
		t.Errorf("Stats() = %+v, expected %+v", got, want)
	}
	if g.Node(0) != Cache(2) {
		t.Errorf("first vertex is %s, expected C(2)", g.Node(0))
	}
}

func TestFlowGraphCycles(t *testing.T) {
	c := analyze(t, "(fun f n -> f n) 0", DefaultGenerateOptions)
	g := NewFlowGraph(c.cs)
	st := g.Stats()
	if st.Acyclic || st.Loops != 1 {
		t.Fatalf("unexpected stats for a recursive program: %+v", st)
	}
	found := false
	for _, comp := range g.Cycles() {
		var names []string
		for _, n := range comp {
			names = append(names, n.String())
		}
		if strings.Join(names, " ") == "r(n) C(2)" {
			found = true
		}
	}
	if !found {
		t.Errorf("did not find the cycle between r(n) and C(2) in %v", g.Cycles())
	}
}

func TestFlowGraphDOT(t *testing.T) {
	c := analyze(t, "(fun f n -> f n) 0", DefaultGenerateOptions)
	out, err := NewFlowGraph(c.cs).DOT("recursion", term.FirstLabels(c.expr))
	if err != nil {
		t.Fatal(err)
	}
	dot := string(out)
	for _, want := range []string{
		"digraph recursion {",
		`"C(2)" -> "r(n)"`,
		`"{0}" [shape=box]`,
		"style=dashed",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output does not contain %s:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"C(3)" -> "C(3)"`) {
		t.Errorf("DOT output contains a self edge:\n%s", dot)
	}
}

func TestFlowGraphDOTIdenticalClosures(t *testing.T) {
	c := analyze(t, "(fn x -> x) (fn x -> x)", DefaultGenerateOptions)
	for _, labels := range []map[term.Term]term.Label{term.FirstLabels(c.expr), nil} {
		out, err := NewFlowGraph(c.cs).DOT("idid", labels)
		if err != nil {
			t.Fatal(err)
		}
		dot := string(out)
		ids := make(map[string]bool)
		for _, line := range strings.Split(dot, "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, `"{fn x -> x}`) || strings.Contains(line, `" -> "`) {
				continue
			}
			id := line[:strings.Index(line[1:], `"`)+2]
			if ids[id] {
				t.Errorf("node ID %s is declared twice:\n%s", id, dot)
			}
			ids[id] = true
		}
		if len(ids) != 2 {
			t.Errorf("expected 2 closure nodes, found %v:\n%s", ids, dot)
		}
		if strings.Count(dot, `label="{fn x -> x}"`) != 2 {
			t.Errorf("expected both closures to be labeled {fn x -> x}:\n%s", dot)
		}
		if labels != nil {
			for _, want := range []string{`"{fn x -> x}@2" [`, `"{fn x -> x}@4" [`, `"{fn x -> x}@4" -> "C(4)"`} {
				if !strings.Contains(dot, want) {
					t.Errorf("DOT output does not contain %s:\n%s", want, dot)
				}
			}
		}
	}
}
