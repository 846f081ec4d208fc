// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/godoctor/cfa/analysis/cfa"
	"github.com/godoctor/cfa/analysis/term"
)

// maximum width of a source excerpt in the text format
const excerptWidth = 40

type textFormat struct{}

func (textFormat) Name() string { return "text" }

func (textFormat) Description() string {
	return "Human-readable listing of the cache and environment"
}

func (textFormat) Write(w io.Writer, r *Result, opts Options) error {
	bw := bufio.NewWriter(w)
	p := palette(opts.Color)
	labels, vars := r.Labels(), r.Variables()
	names := newValueNames(r.Program.Root)

	fmt.Fprintf(bw, "%s: %d labels, %d variables, %d constraints\n",
		r.Filename, len(labels), len(vars), len(r.Constraints))

	if opts.Constraints {
		fmt.Fprintln(bw, p.paint(yellow, "constraints:"))
		for _, c := range r.Constraints {
			fmt.Fprintf(bw, "  %s\n", c)
		}
	}

	fmt.Fprintln(bw, p.paint(yellow, "cache:"))
	tw := tabwriter.NewWriter(bw, 0, 8, 2, ' ', 0)
	for _, l := range labels {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n",
			p.node(cfa.Cache(l)),
			p.paint(green, names.format(r.Solution.Cache(l))),
			p.paint(faint, excerpt(r.Program.Source(l))))
	}
	tw.Flush()

	fmt.Fprintln(bw, p.paint(yellow, "env:"))
	tw = tabwriter.NewWriter(bw, 0, 8, 2, ' ', 0)
	for _, x := range vars {
		fmt.Fprintf(tw, "  %s\t%s\n", p.node(cfa.Env(x)), p.paint(green, names.format(r.Solution.Env(x))))
	}
	tw.Flush()

	if opts.Stats {
		st := r.Stats()
		fmt.Fprintln(bw, p.paint(yellow, "stats:"))
		fmt.Fprintf(bw, "  solver: %d nodes, %d values, %d edges, %d steps, %d merges, %d changes\n",
			st.Solver.Nodes, st.Solver.Values, st.Solver.Edges,
			st.Solver.Steps, st.Solver.Merges, st.Solver.Changes)
		fmt.Fprintf(bw, "  graph: %d vertices, %d edges (%d guards), %d cycles\n",
			st.Graph.Vertices, st.Graph.Edges, st.Graph.GuardEdges, st.Graph.Cycles)
	}

	for _, c := range r.Violations {
		fmt.Fprintln(bw, p.paint(red, "violated: "+c.String()))
	}
	return bw.Flush()
}

// valueNames renders sets of abstract values.  An abstraction whose text is
// shared by another abstraction in the program is suffixed with its label.
type valueNames struct {
	labels map[term.Term]term.Label
	shared map[string]bool
}

func newValueNames(root *term.Expression) valueNames {
	count := make(map[string]int)
	for _, t := range term.Abstractions(term.Subterms(root)) {
		count[t.String()]++
	}
	shared := make(map[string]bool)
	for s, n := range count {
		if n > 1 {
			shared[s] = true
		}
	}
	return valueNames{labels: term.FirstLabels(root), shared: shared}
}

func (vn valueNames) format(vs cfa.Values) string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.String()
		if vn.shared[names[i]] && term.IsAbstraction(v) {
			names[i] = fmt.Sprintf("%s@%d", names[i], vn.labels[v])
		}
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// excerpt returns src on a single line, shortened to excerptWidth runes.
func excerpt(src string) string {
	s := strings.Join(strings.Fields(src), " ")
	if runes := []rune(s); len(runes) > excerptWidth {
		return string(runes[:excerptWidth-3]) + "..."
	}
	return s
}
