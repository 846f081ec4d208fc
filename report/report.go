// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report renders the results of an analysis as text, JSON, YAML,
// or a GraphViz DOT flow graph.
package report

import (
	"io"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/godoctor/cfa/analysis/cfa"
	"github.com/godoctor/cfa/analysis/parser"
	"github.com/godoctor/cfa/analysis/term"
)

// A Result is the outcome of analyzing one program.
type Result struct {
	Filename    string
	Program     *parser.Program
	Constraints []cfa.Constraint
	Solution    *cfa.Solution

	// Violations lists the constraints the solution fails to satisfy, if
	// the solution was verified.  It is empty for a correct solver.
	Violations []cfa.Constraint
}

// Options select the optional parts of a report.
type Options struct {
	Constraints bool // include the generated constraints
	Stats       bool // include solver and flow graph statistics
	Color       bool // use ANSI colors (text format only)
}

// A Format writes results in a particular output format.
type Format interface {
	// Name is the name used to select the format, e.g., on the command line.
	Name() string
	// Description is a one-line, human-readable description.
	Description() string
	// Write renders r to w.
	Write(w io.Writer, r *Result, opts Options) error
}

// Builtins returns the formats defined in this package.
func Builtins() []Format {
	return []Format{textFormat{}, jsonFormat{}, yamlFormat{}, dotFormat{}}
}

// Labels returns the labels of the program in increasing order.
func (r *Result) Labels() []term.Label {
	labels := term.Labels(r.Program.Root)
	slices.Sort(labels)
	return labels
}

// Variables returns the variables of the program in sorted order.
func (r *Result) Variables() []term.Variable {
	_, env := r.Solution.Results()
	vars := maps.Keys(env)
	slices.Sort(vars)
	return vars
}

// Stats combines solver and flow graph statistics.
type Stats struct {
	Solver cfa.Stats      `json:"solver" yaml:"solver"`
	Graph  cfa.GraphStats `json:"graph" yaml:"graph"`
}

// Stats returns statistics about the solution and the flow graph.
func (r *Result) Stats() Stats {
	return Stats{
		Solver: r.Solution.Stats,
		Graph:  cfa.NewFlowGraph(r.Constraints).Stats(),
	}
}
