// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/godoctor/cfa/analysis/cfa"
	"github.com/godoctor/cfa/analysis/term"
)

type dotFormat struct{}

func (dotFormat) Name() string { return "dot" }

func (dotFormat) Description() string {
	return "GraphViz flow graph of the constraints (guards dashed)"
}

func (dotFormat) Write(w io.Writer, r *Result, opts Options) error {
	name := "cfa"
	if r.Filename != "" {
		name = strings.TrimSuffix(filepath.Base(r.Filename), filepath.Ext(r.Filename))
	}
	b, err := cfa.NewFlowGraph(r.Constraints).DOT(name, term.FirstLabels(r.Program.Root))
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
