// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/godoctor/cfa/analysis/cfa"
	"github.com/godoctor/cfa/analysis/term"
	"github.com/godoctor/cfa/text"
)

// A Document is the structured form of a Result, as written by the json and
// yaml formats.
type Document struct {
	File        string   `json:"file" yaml:"file"`
	Program     string   `json:"program" yaml:"program"`
	Cache       []Entry  `json:"cache" yaml:"cache"`
	Env         []Entry  `json:"env" yaml:"env"`
	Constraints []string `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Stats       *Stats   `json:"stats,omitempty" yaml:"stats,omitempty"`
	Violations  []string `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// An Entry is the value of one Cache or Env node.
type Entry struct {
	Node   string       `json:"node" yaml:"node"`
	Label  int          `json:"label,omitempty" yaml:"label,omitempty"`
	Var    string       `json:"var,omitempty" yaml:"var,omitempty"`
	Span   *text.Extent `json:"span,omitempty" yaml:"span,omitempty"`
	Values []string     `json:"values" yaml:"values"`
}

// NewDocument returns the structured form of r.
func NewDocument(r *Result, opts Options) *Document {
	doc := &Document{
		File:    r.Filename,
		Program: term.Format(r.Program.Root, true),
		Cache:   []Entry{},
		Env:     []Entry{},
	}
	for _, l := range r.Labels() {
		e := Entry{
			Node:   cfa.Cache(l).String(),
			Label:  int(l),
			Values: r.Solution.Cache(l).Strings(),
		}
		if span, ok := r.Program.Span(l); ok {
			e.Span = &span
		}
		doc.Cache = append(doc.Cache, e)
	}
	for _, x := range r.Variables() {
		doc.Env = append(doc.Env, Entry{
			Node:   cfa.Env(x).String(),
			Var:    string(x),
			Values: r.Solution.Env(x).Strings(),
		})
	}
	if opts.Constraints {
		for _, c := range r.Constraints {
			doc.Constraints = append(doc.Constraints, c.String())
		}
	}
	if opts.Stats {
		st := r.Stats()
		doc.Stats = &st
	}
	for _, c := range r.Violations {
		doc.Violations = append(doc.Violations, c.String())
	}
	return doc
}

type jsonFormat struct{}

func (jsonFormat) Name() string        { return "json" }
func (jsonFormat) Description() string { return "JSON document with spans, for editors and scripts" }

func (jsonFormat) Write(w io.Writer, r *Result, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(NewDocument(r, opts))
}

type yamlFormat struct{}

func (yamlFormat) Name() string        { return "yaml" }
func (yamlFormat) Description() string { return "YAML document with spans" }

func (yamlFormat) Write(w io.Writer, r *Result, opts Options) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(r, opts)); err != nil {
		return err
	}
	return enc.Close()
}
