// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"regexp"

	"github.com/godoctor/cfa/analysis/cfa"
	"github.com/godoctor/cfa/analysis/term"
	"github.com/godoctor/cfa/engine"
	"github.com/godoctor/cfa/report"
	"github.com/godoctor/cfa/text"
)

type Command interface {
	Run(*State, map[string]interface{}) (Reply, error)
	Validate(*State, map[string]interface{}) (bool, error)
}

// AboutText is the text returned by the about command.
const AboutText = "cfa: constraint-based 0-CFA for a small functional language"

// InputFilename names a program that is submitted as text without a
// filename.
const InputFilename = "<input>"

func requireState(state *State, min int, cmd string) error {
	if state.State >= min {
		return nil
	}
	switch min {
	case Opened:
		return fmt.Errorf("The %s command requires a state of non-zero", cmd)
	default:
		return fmt.Errorf("The %s command requires an analyzed program", cmd)
	}
}

// -=-= About =-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=

type About struct {
	aboutText string
}

func (a *About) Run(state *State, input map[string]interface{}) (Reply, error) {
	if valid, err := a.Validate(state, input); !valid {
		return errorReply(err), err
	}
	a.aboutText = AboutText
	return Reply{map[string]interface{}{"reply": "OK", "text": a.aboutText}}, nil
}

func (a *About) Validate(state *State, input map[string]interface{}) (bool, error) {
	if err := requireState(state, Opened, "about"); err != nil {
		return false, err
	}
	return true, nil
}

// -=-= Open =-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-

// ProtocolVersion is the highest protocol version this server speaks.
const ProtocolVersion = 1.0

type Open struct {
	Version float64 `json:"version"`
}

func (o *Open) Run(state *State, input map[string]interface{}) (Reply, error) {
	if valid, err := o.Validate(state, input); !valid {
		return errorReply(err), err
	}
	state.State = Opened
	state.Analysis = nil
	return Reply{map[string]interface{}{"reply": "OK", "version": ProtocolVersion}}, nil
}

func (o *Open) Validate(state *State, input map[string]interface{}) (bool, error) {
	version, found := input["version"]
	if !found {
		return true, nil
	}
	v, ok := version.(float64)
	if !ok {
		return false, errors.New("\"version\" key must be a number")
	}
	if v > ProtocolVersion {
		return false, fmt.Errorf("Protocol version %g is not supported (maximum %g)", v, ProtocolVersion)
	}
	o.Version = v
	return true, nil
}

// -=-= Setdir =-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-

// Setdir sets the directory against which relative filenames are resolved.
type Setdir struct {
	Directory string `json:"directory"`
}

func (s *Setdir) Run(state *State, input map[string]interface{}) (Reply, error) {
	if valid, err := s.Validate(state, input); !valid {
		return errorReply(err), err
	}
	state.Dir = s.Directory
	return Reply{map[string]interface{}{"reply": "OK"}}, nil
}

func (s *Setdir) Validate(state *State, input map[string]interface{}) (bool, error) {
	if err := requireState(state, Opened, "setdir"); err != nil {
		return false, err
	}
	dir, ok := input["directory"].(string)
	if !ok {
		return false, errors.New("\"directory\" key is required")
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return false, err
	}
	if !fi.IsDir() {
		return false, fmt.Errorf("%s is not a directory", dir)
	}
	s.Directory = dir
	return true, nil
}

// -=-= Formats =-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=

type Formats struct{}

func (f *Formats) Run(state *State, input map[string]interface{}) (Reply, error) {
	if valid, err := f.Validate(state, input); !valid {
		return errorReply(err), err
	}
	namesList := make([]map[string]string, 0)
	for _, shortName := range engine.AllFormatNames() {
		namesList = append(namesList, map[string]string{
			"shortName":   shortName,
			"description": engine.GetFormat(shortName).Description(),
		})
	}
	return Reply{map[string]interface{}{"reply": "OK", "formats": namesList}}, nil
}

func (f *Formats) Validate(state *State, input map[string]interface{}) (bool, error) {
	if err := requireState(state, Opened, "formats"); err != nil {
		return false, err
	}
	return true, nil
}

// -=-= Analyze =-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=

// Analyze analyzes a program given either as text or as a file.  The
// optional worklist and constants keys override the session configuration
// for this analysis.
type Analyze struct {
	Filename  string `json:"filename"`
	Text      string `json:"text"`
	Worklist  string `json:"worklist" chk:"^(lifo|fifo|smallest)$"`
	Constants bool   `json:"constants"`
}

func (a *Analyze) Run(state *State, input map[string]interface{}) (Reply, error) {
	if valid, err := a.Validate(state, input); !valid {
		return errorReply(err), err
	}

	cfg := *state.Config
	if a.Worklist != "" {
		cfg.Options.Worklist = a.Worklist
	}
	if _, found := input["constants"]; found {
		cfg.Options.Constants = a.Constants
	}

	var result *engine.Analysis
	if _, found := input["text"]; found {
		filename := InputFilename
		if a.Filename != "" {
			filename = filepath.Join(state.Dir, a.Filename)
		}
		result = engine.Analyze(filename, []byte(a.Text), &cfg, state.Logger)
	} else {
		result = engine.AnalyzeFile(filepath.Join(state.Dir, a.Filename), &cfg, state.Logger)
	}

	logs := logEntries(result.Log)
	if !result.OK() {
		state.State = Opened
		state.Analysis = nil
		err := errors.New("Analysis failed")
		for _, entry := range result.Log.Entries {
			if entry.Severity == engine.Error {
				err = errors.New(entry.String())
				break
			}
		}
		return Reply{map[string]interface{}{"reply": "Error", "message": err.Error(), "log": logs}}, err
	}

	state.State = Analyzed
	state.Analysis = result
	return Reply{map[string]interface{}{
		"reply":       "OK",
		"filename":    result.Filename,
		"program":     term.Format(result.Program.Root, true),
		"labels":      len(result.Labels()),
		"variables":   len(result.Variables()),
		"constraints": len(result.Constraints),
		"stats":       result.Stats(),
		"log":         logs,
	}}, nil
}

func (a *Analyze) Validate(state *State, input map[string]interface{}) (bool, error) {
	if err := requireState(state, Opened, "analyze"); err != nil {
		return false, err
	}
	*a = Analyze{}
	_, textFound := input["text"]
	_, fileFound := input["filename"]
	if !textFound && !fileFound {
		return false, errors.New("Either a \"text\" or a \"filename\" key is required")
	}
	if textFound {
		src, ok := input["text"].(string)
		if !ok {
			return false, errors.New("\"text\" key must be a string")
		}
		a.Text = src
	}
	if fileFound {
		filename, ok := input["filename"].(string)
		if !ok || filename == "" {
			return false, errors.New("\"filename\" key must be a nonempty string")
		}
		a.Filename = filename
	}
	if worklist, found := input["worklist"]; found {
		s, ok := worklist.(string)
		field, _ := reflect.TypeOf(a).Elem().FieldByName("Worklist")
		worklistValidator := regexp.MustCompile(field.Tag.Get("chk"))
		if !ok || !worklistValidator.MatchString(s) {
			return false, errors.New("\"worklist\" key must be \"lifo|fifo|smallest\"")
		}
		a.Worklist = s
	}
	if constants, found := input["constants"]; found {
		b, ok := constants.(bool)
		if !ok {
			return false, errors.New("\"constants\" key must be a boolean")
		}
		a.Constants = b
	}
	return true, nil
}

// -=-= Query =-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=

// Query returns the value of one node of the analyzed program.  The node is
// given by exactly one of a "label", a "variable", or a "textselection",
// which selects the innermost expression containing it.
type Query struct {
	Label         int                    `json:"label"`
	Variable      string                 `json:"variable"`
	Textselection map[string]interface{} `json:"textselection"`
}

func (q *Query) Run(state *State, input map[string]interface{}) (Reply, error) {
	if valid, err := q.Validate(state, input); !valid {
		return errorReply(err), err
	}
	a := state.Analysis

	if q.Variable != "" {
		vs, err := a.QueryVariable(term.Variable(q.Variable))
		if err != nil {
			return errorReply(err), err
		}
		return Reply{map[string]interface{}{
			"reply":  "OK",
			"node":   cfa.Env(term.Variable(q.Variable)).String(),
			"values": vs.Strings(),
		}}, nil
	}

	var e *term.Expression
	if q.Textselection != nil {
		ts, err := parseSelection(state, q.Textselection)
		if err != nil {
			return errorReply(err), err
		}
		if e, _, err = a.Query(ts); err != nil {
			return errorReply(err), err
		}
	} else {
		e = a.Program.Node(term.Label(q.Label))
		if e == nil {
			err := fmt.Errorf("There is no expression labeled %d", q.Label)
			return errorReply(err), err
		}
	}

	reply := Reply{map[string]interface{}{
		"reply":      "OK",
		"node":       cfa.Cache(e.Label).String(),
		"label":      int(e.Label),
		"expression": e.String(),
		"values":     a.Solution.Cache(e.Label).Strings(),
	}}
	if span, ok := a.Program.Span(e.Label); ok {
		reply.Params["offset"] = span.Offset
		reply.Params["length"] = span.Length
	}
	return reply, nil
}

func (q *Query) Validate(state *State, input map[string]interface{}) (bool, error) {
	if err := requireState(state, Analyzed, "query"); err != nil {
		return false, err
	}
	*q = Query{}
	keys := 0
	if label, found := input["label"]; found {
		keys++
		l, ok := label.(float64)
		if !ok || l != math.Trunc(l) || l < 1 {
			return false, errors.New("\"label\" key must be a positive integer")
		}
		q.Label = int(l)
	}
	if variable, found := input["variable"]; found {
		keys++
		x, ok := variable.(string)
		if !ok || x == "" {
			return false, errors.New("\"variable\" key must be a nonempty string")
		}
		q.Variable = x
	}
	if textselection, found := input["textselection"]; found {
		keys++
		ts, ok := textselection.(map[string]interface{})
		if !ok {
			return false, errors.New("\"textselection\" key must be an object")
		}
		if _, err := parseSelection(state, ts); err != nil {
			return false, err
		}
		q.Textselection = ts
	}
	if keys != 1 {
		return false, errors.New("Exactly one of \"label\", \"variable\", and \"textselection\" is required")
	}
	return true, nil
}

// -=-= Constraints =-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=

type Constraints struct{}

func (c *Constraints) Run(state *State, input map[string]interface{}) (Reply, error) {
	if valid, err := c.Validate(state, input); !valid {
		return errorReply(err), err
	}
	constraints := make([]string, 0, len(state.Analysis.Constraints))
	for _, cons := range state.Analysis.Constraints {
		constraints = append(constraints, cons.String())
	}
	return Reply{map[string]interface{}{"reply": "OK", "constraints": constraints}}, nil
}

func (c *Constraints) Validate(state *State, input map[string]interface{}) (bool, error) {
	if err := requireState(state, Analyzed, "constraints"); err != nil {
		return false, err
	}
	return true, nil
}

// -=-= Results =-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=

// Results returns the complete solution.  The json format is returned as a
// "document" object; every other format is returned as "output" text.
type Results struct {
	Format string `json:"format"`
}

func (r *Results) Run(state *State, input map[string]interface{}) (Reply, error) {
	if valid, err := r.Validate(state, input); !valid {
		return errorReply(err), err
	}
	a := state.Analysis
	opts := a.ReportOptions()
	if r.Format == "json" {
		doc := report.NewDocument(&a.Result, opts)
		return Reply{map[string]interface{}{"reply": "OK", "document": doc}}, nil
	}
	var buf bytes.Buffer
	if err := a.Write(&buf, r.Format, opts); err != nil {
		return errorReply(err), err
	}
	return Reply{map[string]interface{}{"reply": "OK", "output": buf.String()}}, nil
}

func (r *Results) Validate(state *State, input map[string]interface{}) (bool, error) {
	if err := requireState(state, Analyzed, "results"); err != nil {
		return false, err
	}
	r.Format = "json"
	if format, found := input["format"]; found {
		s, ok := format.(string)
		if !ok || engine.GetFormat(s) == nil {
			return false, fmt.Errorf("\"format\" key must be one of %v", engine.AllFormatNames())
		}
		r.Format = s
	}
	return true, nil
}

// -=-= Helpers =-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-

// takes a map for a text selection, either in line/col form or offset/length
// and returns the appropriate type (LineColSelection or OffsetLengthSelection).
// The filename defaults to the analyzed program's.
func parseSelection(state *State, input map[string]interface{}) (text.Selection, error) {
	var file string
	if filename, found := input["filename"]; found {
		s, ok := filename.(string)
		if !ok {
			return nil, fmt.Errorf("Invalid type of value given for file: given %T", filename)
		}
		file = filepath.Join(state.Dir, s)
	} else if state.Analysis != nil {
		file = state.Analysis.Filename
	} else {
		return nil, fmt.Errorf("File is not given")
	}

	if _, found := input["offset"]; found {
		nums, err := intKeys(input, "offset", "length")
		if err != nil {
			return nil, fmt.Errorf("invalid offset/length combo: %v", err)
		}
		return text.NewSelection(file, fmt.Sprintf("%d,%d", nums[0], nums[1]))
	}

	nums, err := intKeys(input, "startline", "startcol", "endline", "endcol")
	if err != nil {
		return nil, fmt.Errorf("invalid line/col combo: %v", err)
	}
	return text.NewSelection(file, fmt.Sprintf("%d,%d:%d,%d", nums[0], nums[1], nums[2], nums[3]))
}

// intKeys returns the values of the given keys, which must be nonnegative
// integers.  (JSON numbers are decoded as float64.)
func intKeys(input map[string]interface{}, keys ...string) ([]int, error) {
	result := make([]int, len(keys))
	for i, key := range keys {
		v, found := input[key]
		if !found {
			return nil, fmt.Errorf("%q value missing", key)
		}
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) || f < 0 {
			return nil, fmt.Errorf("%q must be a nonnegative integer, given %v", key, v)
		}
		result[i] = int(f)
	}
	return result, nil
}

// logEntries converts a log for inclusion in a reply.
func logEntries(log *engine.Log) []map[string]interface{} {
	logs := make([]map[string]interface{}, 0, len(log.Entries))
	for _, entry := range log.Entries {
		m := map[string]interface{}{
			"severity": entry.Severity.String(),
			"message":  entry.Message,
		}
		if entry.Filename != "" {
			m["filename"] = entry.Filename
		}
		if entry.Line > 0 {
			m["line"] = entry.Line
			m["column"] = entry.Column
		}
		if entry.Position != nil {
			m["offset"] = entry.Position.Offset
			m["length"] = entry.Position.Length
		}
		logs = append(logs, m)
	}
	return logs
}
