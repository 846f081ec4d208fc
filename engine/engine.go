// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engine is the programmatic entrypoint to the control flow
// analysis: it parses a program, generates and solves its constraints, and
// renders the results in one of several output formats.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/godoctor/cfa/analysis/cfa"
	"github.com/godoctor/cfa/analysis/parser"
	"github.com/godoctor/cfa/analysis/term"
	"github.com/godoctor/cfa/config"
	"github.com/godoctor/cfa/report"
	"github.com/godoctor/cfa/text"
)

// All available output formats, keyed by a unique, one-word, all-lowercase
// name
var formats map[string]report.Format

func init() {
	formats = map[string]report.Format{}
	for _, f := range report.Builtins() {
		formats[f.Name()] = f
	}
}

// AllFormatNames returns the short names of all output formats, sorted.
func AllFormatNames() []string {
	names := maps.Keys(formats)
	slices.Sort(names)
	return names
}

// GetFormat returns the Format keyed by the given short name, or nil.
func GetFormat(shortName string) report.Format {
	return formats[shortName]
}

// AddFormat allows custom output formats to be added to the engine.  Invoke
// this method before starting the command line or protocol driver.
func AddFormat(f report.Format) error {
	if existing, ok := formats[f.Name()]; ok {
		return fmt.Errorf("The short name \"%s\" is already "+
			"associated with a format (%s)",
			f.Name(),
			existing.Description())
	}
	formats[f.Name()] = f
	return nil
}

// An Analysis is the result of analyzing one program.  If Log contains
// errors, Program or Solution may be nil.
type Analysis struct {
	report.Result
	Log    *Log
	Config *config.Config
}

// OK returns true if the analysis produced a solution.
func (a *Analysis) OK() bool {
	return a.Solution != nil && !a.Log.ContainsErrors()
}

// Analyze parses and analyzes a single program.  The logger may be nil.
// Problems with the program are recorded in the returned analysis's Log.
func Analyze(filename string, src []byte, cfg *config.Config, logger *config.LogGroup) *Analysis {
	a := &Analysis{
		Result: report.Result{Filename: filename},
		Log:    NewLog(),
		Config: cfg,
	}

	prog, err := parser.Parse(filename, src)
	if err != nil {
		if perr, ok := err.(*parser.Error); ok {
			a.Log.Errorf("%s", perr.Msg)
			a.Log.AssociatePosition(perr.Pos)
		} else {
			a.Log.Error(err)
			a.Log.Associate(filename)
		}
		return a
	}
	a.Program = prog
	if err := term.CheckLabels(prog.Root); err != nil {
		a.Log.Errorf("internal error: %v", err)
		a.Log.Associate(filename)
		return a
	}
	a.checkShadowing()

	order, err := cfa.ParseOrder(cfg.Options.Worklist)
	if err != nil {
		a.Log.Error(err)
		return a
	}

	a.Constraints = cfa.Generate(prog.Root, cfa.GenerateOptions{
		Constants: cfg.Options.Constants,
	})
	if logger != nil {
		logger.Debugf("%s: %d constraints", filename, len(a.Constraints))
	}
	a.Solution = cfa.Solve(prog.Root, a.Constraints, cfa.SolveOptions{
		Order: order,
		Log:   logger,
	})

	if cfg.Options.Verify {
		a.Violations = a.Solution.Violations(a.Constraints)
		for _, c := range a.Violations {
			a.Log.Errorf("solution violates %s", c)
			a.Log.Associate(filename)
		}
	}
	return a
}

// checkShadowing warns about every variable that is bound more than once.
// All bindings of a name share one abstract location, so their values are
// merged.
func (a *Analysis) checkShadowing() {
	first := make(map[term.Variable]term.Label)
	term.Inspect(a.Program.Root, func(e *term.Expression) bool {
		var bound []term.Variable
		switch t := e.Term.(type) {
		case *term.Closure:
			bound = []term.Variable{t.Param}
		case *term.RecClosure:
			bound = []term.Variable{t.Func, t.Param}
		case *term.Let:
			bound = []term.Variable{t.Name}
		}
		for _, x := range bound {
			if l, ok := first[x]; ok {
				pos := a.Program.Position(l)
				a.Log.Warnf("%s is also bound at line %d, column %d; "+
					"the values of both bindings are merged", x, pos.Line, pos.Column)
				a.Log.AssociateLabel(a.Program, e.Label)
			} else {
				first[x] = e.Label
			}
		}
		return true
	})
}

// AnalyzeFile reads and analyzes the named file.
func AnalyzeFile(filename string, cfg *config.Config, logger *config.LogGroup) *Analysis {
	src, err := os.ReadFile(filename)
	if err != nil {
		a := &Analysis{
			Result: report.Result{Filename: filename},
			Log:    NewLog(),
			Config: cfg,
		}
		a.Log.Error(err)
		return a
	}
	return Analyze(filename, src, cfg, logger)
}

// AnalyzeFiles analyzes several files concurrently.  The results are in the
// same order as the filenames.  The returned error is non-nil only if ctx
// is canceled; problems with individual files are recorded in their logs.
func AnalyzeFiles(ctx context.Context, filenames []string, cfg *config.Config, logger *config.LogGroup) ([]*Analysis, error) {
	results := make([]*Analysis, len(filenames))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, filename := range filenames {
		i, filename := i, filename
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = AnalyzeFile(filename, cfg, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Query returns the innermost expression containing the selection and its
// value.
func (a *Analysis) Query(sel text.Selection) (*term.Expression, cfa.Values, error) {
	if a.Program == nil || a.Solution == nil {
		return nil, nil, fmt.Errorf("%s was not analyzed", a.Filename)
	}
	start, end, err := sel.Convert(a.Program.Fset)
	if err != nil {
		return nil, nil, err
	}
	offset := a.Program.File.Offset(start)
	e := a.Program.Enclosing(offset, int(end-start))
	if e == nil {
		return nil, nil, fmt.Errorf("no expression contains %s", sel)
	}
	return e, a.Solution.Cache(e.Label), nil
}

// QueryVariable returns the value of the variable x.
func (a *Analysis) QueryVariable(x term.Variable) (cfa.Values, error) {
	if a.Solution == nil {
		return nil, fmt.Errorf("%s was not analyzed", a.Filename)
	}
	_, env := a.Solution.Results()
	vs, ok := env[x]
	if !ok {
		return nil, fmt.Errorf("%s does not occur in %s", x, a.Filename)
	}
	return vs, nil
}

// ReportOptions returns the report options selected by the configuration.
// Colors are never enabled here; the caller decides based on its output.
func (a *Analysis) ReportOptions() report.Options {
	return report.Options{
		Constraints: a.Config.Options.ShowConstraints,
		Stats:       a.Config.Options.ShowStats,
	}
}

// Write renders the analysis in the named format.
func (a *Analysis) Write(w io.Writer, format string, opts report.Options) error {
	f := GetFormat(format)
	if f == nil {
		return fmt.Errorf("unknown format %q (expected one of %v)", format, AllFormatNames())
	}
	if a.Solution == nil {
		return fmt.Errorf("%s was not analyzed", a.Filename)
	}
	return f.Write(w, &a.Result, opts)
}
