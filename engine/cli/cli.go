// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The cli package provides a command-line interface for the control flow
// analysis.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/godoctor/cfa/analysis/cfa"
	"github.com/godoctor/cfa/analysis/term"
	"github.com/godoctor/cfa/config"
	"github.com/godoctor/cfa/engine"
	"github.com/godoctor/cfa/engine/protocol"
	"github.com/godoctor/cfa/report"
	"github.com/godoctor/cfa/text"
)

const useHelp = "Run 'cfa -help' for more information.\n"

// StdinFilename is the name given to a program read from standard input.
const StdinFilename = "<stdin>"

func printHelp(flags *flag.FlagSet, stderr io.Writer) {
	fmt.Fprint(stderr, `Constraint-based control flow analysis (0-CFA).
Usage: cfa [<flag> ...] [<file> ...]

Each <flag> must be one of the following:
`)
	flags.VisitAll(func(flag *flag.Flag) {
		fmt.Fprintf(stderr, "    -%-12s %s\n", flag.Name, flag.Usage)
	})
	fmt.Fprint(stderr, `
The program to analyze is read from the -file flag, from standard input, or
from each <file> argument; several files are analyzed concurrently.

The -format flag determines how the results are displayed:
`)
	for _, key := range engine.AllFormatNames() {
		fmt.Fprintf(stderr, "    %-15s %s\n",
			key, engine.GetFormat(key).Description())
	}
	fmt.Fprint(stderr, `
To display the value of the expression at line 2, columns 5-9, use:
    % cfa -file prog.cfa -pos 2,5:2,10
`)
}

func printManPage(flags *flag.FlagSet, stdout io.Writer) {
	// For conventions for writing a man page, see
	// http://www.schweikhardt.net/man_page_howto.html
	fmt.Fprintf(stdout, `.\" Save this as cfa.1 and process using
.\"     groff -man -Tascii cfa.1
`)
	fmt.Fprintf(stdout, ".TH cfa 1 \"\" \"cfa\" \"\"\n")
	fmt.Fprintf(stdout, `.SH NAME
cfa \- control flow analysis of functional programs
.SH SYNOPSIS
.B cfa
[
.I flag
.I ...
.B ]
[
.I file
.I ...
.B ]
.SH DESCRIPTION
cfa computes, for every expression and variable of a program, the set of
functions (and constants) it may evaluate to.  The analysis generates
subset constraints from the program and solves them with a worklist.
`)
	fmt.Fprintf(stdout, `.SH OPTIONS
The following
.I flags
control the behavior of cfa:
`)
	flags.VisitAll(func(flag *flag.Flag) {
		fmt.Fprintf(stdout, ".TP\n.B -%s\n%s\n",
			flag.Name,
			flag.Usage)
	})
	fmt.Fprintf(stdout, `.SH EXAMPLES
.TP
Analyze a program given on standard input:
echo '(fn x -> x) (fn y -> y)' | cfa
.PP
.TP
Display the value of the variable f:
.B cfa
-file prog.cfa
-var f
.PP
.SH EXIT STATUS
.TP
0
Success
.TP
1
One or more command line arguments were invalid
.TP
2
Help/usage information was displayed; no analysis was run
.TP
3
The analysis could not be completed; output contains a detailed error log
`)
}

// Run runs the command-line interface.  Typical usage is
//
//	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args))
//
// All arguments must be non-nil, and args[0] is required.
func Run(stdin io.Reader, stdout io.Writer, stderr io.Writer, args []string) int {
	var flags *flag.FlagSet = flag.NewFlagSet("cfa", flag.ContinueOnError)

	var fileFlag = flags.String("file", "",
		"Filename containing the program to analyze (default: stdin)")

	var posFlag = flags.String("pos", "",
		"Position of an expression whose value to display")

	var varFlag = flags.String("var", "",
		"Variable whose value to display")

	var formatFlag = flags.String("format", "",
		"Output format (default: text)")

	var configFlag = flags.String("config", "",
		"Configuration file (YAML or TOML)")

	var worklistFlag = flags.String("worklist", "",
		"Worklist order: lifo, fifo, or smallest")

	var constantsFlag = flags.Bool("constants", true,
		"Treat integer constants as abstract values")

	var constraintsFlag = flags.Bool("constraints", false,
		"Include the generated constraints in the output")

	var statsFlag = flags.Bool("stats", false,
		"Include solver and flow graph statistics in the output")

	var verifyFlag = flags.Bool("verify", false,
		"Check the solution against every constraint")

	var colorFlag = flags.String("color", "",
		"Colored output: auto, always, or never")

	var interactiveFlag = flags.Bool("i", false,
		"Start an interactive session")

	var verboseFlag = flags.Bool("v", false,
		"Verbose: log solver statistics")

	var veryVerboseFlag = flags.Bool("vv", false,
		"Very verbose: trace every solver step (implies -v)")

	var listFlag = flags.Bool("list", false,
		"List all output formats and exit")

	var jsonFlag = flags.Bool("json", false,
		"Accept commands in JSON protocol format")

	var manFlag = flags.Bool("man", false,
		"Output the cfa man page and exit")

	// Don't print full help unless -help was requested.
	// Just gently remind users that it's there.
	flags.Usage = func() { fmt.Fprint(stderr, useHelp) }
	flags.Init(args[0], flag.ContinueOnError)
	flags.SetOutput(stderr)
	if err := flags.Parse(args[1:]); err != nil {
		// (err has already been printed)
		if err == flag.ErrHelp {
			// Invoked as "cfa [flags] -help"
			printHelp(flags, stderr)
			return 2
		}
		return 1
	}

	args = flags.Args()
	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *manFlag {
		if len(args) > 0 || flags.NFlag() != 1 {
			fmt.Fprintln(stderr, "Error: The -man flag cannot "+
				"be used with any other flags or arguments")
			return 1
		}
		printManPage(flags, stdout)
		return 0
	}

	if *listFlag {
		if len(args) > 0 {
			fmt.Fprintln(stderr, "Error: The -list flag "+
				"cannot be used with any arguments")
			return 1
		}
		if flags.NFlag() != 1 {
			fmt.Fprintln(stderr, "Error: The -list flag "+
				"cannot be used with any other flags")
			return 1
		}
		fmt.Fprintf(stderr, "%-15s\t%s\n", "Format", "Description")
		fmt.Fprintf(stderr, "--------------------------------------------------------------------------------\n")
		for _, key := range engine.AllFormatNames() {
			fmt.Fprintf(stderr, "%-15s\t%s\n",
				key, engine.GetFormat(key).Description())
		}
		return 0
	}

	if len(args) > 0 && args[0] == "help" {
		// Invoked as "cfa [flags] help"
		printHelp(flags, stderr)
		return 2
	}

	config.SetGlobalConfig(*configFlag)
	cfg, err := config.LoadGlobal()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s.\n", err)
		return 1
	}
	o := &cfg.Options
	if set["worklist"] {
		o.Worklist = *worklistFlag
	}
	if set["constants"] {
		o.Constants = *constantsFlag
	}
	if set["constraints"] {
		o.ShowConstraints = *constraintsFlag
	}
	if set["stats"] {
		o.ShowStats = *statsFlag
	}
	if set["verify"] {
		o.Verify = *verifyFlag
	}
	if set["color"] {
		o.Color = *colorFlag
	}
	if set["format"] {
		o.Format = *formatFlag
	}
	if *verboseFlag && o.LogLevel < int(config.DebugLevel) {
		o.LogLevel = int(config.DebugLevel)
	}
	if *veryVerboseFlag {
		o.LogLevel = int(config.TraceLevel)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %s.\n", err)
		return 1
	}
	if engine.GetFormat(o.Format) == nil {
		fmt.Fprintf(stderr, "There is no output format named \"%s\"\n", o.Format)
		return 1
	}

	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(stderr)

	if *jsonFlag {
		if flags.NFlag() != 1 && !(flags.NFlag() == 2 && set["config"]) {
			fmt.Fprintln(stderr, "Error: The -json flag "+
				"cannot be used with any other flags except -config")
			return 1
		}
		// Invoked as "cfa -json [args]"
		protocol.Run(stdin, stdout, cfg, logger, args)
		return 0
	}

	if *interactiveFlag {
		if len(args) > 0 || set["file"] || set["pos"] || set["var"] {
			fmt.Fprintln(stderr, "Error: The -i flag cannot be "+
				"used with -file, -pos, -var, or file arguments")
			return 1
		}
		return runInteractive(stdin, stdout, stderr, cfg, logger)
	}

	if set["pos"] && set["var"] {
		fmt.Fprintln(stderr, "Error: The -pos and -var flags "+
			"cannot both be present")
		return 1
	}

	if len(args) > 0 {
		if set["file"] || set["pos"] || set["var"] {
			fmt.Fprintln(stderr, "Error: The -file, -pos and -var "+
				"flags cannot be used with file arguments")
			return 1
		}
		return analyzeFiles(stdout, stderr, args, cfg, logger)
	}

	var filename string
	var src []byte
	if *fileFlag != "" && *fileFlag != "-" {
		filename = *fileFlag
		src, err = os.ReadFile(filename)
	} else {
		// Filename is - or no filename given; read from standard input
		filename = StdinFilename
		src, err = io.ReadAll(stdin)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s.\n", err)
		return 1
	}

	var selection text.Selection
	if *posFlag != "" {
		selection, err = text.NewSelection(filename, *posFlag)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s.\n", err)
			return 1
		}
	}

	a := engine.Analyze(filename, src, cfg, logger)
	fmt.Fprint(stderr, a.Log)
	if a.Solution == nil {
		return 3
	}

	switch {
	case selection != nil:
		e, vs, err := a.Query(selection)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s.\n", err)
			return 3
		}
		fmt.Fprintf(stdout, "%s = %s\n", cfa.Cache(e.Label), vs)
	case *varFlag != "":
		vs, err := a.QueryVariable(term.Variable(*varFlag))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s.\n", err)
			return 3
		}
		fmt.Fprintf(stdout, "%s = %s\n", cfa.Env(term.Variable(*varFlag)), vs)
	default:
		if err := write(stdout, a); err != nil {
			fmt.Fprintf(stderr, "Error: %s.\n", err)
			return 1
		}
	}

	if a.Log.ContainsErrors() {
		return 3
	}
	return 0
}

// analyzeFiles analyzes each file and writes the results in order.
func analyzeFiles(stdout, stderr io.Writer, filenames []string, cfg *config.Config, logger *config.LogGroup) int {
	results, err := engine.AnalyzeFiles(context.Background(), filenames, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s.\n", err)
		return 1
	}
	exit := 0
	for _, a := range results {
		fmt.Fprint(stderr, a.Log)
		if a.Log.ContainsErrors() {
			exit = 3
		}
		if a.Solution == nil {
			continue
		}
		if err := write(stdout, a); err != nil {
			fmt.Fprintf(stderr, "Error: %s.\n", err)
			return 1
		}
	}
	return exit
}

// write renders a in the configured format, with colors if the
// configuration and the output allow them.
func write(w io.Writer, a *engine.Analysis) error {
	opts := a.ReportOptions()
	opts.Color = useColor(a.Config.Options.Color, w)
	return a.Write(w, a.Config.Options.Format, opts)
}

func useColor(mode string, w io.Writer) bool {
	fd := -1
	if f, ok := w.(*os.File); ok {
		fd = int(f.Fd())
	}
	return report.UseColor(mode, fd)
}
