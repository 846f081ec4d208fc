// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	terminal "golang.org/x/term"

	"github.com/godoctor/cfa/analysis/cfa"
	"github.com/godoctor/cfa/analysis/term"
	"github.com/godoctor/cfa/config"
	"github.com/godoctor/cfa/engine"
	"github.com/godoctor/cfa/text"
)

const prompt = "cfa> "

// InputFilename is the name given to a program typed in an interactive
// session.
const InputFilename = "<input>"

// A session is the state of an interactive session.  Each line is either a
// command, which starts with a colon, or a program to analyze.
type session struct {
	out    io.Writer
	cfg    *config.Config
	logger *config.LogGroup
	color  bool

	analysis *engine.Analysis
}

// A command is one line of input, split into a command name and its
// argument.  The name is empty for a program.
type command struct {
	Name string
	Arg  string
}

func parseCommand(line string) command {
	if !strings.HasPrefix(line, ":") {
		return command{Arg: line}
	}
	name, arg, _ := strings.Cut(line[1:], " ")
	return command{Name: strings.ToLower(name), Arg: strings.TrimSpace(arg)}
}

type commandFunc func(s *session, arg string) bool

type commandInfo struct {
	run      commandFunc
	synopsis string
}

var commands map[string]commandInfo

func init() {
	commands = map[string]commandInfo{
		"help":        {cmdHelp, "list the commands"},
		"quit":        {cmdQuit, "end the session"},
		"load":        {cmdLoad, "FILE: analyze the program in FILE"},
		"show":        {cmdShow, "display the results again"},
		"value":       {cmdValue, "LABEL|VAR: display the value of a label or variable"},
		"at":          {cmdAt, "POS: display the value of the expression at line,col:line,col or offset,length"},
		"constraints": {cmdConstraints, "list the generated constraints"},
		"cycles":      {cmdCycles, "list the cycles of the flow graph"},
		"format":      {cmdFormat, "NAME: select the output format"},
		"worklist":    {cmdWorklist, "ORDER: select the worklist order for later analyses"},
	}
	commands["q"] = commands["quit"]
}

// runInteractive reads commands until end of input or :quit.  If stdin is a
// terminal, it is put in raw mode and given line editing.
func runInteractive(stdin io.Reader, stdout, stderr io.Writer, cfg *config.Config, logger *config.LogGroup) int {
	sessionCfg := *cfg
	s := &session{
		out:    stdout,
		cfg:    &sessionCfg,
		logger: logger,
		color:  useColor(cfg.Options.Color, stdout),
	}

	if f, ok := stdin.(*os.File); ok && terminal.IsTerminal(int(f.Fd())) {
		return s.runTerminal(f, stderr)
	}

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		if s.interpret(strings.TrimSpace(scanner.Text())) {
			return 0
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stderr, "Error: %s.\n", err)
		return 1
	}
	return 0
}

func (s *session) runTerminal(f *os.File, stderr io.Writer) int {
	fd := int(f.Fd())
	oldState, err := terminal.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s.\n", err)
		return 1
	}
	defer terminal.Restore(fd, oldState)

	tt := terminal.NewTerminal(f, prompt)
	tt.AutoCompleteCallback = autoComplete
	s.out = tt
	s.color = s.cfg.Options.Color != "never"
	s.logger.SetAllOutput(tt)
	s.logger.SetAllFlags(0) // no prefix
	for {
		line, err := tt.ReadLine()
		if err != nil {
			// io.EOF on ctrl-D
			return 0
		}
		if s.interpret(strings.TrimSpace(line)) {
			return 0
		}
	}
}

// autoComplete completes command names after a colon when tab is pressed.
func autoComplete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' || !strings.HasPrefix(line, ":") || strings.Contains(line, " ") {
		return "", 0, false
	}
	var matches []string
	for name := range commands {
		if strings.HasPrefix(name, line[1:]) {
			matches = append(matches, name)
		}
	}
	if len(matches) != 1 {
		return "", 0, false
	}
	newLine := ":" + matches[0] + " "
	return newLine, len(newLine), true
}

// interpret returns true to stop
func (s *session) interpret(line string) bool {
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}
	cmd := parseCommand(line)
	if cmd.Name == "" {
		s.analyze(engine.Analyze(InputFilename, []byte(cmd.Arg), s.cfg, s.logger))
		return false
	}
	if info, ok := commands[cmd.Name]; ok {
		return info.run(s, cmd.Arg)
	}
	s.errorf("Command name %q not recognized", cmd.Name)
	return false
}

func (s *session) errorf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, "Error: "+format+".\n", args...)
}

func (s *session) analyze(a *engine.Analysis) {
	fmt.Fprint(s.out, a.Log)
	if a.Solution == nil {
		return
	}
	s.analysis = a
	s.show()
}

func (s *session) show() {
	opts := s.analysis.ReportOptions()
	opts.Color = s.color
	if err := s.analysis.Write(s.out, s.cfg.Options.Format, opts); err != nil {
		s.errorf("%s", err)
	}
}

// analyzed reports an error if no program has been analyzed yet.
func (s *session) analyzed() bool {
	if s.analysis == nil {
		s.errorf("No program has been analyzed")
		return false
	}
	return true
}

func cmdHelp(s *session, arg string) bool {
	fmt.Fprintln(s.out, "Enter a program to analyze it, or one of these commands:")
	names := maps.Keys(commands)
	slices.Sort(names)
	for _, name := range names {
		if name == "q" {
			continue
		}
		fmt.Fprintf(s.out, "  :%-12s %s\n", name, commands[name].synopsis)
	}
	return false
}

func cmdQuit(s *session, arg string) bool {
	return true
}

func cmdLoad(s *session, arg string) bool {
	if arg == "" {
		s.errorf(":load requires a filename")
		return false
	}
	s.analyze(engine.AnalyzeFile(arg, s.cfg, s.logger))
	return false
}

func cmdShow(s *session, arg string) bool {
	if s.analyzed() {
		s.show()
	}
	return false
}

func cmdValue(s *session, arg string) bool {
	if !s.analyzed() {
		return false
	}
	if l, err := strconv.Atoi(arg); err == nil {
		e := s.analysis.Program.Node(term.Label(l))
		if e == nil {
			s.errorf("There is no expression labeled %d", l)
			return false
		}
		fmt.Fprintf(s.out, "%s = %s\n", cfa.Cache(e.Label), s.analysis.Solution.Cache(e.Label))
		return false
	}
	vs, err := s.analysis.QueryVariable(term.Variable(arg))
	if err != nil {
		s.errorf("%s", err)
		return false
	}
	fmt.Fprintf(s.out, "%s = %s\n", cfa.Env(term.Variable(arg)), vs)
	return false
}

func cmdAt(s *session, arg string) bool {
	if !s.analyzed() {
		return false
	}
	sel, err := text.NewSelection(s.analysis.Filename, arg)
	if err != nil {
		s.errorf("%s", err)
		return false
	}
	e, vs, err := s.analysis.Query(sel)
	if err != nil {
		s.errorf("%s", err)
		return false
	}
	fmt.Fprintf(s.out, "%s = %s\t%s\n", cfa.Cache(e.Label), vs, e)
	return false
}

func cmdConstraints(s *session, arg string) bool {
	if !s.analyzed() {
		return false
	}
	for _, c := range s.analysis.Constraints {
		fmt.Fprintln(s.out, c)
	}
	return false
}

func cmdCycles(s *session, arg string) bool {
	if !s.analyzed() {
		return false
	}
	cycles := cfa.NewFlowGraph(s.analysis.Constraints).Cycles()
	if len(cycles) == 0 {
		fmt.Fprintln(s.out, "no cycles")
	}
	for _, cycle := range cycles {
		names := make([]string, len(cycle))
		for i, n := range cycle {
			names[i] = n.String()
		}
		fmt.Fprintln(s.out, strings.Join(names, " "))
	}
	return false
}

func cmdFormat(s *session, arg string) bool {
	if engine.GetFormat(arg) == nil {
		s.errorf("There is no output format named %q (expected one of %v)",
			arg, engine.AllFormatNames())
		return false
	}
	s.cfg.Options.Format = arg
	return false
}

func cmdWorklist(s *session, arg string) bool {
	if _, err := cfa.ParseOrder(arg); err != nil {
		s.errorf("%s", err)
		return false
	}
	s.cfg.Options.Worklist = strings.ToLower(arg)
	return false
}
