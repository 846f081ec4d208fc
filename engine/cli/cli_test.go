// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli_test

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/godoctor/cfa/engine/cli"
)

const (
	idid = "(fn x -> x) (fn y -> y)"

	ididText = `<stdin>: 5 labels, 2 variables, 8 constraints
cache:
  C(1)  {fn y -> y}  x
  C(2)  {fn x -> x}  fn x -> x
  C(3)  {}           y
  C(4)  {fn y -> y}  fn y -> y
  C(5)  {fn y -> y}  (fn x -> x) (fn y -> y)
env:
  r(x)  {fn y -> y}
  r(y)  {}
`

	letf = "let f = fn x -> x in f 5"
)

func runCLI(stdin string, args ...string) (exit int, stdout string, stderr string) {
	args = append([]string{"cfa"}, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	exit = cli.Run(strings.NewReader(stdin), &stdoutBuf, &stderrBuf, args)
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()
	return
}

func TestHelp(t *testing.T) {
	for _, helpFlag := range []string{"-help", "--help", "help"} {
		exit, stdout, stderr := runCLI("", helpFlag)
		if exit != 2 || stdout != "" ||
			!strings.Contains(stderr, "Usage: cfa ") {
			t.Fatalf("%s expected usage string with exit 2", helpFlag)
		}
	}
}

func TestInvalidFlag(t *testing.T) {
	exit, stdout, stderr := runCLI("", "-somethinginvalid")
	if exit != 1 || stdout != "" || stderr == "" {
		t.Fatal("Invalid flag expected exit 1")
	}

	exit, stdout, stderr = runCLI("", "-stats=thisshouldbeaboolean")
	if exit != 1 || stdout != "" || stderr == "" {
		t.Fatal("Invalid flag expected exit 1")
	}
}

func TestInvalidOptions(t *testing.T) {
	for _, flags := range [][]string{
		{"-worklist=random"},
		{"-color=sometimes"},
		{"-format=xml"},
		{"-config=" + filepath.Join(t.TempDir(), "missing.yaml")},
	} {
		exit, stdout, stderr := runCLI(idid, flags...)
		if exit != 1 || stdout != "" || stderr == "" {
			t.Errorf("%s expected exit 1, got %d: %s", flags, exit, stderr)
		}
	}
}

func TestList(t *testing.T) {
	exit, stdout, stderr := runCLI("", "-list")
	if exit != 0 || stdout != "" || !strings.Contains(stderr, "json") {
		t.Fatalf("-list expected format list with exit 0")
	}

	for _, flag := range []string{"-v", "-stats", "-json"} {
		exit, stdout, stderr = runCLI("", flag, "-list")
		if exit != 1 || stdout != "" || !strings.Contains(stderr,
			"-list flag cannot be used with") {
			t.Fatalf("-list should fail and exit 1 if used with %s", flag)
		}
	}
}

func TestInvalidCombos(t *testing.T) {
	invalid := [][]string{
		{"-file=-", "-json"},
		{"-json", "-list"},
		{"-json", "-pos=1,1:1,1"},
		{"-json", "-v"},
		{"-list", "-v"},
		{"-list", "somearg"},
		{"-man", "-v"},
		{"-pos=0,1", "-var=x"},
		{"-i", "-file=prog.cfa"},
		{"-i", "prog.cfa"},
		{"-var=x", "prog.cfa"},
	}
	for _, flags := range invalid {
		exit, stdout, stderr := runCLI("", flags...)
		if exit != 1 || stdout != "" || !strings.Contains(stderr, "cannot") {
			t.Fatalf("Expected failure and exit 1 if using %s",
				strings.Join(flags, " "))
		}
	}
}

func TestMan(t *testing.T) {
	exit, stdout, _ := runCLI("", "-man")
	if exit != 0 || !strings.HasPrefix(stdout, `.\" Save this as cfa.1`) ||
		!strings.Contains(stdout, ".B -worklist\n") {
		t.Fatalf("-man expected a man page with exit 0")
	}
}

func TestAnalyzeStdin(t *testing.T) {
	exit, stdout, stderr := runCLI(idid, "-color=never")
	if exit != 0 || stderr != "" {
		t.Fatalf("expected clean exit, got %d: %s", exit, stderr)
	}
	if stdout != ididText {
		t.Fatalf("Output did not match expected output:\n%s", stdout)
	}
}

func TestAnalyzeOptions(t *testing.T) {
	exit, stdout, _ := runCLI(idid, "-color=never", "-constraints", "-stats", "-verify", "-worklist=smallest")
	if exit != 0 {
		t.Fatalf("expected clean exit, got %d", exit)
	}
	for _, s := range []string{
		"constraints:\n  {fn x -> x} ⊆ C(2) ⇒ C(4) ⊆ r(x)\n",
		"stats:\n",
		"  r(x)  {fn y -> y}\n",
	} {
		if !strings.Contains(stdout, s) {
			t.Errorf("output does not contain %q:\n%s", s, stdout)
		}
	}

	exit, stdout, _ = runCLI("let x = 1 in x", "-color=never", "-constants=false")
	if exit != 0 || !strings.Contains(stdout, "  r(x)  {}\n") {
		t.Errorf("-constants=false should not propagate constants:\n%s", stdout)
	}
}

func TestSyntaxError(t *testing.T) {
	exit, stdout, stderr := runCLI("fn -> x")
	if exit != 3 || stdout != "" {
		t.Fatalf("syntax error expected exit 3 and no output, got %d", exit)
	}
	if want := "Error: <stdin>:1:4: expected identifier, found '->'\n"; stderr != want {
		t.Fatalf("stderr is %q, expected %q", stderr, want)
	}
}

func TestShadowingWarning(t *testing.T) {
	exit, stdout, stderr := runCLI("(fn x -> x) (fn x -> x)", "-color=never")
	if exit != 0 || stdout == "" {
		t.Fatalf("a warning should not fail the analysis, got %d", exit)
	}
	if !strings.HasPrefix(stderr, "Warning: <stdin>:1:14: x is also bound") {
		t.Fatalf("expected a shadowing warning, got %q", stderr)
	}
}

func TestQuery(t *testing.T) {
	type test struct {
		args []string
		want string
	}
	tests := []test{
		{[]string{"-pos=1,22:1,23"}, "C(4) = {5}\n"},
		{[]string{"-pos=19,3"}, "C(5) = {5}\n"},
		{[]string{"-var=f"}, "r(f) = {fn x -> x}\n"},
		{[]string{"-var=x", "-constants=false"}, "r(x) = {}\n"},
	}
	for _, tst := range tests {
		exit, stdout, stderr := runCLI(letf, tst.args...)
		if exit != 0 || stdout != tst.want {
			t.Errorf("%s: got %d %q %q, expected %q", tst.args, exit, stdout, stderr, tst.want)
		}
	}

	exit, stdout, stderr := runCLI(letf, "-pos=1000,")
	if exit != 1 || stdout != "" || stderr == "" {
		t.Error("invalid position expected error exit 1")
	}
	exit, stdout, stderr = runCLI(letf, "-pos=1000,1:1000,1")
	if exit != 3 || stdout != "" || stderr == "" {
		t.Error("position out of range expected error exit 3")
	}
	exit, stdout, stderr = runCLI(letf, "-var=zz")
	if exit != 3 || stdout != "" || stderr == "" {
		t.Error("unknown variable expected error exit 3")
	}
}

func TestFormatJSON(t *testing.T) {
	exit, stdout, _ := runCLI(letf, "-format=json")
	if exit != 0 {
		t.Fatalf("expected clean exit, got %d", exit)
	}
	var doc struct {
		File string
		Env  []struct {
			Var    string
			Values []string
		}
	}
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
	}
	if doc.File != "<stdin>" || len(doc.Env) != 2 {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	yamlFile := filepath.Join(dir, "cfa.yaml")
	if err := os.WriteFile(yamlFile, []byte("options:\n  format: dot\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	exit, stdout, _ := runCLI(idid, "-config="+yamlFile)
	if exit != 0 || !strings.HasPrefix(stdout, "digraph") {
		t.Fatalf("expected DOT output from the configuration, got %d:\n%s", exit, stdout)
	}

	// flags override the configuration file
	exit, stdout, _ = runCLI(idid, "-config="+yamlFile, "-format=text", "-color=never")
	if exit != 0 || stdout != ididText {
		t.Fatalf("expected text output, got %d:\n%s", exit, stdout)
	}

	tomlFile := filepath.Join(dir, "cfa.toml")
	if err := os.WriteFile(tomlFile, []byte("[options]\nformat = \"yaml\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	exit, stdout, _ = runCLI(idid, "-config="+tomlFile)
	if exit != 0 || !strings.HasPrefix(stdout, "file: <stdin>\n") {
		t.Fatalf("expected YAML output from the configuration, got %d:\n%s", exit, stdout)
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.cfa")
	b := filepath.Join(dir, "b.cfa")
	if err := os.WriteFile(a, []byte("fn x -> x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte(idid), 0o600); err != nil {
		t.Fatal(err)
	}

	exit, stdout, _ := runCLI("", "-color=never", a, b)
	if exit != 0 {
		t.Fatalf("expected clean exit, got %d", exit)
	}
	ia := strings.Index(stdout, a+": 2 labels")
	ib := strings.Index(stdout, b+": 5 labels")
	if ia < 0 || ib < ia {
		t.Fatalf("expected results for %s and then %s:\n%s", a, b, stdout)
	}

	missing := filepath.Join(dir, "missing.cfa")
	exit, stdout, stderr := runCLI("", "-color=never", a, missing)
	if exit != 3 || !strings.Contains(stdout, a) || stderr == "" {
		t.Fatalf("a missing file expected exit 3, got %d: %s", exit, stderr)
	}
}

func TestInteractive(t *testing.T) {
	input := strings.Join([]string{
		":help",
		":value x",
		letf,
		":value x",
		":value 4",
		":at 19,3",
		":format json",
		":format xml",
		":bogus",
		":quit",
		":value x",
	}, "\n")
	exit, stdout, _ := runCLI(input, "-i", "-color=never")
	if exit != 0 {
		t.Fatalf("expected clean exit, got %d", exit)
	}
	for _, s := range []string{
		"  :constraints",
		"Error: No program has been analyzed.\n",
		"<input>: 6 labels, 2 variables",
		"C(4) = {5}\n",
		"C(5) = {5}\tf 5\n",
		"Error: There is no output format named \"xml\"",
		"Error: Command name \"bogus\" not recognized.\n",
	} {
		if !strings.Contains(stdout, s) {
			t.Errorf("output does not contain %q:\n%s", s, stdout)
		}
	}
	if n := strings.Count(stdout, "r(x) = {5}\n"); n != 1 {
		t.Errorf("r(x) displayed %d times, expected once (commands after :quit must be ignored):\n%s", n, stdout)
	}
}

func TestJSONSmoke(t *testing.T) {
	jsonArg := `[{"command":"formats"}]`
	exit, stdout, stderr := runCLI("", "-json", jsonArg)
	if exit != 0 || stderr != "" {
		t.Fatalf("-json with argument failed")
	}
	reply := map[string]interface{}{}
	if err := json.Unmarshal([]byte(stdout), &reply); err != nil {
		t.Fatal(err)
	}
	if formats, _ := reply["formats"].([]interface{}); reply["reply"] != "OK" || len(formats) != 4 {
		t.Fatalf("JSON expected OK reply and 4 formats, got %v", reply)
	}
}

func TestJSONSession(t *testing.T) {
	input := `{"command":"open"}
{"command":"analyze","text":"(fn x -> x) 7"}
{"command":"query","variable":"x"}
{"command":"close"}
`
	exit, stdout, _ := runCLI(input, "-json")
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if exit != 0 || len(lines) != 4 {
		t.Fatalf("expected 4 replies, got %d:\n%s", exit, stdout)
	}
	if lines[2] != `{"node":"r(x)","reply":"OK","values":["7"]}` {
		t.Fatalf("unexpected query reply %s", lines[2])
	}
}
