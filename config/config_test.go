// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, contents string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(filename, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestLoadYaml(t *testing.T) {
	filename := writeConfig(t, "config.yaml", `
options:
  log-level: 4
  worklist: FIFO
  show-constraints: true
  constants: false
`)
	cfg, err := Load(filename)
	if err != nil {
		t.Fatal(err)
	}
	o := cfg.Options
	if o.LogLevel != 4 || o.Worklist != "fifo" || !o.ShowConstraints || o.Constants {
		t.Errorf("unexpected options %+v", o)
	}
	// Unset options keep their defaults.
	if o.Format != "text" || o.Color != "auto" {
		t.Errorf("defaults were not kept: %+v", o)
	}
	if cfg.SourceFile() != filename {
		t.Errorf("SourceFile() = %q, expected %q", cfg.SourceFile(), filename)
	}
	if !cfg.Verbose() {
		t.Errorf("log level 4 should be verbose")
	}
}

func TestLoadToml(t *testing.T) {
	filename := writeConfig(t, "config.toml", `
[options]
worklist = "smallest"
show-stats = true
format = "json"
`)
	cfg, err := Load(filename)
	if err != nil {
		t.Fatal(err)
	}
	o := cfg.Options
	if o.Worklist != "smallest" || !o.ShowStats || o.Format != "json" {
		t.Errorf("unexpected options %+v", o)
	}
	if o.LogLevel != int(WarnLevel) || !o.Constants {
		t.Errorf("defaults were not kept: %+v", o)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct{ contents, want string }{
		{"options:\n  worklist: random\n", `unknown worklist order "random"`},
		{"options:\n  color: sometimes\n", `unknown color mode "sometimes"`},
		{"options:\n  log-level: 9\n", "log-level 9 is outside the range 1..5"},
		{"options: [\n", "not as yaml"},
	}
	for _, tst := range tests {
		_, err := Load(writeConfig(t, "bad.yaml", tst.contents))
		if err == nil || !strings.Contains(err.Error(), tst.want) {
			t.Errorf("%q: error %v, expected %q", tst.contents, err, tst.want)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestLoadGlobal(t *testing.T) {
	defer SetGlobalConfig("")
	SetGlobalConfig("")
	cfg, err := LoadGlobal()
	if err != nil || cfg.Options.Worklist != "lifo" {
		t.Fatalf("LoadGlobal() = %+v, %v", cfg, err)
	}
	SetGlobalConfig(writeConfig(t, "global.yaml", "options:\n  verify: true\n"))
	cfg, err = LoadGlobal()
	if err != nil || !cfg.Options.Verify {
		t.Fatalf("LoadGlobal() = %+v, %v", cfg, err)
	}
}

func TestLogGroupLevels(t *testing.T) {
	cfg := NewDefault()
	cfg.Options.LogLevel = int(InfoLevel)
	l := NewLogGroup(cfg)
	var buf bytes.Buffer
	l.SetAllOutput(&buf)
	l.SetAllFlags(0)

	l.Tracef("trace %d", 5)
	l.Debugf("debug %d", 4)
	l.Infof("info %d", 3)
	l.Warnf("warn %d", 2)
	l.Errorf("error %d", 1)

	want := "[INFO] info 3\n[WARN] warn 2\n[ERROR] error 1\n"
	if buf.String() != want {
		t.Errorf("logged %q, expected %q", buf.String(), want)
	}
	if l.Level() != InfoLevel {
		t.Errorf("Level() = %d", l.Level())
	}
}
