// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"go/token"
	"testing"

	"github.com/godoctor/cfa/analysis/parser"
	"github.com/godoctor/cfa/text"
)

func TestLogEntry(t *testing.T) {
	e := Entry{Severity: Info, Message: "Message"}
	assertEquals("Message", e.String(), t)
	e = Entry{Severity: Warning, Message: "Message"}
	assertEquals("Warning: Message", e.String(), t)
	e = Entry{Severity: Error, Message: "Message"}
	assertEquals("Error: Message", e.String(), t)

	e = Entry{Severity: Warning, Message: "Msg", Filename: "fn",
		Position: &text.Extent{Offset: 1, Length: 2}}
	assertEquals("Warning: fn, offset 1, length 2: Msg", e.String(), t)

	e.Line, e.Column = 3, 4
	assertEquals("Warning: fn:3:4: Msg", e.String(), t)
}

func TestLog(t *testing.T) {
	log := NewLog()
	log.Warnf("A %s", "warning")
	log.Errorf("An error")
	expected := "Warning: A warning\nError: An error\n"
	assertEquals(expected, log.String(), t)
	if !log.ContainsErrors() || !log.ContainsWarnings() {
		t.Fatal("log should contain errors and warnings")
	}
	log.Clear()
	log.Infof("Information")
	assertEquals("Information\n", log.String(), t)
	if log.ContainsErrors() || log.ContainsWarnings() {
		t.Fatal("log should contain neither errors nor warnings")
	}
}

func TestLogAssociate(t *testing.T) {
	log := NewLog()
	log.Associate("ignored.cfa") // no entries yet
	log.Errorf("bad")
	log.AssociatePosition(token.Position{Filename: "prog.cfa", Offset: 7, Line: 2, Column: 3})
	assertEquals("Error: prog.cfa:2:3: bad\n", log.String(), t)

	prog, err := parser.Parse("prog.cfa", []byte("let f = fn x -> x in f 5"))
	if err != nil {
		t.Fatal(err)
	}
	log.Clear()
	log.Warnf("here")
	log.AssociateLabel(prog, 5)
	entry := log.Entries[0]
	if entry.Position == nil || entry.Position.Offset != 19 || entry.Position.Length != 3 {
		t.Fatalf("unexpected position %v", entry.Position)
	}
	assertEquals("Warning: prog.cfa:1:20: here", entry.String(), t)
}

func assertEquals(expected string, actual string, t *testing.T) {
	t.Helper()
	if expected != actual {
		t.Fatalf("Expected: %q Actual: %q", expected, actual)
	}
}
