// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the Log struct and associated methods.  Every analysis
// returns a Log, which contains informational messages, warnings, and errors
// generated while the program was parsed, analyzed, and verified.  If the log
// contains errors, the analysis results are incomplete or absent.

package engine

import (
	"bytes"
	"fmt"
	"go/token"
	"os"
	"path/filepath"

	"github.com/godoctor/cfa/analysis/parser"
	"github.com/godoctor/cfa/analysis/term"
	"github.com/godoctor/cfa/text"
)

// A Severity indicates whether a log entry describes an informational message,
// a warning, or an error.
type Severity int

const (
	Info    Severity = iota // informational message
	Warning                 // warning, e.g., an imprecise result
	Error                   // the results are invalid or absent
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// A Entry constitutes a single entry in a Log.  Every Entry has a
// severity and a message.  If the filename is a nonempty string, the Entry
// is associated with a particular position in the given file.
type Entry struct {
	Severity Severity     `json:"severity"`
	Message  string       `json:"message"`
	Filename string       `json:"filename"`
	Position *text.Extent `json:"position"`
	Line     int          `json:"line,omitempty"`
	Column   int          `json:"column,omitempty"`
}

// A Log is used to store informational messages, warnings, and errors that
// will be presented to the user along with the results of an analysis.
type Log struct {
	Entries []*Entry `json:"entries"`
}

func (entry *Entry) String() string {
	var buffer bytes.Buffer
	switch entry.Severity {
	case Info:
		// No prefix
	case Warning:
		buffer.WriteString("Warning: ")
	case Error:
		buffer.WriteString("Error: ")
	}
	if entry.Filename != "" {
		buffer.WriteString(entry.Filename)
		if entry.Line > 0 {
			fmt.Fprintf(&buffer, ":%d:%d", entry.Line, entry.Column)
		} else if entry.Position != nil {
			buffer.WriteString(", ")
			buffer.WriteString(entry.Position.String())
		}
		buffer.WriteString(": ")
	}
	buffer.WriteString(entry.Message)
	return buffer.String()
}

// NewLog returns a new Log with no entries.
func NewLog() *Log {
	log := new(Log)
	log.Entries = []*Entry{}
	return log
}

// Clear removes all Entries from the error log.
func (log *Log) Clear() {
	log.Entries = []*Entry{}
}

// Infof adds an informational message (an entry with Info severity) to a log.
func (log *Log) Infof(format string, v ...interface{}) {
	log.log(Info, format, v...)
}

// Warnf adds an entry with Warning severity to a log.
func (log *Log) Warnf(format string, v ...interface{}) {
	log.log(Warning, format, v...)
}

// Errorf adds an entry with Error severity to a log.
func (log *Log) Errorf(format string, v ...interface{}) {
	log.log(Error, format, v...)
}

// Error adds an entry with Error severity to a log.
func (log *Log) Error(entry interface{}) {
	log.log(Error, "%v", entry)
}

func (log *Log) log(severity Severity, format string, v ...interface{}) {
	log.Entries = append(log.Entries, &Entry{
		Severity: severity,
		Message:  fmt.Sprintf(format, v...),
		Filename: "",
		Position: nil})
}

// Associate associates the most recently-logged entry with the given filename.
func (log *Log) Associate(filename string) {
	if len(log.Entries) == 0 {
		return
	}
	entry := log.Entries[len(log.Entries)-1]
	entry.Filename = displayablePath(filename)
}

// AssociatePosition associates the most recently-logged entry with a
// position, such as the position of a syntax error.
func (log *Log) AssociatePosition(pos token.Position) {
	if len(log.Entries) == 0 {
		return
	}
	entry := log.Entries[len(log.Entries)-1]
	entry.Filename = displayablePath(pos.Filename)
	entry.Position = &text.Extent{Offset: pos.Offset, Length: 0}
	entry.Line, entry.Column = pos.Line, pos.Column
}

// AssociateLabel associates the most recently-logged entry with the source
// region of the expression labeled l.
func (log *Log) AssociateLabel(prog *parser.Program, l term.Label) {
	span, ok := prog.Span(l)
	if !ok || len(log.Entries) == 0 {
		return
	}
	log.AssociatePosition(prog.Position(l))
	log.Entries[len(log.Entries)-1].Position = &span
}

// displayablePath returns a path for the given file relative to the current
// directory, if possible, and the original filename otherwise.  It is intended
// for use in error messages.
func displayablePath(file string) string {
	if file == "" || !filepath.IsAbs(file) {
		return file
	}

	cwd, err := os.Getwd()
	if err != nil {
		return file
	}

	relativePath, err := filepath.Rel(cwd, file)
	if err != nil || relativePath == "" {
		return file
	}

	return relativePath
}

func (log *Log) String() string {
	var buffer bytes.Buffer
	for _, entry := range log.Entries {
		buffer.WriteString(entry.String())
		buffer.WriteString("\n")
	}
	return buffer.String()
}

// ContainsErrors returns true if the log contains at least one error.
func (log *Log) ContainsErrors() bool {
	return log.contains(func(entry *Entry) bool {
		return entry.Severity >= Error
	})
}

// ContainsWarnings returns true if the log contains at least one warning or
// error.
func (log *Log) ContainsWarnings() bool {
	return log.contains(func(entry *Entry) bool {
		return entry.Severity >= Warning
	})
}

func (log *Log) contains(predicate func(*Entry) bool) bool {
	for _, entry := range log.Entries {
		if predicate(entry) {
			return true
		}
	}
	return false
}
