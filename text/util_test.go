// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package text

import (
	"fmt"
	"go/token"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExtent(t *testing.T) {
	ol := Extent{Offset: 5, Length: 20}
	assertEquals("offset 5, length 20", ol.String(), t)
	assertTrue(ol.Contains(5, 20), t)
	assertTrue(ol.Contains(10, 0), t)
	assertFalse(ol.Contains(4, 2), t)
	assertFalse(ol.Contains(24, 2), t)
}

func TestSelectionConvert(t *testing.T) {
	src := "let f = fn x -> x\nin f 5\n"
	fset := token.NewFileSet()
	file := fset.AddFile("prog.cfa", -1, len(src))
	file.SetLinesForContent([]byte(src))

	sel, err := NewSelection("prog.cfa", "2,4:2,7")
	if err != nil {
		t.Fatal(err)
	}
	start, end, err := sel.Convert(fset)
	if err != nil {
		t.Fatal(err)
	}
	assertEquals("21", fmt.Sprint(file.Offset(start)), t)
	assertEquals("24", fmt.Sprint(file.Offset(end)), t)

	sel, err = NewSelection("prog.cfa", "8,9")
	if err != nil {
		t.Fatal(err)
	}
	start, end, err = sel.Convert(fset)
	if err != nil {
		t.Fatal(err)
	}
	assertEquals("8", fmt.Sprint(file.Offset(start)), t)
	assertEquals("17", fmt.Sprint(file.Offset(end)), t)

	for _, bad := range []string{"3,1:3,1", "1,1:9,1"} {
		sel, _ = NewSelection("prog.cfa", bad)
		if _, _, err := sel.Convert(fset); err == nil {
			t.Fatalf("%s: expected an invalid position error", bad)
		}
	}

	sel, _ = NewSelection("other.cfa", "1,1")
	if _, _, err := sel.Convert(fset); err == nil {
		t.Fatal("expected an error for a file that was not loaded")
	}

	if _, err := NewSelection("prog.cfa", "x,y"); err == nil {
		t.Fatal("expected an error for a malformed -pos")
	}
}

// -=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-=-

// These are utility methods used by the tests in this package.

func fatalf(t *testing.T, format string, args ...interface{}) {
	_, file, line, ok := runtime.Caller(2)
	if ok {
		var msg string
		if len(args) == 0 {
			msg = format
		} else {
			msg = fmt.Sprintf(format, args...)
		}
		t.Fatalf("from %s:%d: %s", filepath.Base(file), line, msg)
	}
}

// assertEquals is a utility method for unit tests that marks a function as
// having failed if expected != actual
func assertEquals(expected string, actual string, t *testing.T) {
	if expected != actual {
		fatalf(t, "Expected: %s Actual: %s", expected, actual)
	}
}

// assertTrue is a utility method for unit tests that marks a function as
// having succeeded iff the supplied value is true
func assertTrue(value bool, t *testing.T) {
	if value != true {
		fatalf(t, "assertTrue failed")
	}
}

// assertFalse is a utility method for unit tests that marks a function as
// having succeeded iff the supplied value is true
func assertFalse(value bool, t *testing.T) {
	if value != false {
		fatalf(t, "assertFalse failed")
	}
}
