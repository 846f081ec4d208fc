// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package text defines Extents and Selections, which identify regions of a
// source file: the span of an expression, or the region a user selected on
// the command line.
package text

import "fmt"

// An Extent consists of two integers: a 0-based byte offset and a
// nonnegative length.  An Extent is used to specify a region of a string
// or file.  For example, given the string "ABCDEFG", the substring CDE could
// be specified by Extent{offset: 2, length: 3}.
type Extent struct {
	// Byte offset of the first character (0-based)
	Offset int `json:"offset" yaml:"offset"`
	// Length in bytes (nonnegative)
	Length int `json:"length" yaml:"length"`
}

// OffsetPastEnd returns the offset of the first byte immediately beyond the
// end of this region.  For example, a region at offset 2 with length 3
// occupies bytes 2 through 4, so this method would return 5.
func (o *Extent) OffsetPastEnd() int {
	return o.Offset + o.Length
}

// Contains returns true iff the region [start, start+length) lies entirely
// within this extent.
func (o *Extent) Contains(start, length int) bool {
	return o.Offset <= start && start+length <= o.OffsetPastEnd()
}

func (o *Extent) String() string {
	return fmt.Sprintf("offset %d, length %d", o.Offset, o.Length)
}
