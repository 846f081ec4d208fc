// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"fmt"

	"golang.org/x/term"

	"github.com/godoctor/cfa/analysis/cfa"
)

const (
	faint  = "\033[2m%s\033[0m"
	red    = "\033[1;31m%s\033[0m"
	green  = "\033[1;32m%s\033[0m"
	yellow = "\033[1;33m%s\033[0m"
	purple = "\033[1;34m%s\033[0m"
)

// UseColor decides whether output to the file descriptor fd should be
// colored, given a color mode of "always", "never" or "auto".
func UseColor(mode string, fd int) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return term.IsTerminal(fd)
}

// palette applies colors when enabled.
type palette bool

func (p palette) paint(color string, args ...interface{}) string {
	if p {
		return fmt.Sprintf(color, fmt.Sprint(args...))
	}
	return fmt.Sprint(args...)
}

func (p palette) node(n cfa.Node) string {
	if n.Kind == cfa.LiteralNode {
		return p.paint(green, n)
	}
	return p.paint(purple, n)
}
