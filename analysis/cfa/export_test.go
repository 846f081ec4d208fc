// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfa

import "github.com/bits-and-blooms/bitset"

// snapshot returns a copy of the current value of every node.
func (s *Solver) snapshot() []*bitset.BitSet {
	result := make([]*bitset.BitSet, len(s.values))
	for i, v := range s.values {
		result[i] = v.Clone()
	}
	return result
}
