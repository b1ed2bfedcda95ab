// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pipeline

import "github.com/grailbio/dsqc/naming"

// Pair is one (sample, fold) combination.
type Pair struct {
	Sample string
	Fold   naming.Fold
}

// Pairs is the cross product of samples and folds in sample-major order.
// It holds no iteration state, so it may be walked any number of times.
type Pairs struct {
	samples []string
	folds   []naming.Fold
}

// NewPairs returns the pairs of samples × folds. Either list may be empty.
func NewPairs(samples []string, folds []naming.Fold) Pairs {
	return Pairs{samples: samples, folds: folds}
}

// Len returns the number of pairs.
func (p Pairs) Len() int { return len(p.samples) * len(p.folds) }

// At returns the i'th pair, 0 <= i < Len().
func (p Pairs) At(i int) Pair {
	nf := len(p.folds)
	return Pair{Sample: p.samples[i/nf], Fold: p.folds[i%nf]}
}
