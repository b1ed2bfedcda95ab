// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"math"
	"math/rand"
	"strconv"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/dsqc/naming"
)

const (
	// MinSeed and MaxSeed bound the subsampling seeds.
	MinSeed = 1
	MaxSeed = 100

	// DefaultGenomeSize is the genome length, in bases, assumed by
	// BaselineReads.
	DefaultGenomeSize = 500000000
	// DefaultReadLength is the sequencing read length assumed by
	// BaselineReads.
	DefaultReadLength = 150
)

// BaselineReads returns the number of reads that give 1x coverage of a
// genome of genomeSize bases with reads of readLength bases, rounded to the
// nearest integer. The defaults give 3333333.
func BaselineReads(genomeSize, readLength int64) int64 {
	return int64(math.Round(float64(genomeSize) / float64(readLength)))
}

// SeedFunc chooses the subsampling seed of a (sample, fold) pair. Both mates
// of a pair use the same seed.
type SeedFunc func(sample string, fold naming.Fold) int64

// DeriveSeed returns a seed in [MinSeed, MaxSeed] that depends only on
// sample and fold, so reruns reproduce the same subsample.
func DeriveSeed(sample string, fold naming.Fold) int64 {
	h := seahash.Sum64([]byte(sample + "\x00" + strconv.Itoa(int(fold))))
	return MinSeed + int64(h%(MaxSeed-MinSeed+1))
}

// FixedSeed returns a SeedFunc that always yields seed.
func FixedSeed(seed int64) SeedFunc {
	return func(string, naming.Fold) int64 { return seed }
}

// RandomSeed returns a SeedFunc that draws uniformly from [MinSeed, MaxSeed]
// using r.
func RandomSeed(r *rand.Rand) SeedFunc {
	return func(string, naming.Fold) int64 {
		return MinSeed + r.Int63n(MaxSeed-MinSeed+1)
	}
}
