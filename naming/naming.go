// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// Fold is a multiplier of the baseline sequencing coverage.
type Fold int

// String renders the fold the way it appears in file names, e.g. "f10".
func (f Fold) String() string {
	return "f" + strconv.Itoa(int(f))
}

// ParseFolds parses a comma-separated list of folds such as "5,10,15,20".
// The list must be non-empty and every fold must be positive. Order is
// preserved.
func ParseFolds(s string) ([]Fold, error) {
	var folds []Fold
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("fold %q is not an integer", tok))
		}
		folds = append(folds, Fold(v))
	}
	if err := ValidateFolds(folds); err != nil {
		return nil, err
	}
	return folds, nil
}

// ValidateFolds checks that folds is non-empty and contains only positive
// values.
func ValidateFolds(folds []Fold) error {
	if len(folds) == 0 {
		return errors.E(errors.Invalid, "empty fold list")
	}
	for _, f := range folds {
		if f <= 0 {
			return errors.E(errors.Invalid, fmt.Sprintf("fold must be positive, got %d", f))
		}
	}
	return nil
}

// Role identifies which file of a (sample, fold) pair is being named.
type Role int

const (
	// ReadsR1 is the subsampled first-of-pair FASTQ.
	ReadsR1 Role = iota
	// ReadsR2 is the subsampled second-of-pair FASTQ.
	ReadsR2
	// Calls is the compressed VCF produced by the variant caller.
	Calls
	// Filtered is Calls with repeat-overlapping variants removed.
	Filtered
	// Split is a single-sample VCF in the comparison directory.
	Split
)

var roleNames = [...]string{"reads-r1", "reads-r2", "calls", "filtered", "split"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "role(" + strconv.Itoa(int(r)) + ")"
	}
	return roleNames[r]
}

// Layout is the directory scheme of an experiment.
type Layout struct {
	// ReadsDir holds the subsampled FASTQ pairs of all samples.
	ReadsDir string
	// CallsDir holds one subdirectory per sample with its VCFs.
	CallsDir string
	// ComparisonDir holds one subdirectory per split sample identifier.
	ComparisonDir string
}

// DefaultLayout returns the layout rooted at the experiments directory root:
// root/sample_reads, root/<sample>, and root/comparison/data/<identifier>.
func DefaultLayout(root string) Layout {
	return Layout{
		ReadsDir:      filepath.Join(root, "sample_reads"),
		CallsDir:      root,
		ComparisonDir: filepath.Join(root, "comparison", "data"),
	}
}

// Dir returns the directory that files of the given role for sample live in.
func (l Layout) Dir(sample string, role Role) string {
	switch role {
	case ReadsR1, ReadsR2:
		return l.ReadsDir
	case Calls, Filtered:
		return filepath.Join(l.CallsDir, sample)
	case Split:
		return filepath.Join(l.ComparisonDir, sample)
	}
	panic(fmt.Sprintf("naming: unknown role %d", role))
}

// Name returns the base name of the file for (sample, fold, role).
func Name(sample string, fold Fold, role Role) string {
	stem := sample + "_" + fold.String()
	switch role {
	case ReadsR1:
		return stem + "_R1.fastq"
	case ReadsR2:
		return stem + "_R2.fastq"
	case Calls, Split:
		return stem + ".vcf.gz"
	case Filtered:
		return stem + "_filtered.vcf"
	}
	panic(fmt.Sprintf("naming: unknown role %d", role))
}

// Path returns the canonical path of the file for (sample, fold, role).
// For the Split role, sample is the identifier parsed from the VCF header.
func (l Layout) Path(sample string, fold Fold, role Role) string {
	return filepath.Join(l.Dir(sample, role), Name(sample, fold, role))
}

// FilteredGlob returns a glob pattern that matches every filtered VCF of the
// sample, regardless of fold.
func (l Layout) FilteredGlob(sample string) string {
	return filepath.Join(l.Dir(sample, Filtered), sample+"_f*_filtered.vcf")
}

// EnsureDir creates dir and its parents if they do not exist. An existing
// directory, including one created concurrently by another worker, is not an
// error.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0777); err != nil {
		if info, serr := os.Stat(dir); serr == nil && info.IsDir() {
			return nil
		}
		return errors.E(err, "mkdir", dir)
	}
	return nil
}
