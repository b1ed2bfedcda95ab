// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package naming

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFolds(t *testing.T) {
	folds, err := ParseFolds("5,10, 15,20")
	require.NoError(t, err)
	assert.Equal(t, []Fold{5, 10, 15, 20}, folds)

	for _, bad := range []string{"", ",", "5,x", "5,0", "-3"} {
		_, err := ParseFolds(bad)
		assert.Error(t, err, "input %q", bad)
		assert.True(t, errors.Is(errors.Invalid, err), "input %q: %v", bad, err)
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{ReadsR1, "S1_f5_R1.fastq"},
		{ReadsR2, "S1_f5_R2.fastq"},
		{Calls, "S1_f5.vcf.gz"},
		{Filtered, "S1_f5_filtered.vcf"},
		{Split, "S1_f5.vcf.gz"},
	}
	for _, test := range tests {
		expect.EQ(t, Name("S1", 5, test.role), test.want)
	}
}

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout("exp")
	expect.EQ(t, l.Path("S1", 5, ReadsR1), filepath.Join("exp", "sample_reads", "S1_f5_R1.fastq"))
	expect.EQ(t, l.Path("S1", 5, Calls), filepath.Join("exp", "S1", "S1_f5.vcf.gz"))
	expect.EQ(t, l.Path("S1", 5, Filtered), filepath.Join("exp", "S1", "S1_f5_filtered.vcf"))
	expect.EQ(t, l.Path("W6.12", 10, Split), filepath.Join("exp", "comparison", "data", "W6.12", "W6.12_f10.vcf.gz"))
	expect.EQ(t, l.FilteredGlob("W6"), filepath.Join("exp", "W6", "W6_f*_filtered.vcf"))
}

// Every (sample, fold, role) maps to its own path, and resolving twice gives
// the same answer.
func TestPathUniqueAndStable(t *testing.T) {
	l := DefaultLayout("/data/exp")
	samples := []string{"S1", "S2", "S10", "W6"}
	folds := []Fold{5, 10, 15, 20}
	roles := []Role{ReadsR1, ReadsR2, Calls, Filtered, Split}

	seen := map[string]bool{}
	for _, s := range samples {
		for _, f := range folds {
			for _, r := range roles {
				p := l.Path(s, f, r)
				assert.Equal(t, p, l.Path(s, f, r))
				assert.False(t, seen[p], "duplicate path %s", p)
				seen[p] = true
			}
		}
	}
	assert.Len(t, seen, len(samples)*len(folds)*len(roles))
}

func TestEnsureDir(t *testing.T) {
	tmp, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	dir := filepath.Join(tmp, "comparison", "data", "W6.12")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Concurrent creation of the same directory.
	dir = filepath.Join(tmp, "race", "a", "b")
	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = EnsureDir(dir)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	// A regular file in the way is an error.
	path := filepath.Join(tmp, "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	assert.Error(t, EnsureDir(path))
}
