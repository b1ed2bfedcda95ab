// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package samplesheet

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	sheet, err := Parse(strings.NewReader(`S1,r1.fq,r2.fq
# a comment
S2, /data/s2_R1.fq.gz, /data/s2_R2.fq.gz
`), ',')
	require.NoError(t, err)
	require.Equal(t, 2, sheet.Len())
	assert.Equal(t, Sample{"S1", "r1.fq", "r2.fq"}, sheet.At(0))
	assert.Equal(t, Sample{"S2", "/data/s2_R1.fq.gz", "/data/s2_R2.fq.gz"}, sheet.At(1))
	assert.Equal(t, []string{"S1", "S2"}, sheet.Names())

	s, ok := sheet.Lookup("S2")
	assert.True(t, ok)
	assert.Equal(t, "/data/s2_R1.fq.gz", s.R1)
	_, ok = sheet.Lookup("S3")
	assert.False(t, ok)
}

func TestParseEmpty(t *testing.T) {
	sheet, err := Parse(strings.NewReader(""), ',')
	require.NoError(t, err)
	assert.Equal(t, 0, sheet.Len())
	assert.Empty(t, sheet.Names())
}

func TestParseDuplicate(t *testing.T) {
	_, err := Parse(strings.NewReader("S1,a,b\nS1,c,d\n"), ',')
	require.Error(t, err)
	assert.True(t, errors.Is(errors.Invalid, err))
	assert.Contains(t, err.Error(), "duplicate sample")
}

func TestRead(t *testing.T) {
	tmp, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()

	csvPath := filepath.Join(tmp, "sample_sheet.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("S1,r1.fq,r2.fq\n"), 0600))
	sheet, err := Read(ctx, csvPath)
	require.NoError(t, err)
	assert.Equal(t, Sample{"S1", "r1.fq", "r2.fq"}, sheet.At(0))

	tsvPath := filepath.Join(tmp, "sample_sheet.tsv")
	require.NoError(t, os.WriteFile(tsvPath, []byte("S1\tr1.fq\tr2.fq\nS2\tx.fq\ty.fq\n"), 0600))
	sheet, err = Read(ctx, tsvPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, sheet.Names())

	_, err = Read(ctx, filepath.Join(tmp, "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(errors.NotExist, err), "%v", err)
}

func TestAbs(t *testing.T) {
	sheet, err := New([]Sample{{"S1", "r1.fq", "/abs/r2.fq"}})
	require.NoError(t, err)
	abs, err := sheet.Abs()
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "r1.fq"), abs.At(0).R1)
	assert.Equal(t, "/abs/r2.fq", abs.At(0).R2)
	// The original is untouched.
	assert.Equal(t, "r1.fq", sheet.At(0).R1)
}
