// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package vcf

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/grailbio/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVCF = `##fileformat=VCFv4.2
##contig=<ID=chr1,length=1000>
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	W6.12_f5	W6.12_f10	W7.3_f5
chr1	10	.	A	G	50	PASS	.	GT	0/1	1/1	0/0
`

var wantNames = []string{"W6.12_f5", "W6.12_f10", "W7.3_f5"}

func TestReadSampleNames(t *testing.T) {
	names, err := ReadSampleNames(strings.NewReader(testVCF))
	require.NoError(t, err)
	assert.Equal(t, wantNames, names)
}

func TestSampleNamesFormats(t *testing.T) {
	tmp, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	plain := filepath.Join(tmp, "plain.vcf")
	require.NoError(t, os.WriteFile(plain, []byte(testVCF), 0600))

	var bgz bytes.Buffer
	bw := bgzf.NewWriter(&bgz, 1)
	_, err := bw.Write([]byte(testVCF))
	require.NoError(t, err)
	require.NoError(t, bw.Close())
	bgzPath := filepath.Join(tmp, "calls.vcf.gz")
	require.NoError(t, os.WriteFile(bgzPath, bgz.Bytes(), 0600))

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err = gw.Write([]byte(testVCF))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	gzPath := filepath.Join(tmp, "plain-gzip.vcf.gz")
	require.NoError(t, os.WriteFile(gzPath, gz.Bytes(), 0600))

	ctx := context.Background()
	for _, path := range []string{plain, bgzPath, gzPath} {
		names, err := SampleNames(ctx, path)
		require.NoError(t, err, path)
		assert.Equal(t, wantNames, names, path)
	}

	_, err = SampleNames(ctx, filepath.Join(tmp, "missing.vcf"))
	assert.Error(t, err)
}
