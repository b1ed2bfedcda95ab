// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fastq

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fq = `@NB500956:89:HW2FHBGX2:1:11101:25648:1069 1:N:0:ATCACG
ATACAGGCCTGANCCACTGTGCCCAGNCTANNTNATTANTGAANANAGAATNGTTNTAAATANANNNNNTNTNNNC
+
AAAAAEEEEEEE#EEAEEEEEEEEEE#EEE##E#EEEE#EEEE#E#EEEEE#EEE#EEEAEE#A#####E#E###E
@NB500956:89:HW2FHBGX2:1:11101:13871:1070 1:N:0:ATCACG
CTCAACTCTGAGNCAGACAGAAATACNTTTNNTNTGAGTTACANCNTTCTTTTTCNACATATNCNNNNNTNGNNNT
+
AAAAAEEEEEEE#EEEEEEEEEEEEE#EEE##E#EEEEEEEEE#E#EEEEEEEEE#EAEEEE#A#####E#A###E
@NB500956:89:HW2FHBGX2:1:11101:9975:1070 1:N:0:ATCACG
GAGTAACCACGTNCCCATGGCCACAGNTGANNGNGTCACACCTNANCCGGGAGAGNCAATCCNGNNNNNGNANNNC
+
AAAAAEEEEEEE#EEEEEEEEEAEEE#EEA##E#EEEEEEEE<#E#<EEEEEEEE#<EEEA/#/#####A#E###A
`

func scanAll(s string) ([]Read, error) {
	sc := NewScanner(strings.NewReader(s))
	var (
		reads []Read
		r     Read
	)
	for sc.Scan(&r) {
		reads = append(reads, r)
	}
	return reads, sc.Err()
}

func TestScanner(t *testing.T) {
	reads, err := scanAll(fq)
	require.NoError(t, err)
	require.Len(t, reads, 3)
	expect.EQ(t, reads[0], Read{
		ID:   "@NB500956:89:HW2FHBGX2:1:11101:25648:1069 1:N:0:ATCACG",
		Seq:  "ATACAGGCCTGANCCACTGTGCCCAGNCTANNTNATTANTGAANANAGAATNGTTNTAAATANANNNNNTNTNNNC",
		Unk:  "+",
		Qual: "AAAAAEEEEEEE#EEAEEEEEEEEEE#EEE##E#EEEE#EEEE#E#EEEEE#EEE#EEEAEE#A#####E#E###E",
	})
}

func TestScannerErrors(t *testing.T) {
	_, err := scanAll("12312#\nA\n+\nI\n")
	assert.Equal(t, ErrInvalid, errors.Cause(err))
	_, err = scanAll("@r\nA\n-\nI\n")
	assert.Equal(t, ErrInvalid, errors.Cause(err))
	_, err = scanAll("@1234\n123")
	assert.Equal(t, ErrShort, errors.Cause(err))
	reads, err := scanAll("")
	assert.NoError(t, err)
	assert.Empty(t, reads)
}

func TestWriterRoundTrip(t *testing.T) {
	reads, err := scanAll(fq)
	require.NoError(t, err)
	var b bytes.Buffer
	w := NewWriter(&b)
	for i := range reads {
		require.NoError(t, w.Write(&reads[i]))
	}
	require.NoError(t, w.Flush())
	expect.EQ(t, b.String(), fq)
}

// makeFASTQ generates n reads whose IDs encode the mate and index.
func makeFASTQ(mate string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "@read%d/%s\nACGT\n+\nIIII\n", i, mate)
	}
	return b.String()
}

func ids(t *testing.T, s string) []string {
	reads, err := scanAll(s)
	require.NoError(t, err)
	var out []string
	for _, r := range reads {
		out = append(out, strings.TrimSuffix(strings.TrimSuffix(r.ID, "/1"), "/2"))
	}
	return out
}

func TestSamplePairsStayInSync(t *testing.T) {
	r1, r2 := makeFASTQ("1", 1000), makeFASTQ("2", 1000)
	for _, seed := range []int64{1, 7, 100} {
		var o1, o2 bytes.Buffer
		n1, err := Sample(strings.NewReader(r1), &o1, 50, seed)
		require.NoError(t, err)
		n2, err := Sample(strings.NewReader(r2), &o2, 50, seed)
		require.NoError(t, err)
		expect.EQ(t, n1, int64(50))
		expect.EQ(t, n2, int64(50))
		got1, got2 := ids(t, o1.String()), ids(t, o2.String())
		expect.EQ(t, got1, got2)

		// Same seed, same answer.
		var again bytes.Buffer
		_, err = Sample(strings.NewReader(r1), &again, 50, seed)
		require.NoError(t, err)
		expect.EQ(t, again.String(), o1.String())
	}
}

func TestSampleSmallInput(t *testing.T) {
	var out bytes.Buffer
	n, err := Sample(strings.NewReader(fq), &out, 10, 3)
	require.NoError(t, err)
	expect.EQ(t, n, int64(3))
	expect.EQ(t, out.String(), fq)

	_, err = Sample(strings.NewReader(fq), &out, 0, 3)
	assert.Error(t, err)
}

func TestSampleFileGzip(t *testing.T) {
	tmp, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(makeFASTQ("1", 20)))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	path := filepath.Join(tmp, "r1.fastq.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0600))

	var out bytes.Buffer
	n, err := SampleFile(context.Background(), path, &out, 5, 42)
	require.NoError(t, err)
	expect.EQ(t, n, int64(5))
	expect.EQ(t, len(ids(t, out.String())), 5)
}
