// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

// reportHeader names the columns of the run report.
const reportHeader = "stage\tsample\tfold\tprogram\toutput\texit_code\tduration_ms\tstatus"

// WriteRecords writes records as TSV with a header row.
func WriteRecords(w io.Writer, records []Record) error {
	tw := tsv.NewWriter(w)
	tw.WriteString(reportHeader)
	if err := tw.EndLine(); err != nil {
		return err
	}
	for _, r := range records {
		tw.WriteString(r.Stage)
		tw.WriteString(r.Sample)
		tw.WriteInt64(int64(r.Fold))
		tw.WriteString(r.Program)
		tw.WriteString(r.Output)
		tw.WriteInt64(int64(r.ExitCode))
		tw.WriteInt64(r.DurationMS)
		tw.WriteString(r.Status)
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteReport writes records to the TSV file at path, replacing it.
func WriteReport(ctx context.Context, path string, records []Record) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create report", path)
	}
	defer func() {
		if cerr := out.Close(ctx); cerr != nil && err == nil {
			err = errors.E(cerr, "close report", path)
		}
	}()
	return WriteRecords(out.Writer(ctx), records)
}
