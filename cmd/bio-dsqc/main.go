// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// bio-dsqc runs the down-sampling QC workflow for variant calling: subsample
// reads to several coverage folds, drop variants in repeats, and split the
// multi-sample VCFs into one VCF per sample and fold.
package main

import "github.com/grailbio/dsqc/cmd/bio-dsqc/cmd"

func main() {
	cmd.Run()
}
