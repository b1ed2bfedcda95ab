// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
Package pipeline drives the three stages of the down-sampling QC workflow:

  sample-reads    seqtk sample, once per (sample, fold) and read mate
  filter-repeats  bedtools intersect -v against a repeat annotation
  split-vcf       bcftools view, once per sample column of each filtered VCF

Each stage is a Source: a finite, restartable list of Jobs, where a Job is the
set of invocations for one (sample, fold) pair. Execute runs a Source with an
invoke.Runner, sequentially or on a bounded worker pool, and applies the
failure policy in Opts.
*/
package pipeline
