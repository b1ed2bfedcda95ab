// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	golog "log"
	"math/rand"
	"strconv"
	"time"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/dsqc/annotation"
	"github.com/grailbio/dsqc/encoding/fastq"
	"github.com/grailbio/dsqc/encoding/vcf"
	"github.com/grailbio/dsqc/invoke"
	"github.com/grailbio/dsqc/naming"
	"github.com/grailbio/dsqc/pipeline"
	"github.com/grailbio/dsqc/samplesheet"
	"v.io/x/lib/cmdline"
)

const defaultFolds = "5,10,15,20"

func newCmdSampleReads() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "sample-reads",
		Short:    "Subsample paired-end reads to several coverage folds with seqtk",
		ArgsName: "sample-sheet",
		Long: `
sample-reads reads a sample sheet of "name, R1, R2" rows (comma-separated if
the file ends in .csv, tab-separated otherwise) and, for every sample and fold,
runs

  seqtk sample -s<seed> <R1> <baseline*fold> > <reads-dir>/<name>_f<fold>_R1.fastq

and the same for R2 with the same seed. The baseline is the number of reads
giving 1x coverage, round(genome-size/read-length). Seeds are derived from the
sample name and fold unless -seed or -random-seed is given.`,
	}
	c := addCommonFlags(&cmd.Flags)
	folds := cmd.Flags.String("folds", defaultFolds, "Comma-separated coverage folds")
	genomeSize := cmd.Flags.Int64("genome-size", pipeline.DefaultGenomeSize, "Genome length in bases")
	readLength := cmd.Flags.Int64("read-length", pipeline.DefaultReadLength, "Read length in bases")
	baseline := cmd.Flags.Int64("baseline-reads", 0, "Reads for 1x coverage. If zero, computed from -genome-size and -read-length.")
	seed := cmd.Flags.Int64("seed", 0, "If positive, use this seed for every sample and fold")
	randomSeed := cmd.Flags.Bool("random-seed", false, "Draw a random seed in [1,100] per sample and fold; runs are not reproducible")
	sampler := cmd.Flags.String("sampler", pipeline.SamplerSeqtk, `Subsampler: "seqtk" or "builtin" (this binary's fastq-sample)`)
	seqtk := cmd.Flags.String("seqtk", "seqtk", "seqtk program")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("sample-reads takes one sample sheet argument, but got %v", argv)
		}
		ctx := vcontext.Background()
		foldList, err := naming.ParseFolds(*folds)
		if err != nil {
			return err
		}
		opts := pipeline.SamplingOpts{
			Layout:        c.layout(),
			Folds:         foldList,
			BaselineReads: *baseline,
			Sampler:       *sampler,
			Seqtk:         *seqtk,
		}
		if opts.BaselineReads == 0 {
			if *genomeSize <= 0 || *readLength <= 0 {
				return fmt.Errorf("-genome-size and -read-length must be positive")
			}
			opts.BaselineReads = pipeline.BaselineReads(*genomeSize, *readLength)
		}
		switch {
		case *seed < 0:
			return fmt.Errorf("-seed must be positive, got %d", *seed)
		case *seed > 0 && *randomSeed:
			return fmt.Errorf("-seed and -random-seed are mutually exclusive")
		case *seed > 0:
			opts.Seed = pipeline.FixedSeed(*seed)
		case *randomSeed:
			opts.Seed = pipeline.RandomSeed(rand.New(rand.NewSource(time.Now().UnixNano())))
		}
		if opts.Sampler == pipeline.SamplerBuiltin {
			if opts.Self, err = self(); err != nil {
				return err
			}
		}
		sheet, err := samplesheet.Read(ctx, argv[0])
		if err != nil {
			return err
		}
		if sheet, err = sheet.Abs(); err != nil {
			return err
		}
		src, err := pipeline.NewSamplingSource(sheet, opts)
		if err != nil {
			return err
		}
		log.Printf("sample-reads: %d samples, folds %v, %d reads at 1x", sheet.Len(), foldList, opts.BaselineReads)
		if err := c.checkTools(src.Program()); err != nil {
			return err
		}
		return c.execute(ctx, src, &invoke.ShellRunner{})
	})
	return cmd
}

func newCmdFilterRepeats() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "filter-repeats",
		Short: "Remove variants overlapping repeat annotations with bedtools",
		Long: `
filter-repeats runs, for every selected sample and fold,

  bedtools intersect -a <calls-dir>/<s>/<s>_f<fold>.vcf.gz -b <annotation> -header -v \
    > <calls-dir>/<s>/<s>_f<fold>_filtered.vcf

The annotation is a BED file, optionally gzipped, and is checked before any
command runs.`,
	}
	c := addCommonFlags(&cmd.Flags)
	s := addSampleFlags(&cmd.Flags)
	folds := cmd.Flags.String("folds", defaultFolds, "Comma-separated coverage folds")
	annot := cmd.Flags.String("annotation", "", "BED file of repeats (transposable elements)")
	bedtools := cmd.Flags.String("bedtools", "bedtools", "bedtools program")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("filter-repeats takes no arguments, but got %v", argv)
		}
		ctx := vcontext.Background()
		foldList, err := naming.ParseFolds(*folds)
		if err != nil {
			return err
		}
		samples, err := s.names(ctx)
		if err != nil {
			return err
		}
		src, err := pipeline.NewFilterSource(pipeline.FilterOpts{
			Layout:     c.layout(),
			Samples:    samples,
			Folds:      foldList,
			Annotation: *annot,
			Bedtools:   *bedtools,
		})
		if err != nil {
			return err
		}
		if !c.dryRun {
			summary, err := annotation.SummarizeFile(ctx, *annot)
			if err != nil {
				return err
			}
			log.Printf("filter-repeats: %s: %d intervals on %d chromosomes covering %d bases",
				*annot, summary.Intervals, summary.Chroms, summary.Covered)
		}
		if err := c.checkTools(*bedtools); err != nil {
			return err
		}
		return c.execute(ctx, src, &invoke.ShellRunner{})
	})
	return cmd
}

func newCmdSplitVCF() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "split-vcf",
		Short: "Split filtered multi-sample VCFs into one VCF per sample and fold",
		Long: `
split-vcf lists the sample columns of each <calls-dir>/<s>/<s>_f*_filtered.vcf,
extracts the sample identifier and fold from each column name, and runs

  bcftools view -c<min-ac> -Oz -s <column> -o <comparison-dir>/<id>/<id>_f<fold>.vcf.gz <vcf>

Columns whose name lacks an identifier or fold are logged and skipped.`,
	}
	c := addCommonFlags(&cmd.Flags)
	s := addSampleFlags(&cmd.Flags)
	bcftools := cmd.Flags.String("bcftools", "bcftools", "bcftools program")
	list := cmd.Flags.String("list-samples", pipeline.ListBcftools, `How to list VCF sample columns: "bcftools" (query -l) or "native"`)
	minAC := cmd.Flags.Int("min-ac", 1, "Minimum allele count passed to bcftools view -c")
	prefix := cmd.Flags.String("id-prefix", naming.DefaultIdentifierPrefix, "Leading characters of sample identifiers in column names")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("split-vcf takes no arguments, but got %v", argv)
		}
		if *minAC < 1 {
			return fmt.Errorf("-min-ac must be positive, got %d", *minAC)
		}
		ctx := vcontext.Background()
		samples, err := s.names(ctx)
		if err != nil {
			return err
		}
		sopts := pipeline.SplitOpts{
			Layout:      c.layout(),
			Samples:     samples,
			Bcftools:    *bcftools,
			ListSamples: *list,
			MinAC:       *minAC,
			Parser:      naming.NewIdentifierParser(*prefix),
		}
		if sopts.ListSamples == pipeline.ListNative {
			if sopts.Self, err = self(); err != nil {
				return err
			}
		}
		if err := c.checkTools(*bcftools); err != nil {
			return err
		}
		runner := &invoke.ShellRunner{}
		src, err := pipeline.PlanSplit(ctx, runner, sopts, c.opts())
		if err != nil {
			if src != nil {
				if rerr := c.writeReport(ctx, src.PlanRecords()); rerr != nil {
					log.Error.Printf("write report: %v", rerr)
				}
			}
			return err
		}
		return c.execute(ctx, src, runner)
	})
	return cmd
}

func newCmdFastqSample() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "fastq-sample",
		Short:    "Subsample a FASTQ file; a stand-in for 'seqtk sample'",
		ArgsName: "in.fastq[.gz] count",
		Long: `
fastq-sample writes a uniform random subset of count reads from the input to
stdout, in input order. Runs with equal seeds on the two mates of a pair keep
the same read pairs.`,
	}
	seed := cmd.Flags.Int64("s", 11, "Random seed")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("fastq-sample takes a path and a count, but got %v", argv)
		}
		n, err := strconv.ParseInt(argv[1], 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("fastq-sample: count must be a positive integer, got %q", argv[1])
		}
		kept, err := fastq.SampleFile(vcontext.Background(), argv[0], env.Stdout, n, *seed)
		if err != nil {
			return err
		}
		log.Debug.Printf("fastq-sample: kept %d reads of %s", kept, argv[0])
		return nil
	})
	return cmd
}

func newCmdVCFSamples() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "vcf-samples",
		Short:    "Print the sample names of a VCF header; a stand-in for 'bcftools query -l'",
		ArgsName: "path",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("vcf-samples takes one pathname argument, but got %v", argv)
		}
		names, err := vcf.SampleNames(vcontext.Background(), argv[0])
		if err != nil {
			return err
		}
		for _, name := range names {
			if _, err := fmt.Fprintln(env.Stdout, name); err != nil {
				return err
			}
		}
		return nil
	})
	return cmd
}

func newRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-dsqc",
		Short:    "Down-sampling QC of variant calling",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdSampleReads(),
			newCmdFilterRepeats(),
			newCmdSplitVCF(),
			newCmdFastqSample(),
			newCmdVCFSamples(),
		},
	}
}

// Run is the entry point of bio-dsqc.
func Run() {
	golog.SetFlags(golog.Ldate | golog.Ltime | golog.Lmicroseconds | golog.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newRoot())
}
