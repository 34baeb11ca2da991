// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

/*
bio-mismatch reports, for each gene of a GTF annotation, per-base
sequencing-error statistics of the reads in a BAM file: bases covered,
high- and low-quality mismatches, the composition of matching bases and a
substitution matrix.

Usage:
  bio-mismatch [OPTIONS] bampath fapath

The BAM file must be coordinate-sorted and indexed, and its reads must carry
NH, NM and MD tags.  Genes are read from -gtf (standard input by default);
the exon records of a gene must be contiguous.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/genestats/mismatch"
)

var (
	gtfPath      = flag.String("gtf", "-", "Input GTF path; '-' reads standard input")
	feature      = flag.String("feature", mismatch.DefaultOpts.Feature, "GTF feature type whose records make up a gene; empty uses every record")
	bedPath      = flag.String("bed", mismatch.DefaultOpts.BedPath, "Only process genes overlapping the intervals of this BED file; incompatible with -region")
	region       = flag.String("region", mismatch.DefaultOpts.Region, "Only process genes overlapping this region. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>; incompatible with -bed")
	bamIndexPath = flag.String("index", mismatch.DefaultOpts.BamIndexPath, "Input BAM index path. Defaults to bampath + .bai")
	writeIndexes = flag.Bool("write-indexes", mismatch.DefaultOpts.WriteIndexes, "Build the BAM and FASTA indexes if they are missing")
	format       = flag.String("format", mismatch.DefaultOpts.Format, "Output format; 'tsv', 'tsv-bgz', and 'tsv-gz' supported")
	minBaseQual  = flag.Int("min-base-qual", mismatch.DefaultOpts.MinBaseQual, "Mismatches with base quality below this level are counted as low_qual")
	outPath      = flag.String("out", "-", "Output path; '-' writes standard output")
	parallelism  = flag.Int("parallelism", mismatch.DefaultOpts.Parallelism, "Maximum number of genes processed simultaneously; 0 = runtime.NumCPU()")
)

func bioMismatchUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bampath fapath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioMismatchUsage
	shutdown := grail.Init()
	defer shutdown()

	positionalArgs := flag.Args()
	if len(positionalArgs) != 2 {
		log.Fatalf("Expected positional arguments bampath and fapath; please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
	}
	ctx := vcontext.Background()
	opts := mismatch.Opts{
		BamIndexPath: *bamIndexPath,
		BedPath:      *bedPath,
		Region:       *region,
		Feature:      *feature,
		Format:       *format,
		MinBaseQual:  *minBaseQual,
		Parallelism:  *parallelism,
		WriteIndexes: *writeIndexes,
	}
	if err := mismatch.Count(ctx, positionalArgs[0], positionalArgs[1], *gtfPath, *outPath, &opts); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("exiting")
}
