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

package mismatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/genestats/encoding/bamprovider"
	"github.com/grailbio/genestats/encoding/fasta"
	"github.com/grailbio/genestats/encoding/gtf"
	"github.com/grailbio/genestats/interval"
)

// Opts holds the options of Count.
type Opts struct {
	// Commandline options.
	BamIndexPath string
	BedPath      string
	Region       string
	Feature      string
	Format       string
	MinBaseQual  int
	Parallelism  int
	WriteIndexes bool
}

// DefaultOpts are the default options of Count.
var DefaultOpts = Opts{
	Feature:     gtf.DefaultOpts.Feature,
	Format:      FormatTSV,
	MinBaseQual: 30,
	Parallelism: 0,
}

// Count computes per-gene sequencing-error statistics for the genes of the
// GTF file at gtfpath, from the reads of the BAM file at bampath and the
// reference at fapath, and writes them to outPath ("" or "-" for stdout).
func Count(ctx context.Context, bampath, fapath, gtfpath, outPath string, opts *Opts) (err error) {
	if opts.Format == "" {
		opts.Format = FormatTSV
	}
	if !validFormat(opts.Format) {
		return fmt.Errorf("Count: unrecognized format %q", opts.Format)
	}
	if opts.MinBaseQual < 0 {
		return fmt.Errorf("Count: invalid min-base-qual %d", opts.MinBaseQual)
	}
	if opts.Region != "" && opts.BedPath != "" {
		return fmt.Errorf("Count: -region and -bed cannot both be specified")
	}

	genes, err := gtf.Read(ctx, gtfpath, gtf.Opts{Feature: opts.Feature})
	if err != nil {
		return err
	}
	if genes, err = restrictGenes(ctx, genes, opts); err != nil {
		return err
	}
	if opts.WriteIndexes {
		if err = writeMissingIndexes(ctx, bampath, fapath, opts.BamIndexPath); err != nil {
			return err
		}
	}

	provider := bamprovider.NewProvider(bampath, bamprovider.ProviderOpts{Index: opts.BamIndexPath})
	defer func() {
		if e := provider.Close(); e != nil && err == nil {
			err = e
		}
	}()
	ref, err := fasta.Open(ctx, fapath)
	if err != nil {
		return err
	}
	defer func() {
		if e := ref.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	if err = checkGeneSpans(genes, ref); err != nil {
		return err
	}

	out, err := createOutput(ctx, outPath, opts.Format, opts.Parallelism)
	if err != nil {
		return err
	}
	defer func() {
		if e := out.Close(); e != nil && err == nil {
			err = e
		}
	}()
	w, err := NewRowWriter(out.w)
	if err != nil {
		return err
	}

	log.Printf("Count: processing %d genes", len(genes))
	d := Driver{
		Provider:    provider,
		Reference:   ref,
		MinBaseQual: opts.MinBaseQual,
		Parallelism: opts.Parallelism,
	}
	stats, err := d.Run(ctx, genes, w)
	if e := w.Flush(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return err
	}
	var excluded []string
	for e := Eligible + 1; e < NExclusion; e++ {
		excluded = append(excluded, fmt.Sprintf("%v=%d", e, stats.ByFilter[e]))
	}
	log.Printf("Count: %d genes, %d reads (%d eligible; excluded %s)",
		stats.Genes, stats.Reads, stats.ByFilter[Eligible], strings.Join(excluded, " "))
	return nil
}

// restrictGenes drops the genes whose span does not overlap opts.Region or
// opts.BedPath.  Genes are returned unchanged when neither is set.
func restrictGenes(ctx context.Context, genes []gtf.Gene, opts *Opts) ([]gtf.Gene, error) {
	var (
		regions *interval.RegionSet
		err     error
	)
	switch {
	case opts.Region != "":
		var iv interval.Interval
		if iv, err = interval.ParseRegionString(opts.Region); err != nil {
			return nil, err
		}
		regions = interval.NewRegionSet([]interval.Interval{iv})
	case opts.BedPath != "":
		if regions, err = interval.NewRegionSetFromPath(ctx, opts.BedPath); err != nil {
			return nil, err
		}
	default:
		return genes, nil
	}
	kept := genes[:0:0]
	for _, g := range genes {
		span, err := g.Span()
		if err != nil {
			return nil, err
		}
		if regions.Overlaps(span) {
			kept = append(kept, g)
		}
	}
	log.Printf("Count: %d of %d genes overlap %d requested regions", len(kept), len(genes), regions.Len())
	return kept, nil
}

// checkGeneSpans verifies that every gene lies within a sequence of ref.
func checkGeneSpans(genes []gtf.Gene, ref fasta.Fasta) error {
	known := make(map[string]bool)
	for _, name := range ref.SeqNames() {
		known[name] = true
	}
	for i := range genes {
		span, err := genes[i].Span()
		if err != nil {
			return err
		}
		if !known[span.Contig] {
			return errors.E(errors.NotExist, fmt.Sprintf("gene %s: contig %s is not in the reference", genes[i].ID, span.Contig))
		}
		length, err := ref.Len(span.Contig)
		if err != nil {
			return err
		}
		if uint64(span.End) > length {
			return errors.E(errors.Invalid, fmt.Sprintf("gene %s: span %v extends past the end of %s (%d bases)", genes[i].ID, span, span.Contig, length))
		}
	}
	return nil
}

// writeMissingIndexes builds the BAM and FASTA indexes if they do not exist.
func writeMissingIndexes(ctx context.Context, bampath, fapath, bamIndexPath string) error {
	if bamIndexPath == "" {
		bamIndexPath = bampath + ".bai"
	}
	if _, err := file.Stat(ctx, bamIndexPath); err != nil {
		if err = bamprovider.WriteIndex(ctx, bampath, bamIndexPath); err != nil {
			return err
		}
	}
	if _, err := file.Stat(ctx, fapath+".fai"); err == nil || strings.HasSuffix(fapath, ".gz") {
		return nil
	}
	return fasta.WriteIndex(ctx, fapath)
}
