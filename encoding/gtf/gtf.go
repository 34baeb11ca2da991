// Package gtf loads gene models from GTF annotations.  Records of one
// feature type (exons by default) are grouped into genes by their gene_id
// attribute, in file order.
package gtf

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/genestats/interval"
)

// Gene is one annotated gene: its identifier and the intervals of its
// features, in file order.
type Gene struct {
	ID    string
	Exons []interval.Interval
}

// Span returns the smallest interval covering all of the gene's exons.
func (g *Gene) Span() (interval.Interval, error) {
	span, err := interval.Span(g.Exons)
	if err != nil {
		return span, errors.E(errors.Invalid, fmt.Sprintf("gene %s", g.ID), err)
	}
	return span, nil
}

// Opts controls gene loading.
type Opts struct {
	// Feature is the GTF feature type (third column) whose records make up
	// a gene.  Genes with no record of this type are skipped.  Empty means
	// every record counts, whatever its type.
	Feature string
}

// DefaultOpts are the default gene-loading options.
var DefaultOpts = Opts{
	Feature: "exon",
}

// record is one line of a GTF file.
type record struct {
	Chrom      string
	Source     string
	Feature    string
	Start      int
	End        int
	Score      string // unused floating point value, but may be "."
	Strand     string
	Frame      string
	Attributes string
}

// parseAttributes parses the attribute column of a GTF record, e.g.
//   gene_id "ENSG1.1"; transcript_id "ENST1.1";
// into key/value pairs.  parsed is cleared first.
func parseAttributes(parsed map[string]string, attrs string) {
	for k := range parsed {
		delete(parsed, k)
	}
	for _, field := range strings.Split(attrs, ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		sep := strings.IndexAny(field, " \t")
		if sep < 0 {
			parsed[field] = ""
			continue
		}
		parsed[field[:sep]] = strings.Trim(strings.TrimSpace(field[sep+1:]), "\"")
	}
}

// Parse reads GTF records from r and groups the ones matching opts.Feature
// (all of them if it is empty) into genes.  Records of one gene must be contiguous, as in a gene-sorted
// annotation; a gene_id that reappears after another gene is an error.
// Genes are returned in order of appearance.
func Parse(r io.Reader, opts Opts) ([]Gene, error) {
	scanner := tsv.NewReader(bufio.NewReaderSize(r, 64<<10))
	scanner.Comment = '#'
	scanner.LazyQuotes = true

	var (
		genes  []Gene
		seen   = map[string]bool{}
		attrs  = map[string]string{}
		line   record
		lineNo int
	)
	for {
		if err := scanner.Read(&line); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(err, fmt.Sprintf("gtf: record %d", lineNo+1))
		}
		lineNo++
		if opts.Feature != "" && line.Feature != opts.Feature {
			continue
		}
		parseAttributes(attrs, line.Attributes)
		geneID, ok := attrs["gene_id"]
		if !ok || geneID == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("gtf: record %d has no gene_id", lineNo))
		}
		if line.Start < 1 || line.End < line.Start {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("gtf: record %d has invalid coordinates %d-%d", lineNo, line.Start, line.End))
		}
		// GTF is 1-based and closed.
		exon := interval.Interval{
			Contig: line.Chrom,
			Start:  interval.PosType(line.Start - 1),
			End:    interval.PosType(line.End),
		}
		if n := len(genes); n > 0 && genes[n-1].ID == geneID {
			genes[n-1].Exons = append(genes[n-1].Exons, exon)
			continue
		}
		if seen[geneID] {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("gtf: records of gene %s are not contiguous (record %d); sort the annotation by gene", geneID, lineNo))
		}
		seen[geneID] = true
		genes = append(genes, Gene{ID: geneID, Exons: []interval.Interval{exon}})
	}
	return genes, nil
}

// Read loads genes from the GTF file at path.  Path "-" reads standard
// input.  Compressed files are decompressed based on their extension.
func Read(ctx context.Context, path string, opts Opts) (genes []Gene, err error) {
	var in io.Reader = os.Stdin
	if path != "-" {
		var f file.File
		if f, err = file.Open(ctx, path); err != nil {
			return
		}
		defer func() {
			if e := f.Close(ctx); e != nil && err == nil {
				err = e
			}
		}()
		in = f.Reader(ctx)
		if u := compress.NewReaderPath(in, f.Name()); u != nil {
			defer u.Close()
			in = u
		}
	}
	if genes, err = Parse(in, opts); err != nil {
		return
	}
	log.Printf("gtf: read %d genes from %s", len(genes), path)
	return
}
