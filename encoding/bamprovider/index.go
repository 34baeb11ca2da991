package bamprovider

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
)

// BuildIndex reads a coordinate-sorted BAM from r and writes its BAI index
// to w.
func BuildIndex(w io.Writer, r io.Reader) error {
	br, err := bam.NewReader(r, 1)
	if err != nil {
		return err
	}
	var (
		idx bam.Index
		n   int
	)
	for {
		rec, err := br.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			br.Close() // nolint: errcheck
			return err
		}
		if err := idx.Add(rec, br.LastChunk()); err != nil {
			br.Close() // nolint: errcheck
			return errors.E(err, "bamprovider.BuildIndex: record", rec.Name, "(is the BAM sorted by coordinate?)")
		}
		n++
	}
	if err := br.Close(); err != nil {
		return err
	}
	log.Debug.Printf("bamprovider.BuildIndex: indexed %d records", n)
	return bam.WriteIndex(w, &idx)
}

// WriteIndex builds the BAI index of the BAM file at bamPath and stores it at
// indexPath.  If indexPath is "", bamPath + ".bai" is used.
func WriteIndex(ctx context.Context, bamPath, indexPath string) (err error) {
	if indexPath == "" {
		indexPath = bamPath + ".bai"
	}
	in, err := file.Open(ctx, bamPath)
	if err != nil {
		return err
	}
	defer in.Close(ctx) // nolint: errcheck
	out, err := file.Create(ctx, indexPath)
	if err != nil {
		return err
	}
	if err = BuildIndex(out.Writer(ctx), in.Reader(ctx)); err != nil {
		out.Close(ctx) // nolint: errcheck
		return err
	}
	if err = out.Close(ctx); err != nil {
		return err
	}
	log.Printf("bamprovider: wrote index %s", indexPath)
	return nil
}
