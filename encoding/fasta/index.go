package fasta

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
)

// indexBuilder accumulates the .fai entry of the sequence being scanned.
type indexBuilder struct {
	ent     faiEntry
	started bool
}

func (b *indexBuilder) write(w *tsv.Writer) error {
	w.WriteString(b.ent.Name)
	w.WriteInt64(b.ent.Length)
	w.WriteInt64(b.ent.Offset)
	w.WriteInt64(b.ent.LineBases)
	w.WriteInt64(b.ent.LineWidth)
	return w.EndLine()
}

// GenerateIndex generates an index (*.fai) from FASTA.  The index can be later
// passed to NewIndexed() to random-access the FASTA file quickly.
//
// The index format is defined by "samtools faidx"
// (http://www.htslib.org/doc/faidx.html).
func GenerateIndex(out io.Writer, in io.Reader) error {
	var (
		w      = tsv.NewWriter(out)
		r      = bufio.NewReader(in)
		cur    indexBuilder
		offset int64
	)
	for {
		raw, readErr := r.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return readErr
		}
		offset += int64(len(raw))
		line := bytes.TrimRight(raw, "\r\n")
		switch {
		case len(line) == 0:
		case line[0] == '>':
			if cur.started {
				if err := cur.write(w); err != nil {
					return err
				}
			}
			cur = indexBuilder{started: true}
			cur.ent.Name = seqNameFromHeader(string(line))
			cur.ent.Offset = offset
		case !cur.started:
			return errors.E("malformed FASTA file")
		default:
			if cur.ent.LineWidth == 0 {
				cur.ent.LineWidth = int64(len(raw))
				cur.ent.LineBases = int64(len(line))
			}
			cur.ent.Length += int64(len(line))
		}
		if readErr == io.EOF {
			break
		}
	}
	if offset == 0 {
		return errors.E("empty FASTA file")
	}
	if cur.started {
		if err := cur.write(w); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteIndex generates the index of the uncompressed FASTA file at path and
// writes it to path + ".fai".
func WriteIndex(ctx context.Context, path string) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, in, &err)
	out, err := file.Create(ctx, path+".fai")
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = GenerateIndex(out.Writer(ctx), in.Reader(ctx)); err != nil {
		return errors.E(err, path)
	}
	log.Printf("fasta: wrote index %s.fai", path)
	return nil
}
