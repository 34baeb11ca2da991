package fasta

import (
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// Reference is a Fasta backed by an open file.  Call Close when done.
type Reference struct {
	Fasta
	in file.File
}

// Open opens the FASTA file at path.  If path+".fai" exists, sequences are
// read lazily through the index; otherwise (or if the file is compressed) the
// whole file is loaded into memory.
func Open(ctx context.Context, path string) (ref *Reference, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = in.Close(ctx)
		}
	}()
	var fa Fasta
	if rc := compress.NewReaderPath(in.Reader(ctx), path); rc != nil {
		log.Printf("fasta.Open: %s is compressed; loading into memory", path)
		fa, err = New(rc)
		if e := rc.Close(); e != nil && err == nil {
			err = e
		}
		if err != nil {
			return
		}
		return &Reference{Fasta: fa, in: in}, nil
	}
	indexPath := path + ".fai"
	if _, statErr := file.Stat(ctx, indexPath); statErr == nil {
		var idx file.File
		if idx, err = file.Open(ctx, indexPath); err != nil {
			return
		}
		fa, err = NewIndexed(in.Reader(ctx), idx.Reader(ctx))
		if e := idx.Close(ctx); e != nil && err == nil {
			err = e
		}
		if err != nil {
			return
		}
		log.Debug.Printf("fasta.Open: using index %s", indexPath)
		return &Reference{Fasta: fa, in: in}, nil
	}
	log.Printf("fasta.Open: no index at %s; loading %s into memory", indexPath, path)
	if fa, err = New(io.Reader(in.Reader(ctx))); err != nil {
		return
	}
	return &Reference{Fasta: fa, in: in}, nil
}

// Close releases the underlying file.
func (r *Reference) Close(ctx context.Context) error {
	return r.in.Close(ctx)
}
