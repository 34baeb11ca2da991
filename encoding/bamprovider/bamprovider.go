package bamprovider

import (
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/hts/bgzf/index"
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// BAMProvider implements Provider for BAM files.  Both BAM and the index
// filenames are allowed to be S3 URLs, in which case the data will be read from
// S3. Otherwise the data will be read from the local filesystem.
//
// Each iterator owns an open file and a copy of the index.  Closed iterators
// are kept in a free list and reused by later Fetch calls.
type BAMProvider struct {
	// Path of the *.bam file. Must be nonempty.
	Path string
	// Index is the pathname of *.bam.bai file. If "", Path + ".bai"
	Index string
	err   errors.Once

	mu        sync.Mutex
	nActive   int
	freeIters []*bamIterator
	header    *sam.Header
}

type bamIterator struct {
	provider *BAMProvider
	in       file.File
	reader   *bam.Reader
	index    *bam.Index

	// Reference ID and half-open position range being read.
	refID      int
	start, end int

	active bool
	err    error
	next   *sam.Record
}

func (b *BAMProvider) indexPath() string {
	index := b.Index
	if index == "" {
		index = b.Path + ".bai"
	}
	return index
}

// GetHeader implements the Provider interface.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.header != nil {
		return b.header, nil
	}

	ctx := vcontext.Background()
	reader, err := file.Open(ctx, b.Path)
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	defer reader.Close(ctx) // nolint: errcheck
	bamReader, err := bam.NewReader(reader.Reader(ctx), 1)
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	defer bamReader.Close() // nolint: errcheck
	b.header = bamReader.Header()
	return b.header, nil
}

// Close implements the Provider interface.
func (b *BAMProvider) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nActive > 0 {
		vlog.Fatalf("%d iterators still active for %s", b.nActive, b.Path)
	}
	for _, iter := range b.freeIters {
		iter.internalClose()
	}
	b.freeIters = nil
	return b.err.Err()
}

func (b *BAMProvider) freeIterator(i *bamIterator) {
	if !i.active {
		vlog.Fatalf("%s: iterator closed twice", b.Path)
	}
	i.active = false
	i.next = nil
	if i.Err() != nil || i.reader == nil {
		// The iter may be invalid. Don't reuse it.
		i.internalClose() // Will set b.err
		i = nil
	}
	b.mu.Lock()
	if i != nil {
		b.freeIters = append(b.freeIters, i)
	}
	b.nActive--
	if b.nActive < 0 {
		vlog.Fatalf("Negative active count for %s", b.Path)
	}
	b.mu.Unlock()
}

// Return an unused iterator. If b.freeIters is nonempty, this function returns
// one from freeIters. Else, it opens the BAM file and its index, creates a
// BAM reader and returns an iterator containing them. On error, returns an
// iterator with non-nil err field.
func (b *BAMProvider) allocateIterator() *bamIterator {
	b.mu.Lock()
	b.nActive++
	if n := len(b.freeIters); n > 0 {
		iter := b.freeIters[n-1]
		b.freeIters = b.freeIters[:n-1]
		b.mu.Unlock()
		iter.active = true
		iter.err = nil
		iter.next = nil
		return iter
	}
	b.mu.Unlock()

	vlog.VI(1).Infof("%s: opening new iterator", b.Path)
	iter := bamIterator{
		provider: b,
		active:   true,
	}
	ctx := vcontext.Background()
	if iter.in, iter.err = file.Open(ctx, b.Path); iter.err != nil {
		return &iter
	}
	var indexIn file.File
	if indexIn, iter.err = file.Open(ctx, b.indexPath()); iter.err != nil {
		iter.err = errors.E(iter.err, fmt.Sprintf("bamprovider: opening index for %s", b.Path))
		return &iter
	}
	defer indexIn.Close(ctx) // nolint: errcheck
	if iter.index, iter.err = bam.ReadIndex(indexIn.Reader(ctx)); iter.err != nil {
		return &iter
	}
	iter.reader, iter.err = bam.NewReader(iter.in.Reader(ctx), 1)
	return &iter
}

// Fetch implements the Provider interface.
func (b *BAMProvider) Fetch(refName string, start, end int) Iterator {
	header, err := b.GetHeader()
	if err != nil {
		return NewErrorIterator(err)
	}
	ref := RefByName(header, refName)
	if ref == nil {
		return NewErrorIterator(errors.E(errors.NotExist,
			fmt.Sprintf("bamprovider.Fetch: reference %q not found in %s", refName, b.Path)))
	}
	iter := b.allocateIterator()
	if iter.err != nil {
		return iter
	}
	iter.reset(ref, start, end)
	return iter
}

// reset positions the iterator at the first index chunk that may hold a
// record overlapping [start, end) of ref.
func (i *bamIterator) reset(ref *sam.Reference, start, end int) {
	i.refID, i.start, i.end = ref.ID(), start, end
	if start < 0 || start >= end {
		i.err = fmt.Errorf("bamprovider: invalid range %s:[%d,%d)", ref.Name(), start, end)
		return
	}
	offset, found, err := i.findRecordOffset(ref, start, end)
	if err != nil {
		i.err = err
		return
	}
	if !found {
		// No record in range.
		i.err = io.EOF
		return
	}
	i.err = i.reader.Seek(offset)
}

// Find the the file offset at which the first record that may overlap
// <ref,[startPos,endPos)> is stored. This function is conservative; it may
// return an offset that's smaller than absolutely necessary.
func (i *bamIterator) findRecordOffset(ref *sam.Reference, startPos, endPos int) (bgzf.Offset, bool, error) {
	if endPos > ref.Len() {
		endPos = ref.Len()
	}
	if startPos >= endPos {
		return bgzf.Offset{}, false, nil
	}
	chunks, err := i.index.Chunks(ref, startPos, endPos)
	if err == index.ErrInvalid || err == index.ErrNoReference || (err == nil && len(chunks) == 0) {
		// No reads for this interval, or none on the whole reference:
		// return an empty iterator.
		return bgzf.Offset{}, false, nil
	}
	if err != nil {
		return bgzf.Offset{}, false, err
	}
	return chunks[0].Begin, true, nil
}

// Scan implements the Iterator interface.
func (i *bamIterator) Scan() bool {
	if !i.active {
		vlog.Fatal("Reusing iterator")
	}
	if i.err != nil {
		return false
	}
	for {
		i.next, i.err = i.reader.Read()
		if i.err != nil {
			return false
		}
		if i.next.Ref == nil || i.next.Ref.ID() > i.refID {
			i.err = io.EOF
			return false
		}
		if i.next.Ref.ID() < i.refID {
			continue
		}
		if i.next.Pos >= i.end {
			// Records are sorted by position, so nothing later can overlap.
			i.err = io.EOF
			return false
		}
		if overlaps(i.next, i.start, i.end) {
			return true
		}
	}
}

// Record implements the Iterator interface.
func (i *bamIterator) Record() *sam.Record {
	return i.next
}

// Err implements the Iterator interface.
func (i *bamIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements the Iterator interface.
func (i *bamIterator) Close() error {
	err := i.Err()
	i.provider.freeIterator(i)
	return err
}

func (i *bamIterator) internalClose() {
	if i.reader != nil {
		if err := i.reader.Close(); err != nil && i.err == nil {
			i.err = err
		}
		i.reader = nil
	}
	if i.in != nil {
		if err := i.in.Close(vcontext.Background()); err != nil && i.err == nil {
			i.err = err
		}
		i.in = nil
	}
	i.provider.err.Set(i.Err())
}
