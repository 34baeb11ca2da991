package bamprovider

import (
	"fmt"

	"github.com/grailbio/hts/sam"
)

// fakeProvider is only for unittests. It yields the given records.
type fakeProvider struct {
	header *sam.Header
	recs   []*sam.Record
}

type fakeIterator struct {
	recs       []*sam.Record
	rec        *sam.Record
	refID      int
	start, end int
}

// NewFakeProvider creates a provider that returns "header" in response to a
// GetHeader() call, and those of recs that overlap the fetched range in
// response to Fetch.  recs must be sorted by coordinate.
func NewFakeProvider(header *sam.Header, recs []*sam.Record) Provider {
	return &fakeProvider{header, recs}
}

// GetHeader implements the Provider interface. It returns the header passed to
// the constructor.
func (b *fakeProvider) GetHeader() (*sam.Header, error) {
	return b.header, nil
}

// Close implements the Provider interface.
func (b *fakeProvider) Close() error {
	return nil
}

// Fetch implements the Provider interface.
func (b *fakeProvider) Fetch(refName string, start, end int) Iterator {
	ref := RefByName(b.header, refName)
	if ref == nil {
		return NewErrorIterator(fmt.Errorf("fakeProvider.Fetch: reference %q not found", refName))
	}
	return &fakeIterator{recs: b.recs, refID: ref.ID(), start: start, end: end}
}

// Err implements the Iterator interface.
func (i *fakeIterator) Err() error {
	return nil
}

// Close implements the Iterator interface.
func (i *fakeIterator) Close() error {
	return nil
}

func (i *fakeIterator) Scan() bool {
	for len(i.recs) > 0 {
		i.rec = i.recs[0]
		i.recs = i.recs[1:]
		if i.rec.Ref != nil && i.rec.Ref.ID() == i.refID && overlaps(i.rec, i.start, i.end) {
			return true
		}
	}
	return false
}

func (i *fakeIterator) Record() *sam.Record {
	// Return a copy so that the code under test cannot alter the
	// original test input data.
	copy := sam.GetFromFreePool()
	*copy = *i.rec
	return copy
}
