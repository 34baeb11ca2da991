// Package bamtest builds small alignment fixtures for tests: records with
// sequences, qualities and aux tags, and indexed BAM files holding them.
package bamtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/grailbio/base/file"
	"github.com/grailbio/genestats/encoding/bamprovider"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/require"
)

// NewReference creates a reference or panics.
func NewReference(name string, length int) *sam.Reference {
	ref, err := sam.NewReference(name, "", "", length, nil, nil)
	if err != nil {
		panic(err)
	}
	return ref
}

// NewHeader creates a coordinate-sorted header over refs or panics.
func NewHeader(refs ...*sam.Reference) *sam.Header {
	header, err := sam.NewHeader(nil, refs)
	if err != nil {
		panic(err)
	}
	header.SortOrder = sam.Coordinate
	return header
}

// NewAux creates an aux field or panics.
func NewAux(name string, val interface{}) sam.Aux {
	aux, err := sam.NewAux(sam.NewTag(name), val)
	if err != nil {
		panic(fmt.Sprintf("error creating %s %v tag: %v", name, val, err))
	}
	return aux
}

// NewRecord creates a record aligned at ref:pos.  cigar is in SAM text form;
// "" means no alignment.  qual holds raw phred values, one per base of seq;
// nil means every base has quality 40.
func NewRecord(name string, ref *sam.Reference, pos int, flags sam.Flags, cigar, seq string, qual []byte, aux ...sam.Aux) *sam.Record {
	var c sam.Cigar
	if cigar != "" {
		var err error
		if c, err = sam.ParseCigar([]byte(cigar)); err != nil {
			panic(fmt.Sprintf("cigar %q: %v", cigar, err))
		}
	}
	if qual == nil {
		qual = Quals(len(seq), 40)
	}
	if len(seq) != len(qual) {
		panic("seq and qual must be equal length")
	}
	r := sam.GetFromFreePool()
	r.Name = name
	r.Ref = ref
	r.Pos = pos
	r.MapQ = 60
	r.MateRef = nil
	r.MatePos = -1
	r.Flags = flags
	r.Cigar = c
	r.Seq = sam.NewSeq([]byte(seq))
	r.Qual = append([]byte(nil), qual...)
	r.AuxFields = append(sam.AuxFields(nil), aux...)
	return r
}

// Quals returns n copies of the phred value q.
func Quals(n int, q byte) []byte {
	qual := make([]byte, n)
	for i := range qual {
		qual[i] = q
	}
	return qual
}

// WriteBAM writes recs, which must be sorted by coordinate, to a BAM file at
// path, and its index to path + ".bai".
func WriteBAM(t testing.TB, path string, header *sam.Header, recs []*sam.Record) {
	ctx := context.Background()
	out, err := file.Create(ctx, path)
	require.NoError(t, err)
	w, err := bam.NewWriter(out.Writer(ctx), header, 1)
	require.NoError(t, err)
	for _, r := range recs {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())
	// The BAM file must be closed before it is read back for indexing.
	require.NoError(t, out.Close(ctx))
	require.NoError(t, bamprovider.WriteIndex(ctx, path, ""))
}
