package mismatch

import (
	"testing"

	"github.com/grailbio/genestats/encoding/bamprovider/bamtest"
	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chr1 = bamtest.NewReference("chr1", 200)

func TestAlignedPairs(t *testing.T) {
	tests := []struct {
		name       string
		pos        int
		cigar, seq string
		md         string
		want       []AlignedPair
	}{
		{
			name:  "clips, insertion and deletion",
			pos:   100,
			cigar: "2S3M1I2M2D3M",
			seq:   "GGACGTACGTA",
			md:    "5^TT1C1",
			want: []AlignedPair{
				{2, 100, 'A'}, {3, 101, 'C'}, {4, 102, 'G'},
				{6, 103, 'A'}, {7, 104, 'C'},
				{8, 107, 'G'}, {9, 108, 'c'}, {10, 109, 'A'},
			},
		},
		{
			name:  "spliced",
			pos:   10,
			cigar: "3M5N2M",
			seq:   "ACGTA",
			md:    "5",
			want:  []AlignedPair{{0, 10, 'A'}, {1, 11, 'C'}, {2, 12, 'G'}, {3, 18, 'T'}, {4, 19, 'A'}},
		},
		{
			name:  "hard clip and leading mismatch",
			pos:   0,
			cigar: "2H3M",
			seq:   "ACG",
			md:    "0T2",
			want:  []AlignedPair{{0, 0, 't'}, {1, 1, 'C'}, {2, 2, 'G'}},
		},
		{
			name:  "adjacent mismatches",
			pos:   5,
			cigar: "3=",
			seq:   "ACG",
			md:    "1G0a0",
			want:  []AlignedPair{{0, 5, 'A'}, {1, 6, 'g'}, {2, 7, 'a'}},
		},
	}
	var pairs []AlignedPair
	for _, tt := range tests {
		r := bamtest.NewRecord("r", chr1, tt.pos, 0, tt.cigar, tt.seq, nil, bamtest.NewAux("MD", tt.md))
		var err error
		pairs, err = AlignedPairs(pairs[:0], r)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, pairs, tt.name)
	}
}

func TestAlignedPairsErrors(t *testing.T) {
	tests := []struct {
		name       string
		cigar, seq string
		aux        []sam.Aux
	}{
		{"no MD", "3M", "ACG", nil},
		{"MD not a string", "3M", "ACG", []sam.Aux{bamtest.NewAux("MD", 3)}},
		{"MD too short", "3M", "ACG", []sam.Aux{bamtest.NewAux("MD", "2")}},
		{"MD too long", "3M", "ACG", []sam.Aux{bamtest.NewAux("MD", "4")}},
		{"deletion in MD only", "2M", "AC", []sam.Aux{bamtest.NewAux("MD", "1^A1")}},
		{"deletion in CIGAR only", "1M1D1M", "AC", []sam.Aux{bamtest.NewAux("MD", "2")}},
		{"short deletion in MD", "1M2D1M", "AC", []sam.Aux{bamtest.NewAux("MD", "1^A1")}},
		{"CIGAR longer than sequence", "4M", "ACG", []sam.Aux{bamtest.NewAux("MD", "4")}},
		{"CIGAR shorter than sequence", "2M", "ACG", []sam.Aux{bamtest.NewAux("MD", "2")}},
	}
	for _, tt := range tests {
		r := bamtest.NewRecord("r", chr1, 0, 0, tt.cigar, tt.seq, nil, tt.aux...)
		_, err := AlignedPairs(nil, r)
		assert.Error(t, err, tt.name)
	}
}
