package interval

import (
	"fmt"
	"math"
)

// PosType is the type used to represent interval coordinates.  int32 should be
// wide enough for some time to come, since that's what BAM is limited to.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// Interval is a 0-based half-open range [Start, End) on a single contig.
type Interval struct {
	Contig string
	Start  PosType
	End    PosType
}

// Len returns the number of positions covered by the interval.
func (iv Interval) Len() int {
	if iv.End <= iv.Start {
		return 0
	}
	return int(iv.End - iv.Start)
}

// Overlaps returns true iff iv and other share at least one position.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Contig == other.Contig && iv.Start < other.End && other.Start < iv.End
}

// Contains returns true iff pos lies in [iv.Start, iv.End).
func (iv Interval) Contains(pos PosType) bool {
	return iv.Start <= pos && pos < iv.End
}

// String renders the interval samtools-style, with a 1-based closed range.
func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", iv.Contig, iv.Start+1, iv.End)
}

// Span returns the smallest interval containing every element of ivs.  All
// elements must be on the same contig.
func Span(ivs []Interval) (span Interval, err error) {
	if len(ivs) == 0 {
		err = fmt.Errorf("interval.Span: no intervals")
		return
	}
	span = ivs[0]
	for _, iv := range ivs[1:] {
		if iv.Contig != span.Contig {
			err = fmt.Errorf("interval.Span: intervals on different contigs (%s, %s)", span.Contig, iv.Contig)
			return
		}
		if iv.Start < span.Start {
			span.Start = iv.Start
		}
		if iv.End > span.End {
			span.End = iv.End
		}
	}
	if span.End <= span.Start {
		err = fmt.Errorf("interval.Span: empty span %v", span)
	}
	return
}
