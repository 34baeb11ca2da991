package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning the corresponding 0-based half-open interval.  The interval
// [0, PosTypeMax - 1) is returned if there is no positional restriction.
func ParseRegionString(region string) (result Interval, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.LastIndexByte(region, ':')
	if colonPos == -1 {
		result.Contig = region
		result.End = PosTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
		return
	}
	result.Contig = region[:colonPos]
	rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
			return
		}
		if pos1 <= 0 {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	var start1, end int64
	if start1, err = strconv.ParseInt(rangeStr[:dashPos], 10, 32); err != nil {
		return
	}
	if end, err = strconv.ParseInt(rangeStr[dashPos+1:], 10, 32); err != nil {
		return
	}
	if start1 <= 0 || end < start1 || end >= PosTypeMax {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start = PosType(start1 - 1)
	result.End = PosType(end)
	return
}

// regionKey orders intervals by (contig, start) for the llrb tree.
type regionKey Interval

// Compare implements llrb.Comparable.
func (k regionKey) Compare(c llrb.Comparable) int {
	k2 := c.(regionKey)
	if k.Contig != k2.Contig {
		if k.Contig < k2.Contig {
			return -1
		}
		return 1
	}
	return int(k.Start) - int(k2.Start)
}

// RegionSet is a union of genomic intervals.  Overlapping and touching
// intervals are merged on construction, so the tree never holds two
// intervals sharing a position.  Thread-compatible; safe for concurrent reads.
type RegionSet struct {
	tree llrb.Tree
}

// NewRegionSet builds a RegionSet from intervals in any order.  Empty
// intervals are dropped.
func NewRegionSet(ivs []Interval) *RegionSet {
	sorted := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if iv.Len() > 0 {
			sorted = append(sorted, iv)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Contig != sorted[j].Contig {
			return sorted[i].Contig < sorted[j].Contig
		}
		return sorted[i].Start < sorted[j].Start
	})
	s := &RegionSet{}
	var cur Interval
	for i, iv := range sorted {
		if i > 0 && iv.Contig == cur.Contig && iv.Start <= cur.End {
			if iv.End > cur.End {
				cur.End = iv.End
			}
			continue
		}
		if i > 0 {
			s.tree.Insert(regionKey(cur))
		}
		cur = iv
	}
	if len(sorted) > 0 {
		s.tree.Insert(regionKey(cur))
	}
	return s
}

// Len returns the number of disjoint intervals in the set.
func (s *RegionSet) Len() int {
	return s.tree.Len()
}

// Overlaps returns true iff iv shares at least one position with the set.
func (s *RegionSet) Overlaps(iv Interval) bool {
	if iv.Len() == 0 {
		return false
	}
	// Intervals in the tree are disjoint, so the one with the greatest start
	// before iv.End also has the greatest end among the candidates.
	c := s.tree.Floor(regionKey{Contig: iv.Contig, Start: iv.End - 1})
	if c == nil {
		return false
	}
	floor := c.(regionKey)
	return floor.Contig == iv.Contig && floor.End > iv.Start
}

// NewRegionSetFromBED loads the first three columns of an interval-BED.
// Header lines ("track", "browser", "#") and blank lines are skipped.
func NewRegionSetFromBED(reader io.Reader) (*RegionSet, error) {
	scanner := bufio.NewScanner(reader)
	var ivs []Interval
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		line := scanner.Text()
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("interval.NewRegionSetFromBED: line %d has fewer tokens than expected", lineIdx)
		}
		start, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("interval.NewRegionSetFromBED: line %d: %v", lineIdx, err)
		}
		end, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("interval.NewRegionSetFromBED: line %d: %v", lineIdx, err)
		}
		if start < 0 || end < start {
			return nil, fmt.Errorf("interval.NewRegionSetFromBED: line %d: invalid coordinate pair [%d, %d)", lineIdx, start, end)
		}
		ivs = append(ivs, Interval{Contig: fields[0], Start: PosType(start), End: PosType(end)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewRegionSet(ivs), nil
}

// NewRegionSetFromPath is a wrapper for NewRegionSetFromBED that takes a path
// instead of an io.Reader.  Gzipped BED files are decompressed.
func NewRegionSetFromPath(ctx context.Context, path string) (s *RegionSet, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return
		}
		defer gz.Close()
		reader = gz
	}
	return NewRegionSetFromBED(reader)
}
