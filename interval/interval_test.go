package interval

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/file"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

func TestSpan(t *testing.T) {
	span, err := Span([]Interval{
		{"chr1", 150, 160},
		{"chr1", 100, 105},
		{"chr1", 107, 110},
	})
	assert.NoError(t, err)
	expect.EQ(t, span, Interval{"chr1", 100, 160})
	expect.EQ(t, span.Len(), 60)
	expect.EQ(t, span.String(), "chr1:101-160")

	_, err = Span([]Interval{{"chr1", 0, 10}, {"chr2", 20, 30}})
	expect.True(t, err != nil)
	_, err = Span(nil)
	expect.True(t, err != nil)
}

func TestOverlaps(t *testing.T) {
	a := Interval{"chr1", 100, 110}
	expect.True(t, a.Overlaps(Interval{"chr1", 109, 120}))
	expect.False(t, a.Overlaps(Interval{"chr1", 110, 120}))
	expect.False(t, a.Overlaps(Interval{"chr2", 100, 110}))
	expect.True(t, a.Contains(100))
	expect.False(t, a.Contains(110))
}

func TestParseRegionString(t *testing.T) {
	tests := []struct {
		region string
		want   Interval
	}{
		{"chr1:1-1000", Interval{"chr1", 0, 1000}},
		{"chr1:1,001-2,000", Interval{"chr1", 1000, 2000}},
		{"chr1:1000", Interval{"chr1", 999, 1000}},
		{"chr1", Interval{"chr1", 0, PosTypeMax - 1}},
	}
	for _, tt := range tests {
		result, err := ParseRegionString(tt.region)
		expect.NoError(t, err)
		expect.EQ(t, result, tt.want)
	}
	for _, bad := range []string{"", ":1-2", "chr1:0-5", "chr1:10-5", "chr1:x"} {
		_, err := ParseRegionString(bad)
		expect.True(t, err != nil, "region %q", bad)
	}
}

func TestRegionSet(t *testing.T) {
	s := NewRegionSet([]Interval{
		{"chr2", 50, 60},
		{"chr1", 10, 20},
		{"chr1", 20, 25},
		{"chr1", 15, 18},
		{"chr1", 40, 40},
	})
	// chr1 merges into [10, 25); the empty interval is dropped.
	expect.EQ(t, s.Len(), 2)
	tests := []struct {
		iv   Interval
		want bool
	}{
		{Interval{"chr1", 0, 10}, false},
		{Interval{"chr1", 0, 11}, true},
		{Interval{"chr1", 24, 30}, true},
		{Interval{"chr1", 25, 30}, false},
		{Interval{"chr1", 30, 100}, false},
		{Interval{"chr2", 0, 51}, true},
		{Interval{"chr3", 0, 1000}, false},
		{Interval{"chr1", 12, 12}, false},
		{Interval{"chr1", 39, 41}, false},
		{Interval{"chr2", 59, 70}, true},
		{Interval{"chr2", 60, 70}, false},
	}
	for _, tt := range tests {
		expect.EQ(t, s.Overlaps(tt.iv), tt.want, "interval %v", tt.iv)
	}
}

func TestRegionSetFromPath(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	bed := "track name=test\n# comment\nchr1\t100\t200\tgeneA\nchr1\t150\t300\n\nchr5\t0\t10\n"
	s, err := NewRegionSetFromBED(strings.NewReader(bed))
	assert.NoError(t, err)
	expect.EQ(t, s.Len(), 2)
	expect.True(t, s.Overlaps(Interval{"chr1", 100, 101}))
	expect.True(t, s.Overlaps(Interval{"chr1", 200, 250}))
	expect.False(t, s.Overlaps(Interval{"chr1", 300, 301}))
	expect.True(t, s.Overlaps(Interval{"chr5", 9, 10}))

	bedPath := filepath.Join(tmpdir, "regions.bed.gz")
	out, err := file.Create(ctx, bedPath)
	assert.NoError(t, err)
	gz := gzip.NewWriter(out.Writer(ctx))
	_, err = gz.Write([]byte(bed))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	assert.NoError(t, out.Close(ctx))

	s, err = NewRegionSetFromPath(ctx, bedPath)
	assert.NoError(t, err)
	expect.EQ(t, s.Len(), 2)
	expect.True(t, s.Overlaps(Interval{"chr1", 299, 400}))

	_, err = NewRegionSetFromBED(strings.NewReader("chr1\t100\n"))
	expect.True(t, err != nil)
}
