package gtf

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/file"
	"github.com/grailbio/genestats/interval"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

const testGTF = `#!genome-build GRCh38
chr1	HAVANA	gene	101	110	.	+	.	gene_id "g1"; gene_name "ONE";
chr1	HAVANA	exon	101	105	.	+	.	gene_id "g1"; transcript_id "t1"; exon_number 1;
chr1	HAVANA	CDS	102	105	.	+	0	gene_id "g1"; transcript_id "t1";
chr1	HAVANA	exon	108	110	.	+	.	gene_id "g1"; transcript_id "t1"; exon_number 2;
chr1	ENSEMBL	exon	151	160	.	-	.	gene_id "g2"; transcript_id "t2";
`

func TestParse(t *testing.T) {
	genes, err := Parse(strings.NewReader(testGTF), DefaultOpts)
	assert.NoError(t, err)
	expect.EQ(t, genes, []Gene{
		{ID: "g1", Exons: []interval.Interval{{Contig: "chr1", Start: 100, End: 105}, {Contig: "chr1", Start: 107, End: 110}}},
		{ID: "g2", Exons: []interval.Interval{{Contig: "chr1", Start: 150, End: 160}}},
	})
	span, err := genes[0].Span()
	assert.NoError(t, err)
	expect.EQ(t, span, interval.Interval{Contig: "chr1", Start: 100, End: 110})

	// Grouping by another feature type.
	genes, err = Parse(strings.NewReader(testGTF), Opts{Feature: "CDS"})
	assert.NoError(t, err)
	expect.EQ(t, genes, []Gene{{ID: "g1", Exons: []interval.Interval{{Contig: "chr1", Start: 101, End: 105}}}})

	// Every record, whatever its type.
	genes, err = Parse(strings.NewReader(testGTF), Opts{})
	assert.NoError(t, err)
	expect.EQ(t, genes, []Gene{
		{ID: "g1", Exons: []interval.Interval{{Contig: "chr1", Start: 100, End: 110}, {Contig: "chr1", Start: 100, End: 105}, {Contig: "chr1", Start: 101, End: 105}, {Contig: "chr1", Start: 107, End: 110}}},
		{ID: "g2", Exons: []interval.Interval{{Contig: "chr1", Start: 150, End: 160}}},
	})
}

func TestParseSkipsGenesWithoutFeature(t *testing.T) {
	const cdsOnly = "chr1\tsrc\tCDS\t11\t20\t.\t+\t0\tgene_id \"c1\";\n" +
		"chr1\tsrc\texon\t31\t40\t.\t+\t.\tgene_id \"e1\";\n"
	genes, err := Parse(strings.NewReader(cdsOnly), DefaultOpts)
	assert.NoError(t, err)
	expect.EQ(t, genes, []Gene{{ID: "e1", Exons: []interval.Interval{{Contig: "chr1", Start: 30, End: 40}}}})

	genes, err = Parse(strings.NewReader(cdsOnly), Opts{})
	assert.NoError(t, err)
	expect.EQ(t, len(genes), 2)
	expect.EQ(t, genes[0].ID, "c1")
}

func TestParseAttributes(t *testing.T) {
	attrs := map[string]string{"stale": "x"}
	parseAttributes(attrs, `gene_id "ENSG1.1"; level 2;tag "basic" ;  lone;`)
	expect.EQ(t, attrs, map[string]string{
		"gene_id": "ENSG1.1",
		"level":   "2",
		"tag":     "basic",
		"lone":    "",
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, data string
	}{
		{"no gene_id", "chr1\tsrc\texon\t1\t10\t.\t+\t.\ttranscript_id \"t1\";\n"},
		{"bad coords", "chr1\tsrc\texon\t10\t1\t.\t+\t.\tgene_id \"g1\";\n"},
		{"zero start", "chr1\tsrc\texon\t0\t1\t.\t+\t.\tgene_id \"g1\";\n"},
		{"non-numeric", "chr1\tsrc\texon\tx\t1\t.\t+\t.\tgene_id \"g1\";\n"},
		{"interleaved", "chr1\tsrc\texon\t1\t10\t.\t+\t.\tgene_id \"g1\";\n" +
			"chr1\tsrc\texon\t20\t30\t.\t+\t.\tgene_id \"g2\";\n" +
			"chr1\tsrc\texon\t40\t50\t.\t+\t.\tgene_id \"g1\";\n"},
	}
	for _, tt := range tests {
		_, err := Parse(strings.NewReader(tt.data), DefaultOpts)
		expect.True(t, err != nil, tt.name)
	}
}

func TestSpanAcrossContigs(t *testing.T) {
	g := Gene{ID: "split", Exons: []interval.Interval{{Contig: "chr1", Start: 0, End: 10}, {Contig: "chr2", Start: 0, End: 10}}}
	_, err := g.Span()
	expect.True(t, err != nil)
	expect.True(t, strings.Contains(err.Error(), "split"))
}

func TestRead(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	path := filepath.Join(tmpdir, "genes.gtf.gz")
	out, err := file.Create(ctx, path)
	assert.NoError(t, err)
	gz := gzip.NewWriter(out.Writer(ctx))
	_, err = gz.Write([]byte(testGTF))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	assert.NoError(t, out.Close(ctx))

	genes, err := Read(ctx, path, DefaultOpts)
	assert.NoError(t, err)
	expect.EQ(t, len(genes), 2)
	expect.EQ(t, genes[1].ID, "g2")

	_, err = Read(ctx, filepath.Join(tmpdir, "missing.gtf"), DefaultOpts)
	expect.True(t, err != nil)
}
