package fasta_test

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/genestats/encoding/fasta"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const (
	fastaData  = ">seq1\n" + "ACGTA\nCGTAC\nGT\n" + ">seq2 A viral sequence\n" + "ACGT\n" + "ACGT\n"
	fastaIndex = "seq1\t12\t6\t5\t6\n" + "seq2\t8\t44\t4\t5\n"
)

func newFastas(t *testing.T) map[string]fasta.Fasta {
	unindexed, err := fasta.New(strings.NewReader(fastaData))
	assert.NoError(t, err)
	indexed, err := fasta.NewIndexed(strings.NewReader(fastaData), strings.NewReader(fastaIndex))
	assert.NoError(t, err)
	return map[string]fasta.Fasta{"unindexed": unindexed, "indexed": indexed}
}

func TestGet(t *testing.T) {
	tests := []struct {
		seq     string
		start   uint64
		end     uint64
		want    string
		wantErr bool
	}{
		{"seq1", 1, 2, "C", false},
		{"seq1", 1, 6, "CGTAC", false},
		{"seq1", 0, 12, "ACGTACGTACGT", false},
		{"seq1", 10, 12, "GT", false},
		{"seq1", 4, 5, "A", false},
		{"seq2", 0, 8, "ACGTACGT", false},
		{"seq2", 2, 5, "GTA", false},
		{"seq0", 0, 1, "", true},
		{"seq1", 10, 13, "", true},
		{"seq1", 4, 3, "", true},
	}
	for name, fa := range newFastas(t) {
		for _, tt := range tests {
			got, err := fa.Get(tt.seq, tt.start, tt.end)
			expect.EQ(t, err != nil, tt.wantErr, "%s: %s:%d-%d: %v", name, tt.seq, tt.start, tt.end, err)
			expect.EQ(t, got, tt.want, "%s: %s:%d-%d", name, tt.seq, tt.start, tt.end)
		}
	}
}

func TestLenAndSeqNames(t *testing.T) {
	for name, fa := range newFastas(t) {
		l, err := fa.Len("seq1")
		expect.NoError(t, err)
		expect.EQ(t, l, uint64(12), name)
		l, err = fa.Len("seq2")
		expect.NoError(t, err)
		expect.EQ(t, l, uint64(8), name)
		_, err = fa.Len("seq0")
		expect.True(t, err != nil, name)
		expect.EQ(t, fa.SeqNames(), []string{"seq1", "seq2"}, name)
	}
}

func TestConcurrentIndexedGet(t *testing.T) {
	indexed := newFastas(t)["indexed"]
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				start := uint64((i + j) % 10)
				got, err := indexed.Get("seq1", start, start+2)
				expect.NoError(t, err)
				expect.EQ(t, got, "ACGTACGTACGT"[start:start+2])
			}
		}(i)
	}
	wg.Wait()
}

func TestGenerateIndex(t *testing.T) {
	generateIndex := func(fa string) string {
		idx := bytes.Buffer{}
		assert.NoError(t, fasta.GenerateIndex(&idx, strings.NewReader(fa)))
		return idx.String()
	}

	fa := `>E0
GGTGAAATC
CCTGAAATC
AAAATTGCT
>E1 with a description
GTCCCTCCCCAGACATGGCCCTGGGAGGC
>E2
CCGCGCCCGCGCCCCCGCCGCC
`
	fai := generateIndex(fa)
	assert.EQ(t, fai, "E0\t27\t4\t9\t10\n"+
		"E1\t29\t57\t29\t30\n"+
		"E2\t22\t91\t22\t23\n")
	indexed, err := fasta.NewIndexed(strings.NewReader(fa), strings.NewReader(fai))
	assert.NoError(t, err)
	seq, err := indexed.Get("E0", 7, 20)
	assert.NoError(t, err)
	assert.EQ(t, seq, "TCCCTGAAATCAA")

	// MS-DOS newline encoding.
	assert.EQ(t, generateIndex(">E0\r\nGGGG\r\n>E1\r\nAAAAA\r\n"), "E0\t4\t5\t4\t6\nE1\t5\t16\t5\t7\n")
	// No newline at the end.
	assert.EQ(t, generateIndex(">E0\nGGGG\n>E1\nCCCCC\nAAAAA"), "E0\t4\t4\t4\t5\nE1\t10\t13\t5\t6\n")

	idx := bytes.Buffer{}
	expect.True(t, fasta.GenerateIndex(&idx, strings.NewReader("")) != nil)
	expect.True(t, fasta.GenerateIndex(&idx, strings.NewReader("ACGT\n>E0\nA\n")) != nil)
}

func writeFile(t *testing.T, path string, data []byte) {
	ctx := vcontext.Background()
	out, err := file.Create(ctx, path)
	assert.NoError(t, err)
	_, err = out.Writer(ctx).Write(data)
	assert.NoError(t, err)
	assert.NoError(t, out.Close(ctx))
}

func TestOpen(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()

	faPath := filepath.Join(tmpdir, "ref.fa")
	writeFile(t, faPath, []byte(fastaData))

	// Without an index, the whole file is loaded.
	ref, err := fasta.Open(ctx, faPath)
	assert.NoError(t, err)
	seq, err := ref.Get("seq2", 3, 6)
	assert.NoError(t, err)
	expect.EQ(t, seq, "TAC")
	assert.NoError(t, ref.Close(ctx))

	assert.NoError(t, fasta.WriteIndex(ctx, faPath))
	fai, err := ioutil.ReadFile(faPath + ".fai")
	assert.NoError(t, err)
	expect.EQ(t, string(fai), fastaIndex)

	ref, err = fasta.Open(ctx, faPath)
	assert.NoError(t, err)
	seq, err = ref.Get("seq1", 3, 11)
	assert.NoError(t, err)
	expect.EQ(t, seq, "TACGTACG")
	assert.NoError(t, ref.Close(ctx))
}
