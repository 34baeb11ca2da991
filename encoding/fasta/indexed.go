package fasta

import (
	"io"
	"sort"
	"sync"

	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

// faiEntry is one line of a .fai index: "<sequence name>\t<length>\t<byte
// offset>\t<bases per line>\t<bytes per line>".
type faiEntry struct {
	Name      string
	Length    int64
	Offset    int64
	LineBases int64
	LineWidth int64
}

// byteOffset returns the file offset of 0-based base pos.
func (e *faiEntry) byteOffset(pos uint64) int64 {
	p := int64(pos)
	return e.Offset + (p/e.LineBases)*e.LineWidth + p%e.LineBases
}

func readIndex(index io.Reader) (map[string]*faiEntry, []string, error) {
	r := tsv.NewReader(index)
	entries := make(map[string]*faiEntry)
	var names []string
	for {
		var ent faiEntry
		if err := r.Read(&ent); err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, errors.Wrap(err, "invalid index line")
		}
		if ent.LineBases <= 0 || ent.LineWidth < ent.LineBases {
			return nil, nil, errors.Errorf("invalid index line for %s: %d bases, %d bytes per line", ent.Name, ent.LineBases, ent.LineWidth)
		}
		entries[ent.Name] = &ent
		names = append(names, ent.Name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return entries[names[i]].Offset < entries[names[j]].Offset
	})
	return entries, names, nil
}

type indexedFasta struct {
	seqs     map[string]*faiEntry
	seqNames []string

	mu     sync.Mutex
	reader io.ReadSeeker
	buf    []byte
}

// NewIndexed creates a Fasta that performs random lookups using the provided
// .fai index, without reading the sequence data into memory.  Reads on the
// underlying reader are serialized, so Get is safe for concurrent use.
func NewIndexed(fasta io.ReadSeeker, index io.Reader) (Fasta, error) {
	seqs, names, err := readIndex(index)
	if err != nil {
		return nil, err
	}
	return &indexedFasta{seqs: seqs, seqNames: names, reader: fasta}, nil
}

// Get implements Fasta.Get().
func (f *indexedFasta) Get(seqName string, start, end uint64) (string, error) {
	ent, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found in index: %s", seqName)
	}
	if err := checkRange(seqName, start, end, uint64(ent.Length)); err != nil {
		return "", err
	}
	first := ent.byteOffset(start)
	limit := ent.byteOffset(end-1) + 1

	f.mu.Lock()
	defer f.mu.Unlock()
	n := int(limit - first)
	if cap(f.buf) < n {
		f.buf = make([]byte, n)
	}
	f.buf = f.buf[:n]
	if _, err := f.reader.Seek(first, io.SeekStart); err != nil {
		return "", errors.Wrapf(err, "failed to seek to offset %d", first)
	}
	if _, err := io.ReadFull(f.reader, f.buf); err != nil {
		return "", errors.Wrapf(err, "reading %s:%d-%d (bad index?)", seqName, start, end)
	}
	seq := make([]byte, 0, end-start)
	for _, b := range f.buf {
		if b != '\n' && b != '\r' {
			seq = append(seq, b)
		}
	}
	if uint64(len(seq)) != end-start {
		return "", errors.Errorf("reading %s:%d-%d: got %d bases (bad index?)", seqName, start, end, len(seq))
	}
	return string(seq), nil
}

// Len implements Fasta.Len().
func (f *indexedFasta) Len(seqName string) (uint64, error) {
	ent, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found in index: %s", seqName)
	}
	return uint64(ent.Length), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *indexedFasta) SeqNames() []string {
	return f.seqNames
}
