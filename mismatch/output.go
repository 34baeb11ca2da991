// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mismatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
	"github.com/klauspost/compress/gzip"
)

// matchColumns lists the composition columns in output order.
var matchColumns = [NBase]byte{BaseA, BaseT, BaseC, BaseG}

// Columns returns the header of the output table.
func Columns() []string {
	cols := []string{"gene_id", "mismatches", "bases", "low_qual"}
	for _, b := range matchColumns {
		cols = append(cols, string(EnumToASCIITable[b]))
	}
	for _, t := range TransitionColumns {
		cols = append(cols, t.Name())
	}
	return cols
}

// RowWriter writes GeneStats as TSV rows, after a header line.
type RowWriter struct {
	w *tsv.Writer
}

// NewRowWriter creates a RowWriter and writes the header to w.
func NewRowWriter(w io.Writer) (*RowWriter, error) {
	rw := &RowWriter{w: tsv.NewWriter(w)}
	for _, col := range Columns() {
		rw.w.WriteString(col)
	}
	if err := rw.w.EndLine(); err != nil {
		return nil, err
	}
	return rw, nil
}

// Write writes one row.
func (rw *RowWriter) Write(s *GeneStats) error {
	rw.w.WriteString(s.GeneID)
	rw.w.WriteInt64(int64(s.Mismatches))
	rw.w.WriteInt64(int64(s.Bases))
	rw.w.WriteInt64(int64(s.LowQual))
	for _, b := range matchColumns {
		rw.w.WriteInt64(int64(s.Matches[b]))
	}
	for _, t := range TransitionColumns {
		rw.w.WriteInt64(int64(s.Transition(t)))
	}
	return rw.w.EndLine()
}

// Flush writes any buffered rows to the underlying writer.
func (rw *RowWriter) Flush() error {
	return rw.w.Flush()
}

// Output formats.
const (
	FormatTSV    = "tsv"
	FormatTSVBgz = "tsv-bgz"
	FormatTSVGz  = "tsv-gz"
)

func validFormat(format string) bool {
	switch format {
	case FormatTSV, FormatTSVBgz, FormatTSVGz:
		return true
	}
	return false
}

// output is an open destination for the output table.
type output struct {
	ctx  context.Context
	f    file.File // nil for stdout
	comp io.WriteCloser
	w    io.Writer
}

// createOutput opens path for writing in the given format.  Path "" or "-"
// means standard output.
func createOutput(ctx context.Context, path, format string, parallelism int) (*output, error) {
	if !validFormat(format) {
		return nil, fmt.Errorf("mismatch: unknown output format %q", format)
	}
	out := &output{ctx: ctx, w: os.Stdout}
	if path != "" && path != "-" {
		f, err := file.Create(ctx, path)
		if err != nil {
			return nil, err
		}
		out.f = f
		out.w = f.Writer(ctx)
	}
	switch format {
	case FormatTSVBgz:
		if parallelism <= 0 {
			parallelism = runtime.NumCPU()
		}
		out.comp = bgzf.NewWriter(out.w, parallelism)
	case FormatTSVGz:
		out.comp = gzip.NewWriter(out.w)
	}
	if out.comp != nil {
		out.w = out.comp
	}
	return out, nil
}

// Close flushes the compressor, if any, and closes the file.
func (o *output) Close() (err error) {
	if o.comp != nil {
		err = o.comp.Close()
	}
	if o.f != nil {
		file.CloseAndReport(o.ctx, o.f, &err)
	}
	return
}
