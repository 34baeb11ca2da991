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
	"runtime"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/syncqueue"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/genestats/encoding/bamprovider"
	"github.com/grailbio/genestats/encoding/fasta"
	"github.com/grailbio/genestats/encoding/gtf"
	"github.com/grailbio/hts/sam"
)

// RunStats summarizes the reads seen by a Driver run.  A read overlapping k
// genes is seen k times.
type RunStats struct {
	Genes int
	Reads int
	// ByFilter counts reads by FilterRead outcome.
	ByFilter [NExclusion]int
}

func (s *RunStats) add(o *RunStats) {
	s.Genes += o.Genes
	s.Reads += o.Reads
	for i := range s.ByFilter {
		s.ByFilter[i] += o.ByFilter[i]
	}
}

// Driver computes GeneStats for a list of genes.
type Driver struct {
	Provider  bamprovider.Provider
	Reference fasta.Fasta
	// MinBaseQual is the base quality at or above which a mismatch is counted
	// in Mismatches rather than LowQual.
	MinBaseQual int
	// Parallelism is the number of genes processed concurrently; 0 means
	// runtime.NumCPU().
	Parallelism int
}

// Run processes genes and writes one row per gene to w, in the order of
// genes.  The first error stops the run; rows of later genes are not
// written.
func (d *Driver) Run(ctx context.Context, genes []gtf.Gene, w *RowWriter) (RunStats, error) {
	parallelism := d.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > len(genes) {
		parallelism = len(genes)
	}
	var total RunStats
	if parallelism == 0 {
		return total, nil
	}

	queue := syncqueue.NewOrderedQueue(2 * parallelism)
	var (
		wg       sync.WaitGroup
		writeErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			entry, ok, err := queue.Next()
			if err != nil || !ok {
				return
			}
			if writeErr = w.Write(entry.(*GeneStats)); writeErr != nil {
				queue.Close(writeErr) // nolint: errcheck
				return
			}
		}
	}()

	jobStats := make([]RunStats, parallelism)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		var pairs []AlignedPair
		for i := jobIdx; i < len(genes); i += parallelism {
			if err := ctx.Err(); err != nil {
				queue.Close(err) // nolint: errcheck
				return err
			}
			var (
				stats *GeneStats
				err   error
			)
			stats, pairs, err = d.countGene(&genes[i], pairs, &jobStats[jobIdx])
			if err == nil {
				err = queue.Insert(i, stats)
			}
			if err != nil {
				queue.Close(err) // nolint: errcheck
				return err
			}
		}
		return nil
	})
	if err == nil {
		err = queue.Close(nil)
	}
	wg.Wait()
	if writeErr != nil {
		err = writeErr
	}
	for i := range jobStats {
		total.add(&jobStats[i])
	}
	return total, err
}

// countGene computes the statistics of one gene.  pairs is scratch space; the
// possibly grown slice is returned for reuse.
func (d *Driver) countGene(g *gtf.Gene, pairs []AlignedPair, rs *RunStats) (*GeneStats, []AlignedPair, error) {
	span, err := g.Span()
	if err != nil {
		return nil, pairs, err
	}
	refSeq, err := d.Reference.Get(span.Contig, uint64(span.Start), uint64(span.End))
	if err != nil {
		return nil, pairs, errors.E(err, fmt.Sprintf("gene %s: reference %v", g.ID, span))
	}
	region := GeneRegion{GeneID: g.ID, Span: span, RefSeq: refSeq}
	stats := &GeneStats{GeneID: g.ID}
	var readCounts Counts

	iter := d.Provider.Fetch(span.Contig, int(span.Start), int(span.End))
	for iter.Scan() {
		r := iter.Record()
		rs.Reads++
		var excl Exclusion
		if excl, err = FilterRead(r); err == nil && excl == Eligible {
			if pairs, err = AlignedPairs(pairs[:0], r); err == nil {
				readCounts = Counts{}
				if err = ClassifyRead(&readCounts, &region, r, pairs, d.MinBaseQual); err == nil {
					stats.Add(&readCounts)
				}
			}
		}
		rs.ByFilter[excl]++
		sam.PutInFreePool(r)
		if err != nil {
			iter.Close() // nolint: errcheck
			return nil, pairs, errors.E(err, fmt.Sprintf("gene %s", g.ID))
		}
	}
	if err := iter.Close(); err != nil {
		return nil, pairs, errors.E(err, fmt.Sprintf("gene %s: reads in %v", g.ID, span))
	}
	rs.Genes++
	log.Debug.Printf("gene %s (%v): %d bases, %d mismatches", g.ID, span, stats.Bases, stats.Mismatches)
	return stats, pairs, nil
}
