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
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/genestats/interval"
	"github.com/grailbio/hts/sam"
)

// GeneRegion is a gene span together with the reference bases it covers.
type GeneRegion struct {
	GeneID string
	Span   interval.Interval
	// RefSeq holds the reference bases of Span; len(RefSeq) == Span.Len().
	// Case is ignored.
	RefSeq string
}

// ClassifyRead adds the contribution of one eligible read to dst.  pairs is
// the read's AlignedPairs output; only pairs inside g.Span are counted.
//
// Bases counts pairs whose reference base is not N.  Matches are
// cross-checked against g.RefSeq and tallied by base.  Unless the read's NM
// tag is 0, mismatches against a non-N reference base are tallied into
// Mismatches and Transitions when the read's base quality is at least
// minBaseQual, and into LowQual otherwise.
//
// An alignment inconsistent with the reference yields an error of kind
// errors.Integrity wrapping an *IntegrityError; dst is then partially updated
// and should be discarded.
func ClassifyRead(dst *Counts, g *GeneRegion, r *sam.Record, pairs []AlignedPair, minBaseQual int) error {
	nm, err := intTag(r, nmTag)
	if err != nil {
		return err
	}
	if len(g.RefSeq) != g.Span.Len() {
		return fmt.Errorf("gene %s: reference has %d bases, span %v has %d", g.GeneID, len(g.RefSeq), g.Span, g.Span.Len())
	}
	start := int(g.Span.Start)
	for _, p := range pairs {
		if !g.Span.Contains(interval.PosType(p.RefPos)) {
			continue
		}
		lower := toLower(p.RefBase)
		if lower != 'n' {
			dst.Bases++
		}
		if !isLower(p.RefBase) {
			ref := g.RefSeq[p.RefPos-start]
			if toLower(ref) != lower {
				return integrityError(MatchConflict, g, r, p, toUpper(ref), p.RefBase)
			}
			if lower == 'n' {
				return integrityError(AmbiguousMatch, g, r, p, toUpper(ref), p.RefBase)
			}
			if b := BaseEnum(lower); b < NBase {
				dst.Matches[b]++
			}
			continue
		}
		if nm == 0 || lower == 'n' {
			continue
		}
		q, err := baseQual(r, p.ReadPos)
		if err != nil {
			return err
		}
		if q < minBaseQual {
			dst.LowQual++
			continue
		}
		dst.Mismatches++
		readBase := seqBase(r.Seq, p.ReadPos)
		t := Transition{Ref: BaseEnum(lower), Read: BaseEnum(readBase)}
		if !t.Valid() {
			return integrityError(InvalidTransition, g, r, p, lower, toLower(readBase))
		}
		dst.Transitions[t.Ref][t.Read]++
	}
	return nil
}

// baseQual returns the phred quality of the read base at readPos.
func baseQual(r *sam.Record, readPos int) (int, error) {
	if len(r.Qual) != r.Seq.Length || (len(r.Qual) > 0 && r.Qual[0] == 0xff) {
		return 0, fmt.Errorf("read %s: base qualities are missing", r.Name)
	}
	return int(r.Qual[readPos]), nil
}

func integrityError(kind IntegrityKind, g *GeneRegion, r *sam.Record, p AlignedPair, refBase, observed byte) error {
	return errors.E(errors.Integrity, &IntegrityError{
		Kind:         kind,
		GeneID:       g.GeneID,
		Span:         g.Span,
		ReadName:     r.Name,
		ReadPos:      p.ReadPos,
		RefPos:       p.RefPos,
		RefBase:      refBase,
		ObservedBase: observed,
		ReadSeq:      string(r.Seq.Expand()),
	})
}
