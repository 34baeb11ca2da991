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

	"github.com/grailbio/hts/sam"
)

var (
	mdTag = sam.Tag{'M', 'D'}
	nmTag = sam.Tag{'N', 'M'}
	nhTag = sam.Tag{'N', 'H'}
)

// AlignedPair is one aligned position of a read: a read base placed against
// a reference base.  RefBase is uppercase when the read base matches the
// reference, in which case it is the read base.  It is the lowercase
// reference base when the two disagree.
type AlignedPair struct {
	ReadPos int // zero-based offset in the read sequence, soft clips included
	RefPos  int // zero-based reference position
	RefBase byte
}

// mdCursor walks an MD tag value, e.g. "10A5^AC6", in step with the CIGAR.
type mdCursor struct {
	md      []byte
	pos     int
	matches int // matching bases left in the current run
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }

// readNumber adds the match run starting at the cursor, if any.
func (c *mdCursor) readNumber() {
	for c.pos < len(c.md) && isDigit(c.md[c.pos]) {
		c.matches = c.matches*10 + int(c.md[c.pos]-'0')
		c.pos++
	}
}

// next returns 0 if the next aligned base matches the reference, else the
// reference base.
func (c *mdCursor) next() (byte, error) {
	if c.matches > 0 {
		c.matches--
		return 0, nil
	}
	if c.pos >= len(c.md) {
		return 0, fmt.Errorf("MD tag %q is shorter than the alignment", c.md)
	}
	ref := c.md[c.pos]
	if !isLetter(ref) {
		return 0, fmt.Errorf("MD tag %q: expected a mismatched base at offset %d", c.md, c.pos)
	}
	c.pos++
	c.readNumber()
	return ref, nil
}

// deletion consumes n deleted reference bases.
func (c *mdCursor) deletion(n int) error {
	if c.matches != 0 || c.pos >= len(c.md) || c.md[c.pos] != '^' {
		return fmt.Errorf("MD tag %q: expected a deletion at offset %d", c.md, c.pos)
	}
	c.pos++
	for i := 0; i < n; i++ {
		if c.pos >= len(c.md) || !isLetter(c.md[c.pos]) {
			return fmt.Errorf("MD tag %q: deletion is shorter than %d bases", c.md, n)
		}
		c.pos++
	}
	c.readNumber()
	return nil
}

func (c *mdCursor) done() error {
	if c.matches != 0 || c.pos != len(c.md) {
		return fmt.Errorf("MD tag %q is longer than the alignment", c.md)
	}
	return nil
}

// AlignedPairs appends to dst the positions of r where both a read base and
// a reference base are present, in alignment order, and returns the extended
// slice.  Insertions, soft clips and deletions produce no pairs.  The
// reference bases come from r's MD tag.
func AlignedPairs(dst []AlignedPair, r *sam.Record) ([]AlignedPair, error) {
	aux := r.AuxFields.Get(mdTag)
	if aux == nil {
		return dst, fmt.Errorf("read %s: no MD tag", r.Name)
	}
	md, ok := aux.Value().(string)
	if !ok {
		return dst, fmt.Errorf("read %s: MD tag is not a string: %v", r.Name, aux)
	}
	c := mdCursor{md: []byte(md)}
	c.readNumber()

	readPos, refPos := 0, r.Pos
	for _, co := range r.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			if readPos+n > r.Seq.Length {
				return dst, fmt.Errorf("read %s: CIGAR %v is longer than the sequence (%d)", r.Name, r.Cigar, r.Seq.Length)
			}
			for i := 0; i < n; i++ {
				ref, err := c.next()
				if err != nil {
					return dst, fmt.Errorf("read %s: %v", r.Name, err)
				}
				if ref == 0 {
					ref = seqBase(r.Seq, readPos)
				} else {
					ref = toLower(ref)
				}
				dst = append(dst, AlignedPair{ReadPos: readPos, RefPos: refPos, RefBase: ref})
				readPos++
				refPos++
			}
		case sam.CigarInsertion, sam.CigarSoftClipped:
			readPos += n
		case sam.CigarDeletion:
			if err := c.deletion(n); err != nil {
				return dst, fmt.Errorf("read %s: %v", r.Name, err)
			}
			refPos += n
		case sam.CigarSkipped:
			refPos += n
		case sam.CigarHardClipped, sam.CigarPadded:
		default:
			return dst, fmt.Errorf("read %s: unsupported CIGAR operation %v", r.Name, co)
		}
	}
	if readPos != r.Seq.Length {
		return dst, fmt.Errorf("read %s: CIGAR %v covers %d bases, sequence has %d", r.Name, r.Cigar, readPos, r.Seq.Length)
	}
	if err := c.done(); err != nil {
		return dst, fmt.Errorf("read %s: %v", r.Name, err)
	}
	return dst, nil
}
