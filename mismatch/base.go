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
	"github.com/grailbio/hts/sam"
)

// These constants index the per-nucleotide count arrays.  The order matches
// the packed 2-bit representation of A/C/G/T.
const (
	// BaseA represents an A base.
	BaseA byte = iota
	// BaseC represents an C base.
	BaseC
	// BaseG represents an G base.
	BaseG
	// BaseT represents an T base.
	BaseT
	// BaseX is a catch-all for N and the other IUPAC codes.
	BaseX
)

// NBase is the number of regular base types.
const NBase = 4

// EnumToASCIITable is the A/C/G/T/X -> lowercase ASCII mapping, with X
// rendered as 'n'.
var EnumToASCIITable = [...]byte{'a', 'c', 'g', 't', 'n'}

// seq8ToASCIITable is the .bam seq nibble -> ASCII mapping.
var seq8ToASCIITable = [...]byte{'=', 'A', 'C', 'M', 'G', 'R', 'S', 'V', 'T', 'W', 'Y', 'H', 'K', 'D', 'B', 'N'}

// asciiToEnumTable maps both cases of A/C/G/T to their enum; everything else
// maps to BaseX.
var asciiToEnumTable [256]byte

func init() {
	for i := range asciiToEnumTable {
		asciiToEnumTable[i] = BaseX
	}
	for enum, c := range EnumToASCIITable[:NBase] {
		asciiToEnumTable[c] = byte(enum)
		asciiToEnumTable[c-'a'+'A'] = byte(enum)
	}
}

// BaseEnum returns the A/C/G/T/X enum of an ASCII base, ignoring case.
func BaseEnum(c byte) byte {
	return asciiToEnumTable[c]
}

func isLower(c byte) bool {
	return c >= 'a' && c <= 'z'
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func toUpper(c byte) byte {
	if isLower(c) {
		return c - ('a' - 'A')
	}
	return c
}

// seqBase returns the uppercase ASCII base at position i of a read sequence.
func seqBase(s sam.Seq, i int) byte {
	d := s.Seq[i>>1]
	if i&1 == 0 {
		return seq8ToASCIITable[d>>4]
	}
	return seq8ToASCIITable[d&0xf]
}
