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

	"github.com/grailbio/genestats/interval"
)

// IntegrityKind names the way an alignment contradicted the reference.
type IntegrityKind int

const (
	// MatchConflict: the alignment marks a position as a match, but the
	// reference sequence holds a different base there.
	MatchConflict IntegrityKind = iota
	// AmbiguousMatch: the alignment marks a position as a match against an
	// N in the reference.
	AmbiguousMatch
	// InvalidTransition: a high-quality mismatch whose (reference, read) base
	// pair is not a substitution between two distinct bases of A/C/G/T.
	InvalidTransition
)

func (k IntegrityKind) String() string {
	switch k {
	case MatchConflict:
		return "match conflicts with reference"
	case AmbiguousMatch:
		return "match against ambiguous reference base"
	case InvalidTransition:
		return "invalid transition"
	}
	return fmt.Sprintf("IntegrityKind(%d)", int(k))
}

// IntegrityError describes an alignment that is inconsistent with the
// reference sequence.  It aborts the run.
type IntegrityError struct {
	Kind     IntegrityKind
	GeneID   string
	Span     interval.Interval
	ReadName string
	ReadPos  int
	RefPos   int
	// RefBase is the base the reference (or, for InvalidTransition, the MD
	// tag) holds at RefPos.
	RefBase byte
	// ObservedBase is the base the alignment reports at RefPos.
	ObservedBase byte
	ReadSeq      string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v: gene %s (%v), read %s, read pos %d, ref pos %d: reference %q, observed %q; read sequence %s",
		e.Kind, e.GeneID, e.Span, e.ReadName, e.ReadPos, e.RefPos, e.RefBase, e.ObservedBase, e.ReadSeq)
}
