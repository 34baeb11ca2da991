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

// Exclusion says why a read does not count toward any gene.
type Exclusion int

const (
	// Eligible reads are counted.
	Eligible Exclusion = iota
	// Unmapped reads are excluded.
	Unmapped
	// Duplicate reads are excluded.
	Duplicate
	// MultiMapped reads, whose NH tag exceeds 1, are excluded.
	MultiMapped
	// NExclusion is the number of Exclusion values.
	NExclusion
)

var exclusionNames = [NExclusion]string{"eligible", "unmapped", "duplicate", "multimapped"}

func (e Exclusion) String() string {
	if e < 0 || e >= NExclusion {
		return fmt.Sprintf("Exclusion(%d)", int(e))
	}
	return exclusionNames[e]
}

// FilterRead decides whether r is eligible for counting.  The edit distance
// is not consulted.  It is an error for a mapped, non-duplicate read to lack
// an NH tag.
func FilterRead(r *sam.Record) (Exclusion, error) {
	if r.Flags&sam.Unmapped != 0 {
		return Unmapped, nil
	}
	if r.Flags&sam.Duplicate != 0 {
		return Duplicate, nil
	}
	nh, err := intTag(r, nhTag)
	if err != nil {
		return Eligible, err
	}
	if nh > 1 {
		return MultiMapped, nil
	}
	return Eligible, nil
}

// intTag returns the value of an integer aux tag of r.  It is an error for
// the tag to be missing or to hold a non-integer value.
func intTag(r *sam.Record, tag sam.Tag) (int, error) {
	aux := r.AuxFields.Get(tag)
	if aux == nil {
		return 0, fmt.Errorf("read %s: no %s tag", r.Name, tag)
	}
	switch v := aux.Value().(type) {
	case int8:
		return int(v), nil
	case uint8:
		return int(v), nil
	case int16:
		return int(v), nil
	case uint16:
		return int(v), nil
	case int32:
		return int(v), nil
	case uint32:
		return int(v), nil
	}
	return 0, fmt.Errorf("read %s: %s tag is not an integer: %v", r.Name, tag, aux)
}
