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

// Counts accumulates sequencing-error statistics over the reads of one gene.
type Counts struct {
	// Mismatches counts mismatches with base quality at or above the
	// threshold.
	Mismatches int
	// Bases counts aligned positions whose reference base is not N.
	Bases int
	// LowQual counts mismatches with base quality below the threshold.
	LowQual int
	// Matches counts verified matches by reference base, indexed by base
	// enum.
	Matches [NBase]int
	// Transitions counts high-quality mismatches by (reference base, read
	// base) enum.  The diagonal is always zero.
	Transitions [NBase][NBase]int
}

// Add adds o into c.
func (c *Counts) Add(o *Counts) {
	c.Mismatches += o.Mismatches
	c.Bases += o.Bases
	c.LowQual += o.LowQual
	for i := range c.Matches {
		c.Matches[i] += o.Matches[i]
	}
	for i := range c.Transitions {
		for j := range c.Transitions[i] {
			c.Transitions[i][j] += o.Transitions[i][j]
		}
	}
}

// Transition returns the count of substitution t.
func (c *Counts) Transition(t Transition) int {
	return c.Transitions[t.Ref][t.Read]
}

// GeneStats is one output row.
type GeneStats struct {
	GeneID string
	Counts
}
