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

/*
Package mismatch computes per-gene sequencing-error statistics from aligned
reads.

For each gene, every eligible read overlapping the gene's span is walked base
by base against the reference.  Aligned positions inside the span count toward
coverage; positions the alignment marks as matching the reference are
cross-checked against the reference sequence and tallied by nucleotide; and
mismatching positions are split by base quality, with high-quality mismatches
tallied into a 12-cell substitution table.

A read is eligible unless it is unmapped, a duplicate, or maps to more than
one locus (NH > 1).  The reference base at each aligned position is recovered
from the read's MD tag, so reads must carry MD, NM and NH tags.

Genes are processed in parallel; output rows are written in input order.
*/
package mismatch
