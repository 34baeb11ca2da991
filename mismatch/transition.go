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

// Transition is a substitution of reference base Ref by read base Read.
// Both fields hold base enums.
type Transition struct {
	Ref, Read byte
}

// NTransition is the number of distinct-base substitutions among A/C/G/T.
const NTransition = NBase * (NBase - 1)

// TransitionColumns lists the substitutions in output column order.
var TransitionColumns = [NTransition]Transition{
	{BaseA, BaseT}, {BaseA, BaseG}, {BaseA, BaseC},
	{BaseT, BaseA}, {BaseT, BaseG}, {BaseT, BaseC},
	{BaseG, BaseA}, {BaseG, BaseT}, {BaseG, BaseC},
	{BaseC, BaseA}, {BaseC, BaseT}, {BaseC, BaseG},
}

// Valid returns true iff t is one of the NTransition substitutions.
func (t Transition) Valid() bool {
	return t.Ref < NBase && t.Read < NBase && t.Ref != t.Read
}

// Name returns the column name of t, e.g. "c_to_t".
func (t Transition) Name() string {
	return string([]byte{EnumToASCIITable[t.Ref], '_', 't', 'o', '_', EnumToASCIITable[t.Read]})
}
