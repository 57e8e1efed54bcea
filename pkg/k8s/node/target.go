// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package node

import (
	"strings"
)

// AllNodes is the --driver-log value selecting every Ready node.
const AllNodes = "all"

// Target is the node selection for driver-log collection.
type Target struct {
	// All selects every Ready node; the caller lists them once the agent is ready.
	All bool
	// Nodes are explicit identifiers (names or host IPs), de-duplicated,
	// in first-seen order.
	Nodes []string
}

// ParseDriverLogTargets interprets repeated --driver-log values.
// Each value is split on commas and trimmed; an element equal to "all"
// (any case) selects every node and discards explicit names.
func ParseDriverLogTargets(values []string) Target {
	var t Target
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), AllNodes) {
				return Target{All: true}
			}
			t.Add(part)
		}
	}
	return t
}

// Add appends id unless it is empty, already present, or All is set.
// It reports whether id was added.
func (t *Target) Add(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || t.All {
		return false
	}
	for _, n := range t.Nodes {
		if n == id {
			return false
		}
	}
	t.Nodes = append(t.Nodes, id)
	return true
}

// Empty reports whether nothing was selected.
func (t Target) Empty() bool {
	return !t.All && len(t.Nodes) == 0
}

// Resolve returns the concrete identifiers for the target. ready is used when
// All is set.
func (t Target) Resolve(ready []string) []string {
	if t.All {
		out := make([]string, len(ready))
		copy(out, ready)
		return out
	}
	out := make([]string, len(t.Nodes))
	copy(out, t.Nodes)
	return out
}
