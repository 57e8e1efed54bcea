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

package executor

import (
	"context"
	"strings"
	"sync"
)

// Fake is a scripted Executor for tests. Responses are matched by the
// longest registered prefix of the rendered command line.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Result
	handler   func(name string, args []string) (Result, bool)
	calls     []string

	// Default is returned when nothing matches.
	Default Result
}

// NewFake returns a Fake whose unmatched commands succeed with empty output.
func NewFake() *Fake {
	return &Fake{responses: make(map[string]Result)}
}

// On registers res for any command line starting with prefix.
func (f *Fake) On(prefix string, res Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[prefix] = res
	return f
}

// Handle installs a function consulted before the prefix table.
// Returning false falls through to the table.
func (f *Fake) Handle(fn func(name string, args []string) (Result, bool)) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = fn
	return f
}

// Run implements Executor.
func (f *Fake) Run(_ context.Context, name string, args ...string) Result {
	line := CommandLine(name, args...)

	f.mu.Lock()
	f.calls = append(f.calls, line)
	handler := f.handler
	f.mu.Unlock()

	if handler != nil {
		if res, ok := handler(name, args); ok {
			return res
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	best := -1
	res := f.Default
	for prefix, r := range f.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > best {
			best = len(prefix)
			res = r
		}
	}
	return res
}

// Calls returns the rendered command lines in invocation order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
