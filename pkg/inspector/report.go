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

package inspector

import (
	"time"
)

// Status is the outcome of one check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Check is one line of the health report.
type Check struct {
	Section string `json:"section" yaml:"section"`
	Name    string `json:"name" yaml:"name"`
	Status  Status `json:"status" yaml:"status"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Report is the ordered result of RunHealthChecks.
type Report struct {
	RunID     string    `json:"runId,omitempty" yaml:"runId,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Checks    []Check   `json:"checks" yaml:"checks"`
}

// NewReport returns an empty report stamped with the current time.
func NewReport(runID string) *Report {
	return &Report{
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Checks:    []Check{},
	}
}

func (r *Report) add(section, name string, status Status, detail string) {
	r.Checks = append(r.Checks, Check{Section: section, Name: name, Status: status, Detail: detail})
}

// Count returns the number of checks with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the failed checks in order.
func (r *Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			out = append(out, c)
		}
	}
	return out
}

// Header implements serializer.Tabular.
func (r *Report) Header() []string {
	return []string{"SECTION", "CHECK", "STATUS", "DETAIL"}
}

// Rows implements serializer.Tabular.
func (r *Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		rows = append(rows, []string{c.Section, c.Name, string(c.Status), c.Detail})
	}
	return rows
}
