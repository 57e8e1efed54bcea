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

package collector

import (
	"fmt"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/defaults"
)

// Kind names a collection phase.
type Kind string

const (
	// DriverLogs collects the s3fs driver log from each node.
	DriverLogs Kind = "driver"
	// DiagnosticLogs collects the agent's mount-status report from each node.
	DiagnosticLogs Kind = "diagnostic"
)

// LogSpec describes which file a phase copies and how it is named locally.
type LogSpec struct {
	Kind Kind
	// RemotePath is relative to the agent container's root.
	RemotePath string
	// Suffix forms the local file name <node>-<Suffix>.log.
	Suffix string
	// ScanErrors echoes lines containing ERROR after a successful copy.
	ScanErrors bool
}

// DriverLog is the first collection pass.
var DriverLog = LogSpec{
	Kind:       DriverLogs,
	RemotePath: "var/log/ibmc-s3fs.log",
	Suffix:     "ibmc-s3fs",
}

// DiagnosticLog is the second collection pass.
var DiagnosticLog = LogSpec{
	Kind:       DiagnosticLogs,
	RemotePath: "var/log/checkMountStatus.log",
	Suffix:     "s3fsMountStatus",
	ScanErrors: true,
}

// LocalName returns the file name the log of node is saved under.
func (s LogSpec) LocalName(node string) string {
	return fmt.Sprintf("%s-%s.log", node, s.Suffix)
}

// PoolSize returns the worker count for n available nodes:
// ceil(n/3), never below 1.
func PoolSize(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + defaults.NodesPerWorker - 1) / defaults.NodesPerWorker
}
