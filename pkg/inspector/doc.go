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

// Package inspector runs the read-only health checks for the object
// storage plugin and produces an ordered Report.
//
// Each check prints operator narration through a console.Printer and
// records a Check with a pass, fail or skip status. A failed cluster query
// only fails its own check:
//
//	insp := inspector.New(clientset, printer, inspector.WithRunID(runID))
//	report := insp.RunHealthChecks(ctx)
//	if report.Count(inspector.StatusFail) > 0 {
//	    // surface, but keep collecting
//	}
//
// The package also describes user-named PVCs and pods and captures the
// provisioner log from the plugin pod.
package inspector
