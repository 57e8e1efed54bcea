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

// Package collector copies per-node logs out of the agent pods.
//
// A collection run is two sequential phases. Each phase builds its own
// WorkQueue, enqueues the target node identifiers once each, and drains it
// with a fixed worker set of PoolSize(readyNodes) goroutines:
//
//	Idle -> Populated -> Draining -> Drained
//
// For every node a worker resolves the agent pod on that node, copies one log
// file to <node>-<suffix>.log and acknowledges the item. Resolution or copy
// failures are counted in the PhaseResult and never fail the phase.
//
// # Phases
//
//	DriverLog      var/log/ibmc-s3fs.log         -> <node>-ibmc-s3fs.log
//	DiagnosticLog  var/log/checkMountStatus.log  -> <node>-s3fsMountStatus.log
//
// The diagnostic phase also echoes every line containing ERROR.
//
// # Usage
//
//	phase := &collector.Phase{
//	    Log:       collector.DriverLog,
//	    Workers:   collector.PoolSize(len(ready)),
//	    Namespace: "default",
//	    Dir:       workdir,
//	    Resolver:  collector.NewPodResolver(clientset, "default", "name=s3fs-diagnostic", 5),
//	    Copier:    &collector.KubectlCopier{Exec: executor.NewLocal(printer)},
//	    Out:       printer,
//	}
//	res, err := phase.Run(ctx, nodes)
//
// # Metrics
//
// Copy outcomes, phase durations, pod lookup latency and worker counts are
// registered with the default Prometheus registry under s3fs_diag_collector_*.
package collector
