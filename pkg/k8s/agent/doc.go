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

/*
Package agent manages the per-node log-collection agent.

The agent is a privileged, host-network DaemonSet named s3fs-diagnostic. Each
pod mounts the node's root filesystem, /run/systemd and /var/log/, runs the
s3fs mount checks, and exposes ibmc-s3fs.log and checkMountStatus.log for
collection with kubectl cp.

# Lifecycle

The DaemonSet is built as a structured apps/v1 object, validated (DNS-1123
name, parseable image reference, a single container, a selector matching the
pod template) and written to diagnostic_daemon.yaml so the operator can see
exactly what was applied. Apply creates the object or updates an existing one
in place. AwaitReady then polls until NumberReady equals the number of Ready
nodes, and Teardown deletes the DaemonSet with foreground propagation.

# Usage Example

	deployer := agent.NewDeployer(clientset, agent.Config{
		Namespace: "default",
		RunID:     uuid.NewString(),
	}, console.NewPrinter(os.Stdout))

	path, err := deployer.WriteManifest(".")
	if err != nil {
		return err
	}
	if err := deployer.ApplyManifest(ctx, path); err != nil {
		return err
	}
	if _, err := deployer.AwaitReady(ctx, len(readyNodes)); err != nil {
		return err
	}
	defer deployer.Teardown(ctx)

# Errors

All errors returned by this package are *errors.StructuredError values:
INVALID_REQUEST for manifests that fail validation or are rejected by the API
server, UNAUTHORIZED for missing permissions, SERVICE_UNAVAILABLE for other
cluster-access failures, and TIMEOUT when readiness is not reached.
*/
package agent
