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

// Package k8s provides Kubernetes integration for s3fs-diag.
//
// # Sub-packages
//
// client: client construction and the KUBECONFIG precondition
//
//	clientset, _, err := client.New(os.Getenv("KUBECONFIG"))
//
// node: Ready-node enumeration and driver-log target parsing
//
//	nodes, err := node.ReadyNodes(ctx, clientset)
//
// agent: DaemonSet lifecycle for the per-node log agent
//
//	deployer := agent.NewDeployer(clientset, agentConfig, printer)
//	if err := deployer.Deploy(ctx); err != nil {
//	    return err
//	}
//	state, err := deployer.AwaitReady(ctx, len(nodes))
//	defer deployer.Teardown(ctx)
//
// # Architecture
//
//   - Explicit clients: every component receives a kubernetes.Interface, so
//     tests substitute fake clientsets.
//
//   - Structured agent: the DaemonSet is built as an apps/v1 object,
//     validated, written as YAML for the operator, and applied with
//     create-or-update semantics.
package k8s
