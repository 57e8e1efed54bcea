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

package defaults

import "time"

// Agent readiness polling.
const (
	// AgentPollInterval is the delay between two readiness checks of the agent DaemonSet.
	AgentPollInterval = 10 * time.Second

	// AgentMaxAttempts is the readiness budget. The check that would be
	// attempt AgentMaxAttempts+1 reports a timeout instead of sleeping again.
	AgentMaxAttempts = 30
)

// Collection timing.
const (
	// SettleDelay is the pause after driver-log collection and after the
	// diagnostic pass, giving the agent time to flush its mount checks.
	SettleDelay = 10 * time.Second

	// NodesPerWorker sets the worker pool size to ceil(nodes/NodesPerWorker).
	NodesPerWorker = 3

	// PodLookupQPS throttles pod-resolution queries issued by collector workers.
	PodLookupQPS = 5
)

// Kubernetes timeouts for K8s API operations.
const (
	// K8sCallTimeout bounds a single read-only inspector query.
	K8sCallTimeout = 30 * time.Second

	// K8sDeletionTimeout bounds the wait for a replaced DaemonSet to disappear.
	K8sDeletionTimeout = 30 * time.Second

	// K8sCleanupTimeout is the timeout for teardown of the agent.
	K8sCleanupTimeout = 30 * time.Second
)

// OCI push timeouts.
const (
	// PushTimeout bounds the upload of the diagnostic archive to a registry.
	PushTimeout = 5 * time.Minute
)
