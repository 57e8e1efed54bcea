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

// Package defaults provides centralized configuration constants for s3fs-diag.
//
// This package defines polling intervals, attempt budgets, settling delays and
// Kubernetes timeouts used across the codebase. Every value here can be
// overridden from the command line; these are the values used when a flag is
// not given.
//
// # Usage
//
//	import "github.com/NVIDIA/s3fs-diagnostic/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.K8sCleanupTimeout)
//	defer cancel()
//
// # Readiness Budget
//
// The agent DaemonSet is polled every AgentPollInterval. After AgentMaxAttempts
// unsuccessful checks one final check is made; if that also fails the run is
// aborted with a timeout.
package defaults
