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

// Package client builds Kubernetes clients for the diagnostic run.
//
// Unlike a long-running service, s3fs-diag creates exactly one client per run
// and passes it explicitly to the inspector, deployer and collector. There is
// no package-level cache.
//
// # Credential Precondition
//
// The tool refuses to talk to a cluster unless KUBECONFIG is set:
//
//	path, err := client.RequireKubeconfig(os.LookupEnv)
//	if err != nil {
//	    return err // UNAUTHORIZED, exit status 1
//	}
//	clientset, _, err := client.New(path)
//
// # Authentication Modes
//
// BuildKubeClient resolves the kubeconfig source in order: explicit path,
// KUBECONFIG, ~/.kube/config. When none exists it falls back to the
// in-cluster service account.
//
// # Testing
//
// Interface is an alias for kubernetes.Interface, so tests pass a
// fake.NewClientset() wherever a client is expected, and the orchestrator
// accepts a Factory to avoid touching real kubeconfig files.
package client
