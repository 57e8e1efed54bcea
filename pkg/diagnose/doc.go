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

// Package diagnose runs one end-to-end diagnostic of the object storage
// plugin.
//
// A run checks for KUBECONFIG, verifies the cluster answers, runs the
// inspector health checks, optionally describes a PVC and pod and captures
// the provisioner log, deploys the collection agent, copies driver and
// mount-status logs from every target node, archives them, optionally pushes
// the archive to an OCI registry and removes the agent again.
//
// Every collaborator of Runner is replaceable, so tests drive a full run
// against a fake clientset:
//
//	r := &diagnose.Runner{
//	    LookupEnv: func(string) (string, bool) { return "/tmp/kubeconfig", true },
//	    NewClient: func(string) (client.Interface, *rest.Config, error) {
//	        return fake.NewClientset(objs...), &rest.Config{}, nil
//	    },
//	    Exec:   executor.NewFake(),
//	    Copier: copier,
//	}
//	summary, err := r.Run(ctx, diagnose.Options{DriverLogs: []string{"all"}})
//
// Only missing credentials, an unreachable cluster, a rejected agent, a
// readiness timeout, interruption, a failed push and a failed teardown are
// returned as errors.
package diagnose
