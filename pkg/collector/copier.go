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
	"context"
	"fmt"
	"strings"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/executor"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/k8s/client"
)

// Copier copies one file out of a pod.
type Copier interface {
	Copy(ctx context.Context, namespace, pod, remotePath, localPath string) error
}

// KubectlCopier copies with "kubectl cp" through an Executor.
type KubectlCopier struct {
	Exec executor.Executor
	// Container is passed with -c when set.
	Container string
	// Kubeconfig is passed with --kubeconfig when it names a single file.
	// A path list is left to kubectl, which reads KUBECONFIG itself.
	Kubeconfig string
}

// Args returns the kubectl arguments for a copy.
func (c *KubectlCopier) Args(namespace, pod, remotePath, localPath string) []string {
	args := []string{"cp"}
	if c.Kubeconfig != "" && !client.IsPathList(c.Kubeconfig) {
		args = append(args, "--kubeconfig", c.Kubeconfig)
	}
	if c.Container != "" {
		args = append(args, "-c", c.Container)
	}
	src := pod + ":" + remotePath
	if namespace != "" {
		src = namespace + "/" + src
	}
	return append(args, src, localPath)
}

// Copy implements Copier.
func (c *KubectlCopier) Copy(ctx context.Context, namespace, pod, remotePath, localPath string) error {
	res := c.Exec.Run(ctx, "kubectl", c.Args(namespace, pod, remotePath, localPath)...)
	if !res.OK() {
		return fmt.Errorf("kubectl cp from %s failed (%s, exit %d): %s",
			pod, res.Status, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}
