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

package inspector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	corev1 "k8s.io/api/core/v1"
)

// ProvisionerLogFile is the local file the plugin pod log is written to.
const ProvisionerLogFile = "s3provisioner.log"

// CollectProvisionerLog streams the plugin pod log into path. It reports
// false without error when the pod is missing or not running.
func (i *Inspector) CollectProvisionerLog(ctx context.Context, path string) (bool, error) {
	i.out.Banner("Collecting provisioner log")

	pod, err := i.findPluginPod(ctx)
	if err != nil {
		i.out.Printf("ERROR: %v\n", err)
		return false, nil
	}
	if pod == nil {
		i.out.Printf("ERROR: %s pod not found. Provisioner log cannot be fetched.\n", PluginName)
		return false, nil
	}
	if status := podStatus(pod); status != string(corev1.PodRunning) {
		i.out.Printf("ERROR: %s is in %q state. Provisioner log cannot be fetched.\n", PluginName, status)
		return false, nil
	}

	// Log streams are not bounded by the per-call timeout.
	stream, err := i.client.CoreV1().Pods(pod.Namespace).GetLogs(pod.Name, &corev1.PodLogOptions{}).Stream(ctx)
	if err != nil {
		i.out.Printf("ERROR: %v\n", err)
		return false, errors.WrapWithContext(errors.ErrCodeUnavailable, "failed to stream provisioner log", err,
			map[string]any{"pod": pod.Name, "namespace": pod.Namespace})
	}
	defer stream.Close()

	f, err := os.Create(path)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to create %s", path), err)
	}

	n, copyErr := io.Copy(f, stream)
	closeErr := f.Close()
	if copyErr != nil {
		return false, errors.Wrap(errors.ErrCodeUnavailable, "failed to read provisioner log", copyErr)
	}
	if closeErr != nil {
		return false, errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to close %s", path), closeErr)
	}

	slog.Debug("provisioner log written", "pod", pod.Name, "path", path, "bytes", n)
	i.out.Println("Success!!!")
	return true, nil
}
