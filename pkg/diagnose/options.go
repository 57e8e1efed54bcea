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

package diagnose

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/k8s/agent"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/oci"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/serializer"
	corev1 "k8s.io/api/core/v1"
)

// Options are the user inputs of one diagnostic run.
type Options struct {
	// Namespace of the PVC and pod named below.
	Namespace string
	PVCName   string
	PodName   string

	// ProvisionerLog requests the plugin pod log. A PVC name implies it.
	ProvisionerLog bool
	// DriverLogs are raw --driver-log values: "all" or node identifiers.
	DriverLogs []string

	AgentNamespace   string
	AgentImage       string
	ImagePullSecrets []string
	Tolerations      []string

	PollInterval time.Duration
	MaxAttempts  int
	SettleDelay  time.Duration

	// WorkDir holds the manifest, the collected logs and the archive.
	WorkDir string

	ReportPath   string
	ReportFormat string

	// Push is an oci:// target for the archive.
	Push        string
	PlainHTTP   bool
	InsecureTLS bool

	MetricsFile string

	// GOOS selects the archiver; empty means runtime.GOOS.
	GOOS string
}

// validated holds the parsed forms of Options fields.
type validated struct {
	workDir      string
	tolerations  []corev1.Toleration
	reportFormat serializer.Format
	push         *oci.Reference
	plainHTTP    bool
	insecureTLS  bool
	goos         string
}

// wantsProvisionerLog reports whether s3provisioner.log is collected.
func (o Options) wantsProvisionerLog() bool {
	return o.ProvisionerLog || o.PVCName != ""
}

// validate parses everything that can be checked without a cluster.
func (o Options) validate() (*validated, error) {
	v := &validated{goos: o.GOOS, plainHTTP: o.PlainHTTP, insecureTLS: o.InsecureTLS}
	if v.goos == "" {
		v.goos = runtime.GOOS
	}

	dir := o.WorkDir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid work directory", err)
	}
	v.workDir = abs

	if v.tolerations, err = agent.ParseTolerations(o.Tolerations); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid toleration", err)
	}

	if o.ReportPath != "" {
		format := o.ReportFormat
		if format == "" {
			format = string(serializer.FormatYAML)
		}
		if v.reportFormat, err = serializer.ParseFormat(format); err != nil {
			return nil, err
		}
	}

	if o.Push != "" {
		if v.push, err = oci.ParseReference(o.Push); err != nil {
			return nil, err
		}
	}

	if o.MaxAttempts < 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "max attempts must not be negative",
			map[string]any{"maxAttempts": o.MaxAttempts})
	}
	return v, nil
}
