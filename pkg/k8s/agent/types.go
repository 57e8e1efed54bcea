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

package agent

import (
	"time"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/console"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/defaults"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	// DefaultName is the DaemonSet name and the value of its "name" label.
	DefaultName = "s3fs-diagnostic"

	// DefaultImage runs the node-side mount checks and exposes the s3fs logs.
	DefaultImage = "ambikanair/s3fs-diagnostic-tool:3"

	// DefaultNamespace is where the agent is deployed when none is given.
	DefaultNamespace = "default"

	// ManifestFileName is the file WriteManifest produces.
	ManifestFileName = "diagnostic_daemon.yaml"

	// NameLabel selects agent pods.
	NameLabel = "name"

	// RunIDLabel carries the identifier of the run that deployed the agent.
	RunIDLabel = "s3fs-diag/run-id"
)

// Config holds the configuration for deploying the agent.
type Config struct {
	Namespace        string
	Name             string
	Image            string
	ImagePullSecrets []string
	NodeSelector     map[string]string
	Tolerations      []corev1.Toleration
	RunID            string

	// PollInterval is the delay between readiness checks.
	PollInterval time.Duration
	// MaxAttempts is the readiness budget; attempt MaxAttempts+1 times out.
	MaxAttempts int
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Image == "" {
		c.Image = DefaultImage
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.AgentPollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.AgentMaxAttempts
	}
	return c
}

// DaemonSetState is one readiness observation.
type DaemonSetState struct {
	Desired int `json:"desired" yaml:"desired"`
	Ready   int `json:"ready" yaml:"ready"`

	// Scheduled is the DaemonSet's DesiredNumberScheduled. It stays below
	// Desired when taints keep the agent off some Ready nodes.
	Scheduled int `json:"scheduled" yaml:"scheduled"`
}

// Done reports whether every desired instance is ready.
func (s DaemonSetState) Done() bool {
	return s.Ready == s.Desired
}

// Deployer manages the lifecycle of the agent DaemonSet.
type Deployer struct {
	clientset kubernetes.Interface
	config    Config
	out       *console.Printer
}

// NewDeployer creates a new agent Deployer with the given configuration.
// A nil printer discards narration.
func NewDeployer(clientset kubernetes.Interface, config Config, out *console.Printer) *Deployer {
	if out == nil {
		out = console.Discard()
	}
	return &Deployer{
		clientset: clientset,
		config:    config.withDefaults(),
		out:       out,
	}
}

// Config returns the effective configuration.
func (d *Deployer) Config() Config {
	return d.config
}
