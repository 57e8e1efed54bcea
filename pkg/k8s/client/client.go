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

package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// KubeconfigEnvVar names the environment variable holding the kubeconfig path.
const KubeconfigEnvVar = "KUBECONFIG"

const (
	defaultQPS   = 20
	defaultBurst = 40
	userAgent    = "s3fs-diag"
)

// Interface is an alias for kubernetes.Interface to allow easier mocking in tests.
// This enables using fake.NewClientset() which returns kubernetes.Interface.
type Interface = kubernetes.Interface

// Factory builds a client for a kubeconfig path. The orchestrator takes one so
// tests can substitute a fake clientset.
type Factory func(kubeconfig string) (Interface, *rest.Config, error)

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// RequireKubeconfig returns the value of KUBECONFIG or an UNAUTHORIZED error
// when it is unset or empty. No file access happens here.
func RequireKubeconfig(lookup LookupEnv) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(KubeconfigEnvVar)
	if !ok || v == "" {
		return "", apperrors.New(apperrors.ErrCodeUnauthorized,
			"KUBECONFIG is not set; export KUBECONFIG=<path to cluster config> and retry")
	}
	return v, nil
}

// ResolveKubeconfig returns the kubeconfig path to load.
//
// Resolution order:
//  1. explicit path
//  2. KUBECONFIG environment variable
//  3. ~/.kube/config (if it exists)
//
// An empty result means in-cluster configuration should be used.
func ResolveKubeconfig(kubeconfig string) string {
	if kubeconfig != "" {
		return kubeconfig
	}
	if env := os.Getenv(KubeconfigEnvVar); env != "" {
		return env
	}
	p := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// IsPathList reports whether kubeconfig names more than one file, as a
// KUBECONFIG value like "a:b" does.
func IsPathList(kubeconfig string) bool {
	return strings.ContainsRune(kubeconfig, filepath.ListSeparator)
}

// loadConfig merges every file of a kubeconfig path list the way kubectl does.
// Missing files in the list are skipped.
func loadConfig(kubeconfig string) (*rest.Config, error) {
	rules := &clientcmd.ClientConfigLoadingRules{Precedence: filepath.SplitList(kubeconfig)}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
}

// BuildKubeClient creates a Kubernetes client from the given kubeconfig file
// or path list.
//
// An empty path is resolved with ResolveKubeconfig; if nothing is found the
// in-cluster service account is used.
//
// Example:
//
//	clientset, config, err := client.BuildKubeClient(os.Getenv("KUBECONFIG"))
//	if err != nil {
//	    return fmt.Errorf("failed to build client: %w", err)
//	}
func BuildKubeClient(kubeconfig string) (*kubernetes.Clientset, *rest.Config, error) {
	var config *rest.Config
	var err error

	kubeconfig = ResolveKubeconfig(kubeconfig)

	// Use InClusterConfig directly when no kubeconfig is available
	// This avoids the warning: "Neither --kubeconfig nor --master was specified"
	if kubeconfig == "" {
		config, err = rest.InClusterConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
	} else {
		if IsPathList(kubeconfig) {
			config, err = loadConfig(kubeconfig)
		} else {
			config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build kube config from %s: %w", kubeconfig, err)
		}
	}

	config.QPS = defaultQPS
	config.Burst = defaultBurst
	config.UserAgent = rest.DefaultKubernetesUserAgent() + " " + userAgent

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return client, config, nil
}

// New is the default Factory.
func New(kubeconfig string) (Interface, *rest.Config, error) {
	c, cfg, err := BuildKubeClient(kubeconfig)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to create cluster client", err)
	}
	return c, cfg, nil
}
