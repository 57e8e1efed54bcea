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
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Resolver finds the agent pod running on a node.
type Resolver interface {
	Resolve(ctx context.Context, node string) (string, error)
}

// PodResolver lists agent pods by label and matches the node identifier
// against spec.nodeName, status.hostIP and status.podIP.
type PodResolver struct {
	Client    kubernetes.Interface
	Namespace string
	// Selector is a label selector for agent pods, e.g. name=s3fs-diagnostic.
	Selector string
	// Limiter throttles list calls. Nil means unthrottled.
	Limiter *rate.Limiter
}

// NewPodResolver returns a PodResolver allowing qps list calls per second.
func NewPodResolver(client kubernetes.Interface, namespace, selector string, qps float64) *PodResolver {
	var limiter *rate.Limiter
	if qps > 0 {
		limiter = rate.NewLimiter(rate.Limit(qps), 1)
	}
	return &PodResolver{
		Client:    client,
		Namespace: namespace,
		Selector:  selector,
		Limiter:   limiter,
	}
}

// Resolve implements Resolver. A Running pod is preferred when more than one
// matches.
func (r *PodResolver) Resolve(ctx context.Context, node string) (string, error) {
	start := time.Now()
	defer func() {
		podResolveDuration.Observe(time.Since(start).Seconds())
	}()

	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("throttled lookup for node %s: %w", node, err)
		}
	}

	pods, err := r.Client.CoreV1().Pods(r.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: r.Selector,
	})
	if err != nil {
		return "", fmt.Errorf("failed to list agent pods: %w", err)
	}

	var match string
	for i := range pods.Items {
		p := &pods.Items[i]
		if !onNode(p, node) {
			continue
		}
		if p.Status.Phase == corev1.PodRunning {
			return p.Name, nil
		}
		if match == "" {
			match = p.Name
		}
	}
	if match == "" {
		return "", fmt.Errorf("no agent pod found on node %s", node)
	}

	slog.Debug("agent pod is not running", "node", node, "pod", match)
	return match, nil
}

func onNode(p *corev1.Pod, node string) bool {
	return p.Spec.NodeName == node || p.Status.HostIP == node || p.Status.PodIP == node
}
