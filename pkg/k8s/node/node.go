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

package node

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8s "k8s.io/client-go/kubernetes"
)

// ListOptions contains the configuration options for listing nodes in a Kubernetes cluster.
type ListOptions struct {
	// LabelSelector is a selector to filter nodes based on labels.
	LabelSelector string
	// FieldSelector is a selector to filter nodes based on fields.
	FieldSelector string
	// Limit is the maximum number of nodes to return (0 means the absolute cap).
	Limit int64
}

const (
	nodeListPageSizeDefault int64 = 500
	nodeListAbsoluteMax     int64 = 10000 // Hard cap to prevent memory exhaustion
)

// List returns the nodes in the cluster matching opt.
// Results are fetched in pages of up to 500 nodes.
func List(ctx context.Context, client k8s.Interface, opt ListOptions) ([]*v1.Node, error) {
	if client == nil {
		return nil, fmt.Errorf("kubernetes client is required")
	}

	effectiveLimit := opt.Limit
	if effectiveLimit <= 0 || effectiveLimit > nodeListAbsoluteMax {
		effectiveLimit = nodeListAbsoluteMax
	}

	pageSize := nodeListPageSizeDefault
	if effectiveLimit < pageSize {
		pageSize = effectiveLimit
	}

	var all []*v1.Node
	continueToken := ""
	totalFetched := int64(0)

	for {
		currentLimit := pageSize
		if totalFetched+currentLimit > effectiveLimit {
			currentLimit = effectiveLimit - totalFetched
		}

		slog.Debug("fetching nodes",
			slog.Int64("limit", currentLimit),
			slog.Int64("totalSoFar", totalFetched),
			slog.Bool("hasContinueToken", continueToken != ""),
		)

		list, err := client.CoreV1().Nodes().List(ctx, metav1.ListOptions{
			LabelSelector: opt.LabelSelector,
			FieldSelector: opt.FieldSelector,
			Limit:         currentLimit,
			Continue:      continueToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get nodes: %w", err)
		}

		for i := range list.Items {
			all = append(all, &list.Items[i])
		}
		totalFetched += int64(len(list.Items))

		continueToken = list.Continue
		if continueToken == "" || totalFetched >= effectiveLimit {
			break
		}
	}

	return all, nil
}

// IsReady reports whether the node's Ready condition is True.
func IsReady(n *v1.Node) bool {
	if n == nil {
		return false
	}
	for _, c := range n.Status.Conditions {
		if c.Type == v1.NodeReady {
			return c.Status == v1.ConditionTrue
		}
	}
	return false
}

// ReadyNodes returns the sorted names of nodes whose Ready condition is True.
func ReadyNodes(ctx context.Context, client k8s.Interface) ([]string, error) {
	list, err := List(ctx, client, ListOptions{})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(list))
	for _, n := range list {
		if IsReady(n) {
			names = append(names, n.Name)
		}
	}
	sort.Strings(names)

	slog.Debug("ready nodes", "total", len(list), "ready", len(names))
	return names, nil
}
