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
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// TolerateAll is the --toleration value that accepts every taint.
const TolerateAll = "*"

// AllTolerations returns tolerations that accept all taints.
func AllTolerations() []corev1.Toleration {
	return []corev1.Toleration{
		{
			Operator: corev1.TolerationOpExists,
		},
	}
}

// ParseTolerations parses toleration strings in format "key=value:effect" or "key:effect".
// No input yields no tolerations, so the agent only lands on untainted nodes.
func ParseTolerations(tolerations []string) ([]corev1.Toleration, error) {
	if len(tolerations) == 0 {
		return nil, nil
	}

	result := make([]corev1.Toleration, 0, len(tolerations))
	for _, t := range tolerations {
		if strings.TrimSpace(t) == TolerateAll {
			return AllTolerations(), nil
		}

		// Format: key=value:effect or key:effect (for exists operator)
		parts := strings.Split(t, ":")
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid toleration %q, expected key=value:effect or key:effect", t)
		}

		effect := corev1.TaintEffect(parts[1])
		switch effect {
		case corev1.TaintEffectNoSchedule, corev1.TaintEffectPreferNoSchedule, corev1.TaintEffectNoExecute, "":
		default:
			return nil, fmt.Errorf("invalid toleration %q, unknown effect %q", t, parts[1])
		}

		var key, value string
		if k, v, ok := strings.Cut(parts[0], "="); ok {
			key, value = k, v
		} else {
			key = parts[0]
		}

		toleration := corev1.Toleration{
			Key:    key,
			Effect: effect,
		}

		if value != "" {
			toleration.Operator = corev1.TolerationOpEqual
			toleration.Value = value
		} else {
			toleration.Operator = corev1.TolerationOpExists
		}

		result = append(result, toleration)
	}
	return result, nil
}
