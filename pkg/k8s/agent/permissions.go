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
	"context"
	"fmt"
	"strings"

	apperrors "github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	authv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PermissionCheck represents a single permission check result.
type PermissionCheck struct {
	Group       string
	Resource    string
	Subresource string
	Verb        string
	Namespace   string
	Allowed     bool
	Reason      string
}

// CheckPermissions verifies that the current user can deploy, poll, read
// from and delete the agent. It returns every check made and an UNAUTHORIZED
// error listing the missing permissions.
func (d *Deployer) CheckPermissions(ctx context.Context) ([]PermissionCheck, error) {
	checks := []PermissionCheck{}
	ns := d.config.Namespace

	requiredChecks := []struct {
		group       string
		resource    string
		subresource string
		verb        string
		namespace   string
	}{
		{"apps", "daemonsets", "", "create", ns},
		{"apps", "daemonsets", "", "get", ns},
		{"apps", "daemonsets", "", "update", ns},
		{"", "pods", "", "list", ns},
		{"", "pods", "exec", "create", ns},

		// Cluster-scoped resources
		{"", "nodes", "", "list", ""},

		// Cleanup permissions
		{"apps", "daemonsets", "", "delete", ns},
	}

	var missingPermissions []string

	for _, check := range requiredChecks {
		allowed, reason, err := d.checkPermission(ctx, check.group, check.resource, check.subresource, check.verb, check.namespace)
		if err != nil {
			return checks, classifyAPIError(
				fmt.Sprintf("failed to check permission for %s %s", check.verb, check.resource), err)
		}

		checks = append(checks, PermissionCheck{
			Group:       check.group,
			Resource:    check.resource,
			Subresource: check.subresource,
			Verb:        check.verb,
			Namespace:   check.namespace,
			Allowed:     allowed,
			Reason:      reason,
		})

		if !allowed {
			scope := "cluster-scoped"
			if check.namespace != "" {
				scope = fmt.Sprintf("namespace %q", check.namespace)
			}
			res := check.resource
			if check.subresource != "" {
				res += "/" + check.subresource
			}
			missingPermissions = append(missingPermissions, fmt.Sprintf("%s %s (%s)", check.verb, res, scope))
		}
	}

	if len(missingPermissions) > 0 {
		return checks, apperrors.NewWithContext(apperrors.ErrCodeUnauthorized,
			fmt.Sprintf("missing required permissions:\n  - %s", strings.Join(missingPermissions, "\n  - ")),
			map[string]any{"namespace": ns})
	}

	return checks, nil
}

// checkPermission checks if the current user can perform the specified action.
func (d *Deployer) checkPermission(ctx context.Context, group, resource, subresource, verb, namespace string) (bool, string, error) {
	review := &authv1.SelfSubjectAccessReview{
		Spec: authv1.SelfSubjectAccessReviewSpec{
			ResourceAttributes: &authv1.ResourceAttributes{
				Group:       group,
				Verb:        verb,
				Resource:    resource,
				Subresource: subresource,
				Namespace:   namespace,
			},
		},
	}

	result, err := d.clientset.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, review, metav1.CreateOptions{})
	if err != nil {
		return false, "", err
	}

	return result.Status.Allowed, result.Status.Reason, nil
}
