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
	"errors"
	"strings"
	"testing"

	apperrors "github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	authv1 "k8s.io/api/authorization/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

// allowAccessReviews makes every SelfSubjectAccessReview succeed.
func allowAccessReviews(clientset *fake.Clientset, allowed bool) {
	clientset.PrependReactor("create", "selfsubjectaccessreviews", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, &authv1.SelfSubjectAccessReview{
			Status: authv1.SubjectAccessReviewStatus{
				Allowed: allowed,
				Reason:  "test reason",
			},
		}, nil
	})
}

func TestCheckPermissions(t *testing.T) {
	tests := []struct {
		name        string
		allowed     bool
		wantErr     bool
		errContains string
	}{
		{
			name:    "all permissions allowed",
			allowed: true,
			wantErr: false,
		},
		{
			name:        "permissions denied",
			allowed:     false,
			wantErr:     true,
			errContains: "missing required permissions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientset := fake.NewClientset()
			allowAccessReviews(clientset, tt.allowed)

			deployer := NewDeployer(clientset, Config{Namespace: "diag"}, nil)

			checks, err := deployer.CheckPermissions(context.Background())

			if (err != nil) != tt.wantErr {
				t.Errorf("CheckPermissions() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("CheckPermissions() error = %v, should contain %q", err, tt.errContains)
				}
				if code := apperrors.CodeOf(err); code != apperrors.ErrCodeUnauthorized {
					t.Errorf("CheckPermissions() code = %s, want %s", code, apperrors.ErrCodeUnauthorized)
				}
				if !strings.Contains(err.Error(), "pods/exec") {
					t.Errorf("CheckPermissions() error = %v, should name the exec subresource", err)
				}
			}

			if len(checks) == 0 {
				t.Error("CheckPermissions() returned no checks")
			}

			for _, check := range checks {
				if check.Allowed != tt.allowed {
					t.Errorf("Check %s %s: got allowed=%v, want %v", check.Verb, check.Resource, check.Allowed, tt.allowed)
				}
			}
		})
	}
}

func TestCheckPermissions_APIError(t *testing.T) {
	clientset := fake.NewClientset()
	clientset.PrependReactor("create", "selfsubjectaccessreviews", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("dial tcp 10.0.0.1:6443: connect: connection refused")
	})

	deployer := NewDeployer(clientset, Config{}, nil)
	_, err := deployer.CheckPermissions(context.Background())
	if err == nil {
		t.Fatal("CheckPermissions() expected error")
	}
	if code := apperrors.CodeOf(err); code != apperrors.ErrCodeUnavailable {
		t.Errorf("CheckPermissions() code = %s, want %s", code, apperrors.ErrCodeUnavailable)
	}
}

func TestCheckPermission(t *testing.T) {
	tests := []struct {
		name        string
		group       string
		resource    string
		subresource string
		verb        string
		allowed     bool
		reason      string
	}{
		{
			name:     "allowed permission",
			group:    "apps",
			resource: "daemonsets",
			verb:     "create",
			allowed:  true,
			reason:   "user has permission",
		},
		{
			name:        "denied permission",
			resource:    "pods",
			subresource: "exec",
			verb:        "create",
			allowed:     false,
			reason:      "user lacks permission",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientset := fake.NewClientset()

			var got *authv1.ResourceAttributes
			clientset.PrependReactor("create", "selfsubjectaccessreviews", func(action k8stesting.Action) (bool, runtime.Object, error) {
				review := action.(k8stesting.CreateAction).GetObject().(*authv1.SelfSubjectAccessReview)
				got = review.Spec.ResourceAttributes
				return true, &authv1.SelfSubjectAccessReview{
					Status: authv1.SubjectAccessReviewStatus{
						Allowed: tt.allowed,
						Reason:  tt.reason,
					},
				}, nil
			})

			deployer := NewDeployer(clientset, Config{Namespace: "diag"}, nil)

			allowed, reason, err := deployer.checkPermission(context.Background(), tt.group, tt.resource, tt.subresource, tt.verb, "diag")
			if err != nil {
				t.Fatalf("checkPermission() error = %v", err)
			}

			if allowed != tt.allowed {
				t.Errorf("checkPermission() allowed = %v, want %v", allowed, tt.allowed)
			}
			if reason != tt.reason {
				t.Errorf("checkPermission() reason = %q, want %q", reason, tt.reason)
			}
			if got == nil || got.Group != tt.group || got.Subresource != tt.subresource || got.Namespace != "diag" {
				t.Errorf("checkPermission() sent attributes %+v", got)
			}
		})
	}
}
