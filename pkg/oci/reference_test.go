/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"testing"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		registry   string
		repository string
		tag        string
		wantErr    bool
	}{
		{
			name:       "full reference",
			target:     "oci://ghcr.io/acme/s3fs-logs:run-1",
			registry:   "ghcr.io",
			repository: "acme/s3fs-logs",
			tag:        "run-1",
		},
		{
			name:       "registry with port and no tag",
			target:     "oci://localhost:5000/diag",
			registry:   "localhost:5000",
			repository: "diag",
		},
		{
			name:    "missing scheme",
			target:  "ghcr.io/acme/s3fs-logs:run-1",
			wantErr: true,
		},
		{
			name:    "uppercase repository",
			target:  "oci://ghcr.io/Acme/Logs",
			wantErr: true,
		},
		{
			name:    "digest",
			target:  "oci://ghcr.io/acme/logs@sha256:0123456789012345678901234567890123456789012345678901234567890123",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseReference(tt.target)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseReference(%q) expected error", tt.target)
				}
				if errors.CodeOf(err) != errors.ErrCodeInvalidRequest {
					t.Errorf("expected INVALID_REQUEST, got %s", errors.CodeOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReference(%q) error = %v", tt.target, err)
			}
			if ref.Registry != tt.registry || ref.Repository != tt.repository || ref.Tag != tt.tag {
				t.Errorf("ParseReference(%q) = %+v", tt.target, ref)
			}
		})
	}
}

func TestReferenceWithTag(t *testing.T) {
	ref := &Reference{Registry: "ghcr.io", Repository: "acme/logs"}

	tagged := ref.WithTag("run-1")
	if tagged.Tag != "run-1" {
		t.Errorf("WithTag() tag = %q", tagged.Tag)
	}
	if ref.Tag != "" {
		t.Error("WithTag() modified the receiver")
	}
	if got := tagged.WithTag("other").Tag; got != "run-1" {
		t.Errorf("WithTag() replaced an explicit tag: %q", got)
	}
	if got := tagged.String(); got != "oci://ghcr.io/acme/logs:run-1" {
		t.Errorf("String() = %q", got)
	}
	if got := ref.ImageReference(); got != "ghcr.io/acme/logs" {
		t.Errorf("ImageReference() = %q", got)
	}
}

func TestValidateRegistryReference(t *testing.T) {
	tests := []struct {
		registry   string
		repository string
		wantErr    bool
	}{
		{"ghcr.io", "acme/logs", false},
		{"localhost:5000", "logs", false},
		{"https://ghcr.io", "acme/logs", false},
		{"invalid registry", "logs", true},
		{"ghcr.io", "", true},
		{"", "logs", true},
	}

	for _, tt := range tests {
		t.Run(tt.registry+"/"+tt.repository, func(t *testing.T) {
			err := ValidateRegistryReference(tt.registry, tt.repository)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRegistryReference(%q, %q) error = %v, wantErr %v",
					tt.registry, tt.repository, err, tt.wantErr)
			}
		})
	}
}
