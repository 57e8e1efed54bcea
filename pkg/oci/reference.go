/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"fmt"
	"strings"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	"github.com/distribution/reference"
)

// URIScheme is the URI scheme for push targets (e.g., "oci://ghcr.io/org/repo:tag").
const URIScheme = "oci://"

// Reference is a parsed push target.
type Reference struct {
	// Registry is the OCI registry host (e.g., "ghcr.io", "localhost:5000").
	Registry string
	// Repository is the repository path (e.g., "acme/s3fs-logs").
	Repository string
	// Tag is empty when the target carried none; WithTag applies a default.
	Tag string
}

// IsOCI reports whether target uses the oci:// scheme.
func IsOCI(target string) bool {
	return strings.HasPrefix(target, URIScheme)
}

// ParseReference parses oci://registry/repository[:tag].
func ParseReference(target string) (*Reference, error) {
	if !IsOCI(target) {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "push target must use the oci:// scheme",
			map[string]any{"target": target})
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}
	if _, digested := ref.(reference.Digested); digested {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "push target must not carry a digest",
			map[string]any{"target": target})
	}

	registry := reference.Domain(ref)
	repository := reference.Path(ref)

	var tag string
	if tagged, ok := ref.(reference.Tagged); ok {
		tag = tagged.Tag()
	}

	if err := ValidateRegistryReference(registry, repository); err != nil {
		return nil, err
	}

	return &Reference{
		Registry:   registry,
		Repository: repository,
		Tag:        tag,
	}, nil
}

// ValidateRegistryReference checks that registry/repository forms a valid
// image name.
func ValidateRegistryReference(registry, repository string) error {
	registry = strings.TrimPrefix(strings.TrimPrefix(registry, "https://"), "http://")
	if registry == "" || repository == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "registry and repository are required")
	}
	name := fmt.Sprintf("%s/%s", registry, repository)
	if _, err := reference.ParseNormalizedNamed(name); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInvalidRequest, "invalid registry reference", err,
			map[string]any{"reference": name})
	}
	return nil
}

// String returns the oci:// form of the reference.
func (r *Reference) String() string {
	return URIScheme + r.ImageReference()
}

// Repo returns registry/repository.
func (r *Reference) Repo() string {
	return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
}

// ImageReference returns the Docker-style reference without the scheme.
func (r *Reference) ImageReference() string {
	if r.Tag == "" {
		return r.Repo()
	}
	return fmt.Sprintf("%s:%s", r.Repo(), r.Tag)
}

// WithTag returns a copy carrying tag when the reference has none.
func (r *Reference) WithTag(tag string) *Reference {
	out := *r
	if out.Tag == "" {
		out.Tag = tag
	}
	return &out
}
