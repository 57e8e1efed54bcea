/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// ArtifactType is the artifact type of pushed diagnostic archives.
const ArtifactType = "application/vnd.nvidia.s3fs-diagnostic.logs.v1"

// Layer media types by archive extension.
const (
	MediaTypeTar = "application/x-tar"
	MediaTypeZip = "application/zip"
)

// PushOptions configures the OCI push operation.
type PushOptions struct {
	// File is the archive to push.
	File string
	// Reference is the destination.
	Reference *Reference
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
	// Annotations are added to the manifest.
	Annotations map[string]string
}

// PushResult contains the result of a successful OCI push.
type PushResult struct {
	// Digest is the SHA256 digest of the pushed manifest.
	Digest string
	// Reference is the full image reference (registry/repository:tag).
	Reference string
}

// MediaTypeFor returns the layer media type for an archive path.
func MediaTypeFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return MediaTypeZip
	}
	return MediaTypeTar
}

// Push uploads the archive as a single-layer OCI artifact using ORAS.
func Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	if opts.Reference == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "OCI reference is required to push")
	}

	repo, err := remote.NewRepository(opts.Reference.Repo())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	return pushTo(ctx, repo, opts)
}

// pushTo packs the archive into a file store and copies the tagged
// manifest to dst.
func pushTo(ctx context.Context, dst oras.Target, opts PushOptions) (*PushResult, error) {
	ref := opts.Reference
	if ref == nil || ref.Tag == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "tag is required to push OCI artifact")
	}

	absFile, err := filepath.Abs(opts.File)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to resolve archive path", err)
	}
	info, err := os.Stat(absFile)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, "archive not found", err)
	}
	if info.IsDir() {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "archive path is a directory",
			map[string]any{"path": absFile})
	}

	fs, err := file.New(filepath.Dir(absFile))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	name := filepath.Base(absFile)
	layerDesc, err := fs.Add(ctx, name, MediaTypeFor(name), absFile)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to add archive to store", err)
	}

	packOpts := oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layerDesc},
		ManifestAnnotations: opts.Annotations,
	}
	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, packOpts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to pack manifest", err)
	}

	if tagErr := fs.Tag(ctx, manifestDesc, ref.Tag); tagErr != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to tag manifest in local store", tagErr)
	}

	slog.Info("pushing archive", "reference", ref.ImageReference(), "size", info.Size())

	desc, err := oras.Copy(ctx, fs, ref.Tag, dst, ref.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeUnavailable, "failed to push artifact to registry", err,
			map[string]any{"reference": ref.ImageReference()})
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: ref.ImageReference(),
	}, nil
}

// createAuthClient creates an HTTP client with optional TLS configuration
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Debug("docker credential store unavailable", "error", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
