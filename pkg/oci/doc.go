// Package oci pushes the diagnostic archive to an OCI-compliant registry.
//
// The archive becomes the single layer of an OCI 1.1 artifact manifest
// with artifact type "application/vnd.nvidia.s3fs-diagnostic.logs.v1".
// The layer media type follows the archive extension (application/x-tar or
// application/zip) and the layer title annotation carries the file name.
//
// # Usage
//
//	ref, err := oci.ParseReference("oci://ghcr.io/acme/s3fs-logs:run-1")
//	if err != nil {
//	    return err
//	}
//	res, err := oci.Push(ctx, oci.PushOptions{
//	    File:      "/work/s3fs_diagnostic_logs.tar",
//	    Reference: ref,
//	})
//
// # Authentication
//
// Credentials are loaded from the standard Docker configuration
// (~/.docker/config.json) through the ORAS credentials package. PlainHTTP
// and InsecureTLS cover local development registries.
package oci
