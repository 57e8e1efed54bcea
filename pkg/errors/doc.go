// Package errors provides structured error types for fatal conditions of a
// diagnostic run: missing credentials, an unreachable cluster, a rejected agent
// manifest, a readiness timeout, or a failed teardown.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeTimeout,
//	    "agent did not become ready",
//	    cause,
//	    map[string]any{
//	        "daemonset": "s3fs-diagnostic",
//	        "attempts":  31,
//	    },
//	)
package errors
