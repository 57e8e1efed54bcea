// Package cli implements the command-line interface for the s3fs-diag tool.
//
// # Overview
//
// s3fs-diag validates a deployment of the IBM Cloud Object Storage (s3fs)
// plugin and gathers the logs needed to debug it. It checks the plugin pod,
// storage classes and RBAC objects, describes an optional PVC and pod,
// deploys a short-lived diagnostic DaemonSet to copy driver logs from the
// nodes, and packages everything into a single archive.
//
// # Usage
//
//	s3fs-diag [--driver-log all|NODE,...] [--pvc-name PVC] [--pod-name POD] [flags]
//
// # Flags
//
//	--namespace, -n       Namespace of the PVC and pod (default: default)
//	--pvc-name            PVC to describe; also collects the provisioner log
//	--pod-name            Pod to describe; its node becomes a driver-log target
//	--provisioner-log     Collect the provisioner log
//	--driver-log          Nodes to collect driver logs from, or "all"
//	--agent-namespace     Namespace for the diagnostic DaemonSet
//	--agent-image         Image for the diagnostic DaemonSet
//	--image-pull-secret   Pull secret for the agent image
//	--toleration          Agent toleration (key=value:effect, or *)
//	--poll-interval       Delay between readiness checks (default: 10s)
//	--max-attempts        Readiness checks before giving up (default: 30)
//	--settle-delay        Pause after each collection phase (default: 10s)
//	--workdir             Output directory (default: .)
//	--report              Health report file, - for stdout
//	--format, -t          Report format: yaml, json, table (default: yaml)
//	--push                OCI reference for the archive (oci://registry/repo[:tag])
//	--plain-http          Push over HTTP
//	--insecure-tls        Skip TLS verification on push
//	--metrics-file        Prometheus text-format metrics output
//	--log-level           debug, info, warn, error (default: info)
//
// # Environment Variables
//
//	KUBECONFIG          Required; the cluster to diagnose
//	LOG_LEVEL           Logging verbosity
//	S3FS_DIAG_<FLAG>    Default for cluster-independent flags, e.g. S3FS_DIAG_AGENT_IMAGE
//
// # Exit Codes
//
//	0  Success
//	1  Any fatal error (no KUBECONFIG, unreachable cluster, agent not ready,
//	   teardown or push failure)
package cli
