/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/defaults"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/diagnose"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/k8s/agent"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/logging"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/serializer"
)

const (
	name           = "s3fs-diag"
	versionDefault = "dev"
	envPrefix      = "S3FS_DIAG_"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// RunFunc executes a diagnostic run for parsed options.
type RunFunc func(ctx context.Context, opts diagnose.Options) error

// Execute runs the CLI and exits with the status derived from the error.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := diagnose.NewRunner()
	cmd := newRootCmd(func(ctx context.Context, opts diagnose.Options) error {
		_, err := runner.Run(ctx, opts)
		return err
	})

	code := run(ctx, cmd, os.Args, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes cmd and maps its error to an exit status.
func run(ctx context.Context, cmd *cli.Command, args []string, stderr io.Writer) int {
	err := cmd.Run(ctx, args)
	if err == nil {
		return 0
	}

	var se *errors.StructuredError
	if stderrors.As(err, &se) {
		slog.Error("diagnostic run failed", "code", se.Code, "context", se.Context, "error", err)
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return errors.ExitCode(err)
}

func envVars(flag string) cli.ValueSourceChain {
	return cli.EnvVars(envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_")))
}

// newRootCmd builds the s3fs-diag command. fn receives the parsed options.
func newRootCmd(fn RunFunc) *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		EnableShellCompletion: true,
		Usage:                 "Diagnose the IBM Cloud Object Storage (s3fs) plugin in a Kubernetes cluster",
		Description: `Validate the object storage plugin deployment and collect its logs.

The tool requires KUBECONFIG to point at the target cluster. It:
  1. Checks that cluster nodes are reachable
  2. Runs health checks on the plugin pod, storage classes, service accounts,
     cluster roles and cluster role bindings
  3. Optionally describes a PVC and pod and captures the provisioner log
  4. Deploys the s3fs-diagnostic DaemonSet and waits for it on every Ready node
  5. Copies driver logs and mount-status logs from the agent pods
  6. Archives the logs, optionally pushes the archive to an OCI registry
  7. Deletes the DaemonSet

# Examples

Collect driver logs from every node:
  s3fs-diag --driver-log all

Describe a failing workload and collect the logs of its node:
  s3fs-diag -n apps --pvc-name data --pod-name web-0

Schedule the agent on tainted nodes and push the result:
  s3fs-diag --driver-log all --toleration dedicated=storage:NoSchedule \
    --push oci://ghcr.io/acme/s3fs-logs`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "namespace",
				Aliases: []string{"n"},
				Usage:   "Namespace of the PVC and pod to describe",
				Sources: envVars("namespace"),
				Value:   agent.DefaultNamespace,
			},
			&cli.StringFlag{
				Name:  "pvc-name",
				Usage: "PVC to describe; implies --provisioner-log",
			},
			&cli.StringFlag{
				Name:  "pod-name",
				Usage: "Pod to describe; driver logs are collected from its node",
			},
			&cli.BoolFlag{
				Name:  "provisioner-log",
				Usage: "Collect the provisioner log from the plugin pod",
			},
			&cli.StringSliceFlag{
				Name:  "driver-log",
				Usage: "Collect driver logs from nodes: all, or comma-separated node names or IPs (can be repeated)",
			},
			&cli.StringFlag{
				Name:    "agent-namespace",
				Usage:   "Namespace for the diagnostic DaemonSet",
				Sources: envVars("agent-namespace"),
				Value:   agent.DefaultNamespace,
			},
			&cli.StringFlag{
				Name:    "agent-image",
				Usage:   "Container image for the diagnostic DaemonSet",
				Sources: envVars("agent-image"),
				Value:   agent.DefaultImage,
			},
			&cli.StringSliceFlag{
				Name:    "image-pull-secret",
				Usage:   "Image pull secret for the agent image (can be repeated)",
				Sources: envVars("image-pull-secret"),
			},
			&cli.StringSliceFlag{
				Name:  "toleration",
				Usage: "Toleration for agent scheduling (format: key=value:effect, or * for all taints; can be repeated). The agent must run on every Ready node, so tainted nodes such as control planes need one or readiness times out",
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "Interval between DaemonSet readiness checks",
				Sources: envVars("poll-interval"),
				Value:   defaults.AgentPollInterval,
			},
			&cli.IntFlag{
				Name:    "max-attempts",
				Usage:   "Readiness checks before giving up",
				Sources: envVars("max-attempts"),
				Value:   defaults.AgentMaxAttempts,
			},
			&cli.DurationFlag{
				Name:    "settle-delay",
				Usage:   "Pause after each collection phase",
				Sources: envVars("settle-delay"),
				Value:   defaults.SettleDelay,
			},
			&cli.StringFlag{
				Name:    "workdir",
				Usage:   "Directory for the manifest, collected logs and archive",
				Sources: envVars("workdir"),
				Value:   ".",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write the health report to this file (- for stdout)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"t"},
				Usage:   fmt.Sprintf("Health report format (%s)", strings.Join(serializer.SupportedFormats(), ", ")),
				Value:   string(serializer.FormatYAML),
			},
			&cli.StringFlag{
				Name:    "push",
				Usage:   "Push the archive to an OCI registry (oci://registry/repository[:tag]); the run ID is the default tag",
				Sources: envVars("push"),
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for --push",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS certificate verification for --push",
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "Write collection metrics in Prometheus text format to this file",
				Sources: envVars("metrics-file"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars(logging.LogLevelEnvVar, envPrefix+"LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date,
				"logLevel", cmd.String("log-level"))
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Present() {
				return errors.NewWithContext(errors.ErrCodeInvalidRequest, "unexpected arguments",
					map[string]any{"args": cmd.Args().Slice()})
			}
			return fn(ctx, optionsFromCommand(cmd))
		},
	}
}

// optionsFromCommand maps parsed flags onto diagnose.Options.
func optionsFromCommand(cmd *cli.Command) diagnose.Options {
	return diagnose.Options{
		Namespace:        cmd.String("namespace"),
		PVCName:          cmd.String("pvc-name"),
		PodName:          cmd.String("pod-name"),
		ProvisionerLog:   cmd.Bool("provisioner-log"),
		DriverLogs:       cmd.StringSlice("driver-log"),
		AgentNamespace:   cmd.String("agent-namespace"),
		AgentImage:       cmd.String("agent-image"),
		ImagePullSecrets: cmd.StringSlice("image-pull-secret"),
		Tolerations:      cmd.StringSlice("toleration"),
		PollInterval:     cmd.Duration("poll-interval"),
		MaxAttempts:      cmd.Int("max-attempts"),
		SettleDelay:      cmd.Duration("settle-delay"),
		WorkDir:          cmd.String("workdir"),
		ReportPath:       cmd.String("report"),
		ReportFormat:     cmd.String("format"),
		Push:             cmd.String("push"),
		PlainHTTP:        cmd.Bool("plain-http"),
		InsecureTLS:      cmd.Bool("insecure-tls"),
		MetricsFile:      cmd.String("metrics-file"),
	}
}
