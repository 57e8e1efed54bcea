/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/defaults"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/diagnose"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/k8s/agent"
)

// capture returns a root command that records the options it was run with.
func capture(t *testing.T) (*cli.Command, *diagnose.Options, *int) {
	t.Helper()
	var got diagnose.Options
	calls := 0
	cmd := newRootCmd(func(_ context.Context, opts diagnose.Options) error {
		calls++
		got = opts
		return nil
	})
	return cmd, &got, &calls
}

func TestRootDefaults(t *testing.T) {
	cmd, got, calls := capture(t)

	if err := cmd.Run(context.Background(), []string{name}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if *calls != 1 {
		t.Fatalf("run func called %d times, want 1", *calls)
	}

	want := diagnose.Options{
		Namespace:      agent.DefaultNamespace,
		AgentNamespace: agent.DefaultNamespace,
		AgentImage:     agent.DefaultImage,
		PollInterval:   defaults.AgentPollInterval,
		MaxAttempts:    defaults.AgentMaxAttempts,
		SettleDelay:    defaults.SettleDelay,
		WorkDir:        ".",
		ReportFormat:   "yaml",
	}
	if got.DriverLogs != nil && len(got.DriverLogs) == 0 {
		got.DriverLogs = nil
	}
	if got.Tolerations != nil && len(got.Tolerations) == 0 {
		got.Tolerations = nil
	}
	if got.ImagePullSecrets != nil && len(got.ImagePullSecrets) == 0 {
		got.ImagePullSecrets = nil
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("options = %+v, want %+v", *got, want)
	}
}

func TestRootFlagMapping(t *testing.T) {
	cmd, got, _ := capture(t)

	args := []string{name,
		"-n", "apps",
		"--pvc-name", "data",
		"--pod-name", "web-0",
		"--provisioner-log",
		"--driver-log", "worker-1",
		"--driver-log", "10.0.0.2",
		"--agent-namespace", "diag",
		"--agent-image", "registry.example.com/diag:1",
		"--image-pull-secret", "regcred",
		"--toleration", "dedicated=storage:NoSchedule",
		"--toleration", "*",
		"--poll-interval", "2s",
		"--max-attempts", "4",
		"--settle-delay", "0s",
		"--workdir", "/tmp/out",
		"--report", "/tmp/out/report.json",
		"--format", "json",
		"--push", "oci://localhost:5000/s3fs/logs:v1",
		"--plain-http",
		"--insecure-tls",
		"--metrics-file", "/tmp/out/metrics.prom",
		"--log-level", "debug",
	}
	if err := cmd.Run(context.Background(), args); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := diagnose.Options{
		Namespace:        "apps",
		PVCName:          "data",
		PodName:          "web-0",
		ProvisionerLog:   true,
		DriverLogs:       []string{"worker-1", "10.0.0.2"},
		AgentNamespace:   "diag",
		AgentImage:       "registry.example.com/diag:1",
		ImagePullSecrets: []string{"regcred"},
		Tolerations:      []string{"dedicated=storage:NoSchedule", "*"},
		PollInterval:     2 * time.Second,
		MaxAttempts:      4,
		SettleDelay:      0,
		WorkDir:          "/tmp/out",
		ReportPath:       "/tmp/out/report.json",
		ReportFormat:     "json",
		Push:             "oci://localhost:5000/s3fs/logs:v1",
		PlainHTTP:        true,
		InsecureTLS:      true,
		MetricsFile:      "/tmp/out/metrics.prom",
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("options = %+v, want %+v", *got, want)
	}
}

func TestRootEnvSources(t *testing.T) {
	t.Setenv("S3FS_DIAG_AGENT_IMAGE", "mirror.example.com/diag:2")
	t.Setenv("S3FS_DIAG_MAX_ATTEMPTS", "7")
	t.Setenv("S3FS_DIAG_SETTLE_DELAY", "3s")
	t.Setenv("S3FS_DIAG_WORKDIR", "/var/tmp")

	cmd, got, _ := capture(t)
	if err := cmd.Run(context.Background(), []string{name}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got.AgentImage != "mirror.example.com/diag:2" {
		t.Errorf("AgentImage = %q", got.AgentImage)
	}
	if got.MaxAttempts != 7 {
		t.Errorf("MaxAttempts = %d, want 7", got.MaxAttempts)
	}
	if got.SettleDelay != 3*time.Second {
		t.Errorf("SettleDelay = %v, want 3s", got.SettleDelay)
	}
	if got.WorkDir != "/var/tmp" {
		t.Errorf("WorkDir = %q, want /var/tmp", got.WorkDir)
	}
}

func TestRootRejectsArguments(t *testing.T) {
	cmd, _, calls := capture(t)

	err := cmd.Run(context.Background(), []string{name, "extra"})
	if err == nil {
		t.Fatal("expected error for positional argument")
	}
	if errors.CodeOf(err) != errors.ErrCodeInvalidRequest {
		t.Errorf("code = %s, want %s", errors.CodeOf(err), errors.ErrCodeInvalidRequest)
	}
	if *calls != 0 {
		t.Errorf("run func called %d times, want 0", *calls)
	}
}

func TestRootFlagsDocumented(t *testing.T) {
	cmd := newRootCmd(nil)

	want := []string{
		"namespace", "pvc-name", "pod-name", "provisioner-log", "driver-log",
		"agent-namespace", "agent-image", "image-pull-secret", "toleration",
		"poll-interval", "max-attempts", "settle-delay", "workdir", "report",
		"format", "push", "plain-http", "insecure-tls", "metrics-file", "log-level",
	}
	names := make(map[string]bool)
	for _, f := range cmd.Flags {
		for _, n := range f.Names() {
			names[n] = true
		}
		if df, ok := f.(cli.DocGenerationFlag); ok && df.GetUsage() == "" {
			t.Errorf("flag %v has no usage", f.Names())
		}
	}
	for _, n := range want {
		if !names[n] {
			t.Errorf("missing flag %q", n)
		}
	}
	if !names["n"] {
		t.Error("missing -n alias for --namespace")
	}
}

func TestRunExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{
			name:     "success",
			wantCode: 0,
		},
		{
			name:     "structured failure",
			err:      errors.New(errors.ErrCodeUnavailable, "cluster nodes are not accessible"),
			wantCode: 1,
			wantOut:  "cluster nodes are not accessible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd(func(context.Context, diagnose.Options) error {
				return tt.err
			})
			var stderr bytes.Buffer

			code := run(context.Background(), cmd, []string{name}, &stderr)
			if code != tt.wantCode {
				t.Errorf("run() = %d, want %d", code, tt.wantCode)
			}
			if tt.wantOut == "" {
				if stderr.Len() != 0 {
					t.Errorf("unexpected stderr: %q", stderr.String())
				}
				return
			}
			if !strings.Contains(stderr.String(), tt.wantOut) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantOut)
			}
		})
	}
}
