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

package diagnose

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/archive"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/collector"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/console"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/defaults"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/executor"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/inspector"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/k8s/agent"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/k8s/client"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/k8s/node"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/oci"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/serializer"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// PushFunc uploads an archive. oci.Push is the default.
type PushFunc func(ctx context.Context, opts oci.PushOptions) (*oci.PushResult, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Runner executes diagnostic runs. Zero-value fields fall back to the real
// environment, so tests only set what they fake.
type Runner struct {
	LookupEnv client.LookupEnv
	NewClient client.Factory
	Exec      executor.Executor
	// Copier and Resolver default to kubectl cp and a throttled pod lister.
	Copier   collector.Copier
	Resolver collector.Resolver
	Out      *console.Printer
	Sleep    SleepFunc
	Push     PushFunc
	Gatherer prometheus.Gatherer
}

// Summary describes a finished run.
type Summary struct {
	RunID      string                 `json:"runId" yaml:"runId"`
	Report     *inspector.Report      `json:"report,omitempty" yaml:"report,omitempty"`
	Readiness  agent.DaemonSetState   `json:"readiness" yaml:"readiness"`
	Driver     *collector.PhaseResult `json:"driver,omitempty" yaml:"driver,omitempty"`
	Diagnostic *collector.PhaseResult `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
	Archive    string                 `json:"archive,omitempty" yaml:"archive,omitempty"`
	Removed    []string               `json:"removed,omitempty" yaml:"removed,omitempty"`
	Pushed     *oci.PushResult        `json:"pushed,omitempty" yaml:"pushed,omitempty"`
}

// NewRunner returns a Runner wired to the host: os.LookupEnv, client.New,
// a local executor and a stdout printer.
func NewRunner() *Runner {
	out := console.NewPrinter(os.Stdout)
	return &Runner{
		LookupEnv: os.LookupEnv,
		NewClient: client.New,
		Exec:      executor.NewLocal(out),
		Out:       out,
	}
}

func (r *Runner) withDefaults() *Runner {
	c := *r
	if c.Out == nil {
		c.Out = console.NewPrinter(os.Stdout)
	}
	if c.LookupEnv == nil {
		c.LookupEnv = os.LookupEnv
	}
	if c.NewClient == nil {
		c.NewClient = client.New
	}
	if c.Exec == nil {
		c.Exec = executor.NewLocal(c.Out)
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
	if c.Push == nil {
		c.Push = oci.Push
	}
	if c.Gatherer == nil {
		c.Gatherer = prometheus.DefaultGatherer
	}
	return &c
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run performs one diagnostic run. The returned error is fatal; everything
// else is narrated and recorded in the Summary.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	r = r.withDefaults()

	kubeconfig, err := client.RequireKubeconfig(r.LookupEnv)
	if err != nil {
		r.Out.Println("export KUBECONFIG before running this tool.\nExiting!!!")
		return nil, err
	}

	v, err := opts.validate()
	if err != nil {
		return nil, err
	}

	sum := &Summary{RunID: uuid.NewString()}
	log := slog.With("runId", sum.RunID)

	if opts.MetricsFile != "" {
		defer r.writeMetrics(opts.MetricsFile)
	}

	clientset, err := r.clusterAccess(kubeconfig)
	if err != nil {
		return sum, err
	}
	ready, err := r.readyNodes(ctx, clientset)
	if err != nil {
		return sum, err
	}
	log.Info("cluster reachable", "readyNodes", len(ready))

	insp := inspector.New(clientset, r.Out, inspector.WithRunID(sum.RunID))
	sum.Report = insp.RunHealthChecks(ctx)
	if opts.ReportPath != "" {
		r.writeReport(ctx, opts.ReportPath, v.reportFormat, sum.Report)
	}

	target := node.ParseDriverLogTargets(opts.DriverLogs)
	r.describeInputs(ctx, insp, opts, &target)

	hasProvisioner := opts.wantsProvisionerLog()
	if hasProvisioner {
		if _, perr := insp.CollectProvisionerLog(ctx, filepath.Join(v.workDir, inspector.ProvisionerLogFile)); perr != nil {
			log.Warn("provisioner log not collected", "error", perr)
		}
	}
	hasDriver := !target.Empty()

	deployer := agent.NewDeployer(clientset, agent.Config{
		Namespace:        opts.AgentNamespace,
		Image:            opts.AgentImage,
		ImagePullSecrets: opts.ImagePullSecrets,
		Tolerations:      v.tolerations,
		RunID:            sum.RunID,
		PollInterval:     opts.PollInterval,
		MaxAttempts:      opts.MaxAttempts,
	}, r.Out)

	manifest, err := deployer.WriteManifest(v.workDir)
	if err != nil {
		return sum, err
	}
	if err := deployer.ApplyManifest(ctx, manifest); err != nil {
		r.Out.Printf("ERROR: %v\n", err)
		return sum, err
	}

	st := &run{
		Runner:         r,
		opts:           opts,
		v:              v,
		sum:            sum,
		clientset:      clientset,
		deployer:       deployer,
		kubeconfig:     kubeconfig,
		ready:          ready,
		target:         target,
		hasProvisioner: hasProvisioner,
		hasDriver:      hasDriver,
	}
	runErr := st.collect(ctx)

	// Teardown outlives cancellation of the run context.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaults.K8sCleanupTimeout)
	defer cancel()
	tdErr := deployer.Teardown(cleanupCtx)

	if runErr != nil {
		if tdErr != nil {
			log.Error("teardown failed", "error", tdErr)
		}
		return sum, runErr
	}
	if tdErr != nil {
		r.Out.Printf("ERROR: %v\n", tdErr)
		return sum, tdErr
	}

	log.Info("diagnostic run complete", "archive", sum.Archive)
	return sum, nil
}

// clusterAccess builds the client.
func (r *Runner) clusterAccess(kubeconfig string) (client.Interface, error) {
	r.Out.Banner("Checking whether cluster nodes are accessible")
	clientset, _, err := r.NewClient(kubeconfig)
	if err != nil {
		r.Out.Println("Cluster nodes are not accessible. Please check KUBECONFIG env variable.")
		return nil, err
	}
	return clientset, nil
}

// readyNodes lists Ready nodes; any failure means the cluster is not usable.
func (r *Runner) readyNodes(ctx context.Context, clientset client.Interface) ([]string, error) {
	cctx, cancel := context.WithTimeout(ctx, defaults.K8sCallTimeout)
	defer cancel()

	ready, err := node.ReadyNodes(cctx, clientset)
	if err != nil {
		r.Out.Println("Cluster nodes are not accessible. Please check KUBECONFIG env variable.")
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to list cluster nodes", err)
	}
	r.Out.Println("Success!!!")
	return ready, nil
}

func (r *Runner) writeReport(ctx context.Context, path string, format serializer.Format, report *inspector.Report) {
	w, err := serializer.NewFileWriterOrStdout(format, path)
	if err != nil {
		r.Out.Printf("ERROR: %v\n", err)
		return
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			slog.Warn("failed to close report", "path", path, "error", cerr)
		}
	}()
	if err := w.Serialize(ctx, report); err != nil {
		r.Out.Printf("ERROR: failed to write report: %v\n", err)
	}
}

// describeInputs prints the user-named PVC and pod and adds the pod's host
// IP to the driver-log targets.
func (r *Runner) describeInputs(ctx context.Context, insp *inspector.Inspector, opts Options, target *node.Target) {
	ns := opts.Namespace
	if ns == "" {
		ns = agent.DefaultNamespace
	}

	if opts.PVCName != "" {
		if err := insp.DescribePVC(ctx, ns, opts.PVCName); err != nil {
			slog.Warn("pvc description failed", "pvc", opts.PVCName, "error", err)
		}
	}
	if opts.PodName == "" {
		return
	}
	if err := insp.DescribePod(ctx, ns, opts.PodName); err != nil {
		slog.Warn("pod description failed", "pod", opts.PodName, "error", err)
		return
	}
	ip, err := insp.PodHostIP(ctx, ns, opts.PodName)
	if err != nil {
		r.Out.Printf("ERROR: host IP of pod %s unknown: %v\n", opts.PodName, err)
		return
	}
	target.Add(ip)
}

// run is the state shared by the steps that need the deployed agent.
type run struct {
	*Runner
	opts           Options
	v              *validated
	sum            *Summary
	clientset      client.Interface
	deployer       *agent.Deployer
	kubeconfig     string
	ready          []string
	target         node.Target
	hasProvisioner bool
	hasDriver      bool
}

// collect waits for the agent, runs both collection phases, archives and
// pushes. The agent is still deployed when it returns.
func (s *run) collect(ctx context.Context) error {
	cfg := s.deployer.Config()

	state, err := s.deployer.AwaitReady(ctx, len(s.ready))
	s.sum.Readiness = state
	if err != nil {
		return err
	}

	resolver := s.Resolver
	if resolver == nil {
		resolver = collector.NewPodResolver(s.clientset, cfg.Namespace,
			fmt.Sprintf("%s=%s", agent.NameLabel, cfg.Name), defaults.PodLookupQPS)
	}
	copier := s.Copier
	if copier == nil {
		copier = &collector.KubectlCopier{Exec: s.Exec, Kubeconfig: s.kubeconfig}
	}
	newPhase := func(spec collector.LogSpec, nodes int) *collector.Phase {
		return &collector.Phase{
			Log:       spec,
			Workers:   collector.PoolSize(nodes),
			Namespace: cfg.Namespace,
			Dir:       s.v.workDir,
			Resolver:  resolver,
			Copier:    copier,
			Out:       s.Out,
		}
	}

	settle := s.opts.SettleDelay
	if settle <= 0 {
		settle = defaults.SettleDelay
	}

	if s.hasDriver {
		nodes := s.ready
		if s.target.All {
			nodes = s.readyNodes(ctx)
		}
		res, err := newPhase(collector.DriverLog, len(nodes)).Run(ctx, s.target.Resolve(nodes))
		s.sum.Driver = &res
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "driver log collection interrupted", err)
		}
	}

	if err := s.Sleep(ctx, settle); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "interrupted while settling", err)
	}

	// Nodes may have changed while driver logs were copied.
	current := s.readyNodes(ctx)
	res, err := newPhase(collector.DiagnosticLog, len(current)).Run(ctx, current)
	s.sum.Diagnostic = &res
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "diagnostic log collection interrupted", err)
	}

	if err := s.Sleep(ctx, settle); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "interrupted while settling", err)
	}

	s.archive(ctx)

	if s.v.push != nil && s.sum.Archive != "" {
		return s.push(ctx)
	}
	return nil
}

// readyNodes lists Ready nodes again, falling back to the startup list.
func (s *run) readyNodes(ctx context.Context) []string {
	lctx, cancel := context.WithTimeout(ctx, defaults.K8sCallTimeout)
	defer cancel()
	current, err := node.ReadyNodes(lctx, s.clientset)
	if err != nil {
		slog.Warn("re-listing nodes failed, reusing initial list", "error", err)
		return s.ready
	}
	return current
}

func (s *run) archive(ctx context.Context) {
	defer func() {
		s.sum.Removed = archive.RemoveIntermediate(s.v.workDir)
	}()

	path, err := archive.Create(ctx, s.Exec, s.v.goos, s.v.workDir, archive.DefaultName,
		archive.SelectPatterns(s.hasProvisioner, s.hasDriver))
	if err != nil {
		s.Out.Printf("ERROR: %v\n", err)
		return
	}
	s.sum.Archive = path
	s.Out.Printf("Successfully created log archive %q and saved it to: %s\n", filepath.Base(path), path)
}

func (s *run) push(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, defaults.PushTimeout)
	defer cancel()

	res, err := s.Push(pctx, oci.PushOptions{
		File:        s.sum.Archive,
		Reference:   s.v.push.WithTag(s.sum.RunID),
		PlainHTTP:   s.v.plainHTTP,
		InsecureTLS: s.v.insecureTLS,
		Annotations: map[string]string{
			"io.nvidia.s3fs-diagnostic.run-id": s.sum.RunID,
		},
	})
	if err != nil {
		s.Out.Printf("ERROR: %v\n", err)
		return err
	}
	s.sum.Pushed = res
	s.Out.Printf("Pushed %s (%s)\n", res.Reference, res.Digest)
	return nil
}

func (r *Runner) writeMetrics(path string) {
	if err := prometheus.WriteToTextfile(path, r.Gatherer); err != nil {
		slog.Warn("failed to write metrics", "path", path, "error", err)
	}
}
