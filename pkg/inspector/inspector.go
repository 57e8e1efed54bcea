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

package inspector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/console"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/defaults"
	corev1 "k8s.io/api/core/v1"
	storagev1 "k8s.io/api/storage/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	// PluginNamespace hosts the object-storage plugin.
	PluginNamespace = "kube-system"
	// PluginPodMarker identifies the plugin pod by name.
	PluginPodMarker = "object-storage-plugin"
	// PluginName is how the plugin is referred to in narration.
	PluginName = "ibmcloud-object-storage-plugin"
	// StorageClassMarker identifies s3fs storage classes by name.
	StorageClassMarker = "s3fs"
	// ReferenceStorageClass is the class whose parameters are validated.
	ReferenceStorageClass = "ibmc-s3fs-standard-cross-region"
)

// Sections of the health report.
const (
	SectionPlugin              = "plugin"
	SectionStorageClass        = "storageclass"
	SectionParameters          = "parameters"
	SectionServiceAccounts     = "serviceaccounts"
	SectionClusterRoles        = "clusterroles"
	SectionClusterRoleBindings = "clusterrolebindings"
)

// parameterCheck validates one storage-class parameter.
type parameterCheck struct {
	key    string
	label  string
	denyNA bool
}

var referenceParameters = []parameterCheck{
	{key: "ibm.io/iam-endpoint", label: "iam-endpoint"},
	{key: "ibm.io/object-store-endpoint", label: "object-storage-endpoint", denyNA: true},
	{key: "ibm.io/object-store-storage-class", label: "object-store-storage-class", denyNA: true},
}

var (
	requiredServiceAccounts = []string{"ibmcloud-object-storage-driver", "ibmcloud-object-storage-plugin"}
	requiredClusterRoles    = []string{"ibmcloud-object-storage-plugin", "ibmcloud-object-storage-secret-reader"}
)

// Inspector runs read-only queries against the cluster.
type Inspector struct {
	client  kubernetes.Interface
	out     *console.Printer
	timeout time.Duration
	runID   string
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithTimeout bounds each cluster query.
func WithTimeout(d time.Duration) Option {
	return func(i *Inspector) {
		i.timeout = d
	}
}

// WithRunID stamps reports with the run identifier.
func WithRunID(id string) Option {
	return func(i *Inspector) {
		i.runID = id
	}
}

// New returns an Inspector. A nil printer discards narration.
func New(client kubernetes.Interface, out *console.Printer, opts ...Option) *Inspector {
	if out == nil {
		out = console.Discard()
	}
	i := &Inspector{
		client:  client,
		out:     out,
		timeout: defaults.K8sCallTimeout,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Inspector) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, i.timeout)
}

// RunHealthChecks executes the fixed checklist. A failed query marks its
// check failed; later checks still run.
func (i *Inspector) RunHealthChecks(ctx context.Context) *Report {
	r := NewReport(i.runID)

	i.checkPluginPod(ctx, r)
	classes := i.checkStorageClasses(ctx, r)
	i.checkParameters(ctx, r, classes)

	i.out.Println("\nChecking ServiceAccounts, ClusterRoles and ClusterRoleBindings are created")
	i.checkServiceAccounts(ctx, r)
	i.checkClusterRoles(ctx, r)
	i.checkClusterRoleBindings(ctx, r)

	slog.Info("health checks complete",
		"pass", r.Count(StatusPass),
		"fail", r.Count(StatusFail),
		"skip", r.Count(StatusSkip),
	)
	return r
}

// findPluginPod returns the first kube-system pod whose name contains
// object-storage-plugin, or nil.
func (i *Inspector) findPluginPod(ctx context.Context) (*corev1.Pod, error) {
	cctx, cancel := i.callCtx(ctx)
	defer cancel()

	pods, err := i.client.CoreV1().Pods(PluginNamespace).List(cctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods in %s: %w", PluginNamespace, err)
	}
	sort.Slice(pods.Items, func(a, b int) bool { return pods.Items[a].Name < pods.Items[b].Name })
	for idx := range pods.Items {
		if strings.Contains(pods.Items[idx].Name, PluginPodMarker) {
			return &pods.Items[idx], nil
		}
	}
	return nil, nil
}

// podStatus mirrors the STATUS column of kubectl get pods: a waiting or
// terminated container reason wins over the pod phase.
func podStatus(p *corev1.Pod) string {
	if p.DeletionTimestamp != nil {
		return "Terminating"
	}
	for _, cs := range p.Status.ContainerStatuses {
		if cs.State.Waiting != nil && cs.State.Waiting.Reason != "" {
			return cs.State.Waiting.Reason
		}
		if cs.State.Terminated != nil && cs.State.Terminated.Reason != "" {
			return cs.State.Terminated.Reason
		}
	}
	if p.Status.Phase == "" {
		return "Unknown"
	}
	return string(p.Status.Phase)
}

func (i *Inspector) checkPluginPod(ctx context.Context, r *Report) {
	i.out.Banner(PluginName + " pod status")

	pod, err := i.findPluginPod(ctx)
	switch {
	case err != nil:
		i.out.Printf("ERROR: %v\n", err)
		r.add(SectionPlugin, "pod", StatusFail, err.Error())
	case pod == nil:
		i.out.Printf("ERROR: %s pod not found\n", PluginName)
		r.add(SectionPlugin, "pod", StatusFail, "pod not found")
	default:
		status := podStatus(pod)
		i.out.Printf("%s pod is in %q state.\n", PluginName, status)
		st := StatusPass
		if status != string(corev1.PodRunning) {
			st = StatusFail
		}
		r.add(SectionPlugin, "pod", st, fmt.Sprintf("%s is %s", pod.Name, status))
	}
}

// checkStorageClasses records presence and count, returning the matching
// classes for the parameter checks. A nil map means the query failed.
func (i *Inspector) checkStorageClasses(ctx context.Context, r *Report) map[string]*storagev1.StorageClass {
	i.out.Banner("Checking storage class details")

	cctx, cancel := i.callCtx(ctx)
	defer cancel()

	list, err := i.client.StorageV1().StorageClasses().List(cctx, metav1.ListOptions{})
	if err != nil {
		i.out.Printf("ERROR: failed to list storage classes: %v\n", err)
		r.add(SectionStorageClass, "presence", StatusFail, err.Error())
		i.out.Banner("Total number of storage classes created")
		r.add(SectionStorageClass, "count", StatusFail, "storage classes could not be listed")
		return nil
	}

	classes := make(map[string]*storagev1.StorageClass)
	var names []string
	for idx := range list.Items {
		sc := &list.Items[idx]
		if strings.Contains(sc.Name, StorageClassMarker) {
			classes[sc.Name] = sc
			names = append(names, sc.Name)
		}
	}
	sort.Strings(names)

	for _, n := range names {
		i.out.Printf("%s\t%s\n", n, classes[n].Provisioner)
	}
	if len(names) == 0 {
		i.out.Printf("ERROR: no %s storage classes found\n", StorageClassMarker)
		r.add(SectionStorageClass, "presence", StatusFail, "no s3fs storage classes")
	} else {
		r.add(SectionStorageClass, "presence", StatusPass, strings.Join(names, ","))
	}

	i.out.Banner("Total number of storage classes created")
	i.out.Println(len(names))
	countStatus := StatusPass
	if len(names) == 0 {
		countStatus = StatusFail
	}
	r.add(SectionStorageClass, "count", countStatus, fmt.Sprintf("%d", len(names)))

	return classes
}

func (i *Inspector) checkParameters(ctx context.Context, r *Report, classes map[string]*storagev1.StorageClass) {
	sc, listed := classes[ReferenceStorageClass]
	if !listed && classes != nil {
		// Not in the s3fs list; ask for it directly in case of a naming surprise.
		cctx, cancel := i.callCtx(ctx)
		got, err := i.client.StorageV1().StorageClasses().Get(cctx, ReferenceStorageClass, metav1.GetOptions{})
		cancel()
		if err == nil {
			sc = got
		}
	}

	for _, pc := range referenceParameters {
		i.out.Banner("Checking " + pc.label)

		if sc == nil {
			detail := fmt.Sprintf("storage class %s not found", ReferenceStorageClass)
			if classes == nil {
				detail = "storage classes could not be listed"
			}
			i.out.Printf("ERROR: %s\n", detail)
			r.add(SectionParameters, pc.label, StatusFail, detail)
			continue
		}

		v := strings.TrimSpace(sc.Parameters[pc.key])
		if v == "" || (pc.denyNA && v == "NA") {
			i.out.Printf("ERROR: %s is empty\n", pc.label)
			r.add(SectionParameters, pc.label, StatusFail, fmt.Sprintf("%s is empty", pc.key))
			continue
		}
		i.out.Printf("%s is set\n", pc.label)
		r.add(SectionParameters, pc.label, StatusPass, v)
	}
}

// presence runs get for each name and records whether it exists.
func (i *Inspector) presence(ctx context.Context, r *Report, section string, names []string, get func(context.Context, string) error) {
	for _, name := range names {
		cctx, cancel := i.callCtx(ctx)
		err := get(cctx, name)
		cancel()

		if err != nil {
			i.out.Printf("ERROR: %s is not created\n", name)
			slog.Debug("presence check failed", "section", section, "name", name, "error", err)
			r.add(section, name, StatusFail, err.Error())
			continue
		}
		i.out.Printf("%s is created\n", name)
		r.add(section, name, StatusPass, "created")
	}
}

func (i *Inspector) checkServiceAccounts(ctx context.Context, r *Report) {
	i.out.Banner("ServiceAccounts")
	i.presence(ctx, r, SectionServiceAccounts, requiredServiceAccounts, func(ctx context.Context, name string) error {
		_, err := i.client.CoreV1().ServiceAccounts(PluginNamespace).Get(ctx, name, metav1.GetOptions{})
		return err
	})
}

func (i *Inspector) checkClusterRoles(ctx context.Context, r *Report) {
	i.out.Banner("ClusterRole")
	i.presence(ctx, r, SectionClusterRoles, requiredClusterRoles, func(ctx context.Context, name string) error {
		_, err := i.client.RbacV1().ClusterRoles().Get(ctx, name, metav1.GetOptions{})
		return err
	})
}

func (i *Inspector) checkClusterRoleBindings(ctx context.Context, r *Report) {
	i.out.Banner("ClusterRoleBinding")
	i.presence(ctx, r, SectionClusterRoleBindings, requiredClusterRoles, func(ctx context.Context, name string) error {
		_, err := i.client.RbacV1().ClusterRoleBindings().Get(ctx, name, metav1.GetOptions{})
		return err
	})
}
