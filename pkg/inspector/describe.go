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
	"sort"
	"strings"
	"time"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
)

// DescribePVC prints a short description of a persistent volume claim.
func (i *Inspector) DescribePVC(ctx context.Context, namespace, name string) error {
	i.out.Banner("Checking input PVC status")

	cctx, cancel := i.callCtx(ctx)
	defer cancel()

	pvc, err := i.client.CoreV1().PersistentVolumeClaims(namespace).Get(cctx, name, metav1.GetOptions{})
	if err != nil {
		i.out.Printf("ERROR: %v\n", err)
		return lookupError("pvc", namespace, name, err)
	}

	sc := ""
	if pvc.Spec.StorageClassName != nil {
		sc = *pvc.Spec.StorageClassName
	}
	capacity := ""
	if q, ok := pvc.Status.Capacity[corev1.ResourceStorage]; ok {
		capacity = q.String()
	}
	modes := make([]string, 0, len(pvc.Status.AccessModes))
	for _, m := range pvc.Status.AccessModes {
		modes = append(modes, string(m))
	}

	i.out.Printf("Name:          %s\n", pvc.Name)
	i.out.Printf("Namespace:     %s\n", pvc.Namespace)
	i.out.Printf("StorageClass:  %s\n", sc)
	i.out.Printf("Status:        %s\n", pvc.Status.Phase)
	i.out.Printf("Volume:        %s\n", pvc.Spec.VolumeName)
	i.out.Printf("Capacity:      %s\n", capacity)
	i.out.Printf("Access Modes:  %s\n", strings.Join(modes, ","))
	if a := pvc.Annotations["volume.beta.kubernetes.io/storage-provisioner"]; a != "" {
		i.out.Printf("Provisioner:   %s\n", a)
	}

	i.printEvents(cctx, namespace, "PersistentVolumeClaim", name)
	return nil
}

// DescribePod prints a short description of a pod.
func (i *Inspector) DescribePod(ctx context.Context, namespace, name string) error {
	i.out.Banner("Checking input POD status")

	cctx, cancel := i.callCtx(ctx)
	defer cancel()

	pod, err := i.client.CoreV1().Pods(namespace).Get(cctx, name, metav1.GetOptions{})
	if err != nil {
		i.out.Printf("ERROR: %v\n", err)
		return lookupError("pod", namespace, name, err)
	}

	i.out.Printf("Name:          %s\n", pod.Name)
	i.out.Printf("Namespace:     %s\n", pod.Namespace)
	i.out.Printf("Node:          %s/%s\n", pod.Spec.NodeName, pod.Status.HostIP)
	i.out.Printf("Status:        %s\n", podStatus(pod))
	i.out.Printf("IP:            %s\n", pod.Status.PodIP)

	for _, v := range pod.Spec.Volumes {
		if v.PersistentVolumeClaim != nil {
			i.out.Printf("Volume:        %s (claim %s)\n", v.Name, v.PersistentVolumeClaim.ClaimName)
		}
	}

	if len(pod.Status.Conditions) > 0 {
		i.out.Println("Conditions:")
		for _, c := range pod.Status.Conditions {
			i.out.Printf("  %-16s %s\n", c.Type, c.Status)
		}
	}

	i.printEvents(cctx, namespace, "Pod", name)
	return nil
}

// PodHostIP returns the host IP of a named pod.
func (i *Inspector) PodHostIP(ctx context.Context, namespace, name string) (string, error) {
	cctx, cancel := i.callCtx(ctx)
	defer cancel()

	pod, err := i.client.CoreV1().Pods(namespace).Get(cctx, name, metav1.GetOptions{})
	if err != nil {
		return "", lookupError("pod", namespace, name, err)
	}
	if pod.Status.HostIP == "" {
		return "", errors.NewWithContext(errors.ErrCodeNotFound, "pod has no host IP", map[string]any{
			"namespace": namespace,
			"pod":       name,
		})
	}
	return pod.Status.HostIP, nil
}

// printEvents lists events for the object. Field selectors are applied
// server-side and again locally since not every client honours them.
func (i *Inspector) printEvents(ctx context.Context, namespace, kind, name string) {
	selector := fields.Set{
		"involvedObject.kind": kind,
		"involvedObject.name": name,
	}.AsSelector().String()

	list, err := i.client.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{FieldSelector: selector})
	if err != nil {
		i.out.Printf("Events:        <unavailable: %v>\n", err)
		return
	}

	var events []corev1.Event
	for _, e := range list.Items {
		if e.InvolvedObject.Kind == kind && e.InvolvedObject.Name == name {
			events = append(events, e)
		}
	}
	if len(events) == 0 {
		i.out.Println("Events:        <none>")
		return
	}

	sort.SliceStable(events, func(a, b int) bool {
		return eventTime(events[a]).Before(eventTime(events[b]))
	})

	i.out.Println("Events:")
	for _, e := range events {
		i.out.Printf("  %-8s %-20s %s\n", e.Type, e.Reason, strings.TrimSpace(e.Message))
	}
}

func eventTime(e corev1.Event) time.Time {
	if !e.LastTimestamp.IsZero() {
		return e.LastTimestamp.Time
	}
	return e.EventTime.Time
}

func lookupError(kind, namespace, name string, err error) error {
	code := errors.ErrCodeUnavailable
	if apierrors.IsNotFound(err) {
		code = errors.ErrCodeNotFound
	}
	return errors.WrapWithContext(code, fmt.Sprintf("failed to get %s", kind), err, map[string]any{
		"namespace": namespace,
		"name":      name,
	})
}
