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

package agent

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Deploy validates the agent DaemonSet and applies it to the cluster.
func (d *Deployer) Deploy(ctx context.Context) error {
	return d.Apply(ctx, d.BuildDaemonSet())
}

// ApplyManifest reads a manifest written by WriteManifest and applies it.
func (d *Deployer) ApplyManifest(ctx context.Context, path string) error {
	ds, err := ReadManifest(path)
	if err != nil {
		return err
	}
	return d.Apply(ctx, ds)
}

// Apply creates ds or, if it already exists, updates it in place.
func (d *Deployer) Apply(ctx context.Context, ds *appsv1.DaemonSet) error {
	if err := Validate(ds); err != nil {
		return err
	}
	if ds.Namespace == "" {
		ds.Namespace = d.config.Namespace
	}

	if _, err := d.CheckPermissions(ctx); err != nil {
		return err
	}

	created, err := d.clientset.AppsV1().DaemonSets(ds.Namespace).Create(ctx, ds, metav1.CreateOptions{})
	if err == nil {
		slog.Info("agent created", "daemonset", created.Name, "namespace", created.Namespace)
		d.out.Printf("daemonset.apps/%s created\n", created.Name)
		return nil
	}
	if !errors.IsAlreadyExists(err) {
		return classifyAPIError(fmt.Sprintf("failed to create daemonset %s", ds.Name), err)
	}

	existing, err := d.clientset.AppsV1().DaemonSets(ds.Namespace).Get(ctx, ds.Name, metav1.GetOptions{})
	if err != nil {
		return classifyAPIError(fmt.Sprintf("failed to get daemonset %s", ds.Name), err)
	}
	ds.ResourceVersion = existing.ResourceVersion

	if _, err := d.clientset.AppsV1().DaemonSets(ds.Namespace).Update(ctx, ds, metav1.UpdateOptions{}); err != nil {
		return classifyAPIError(fmt.Sprintf("failed to update daemonset %s", ds.Name), err)
	}

	slog.Info("agent updated", "daemonset", ds.Name, "namespace", ds.Namespace)
	d.out.Printf("daemonset.apps/%s configured\n", ds.Name)
	return nil
}

// Teardown deletes the agent DaemonSet and its pods.
// A DaemonSet that is already gone is not an error.
func (d *Deployer) Teardown(ctx context.Context) error {
	d.out.Banner(fmt.Sprintf("Deleting daemonset %s", d.config.Name))

	propagationPolicy := metav1.DeletePropagationForeground
	err := d.clientset.AppsV1().DaemonSets(d.config.Namespace).Delete(
		ctx,
		d.config.Name,
		metav1.DeleteOptions{
			PropagationPolicy: &propagationPolicy,
		},
	)
	if err = ignoreNotFound(err); err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeUnavailable,
			fmt.Sprintf("failed to delete daemonset %s", d.config.Name), err,
			map[string]any{"namespace": d.config.Namespace})
	}

	d.out.Printf("daemonset.apps %q deleted\n", d.config.Name)
	return nil
}

// classifyAPIError maps a cluster API error onto a structured error code.
func classifyAPIError(msg string, err error) error {
	switch {
	case errors.IsInvalid(err), errors.IsBadRequest(err):
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, msg, err)
	case errors.IsForbidden(err), errors.IsUnauthorized(err):
		return apperrors.Wrap(apperrors.ErrCodeUnauthorized, msg, err)
	case errors.IsTimeout(err), errors.IsServerTimeout(err):
		return apperrors.Wrap(apperrors.ErrCodeTimeout, msg, err)
	default:
		return apperrors.Wrap(apperrors.ErrCodeUnavailable, msg, err)
	}
}

// ignoreNotFound returns nil if the error is "not found", otherwise returns the error.
// Used to make resource deletion idempotent.
func ignoreNotFound(err error) error {
	if errors.IsNotFound(err) {
		return nil
	}
	return err
}
