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
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	"github.com/distribution/reference"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"
)

const containerName = "s3fs-diagnostic"

// BuildDaemonSet constructs the agent DaemonSet.
func (d *Deployer) BuildDaemonSet() *appsv1.DaemonSet {
	selector := map[string]string{NameLabel: d.config.Name}

	podLabels := map[string]string{NameLabel: d.config.Name}
	if d.config.RunID != "" {
		podLabels[RunIDLabel] = d.config.RunID
	}

	return &appsv1.DaemonSet{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "apps/v1",
			Kind:       "DaemonSet",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.config.Name,
			Namespace: d.config.Namespace,
			Labels:    podLabels,
		},
		Spec: appsv1.DaemonSetSpec{
			Selector: &metav1.LabelSelector{MatchLabels: selector},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: podLabels,
				},
				Spec: corev1.PodSpec{
					HostNetwork:                   true,
					NodeSelector:                  d.config.NodeSelector,
					Tolerations:                   d.config.Tolerations,
					ImagePullSecrets:              toLocalObjectReferences(d.config.ImagePullSecrets),
					TerminationGracePeriodSeconds: ptr.To(int64(5)),
					Containers: []corev1.Container{
						{
							Name:            containerName,
							Image:           d.config.Image,
							ImagePullPolicy: corev1.PullAlways,
							Env: []corev1.EnvVar{
								{
									Name: "HOST_IP",
									ValueFrom: &corev1.EnvVarSource{
										FieldRef: &corev1.ObjectFieldSelector{
											FieldPath: "status.hostIP",
										},
									},
								},
							},
							SecurityContext: &corev1.SecurityContext{
								Privileged: ptr.To(true),
							},
							VolumeMounts: []corev1.VolumeMount{
								{Name: "root-fs", MountPath: "/host"},
								{Name: "host-systemd", MountPath: "/run/systemd"},
								{Name: "s3fs-log", MountPath: "/var/log/"},
							},
						},
					},
					Volumes: []corev1.Volume{
						hostPathVolume("root-fs", "/"),
						hostPathVolume("host-systemd", "/run/systemd"),
						hostPathVolume("s3fs-log", "/var/log/"),
					},
				},
			},
		},
	}
}

func hostPathVolume(name, path string) corev1.Volume {
	return corev1.Volume{
		Name: name,
		VolumeSource: corev1.VolumeSource{
			HostPath: &corev1.HostPathVolumeSource{Path: path},
		},
	}
}

// toLocalObjectReferences converts a slice of secret names to LocalObjectReferences.
func toLocalObjectReferences(names []string) []corev1.LocalObjectReference {
	if len(names) == 0 {
		return nil
	}
	refs := make([]corev1.LocalObjectReference, len(names))
	for i, name := range names {
		refs[i] = corev1.LocalObjectReference{Name: name}
	}
	return refs
}

// Validate checks ds before it is submitted to the cluster.
func Validate(ds *appsv1.DaemonSet) error {
	if ds == nil {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "daemonset is nil")
	}
	if errs := validation.IsDNS1123Subdomain(ds.Name); len(errs) > 0 {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid daemonset name %q", ds.Name),
			map[string]any{"reasons": errs})
	}
	if ds.Namespace != "" {
		if errs := validation.IsDNS1123Label(ds.Namespace); len(errs) > 0 {
			return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid namespace %q", ds.Namespace),
				map[string]any{"reasons": errs})
		}
	}

	containers := ds.Spec.Template.Spec.Containers
	if len(containers) != 1 {
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("expected exactly one container, got %d", len(containers)))
	}
	if _, err := reference.ParseNormalizedNamed(containers[0].Image); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid agent image %q", containers[0].Image), err)
	}

	if ds.Spec.Selector == nil {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "daemonset selector is required")
	}
	sel, err := metav1.LabelSelectorAsSelector(ds.Spec.Selector)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid daemonset selector", err)
	}
	if sel.Empty() || !sel.Matches(labels.Set(ds.Spec.Template.Labels)) {
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			"daemonset selector does not match pod template labels")
	}
	return nil
}

// Manifest serializes the agent DaemonSet as YAML.
func (d *Deployer) Manifest() ([]byte, error) {
	b, err := yaml.Marshal(d.BuildDaemonSet())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to serialize daemonset", err)
	}
	return b, nil
}

// WriteManifest writes the DaemonSet to dir/diagnostic_daemon.yaml and
// returns the file path.
func (d *Deployer) WriteManifest(dir string) (string, error) {
	b, err := d.Manifest()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, "failed to write manifest", err)
	}
	return path, nil
}

// ReadManifest loads a DaemonSet previously written by WriteManifest.
func ReadManifest(path string) (*appsv1.DaemonSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to read manifest", err)
	}
	var ds appsv1.DaemonSet
	if err := yaml.UnmarshalStrict(b, &ds); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to parse manifest", err)
	}
	return &ds, nil
}
