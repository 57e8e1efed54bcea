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
	stderrors "errors"
	"fmt"
	"log/slog"

	apperrors "github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
)

// AwaitReady polls the agent DaemonSet until the number of ready pods equals
// desired. The first check happens immediately; each unsuccessful check is
// followed by one PollInterval sleep. If the check made after MaxAttempts
// sleeps still fails, AwaitReady returns a TIMEOUT error carrying the last
// observed state.
func (d *Deployer) AwaitReady(ctx context.Context, desired int) (DaemonSetState, error) {
	state := DaemonSetState{Desired: desired}
	attempts := 0
	name := d.config.Name

	err := wait.PollUntilContextCancel(ctx, d.config.PollInterval, true,
		func(ctx context.Context) (bool, error) {
			attempts++

			ready, scheduled, err := d.readyCount(ctx)
			if err != nil {
				slog.Warn("failed to read daemonset status", "daemonset", name, "attempt", attempts, "error", err)
			} else {
				state.Ready = ready
				state.Scheduled = scheduled
			}

			if err == nil && state.Done() {
				d.out.Printf("%s is running and available ds instances:%d\n", name, state.Ready)
				return true, nil
			}

			if attempts > d.config.MaxAttempts {
				d.out.Printf("%s were not running well. Instances Desired:%d, Instances Available:%d\n",
					name, state.Desired, state.Ready)
				if state.Scheduled < state.Desired {
					d.out.Printf("Only %d of %d Ready nodes scheduled a %s pod; tainted nodes need a matching --toleration\n",
						state.Scheduled, state.Desired, name)
				}
				return false, apperrors.NewWithContext(apperrors.ErrCodeTimeout,
					fmt.Sprintf("daemonset %s not ready after %d attempts", name, attempts),
					map[string]any{
						"daemonset": name,
						"namespace": d.config.Namespace,
						"desired":   state.Desired,
						"ready":     state.Ready,
						"scheduled": state.Scheduled,
						"attempts":  attempts,
					})
			}

			d.out.Printf("DS:%s, Desired:%d, Available:%d Sleeping %s\n",
				name, state.Desired, state.Ready, d.config.PollInterval)
			return false, nil
		},
	)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrCodeTimeout {
			return state, err
		}
		code := apperrors.ErrCodeInternal
		if stderrors.Is(err, context.DeadlineExceeded) {
			code = apperrors.ErrCodeTimeout
		}
		return state, apperrors.WrapWithContext(code,
			fmt.Sprintf("waiting for daemonset %s interrupted", name), err,
			map[string]any{"desired": state.Desired, "ready": state.Ready, "attempts": attempts})
	}

	slog.Debug("agent ready", "daemonset", name, "ready", state.Ready, "attempts", attempts)
	return state, nil
}

// readyCount returns the DaemonSet's NumberReady and DesiredNumberScheduled.
func (d *Deployer) readyCount(ctx context.Context) (int, int, error) {
	ds, err := d.clientset.AppsV1().DaemonSets(d.config.Namespace).Get(ctx, d.config.Name, metav1.GetOptions{})
	if err != nil {
		return 0, 0, err
	}
	return int(ds.Status.NumberReady), int(ds.Status.DesiredNumberScheduled), nil
}
