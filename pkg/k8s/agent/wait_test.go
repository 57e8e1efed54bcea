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
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/console"
	apperrors "github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

// readinessSequence serves NumberReady values in order; the last repeats.
func readinessSequence(clientset *fake.Clientset, ready ...int32) *atomic.Int32 {
	var calls atomic.Int32
	clientset.PrependReactor("get", "daemonsets", func(k8stesting.Action) (bool, runtime.Object, error) {
		i := int(calls.Add(1)) - 1
		if i >= len(ready) {
			i = len(ready) - 1
		}
		return true, &appsv1.DaemonSet{
			ObjectMeta: metav1.ObjectMeta{Name: DefaultName, Namespace: DefaultNamespace},
			Status:     appsv1.DaemonSetStatus{NumberReady: ready[i]},
		}, nil
	})
	return &calls
}

func newWaitDeployer(clientset *fake.Clientset, out *bytes.Buffer) *Deployer {
	return NewDeployer(clientset, Config{
		PollInterval: time.Millisecond,
		MaxAttempts:  30,
	}, console.NewPrinter(out))
}

func TestAwaitReady_FirstEqualCycle(t *testing.T) {
	clientset := fake.NewClientset()
	calls := readinessSequence(clientset, 1, 3, 3)
	var out bytes.Buffer

	state, err := newWaitDeployer(clientset, &out).AwaitReady(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, DaemonSetState{Desired: 3, Ready: 3}, state)
	assert.Equal(t, int32(2), calls.Load())
	assert.Contains(t, out.String(), "DS:s3fs-diagnostic, Desired:3, Available:1 Sleeping 1ms")
	assert.Contains(t, out.String(), "s3fs-diagnostic is running and available ds instances:3")
}

func TestAwaitReady_ImmediatelyReady(t *testing.T) {
	clientset := fake.NewClientset()
	calls := readinessSequence(clientset, 2)
	var out bytes.Buffer

	_, err := newWaitDeployer(clientset, &out).AwaitReady(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.NotContains(t, out.String(), "Sleeping")
}

func TestAwaitReady_TimesOutOnAttempt31(t *testing.T) {
	clientset := fake.NewClientset()
	calls := readinessSequence(clientset, 2)
	var out bytes.Buffer

	state, err := newWaitDeployer(clientset, &out).AwaitReady(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTimeout, apperrors.CodeOf(err))
	assert.Equal(t, DaemonSetState{Desired: 3, Ready: 2}, state)
	assert.Equal(t, int32(31), calls.Load())
	assert.Equal(t, 30, strings.Count(out.String(), "Sleeping"))
	assert.Contains(t, out.String(), "Instances Desired:3, Instances Available:2")

	var se *apperrors.StructuredError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 31, se.Context["attempts"])
	assert.Equal(t, 2, se.Context["ready"])
}

func TestAwaitReady_TimeoutReportsUnscheduledNodes(t *testing.T) {
	clientset := fake.NewClientset()
	clientset.PrependReactor("get", "daemonsets", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, &appsv1.DaemonSet{
			ObjectMeta: metav1.ObjectMeta{Name: DefaultName, Namespace: DefaultNamespace},
			Status:     appsv1.DaemonSetStatus{NumberReady: 2, DesiredNumberScheduled: 2},
		}, nil
	})
	var out bytes.Buffer

	state, err := newWaitDeployer(clientset, &out).AwaitReady(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, DaemonSetState{Desired: 3, Ready: 2, Scheduled: 2}, state)
	assert.Contains(t, out.String(), "Only 2 of 3 Ready nodes scheduled a s3fs-diagnostic pod")

	var se *apperrors.StructuredError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Context["scheduled"])
}

func TestAwaitReady_TransientErrorsKeepPolling(t *testing.T) {
	clientset := fake.NewClientset()
	var calls atomic.Int32
	clientset.PrependReactor("get", "daemonsets", func(k8stesting.Action) (bool, runtime.Object, error) {
		if calls.Add(1) == 1 {
			return true, nil, assert.AnError
		}
		return true, &appsv1.DaemonSet{Status: appsv1.DaemonSetStatus{NumberReady: 1}}, nil
	})

	state, err := newWaitDeployer(clientset, &bytes.Buffer{}).AwaitReady(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Ready)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAwaitReady_Cancelled(t *testing.T) {
	clientset := fake.NewClientset()
	readinessSequence(clientset, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDeployer(clientset, Config{PollInterval: time.Hour}, nil)
	_, err := d.AwaitReady(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
