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

package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Node log collection metrics
	copyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3fs_diag_collector_copies_total",
			Help: "Total number of per-node log copy attempts",
		},
		[]string{"phase", "outcome"}, // copied, skipped, failed
	)

	phaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "s3fs_diag_collector_phase_duration_seconds",
			Help:    "Time taken to drain one collection phase",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"phase"},
	)

	podResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "s3fs_diag_collector_pod_resolve_duration_seconds",
			Help:    "Time taken to find the agent pod on a node, including throttling",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	phaseWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "s3fs_diag_collector_workers",
			Help: "Number of workers used by the last run of a phase",
		},
		[]string{"phase"},
	)

	errorLinesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "s3fs_diag_collector_error_lines_total",
			Help: "Lines containing ERROR found in collected mount-status logs",
		},
	)
)

const (
	outcomeCopied  = "copied"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)
