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
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/console"
	"golang.org/x/sync/errgroup"
)

// PhaseResult summarizes one drained phase.
type PhaseResult struct {
	Kind Kind `json:"kind" yaml:"kind"`
	// Processed counts acknowledged queue items.
	Processed int `json:"processed" yaml:"processed"`
	// Copied counts successful copies.
	Copied int `json:"copied" yaml:"copied"`
	// Skipped counts nodes without a resolvable agent pod.
	Skipped int `json:"skipped" yaml:"skipped"`
	// Failed counts copies that were attempted and failed.
	Failed int `json:"failed" yaml:"failed"`
	// Files are the local paths written, sorted.
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`
	// ErrorLines are ERROR lines found in collected logs, by node.
	ErrorLines map[string][]string `json:"errorLines,omitempty" yaml:"errorLines,omitempty"`
	Duration   time.Duration       `json:"duration" yaml:"duration"`
}

// Phase copies one kind of log from every target node using a fixed-size
// worker set.
type Phase struct {
	Log       LogSpec
	Workers   int
	Namespace string
	Dir       string
	Resolver  Resolver
	Copier    Copier
	Out       *console.Printer
}

// Run enqueues nodes, drains the queue and returns the tally. A node that
// cannot be resolved or copied never fails the phase; only cancellation of
// ctx is returned as an error, after every item has been acknowledged.
func (p *Phase) Run(ctx context.Context, nodes []string) (PhaseResult, error) {
	start := time.Now()
	res := PhaseResult{Kind: p.Log.Kind}

	out := p.Out
	if out == nil {
		out = console.Discard()
	}

	q := NewWorkQueue()
	n, err := q.Populate(nodes)
	if err != nil {
		return res, err
	}

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	phaseWorkers.WithLabelValues(string(p.Log.Kind)).Set(float64(workers))

	slog.Info("collection phase starting",
		"phase", p.Log.Kind,
		"nodes", n,
		"workers", workers,
	)

	var mu sync.Mutex
	tally := func(fn func(r *PhaseResult)) {
		mu.Lock()
		defer mu.Unlock()
		fn(&res)
	}

	// Workers drain the queue even after cancellation, skipping the copies,
	// so every item is acknowledged before the group reports ctx.Err().
	g := new(errgroup.Group)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for node := range q.Items() {
				p.process(ctx, out, node, tally)
				q.Ack(node)
			}
			return ctx.Err()
		})
	}
	waitErr := g.Wait()
	<-q.Done()

	res.Processed = n
	sort.Strings(res.Files)
	res.Duration = time.Since(start)
	phaseDuration.WithLabelValues(string(p.Log.Kind)).Observe(res.Duration.Seconds())

	slog.Info("collection phase drained",
		"phase", p.Log.Kind,
		"processed", res.Processed,
		"copied", res.Copied,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"duration", res.Duration,
	)

	if waitErr != nil {
		return res, fmt.Errorf("%s log collection interrupted: %w", p.Log.Kind, waitErr)
	}
	return res, nil
}

func (p *Phase) process(ctx context.Context, out *console.Printer, node string, tally func(func(*PhaseResult))) {
	phase := string(p.Log.Kind)

	if ctx.Err() != nil {
		copyTotal.WithLabelValues(phase, outcomeSkipped).Inc()
		tally(func(r *PhaseResult) { r.Skipped++ })
		return
	}

	out.Printf("Copying %s log from node %s\n", p.Log.Kind, node)

	pod, err := p.Resolver.Resolve(ctx, node)
	if err != nil {
		slog.Warn("skipping node", "phase", phase, "node", node, "error", err)
		copyTotal.WithLabelValues(phase, outcomeSkipped).Inc()
		tally(func(r *PhaseResult) { r.Skipped++ })
		return
	}

	local := filepath.Join(p.Dir, p.Log.LocalName(node))
	if err := p.Copier.Copy(ctx, p.Namespace, pod, p.Log.RemotePath, local); err != nil {
		slog.Warn("copy failed", "phase", phase, "node", node, "pod", pod, "error", err)
		copyTotal.WithLabelValues(phase, outcomeFailed).Inc()
		tally(func(r *PhaseResult) { r.Failed++ })
		return
	}

	copyTotal.WithLabelValues(phase, outcomeCopied).Inc()

	var lines []string
	if p.Log.ScanErrors {
		lines, err = ScanErrorLines(local)
		if err != nil {
			slog.Warn("failed to scan log", "node", node, "path", local, "error", err)
		}
		for _, l := range lines {
			out.Println(l)
		}
		errorLinesTotal.Add(float64(len(lines)))
	}

	tally(func(r *PhaseResult) {
		r.Copied++
		r.Files = append(r.Files, local)
		if len(lines) > 0 {
			if r.ErrorLines == nil {
				r.ErrorLines = make(map[string][]string)
			}
			r.ErrorLines[node] = lines
		}
	})
}
