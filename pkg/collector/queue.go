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
	"fmt"
	"strings"
	"sync"
)

// State is the lifecycle of a WorkQueue.
type State int

const (
	// Idle means nothing has been enqueued yet.
	Idle State = iota
	// Populated means every target is enqueued and no worker has started.
	Populated
	// Draining means workers are consuming items.
	Draining
	// Drained means every item was dequeued and acknowledged.
	Drained
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Populated:
		return "populated"
	case Draining:
		return "draining"
	case Drained:
		return "drained"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// WorkQueue holds the node identifiers for one phase. It is populated once
// and consumed by any number of workers; each identifier is delivered to
// exactly one worker.
type WorkQueue struct {
	mu       sync.Mutex
	state    State
	items    chan string
	enqueued []string
	acked    map[string]int
	drained  chan struct{}
}

// NewWorkQueue returns an Idle queue.
func NewWorkQueue() *WorkQueue {
	return &WorkQueue{
		acked:   make(map[string]int),
		drained: make(chan struct{}),
	}
}

// Populate enqueues ids once each, dropping blanks and duplicates, and
// returns the number enqueued. It may only be called on an Idle queue.
func (q *WorkQueue) Populate(ids []string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != Idle {
		return 0, fmt.Errorf("cannot populate queue in state %s", q.state)
	}

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	q.items = make(chan string, len(unique))
	for _, id := range unique {
		q.items <- id
	}
	close(q.items)

	q.enqueued = unique
	q.state = Populated
	if len(unique) == 0 {
		q.state = Drained
		close(q.drained)
	}
	return len(unique), nil
}

// Items returns the channel workers range over. The first call moves a
// Populated queue to Draining.
func (q *WorkQueue) Items() <-chan string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state == Populated {
		q.state = Draining
	}
	return q.items
}

// Ack marks id as processed. Once every enqueued item is acknowledged the
// queue is Drained.
func (q *WorkQueue) Ack(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.acked[id]++
	if q.state != Drained && q.ackedCount() == len(q.enqueued) {
		q.state = Drained
		close(q.drained)
	}
}

// ackedCount must be called with mu held.
func (q *WorkQueue) ackedCount() int {
	n := 0
	for _, c := range q.acked {
		n += c
	}
	return n
}

// Done is closed when the queue is Drained.
func (q *WorkQueue) Done() <-chan struct{} {
	return q.drained
}

// State returns the current lifecycle state.
func (q *WorkQueue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Enqueued returns the identifiers in the order they were enqueued.
func (q *WorkQueue) Enqueued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.enqueued))
	copy(out, q.enqueued)
	return out
}

// Acked returns how many times each identifier was acknowledged.
func (q *WorkQueue) Acked() map[string]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[string]int, len(q.acked))
	for k, v := range q.acked {
		out[k] = v
	}
	return out
}
