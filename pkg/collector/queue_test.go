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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkQueueLifecycle(t *testing.T) {
	q := NewWorkQueue()
	assert.Equal(t, Idle, q.State())

	n, err := q.Populate([]string{"A", "B", " B ", "", "C", "A"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, Populated, q.State())
	assert.Equal(t, []string{"A", "B", "C"}, q.Enqueued())

	_, err = q.Populate([]string{"D"})
	assert.Error(t, err, "a queue is populated once")

	items := q.Items()
	assert.Equal(t, Draining, q.State())

	for id := range items {
		q.Ack(id)
	}
	assert.Equal(t, Drained, q.State())
	<-q.Done()
	assert.Equal(t, map[string]int{"A": 1, "B": 1, "C": 1}, q.Acked())
}

func TestWorkQueueEmpty(t *testing.T) {
	q := NewWorkQueue()
	n, err := q.Populate(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, Drained, q.State())

	select {
	case <-q.Done():
	default:
		t.Fatal("empty queue should be drained")
	}
}

func TestWorkQueueExactlyOncePerNode(t *testing.T) {
	for workers := 1; workers <= 5; workers++ {
		q := NewWorkQueue()
		_, err := q.Populate([]string{"A", "B", "C"})
		require.NoError(t, err)

		var mu sync.Mutex
		processed := map[string]int{}

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for id := range q.Items() {
					mu.Lock()
					processed[id]++
					mu.Unlock()
					q.Ack(id)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, map[string]int{"A": 1, "B": 1, "C": 1}, processed, "workers=%d", workers)
		assert.Equal(t, Drained, q.State(), "workers=%d", workers)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "populated", Populated.String())
	assert.Equal(t, "draining", Draining.String())
	assert.Equal(t, "drained", Drained.String())
	assert.Equal(t, "state(7)", State(7).String())
}
