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

package console

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Banner("Checking storage classes")
	assert.Equal(t, "****Checking storage classes****\n", buf.String())
}

func TestPrintfAndPrintln(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Printf("DS:%s, Desired:%d\n", "s3fs-diagnostic", 3)
	p.Println("a", "b")
	assert.Equal(t, "DS:s3fs-diagnostic, Desired:3\na b\n", buf.String())
}

func TestConcurrentLinesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.Printf("node-%02d ERROR mount check failed\n", i)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 50)
	for _, l := range lines {
		assert.Regexp(t, "^node-\\d{2} ERROR mount check failed$", l)
	}
}

func TestDiscard(t *testing.T) {
	p := Discard()
	p.Banner("x")
	n, err := fmt.Fprint(p, "hello")
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
}
