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

// Package console serializes operator-facing narration.
//
// Structured logs go to stderr through slog; the Printer writes the
// human-readable progress report (section banners, check results, ERROR lines
// from node logs) to stdout. A single mutex guards the writer so lines emitted
// by concurrent collector workers never interleave.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Printer is safe for concurrent use.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter returns a Printer writing to w. A nil writer means stdout.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w}
}

// Discard returns a Printer that drops everything.
func Discard() *Printer {
	return &Printer{w: io.Discard}
}

// Banner prints a section header in the form ****title****.
func (p *Printer) Banner(title string) {
	p.Printf("****%s****\n", title)
}

// Println prints operands separated by spaces, followed by a newline.
func (p *Printer) Println(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, a...)
}

// Printf formats according to a format specifier.
func (p *Printer) Printf(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, format, a...)
}

// Write implements io.Writer so the Printer can back other writers.
func (p *Printer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.w.Write(b)
}
