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
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ErrorMarker selects lines echoed from mount-status logs.
const ErrorMarker = "ERROR"

const maxLineSize = 1 << 20

// ScanErrorLines returns the lines of the file at path that contain ERROR.
func ScanErrorLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, ErrorMarker) {
			lines = append(lines, strings.TrimRight(line, "\r"))
		}
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("failed to scan %q: %w", path, err)
	}
	return lines, nil
}
