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

package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/executor"
)

// DefaultName is the archive base name without extension.
const DefaultName = "s3fs_diagnostic_logs"

// Glob patterns for collected artifacts.
const (
	ProvisionerPattern = "s3provisioner.log"
	DriverPattern      = "*ibmc-s3fs.log"
	DiagnosticPattern  = "*s3fsMountStatus.log"
)

// intermediate matches every log file produced during a run.
var intermediate = regexp.MustCompile(`^.*s3.*\.log$`)

// SelectPatterns returns the artifact globs for a run. The diagnostic
// pattern is always present.
func SelectPatterns(hasProvisionerOrPVCLog, hasDriverLogOrPod bool) []string {
	switch {
	case hasProvisionerOrPVCLog && hasDriverLogOrPod:
		return []string{ProvisionerPattern, DriverPattern, DiagnosticPattern}
	case hasDriverLogOrPod:
		return []string{DriverPattern, DiagnosticPattern}
	case hasProvisionerOrPVCLog:
		return []string{ProvisionerPattern, DiagnosticPattern}
	default:
		return []string{DiagnosticPattern}
	}
}

// Command is an archiver invocation before the file list is appended.
type Command struct {
	Name  string
	Flags []string
	File  string
}

// Args returns the flags followed by the archive file.
func (c Command) Args() []string {
	return append(append([]string{}, c.Flags...), c.File)
}

// String renders the command the way an operator would type it.
func (c Command) String() string {
	return executor.CommandLine(c.Name, c.Args()...)
}

// CompressCommand returns zip on darwin and tar everywhere else.
func CompressCommand(goos, name string) Command {
	if goos == "darwin" {
		return Command{Name: "zip", Flags: []string{"-r", "-X"}, File: name + ".zip"}
	}
	return Command{Name: "tar", Flags: []string{"-cvf"}, File: name + ".tar"}
}

// argv places the archive and its members. Entries carry bare file names:
// tar changes into dir, zip junks the directory part.
func (c Command) argv(dir, target string, files []string) []string {
	args := append([]string{}, c.Flags...)
	if c.Name == "zip" {
		args = append(args, "-j", target)
		for _, f := range files {
			args = append(args, filepath.Join(dir, f))
		}
		return args
	}
	args = append(args, target, "-C", dir)
	return append(args, files...)
}

// Expand resolves patterns relative to dir and returns sorted, unique
// base names.
func Expand(dir string, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, p := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, p))
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "invalid archive pattern", err,
				map[string]any{"pattern": p})
		}
		for _, m := range matches {
			base := filepath.Base(m)
			if _, dup := seen[base]; dup {
				continue
			}
			seen[base] = struct{}{}
			files = append(files, base)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Create archives the files matching patterns in dir with the platform
// archiver and returns the absolute archive path.
func Create(ctx context.Context, exec executor.Executor, goos, dir, name string, patterns []string) (string, error) {
	files, err := Expand(dir, patterns)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", errors.NewWithContext(errors.ErrCodeNotFound, "no log files to archive", map[string]any{
			"dir":      dir,
			"patterns": patterns,
		})
	}

	cmd := CompressCommand(goos, name)
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to resolve work directory", err)
	}
	target := filepath.Join(absDir, cmd.File)

	// Start from a clean file; zip would otherwise append to an old archive.
	if rmErr := os.Remove(target); rmErr != nil && !os.IsNotExist(rmErr) {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to remove previous archive", rmErr)
	}

	res := exec.Run(ctx, cmd.Name, cmd.argv(absDir, target, files)...)
	if !res.OK() {
		return "", errors.WrapWithContext(errors.ErrCodeInternal, "failed to create log archive",
			fmt.Errorf("%s: %s", res.Status, res.Stderr), map[string]any{
				"command":  cmd.Name,
				"exitCode": res.ExitCode,
			})
	}

	slog.Debug("archive created", "path", target, "files", len(files))
	return target, nil
}

// RemoveIntermediate deletes the run's log files from dir and returns the
// removed names. Failures are logged and skipped.
func RemoveIntermediate(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("failed to read work directory", "dir", dir, "error", err)
		return nil
	}

	var removed []string
	for _, e := range entries {
		if e.IsDir() || !intermediate.MatchString(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			slog.Warn("failed to remove log file", "file", e.Name(), "error", err)
			continue
		}
		removed = append(removed, e.Name())
	}
	return removed
}
