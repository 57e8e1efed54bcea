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
	"archive/tar"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"

	"github.com/NVIDIA/s3fs-diagnostic/pkg/errors"
	"github.com/NVIDIA/s3fs-diagnostic/pkg/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0o600))
	}
}

func TestSelectPatterns(t *testing.T) {
	tests := []struct {
		name        string
		provisioner bool
		driver      bool
		want        []string
	}{
		{"both", true, true, []string{"s3provisioner.log", "*ibmc-s3fs.log", "*s3fsMountStatus.log"}},
		{"driver only", false, true, []string{"*ibmc-s3fs.log", "*s3fsMountStatus.log"}},
		{"provisioner only", true, false, []string{"s3provisioner.log", "*s3fsMountStatus.log"}},
		{"neither", false, false, []string{"*s3fsMountStatus.log"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectPatterns(tt.provisioner, tt.driver))
		})
	}
}

func TestCompressCommand(t *testing.T) {
	tests := []struct {
		goos string
		want string
		file string
	}{
		{"darwin", "zip -r -X s3fs_diagnostic_logs.zip", "s3fs_diagnostic_logs.zip"},
		{"linux", "tar -cvf s3fs_diagnostic_logs.tar", "s3fs_diagnostic_logs.tar"},
		{"windows", "tar -cvf s3fs_diagnostic_logs.tar", "s3fs_diagnostic_logs.tar"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			cmd := CompressCommand(tt.goos, DefaultName)
			assert.Equal(t, tt.want, cmd.String())
			assert.Equal(t, tt.file, cmd.File)
		})
	}
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "node-b-ibmc-s3fs.log", "node-a-ibmc-s3fs.log", "node-a-s3fsMountStatus.log", "other.txt")

	files, err := Expand(dir, []string{DriverPattern, DiagnosticPattern, DriverPattern, ProvisionerPattern})
	require.NoError(t, err)
	assert.Equal(t, []string{"node-a-ibmc-s3fs.log", "node-a-s3fsMountStatus.log", "node-b-ibmc-s3fs.log"}, files)

	_, err = Expand(dir, []string{"[bad"})
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
}

func TestCreateInvokesArchiver(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "node-a-ibmc-s3fs.log", "node-a-s3fsMountStatus.log")
	absDir, err := filepath.Abs(dir)
	require.NoError(t, err)

	t.Run("tar", func(t *testing.T) {
		fake := executor.NewFake()

		path, err := Create(context.Background(), fake, "linux", dir, DefaultName, SelectPatterns(false, true))

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(absDir, "s3fs_diagnostic_logs.tar"), path)
		assert.Equal(t, []string{
			"tar -cvf " + path + " -C " + absDir + " node-a-ibmc-s3fs.log node-a-s3fsMountStatus.log",
		}, fake.Calls())
	})

	t.Run("zip", func(t *testing.T) {
		fake := executor.NewFake()

		path, err := Create(context.Background(), fake, "darwin", dir, DefaultName, SelectPatterns(false, false))

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(absDir, "s3fs_diagnostic_logs.zip"), path)
		assert.Equal(t, []string{
			"zip -r -X -j " + path + " " + filepath.Join(absDir, "node-a-s3fsMountStatus.log"),
		}, fake.Calls())
	})
}

func TestCreateFailures(t *testing.T) {
	t.Run("nothing to archive", func(t *testing.T) {
		fake := executor.NewFake()

		_, err := Create(context.Background(), fake, "linux", t.TempDir(), DefaultName, SelectPatterns(true, true))

		assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
		assert.Empty(t, fake.Calls())
	})

	t.Run("archiver fails", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "n-s3fsMountStatus.log")
		fake := executor.NewFake().On("tar", executor.Result{
			Status:   executor.NonZeroExit,
			Stderr:   "tar: disk full",
			ExitCode: 2,
		})

		_, err := Create(context.Background(), fake, "linux", dir, DefaultName, SelectPatterns(false, false))

		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInternal, errors.CodeOf(err))
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestCreateWithTar(t *testing.T) {
	if _, err := exec.LookPath("tar"); err != nil {
		t.Skip("tar not available")
	}

	dir := t.TempDir()
	touch(t, dir, "s3provisioner.log", "n1-ibmc-s3fs.log", "n1-s3fsMountStatus.log")

	path, err := Create(context.Background(), executor.NewLocal(nil), "linux", dir, DefaultName, SelectPatterns(true, true))
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var names []string
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"n1-ibmc-s3fs.log", "n1-s3fsMountStatus.log", "s3provisioner.log"}, names)
}

func TestRemoveIntermediate(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"s3provisioner.log",
		"node-a-ibmc-s3fs.log",
		"10.0.0.1-s3fsMountStatus.log",
		"diagnostic_daemon.yaml",
		"s3fs_diagnostic_logs.tar",
		"app.log",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "s3dir.log"), 0o755))

	removed := RemoveIntermediate(dir)

	sort.Strings(removed)
	assert.Equal(t, []string{"10.0.0.1-s3fsMountStatus.log", "node-a-ibmc-s3fs.log", "s3provisioner.log"}, removed)
	assert.FileExists(t, filepath.Join(dir, "diagnostic_daemon.yaml"))
	assert.FileExists(t, filepath.Join(dir, "s3fs_diagnostic_logs.tar"))
	assert.FileExists(t, filepath.Join(dir, "app.log"))
	assert.DirExists(t, filepath.Join(dir, "s3dir.log"))
	assert.Nil(t, RemoveIntermediate(filepath.Join(dir, "missing")))
}
