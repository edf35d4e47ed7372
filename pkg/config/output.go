// Copyright 2025 Lumacast Labs
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

package config

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/lumacast/lumacast/pkg/logger"
	"github.com/lumacast/lumacast/pkg/types"
)

const fallbackDirName = "lumacast"

// ResolveOutputPath returns the local path the writer should produce.
// The extension is normalized to match the container kind. If the target
// directory is missing it is created; if it cannot be created or written,
// the file is redirected to a process-temporary directory with the same
// filename. Path problems alone never fail a session start.
func ResolveOutputPath(outputPath string, kind types.ContainerKind) string {
	ext := string(types.FileExtensionForContainer[kind])
	if !strings.HasSuffix(outputPath, ext) {
		outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ext
	}

	dir, filename := path.Split(outputPath)
	if dir == "" {
		dir = "."
	}

	if writableDir(dir) {
		return outputPath
	}

	fallback := path.Join(os.TempDir(), fallbackDirName)
	if err := os.MkdirAll(fallback, 0755); err != nil {
		// last resort, TempDir itself is expected to exist
		fallback = os.TempDir()
	}

	logger.Warnw("output directory not writable, using fallback", nil,
		"requested", dir,
		"fallback", fallback,
	)
	return path.Join(fallback, filename)
}

func writableDir(dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false
	}

	probe, err := os.CreateTemp(dir, ".lumacast-probe-*")
	if err != nil {
		return false
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return true
}
