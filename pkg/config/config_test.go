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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumacast/lumacast/pkg/types"
)

func TestValidateDerivesContainer(t *testing.T) {
	opts := &RecordingOptions{OutputPath: "/tmp/out.mkv"}
	require.NoError(t, opts.Validate())
	require.Equal(t, types.ContainerKindMatroska, opts.Container)

	opts = &RecordingOptions{OutputPath: "/tmp/out.mp4"}
	require.NoError(t, opts.Validate())
	require.Equal(t, types.ContainerKindMP4, opts.Container)

	// unknown extension falls back to mp4
	opts = &RecordingOptions{OutputPath: "/tmp/out.capture"}
	require.NoError(t, opts.Validate())
	require.Equal(t, types.ContainerKindMP4, opts.Container)
}

func TestValidateRejectsBadInput(t *testing.T) {
	require.Error(t, (&RecordingOptions{}).Validate())
	require.Error(t, (&RecordingOptions{OutputPath: "/tmp/a.mp4", Framerate: -1}).Validate())
	require.Error(t, (&RecordingOptions{OutputPath: "/tmp/a.mp4", Framerate: 600}).Validate())
	require.Error(t, (&RecordingOptions{OutputPath: "/tmp/a.mp4", Crop: Rect{X: -5, Width: 10, Height: 10}}).Validate())
	require.Error(t, (&RecordingOptions{OutputPath: "/tmp/a.mp4", Container: "avi"}).Validate())
}

func TestApplyDefaults(t *testing.T) {
	conf, err := NewServiceConfig("")
	require.NoError(t, err)

	opts := &RecordingOptions{OutputPath: "/tmp/a.mp4"}
	conf.ApplyDefaults(opts)
	require.Equal(t, 30, opts.Framerate)
	require.Equal(t, 4_500_000, opts.VideoBitrate)
	require.Equal(t, 128_000, opts.AudioBitrate)

	// explicit values survive
	opts = &RecordingOptions{OutputPath: "/tmp/a.mp4", Framerate: 60, VideoBitrate: 1}
	conf.ApplyDefaults(opts)
	require.Equal(t, 60, opts.Framerate)
	require.Equal(t, 1, opts.VideoBitrate)
}

func TestServiceConfigParsing(t *testing.T) {
	conf, err := NewServiceConfig(`
metrics_port: 9090
defaults:
  framerate: 24
max_duration: 2h
`)
	require.NoError(t, err)
	require.Equal(t, 9090, conf.MetricsPort)
	require.Equal(t, 24, conf.Defaults.Framerate)
	require.Equal(t, time.Hour*2, conf.SessionLimits.MaxDuration)

	_, err = NewServiceConfig("{{not yaml")
	require.Error(t, err)
}

func TestResolveOutputPathNormalizesExtension(t *testing.T) {
	dir := t.TempDir()

	resolved := ResolveOutputPath(filepath.Join(dir, "out.mov"), types.ContainerKindMP4)
	require.Equal(t, filepath.Join(dir, "out.mp4"), resolved)

	resolved = ResolveOutputPath(filepath.Join(dir, "out.mp4"), types.ContainerKindMatroska)
	require.Equal(t, filepath.Join(dir, "out.mkv"), resolved)
}

func TestResolveOutputPathCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	resolved := ResolveOutputPath(filepath.Join(dir, "out.mp4"), types.ContainerKindMP4)
	require.Equal(t, filepath.Join(dir, "out.mp4"), resolved)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestResolveOutputPathFallback(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("directory permissions do not bind for root")
	}

	locked := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.Mkdir(locked, 0500))

	resolved := ResolveOutputPath(filepath.Join(locked, "out.mp4"), types.ContainerKindMP4)
	require.Equal(t, "out.mp4", filepath.Base(resolved))
	require.NotContains(t, resolved, locked)
}
