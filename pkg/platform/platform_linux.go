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

package platform

import (
	"os"
	"path"
)

func detect() Platform {
	return &linuxPlatform{}
}

type linuxPlatform struct{}

// StreamCaptureSupported checks for a reachable PipeWire socket, which the
// stream backend and system audio capture both require.
func (p *linuxPlatform) StreamCaptureSupported() bool {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return false
	}
	if _, err := os.Stat(path.Join(runtimeDir, "pipewire-0")); err != nil {
		return false
	}
	return true
}

// PollingCaptureSupported reports whether an X display can be opened.
func (p *linuxPlatform) PollingCaptureSupported() bool {
	return os.Getenv("DISPLAY") != ""
}

// Screen capture on linux is gated by the desktop portal at capture time
// rather than by a persistent grant, so permission checks reduce to
// capability checks.
func (p *linuxPlatform) HasScreenRecordingPermission() bool {
	return p.StreamCaptureSupported() || p.PollingCaptureSupported()
}

func (p *linuxPlatform) RequestScreenRecordingPermission() {}

func (p *linuxPlatform) HasMicrophonePermission() bool {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return false
	}
	if _, err := os.Stat(path.Join(runtimeDir, "pulse")); err == nil {
		return true
	}
	if _, err := os.Stat(path.Join(runtimeDir, "pipewire-0")); err == nil {
		return true
	}
	return false
}

func (p *linuxPlatform) RequestMicrophonePermission() {}
