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

// Platform reports capture capabilities and permission state for the running
// system. Implemented once per target platform.
type Platform interface {
	// StreamCaptureSupported reports whether the modern stream capture path
	// (and with it system audio) is available.
	StreamCaptureSupported() bool

	// PollingCaptureSupported reports whether the legacy frame-polling path
	// is available.
	PollingCaptureSupported() bool

	HasScreenRecordingPermission() bool
	RequestScreenRecordingPermission()
	HasMicrophonePermission() bool
	RequestMicrophonePermission()
}

var current Platform = detect()

// Current returns the detected platform.
func Current() Platform {
	return current
}

// SetCurrent overrides platform detection, for tests.
func SetCurrent(p Platform) {
	current = p
}
