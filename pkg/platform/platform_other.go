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

//go:build !linux

package platform

func detect() Platform {
	return &unsupportedPlatform{}
}

type unsupportedPlatform struct{}

func (p *unsupportedPlatform) StreamCaptureSupported() bool         { return false }
func (p *unsupportedPlatform) PollingCaptureSupported() bool        { return false }
func (p *unsupportedPlatform) HasScreenRecordingPermission() bool   { return false }
func (p *unsupportedPlatform) RequestScreenRecordingPermission()    {}
func (p *unsupportedPlatform) HasMicrophonePermission() bool        { return false }
func (p *unsupportedPlatform) RequestMicrophonePermission()         {}
