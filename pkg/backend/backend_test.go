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

package backend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumacast/lumacast/pkg/config"
	"github.com/lumacast/lumacast/pkg/errors"
	"github.com/lumacast/lumacast/pkg/types"
)

type fakePlatform struct {
	stream  bool
	polling bool
}

func (f *fakePlatform) StreamCaptureSupported() bool       { return f.stream }
func (f *fakePlatform) PollingCaptureSupported() bool      { return f.polling }
func (f *fakePlatform) HasScreenRecordingPermission() bool { return true }
func (f *fakePlatform) RequestScreenRecordingPermission()  {}
func (f *fakePlatform) HasMicrophonePermission() bool      { return true }
func (f *fakePlatform) RequestMicrophonePermission()       {}

func TestSelectVariant(t *testing.T) {
	for _, tc := range []struct {
		name        string
		platform    *fakePlatform
		systemAudio bool
		expected    types.BackendVariant
		err         error
	}{
		{
			name:     "stream preferred when supported",
			platform: &fakePlatform{stream: true, polling: true},
			expected: types.BackendVariantStream,
		},
		{
			name:     "polling fallback",
			platform: &fakePlatform{polling: true},
			expected: types.BackendVariantPolling,
		},
		{
			name:        "system audio requires stream",
			platform:    &fakePlatform{polling: true},
			systemAudio: true,
			err:         errors.ErrUnsupportedOS,
		},
		{
			name:        "system audio with stream",
			platform:    &fakePlatform{stream: true},
			systemAudio: true,
			expected:    types.BackendVariantStream,
		},
		{
			name:     "no capture capability",
			platform: &fakePlatform{},
			err:      errors.ErrUnsupportedOS,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts := &config.RecordingOptions{SystemAudio: tc.systemAudio}
			variant, err := SelectVariant(tc.platform, opts)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, variant)
		})
	}
}

func TestSelectVariantIsPure(t *testing.T) {
	// selection must not depend on prior calls
	p := &fakePlatform{stream: true}
	opts := &config.RecordingOptions{SystemAudio: true}
	for i := 0; i < 3; i++ {
		variant, err := SelectVariant(p, opts)
		require.NoError(t, err)
		require.Equal(t, types.BackendVariantStream, variant)
	}
}
