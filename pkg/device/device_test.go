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

package device

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumacast/lumacast/pkg/errors"
)

func TestParseMonitors(t *testing.T) {
	out := `Monitors: 2
 0: +*eDP-1 1920/309x1080/173+0+0  eDP-1
 1: +HDMI-1 2560/597x1440/336+1920+0  HDMI-1
`

	displays := parseMonitors(out)
	require.Len(t, displays, 2)

	require.Equal(t, "eDP-1", displays[0].ID)
	require.True(t, displays[0].Primary)
	require.Equal(t, 1920, displays[0].Width)
	require.Equal(t, 1080, displays[0].Height)
	require.Equal(t, 0, displays[0].X)

	require.Equal(t, "HDMI-1", displays[1].ID)
	require.False(t, displays[1].Primary)
	require.Equal(t, 2560, displays[1].Width)
	require.Equal(t, 1440, displays[1].Height)
	require.Equal(t, 1920, displays[1].X)
	require.Equal(t, 0, displays[1].Y)
}

func TestParseMonitorsEmpty(t *testing.T) {
	require.Empty(t, parseMonitors("Monitors: 0\n"))
	require.Empty(t, parseMonitors(""))
}

func TestResolveDisplaySelectors(t *testing.T) {
	displays := []Display{
		{ID: "HDMI-1", Width: 2560, Height: 1440},
		{ID: "eDP-1", Width: 1920, Height: 1080, Primary: true},
	}

	d, err := resolveDisplayIn(displays, "")
	require.NoError(t, err)
	require.Equal(t, "eDP-1", d.ID)

	d, err = resolveDisplayIn(displays, "primary")
	require.NoError(t, err)
	require.Equal(t, "eDP-1", d.ID)

	d, err = resolveDisplayIn(displays, "HDMI-1")
	require.NoError(t, err)
	require.Equal(t, "HDMI-1", d.ID)

	// 1-based positions, matching the ids the boundary list hands out
	d, err = resolveDisplayIn(displays, "1")
	require.NoError(t, err)
	require.Equal(t, "HDMI-1", d.ID)

	d, err = resolveDisplayIn(displays, "2")
	require.NoError(t, err)
	require.Equal(t, "eDP-1", d.ID)

	_, err = resolveDisplayIn(displays, "3")
	require.True(t, errors.IsDeviceNotFound(err))

	_, err = resolveDisplayIn(displays, "0")
	require.True(t, errors.IsDeviceNotFound(err))

	_, err = resolveDisplayIn(displays, "DP-9")
	require.True(t, errors.IsDeviceNotFound(err))
}
