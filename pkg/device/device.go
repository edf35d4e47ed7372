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
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	gstreamer "github.com/go-gst/go-gst/gst"

	"github.com/lumacast/lumacast/pkg/config"
	"github.com/lumacast/lumacast/pkg/errors"
	"github.com/lumacast/lumacast/pkg/gst"
)

// Display describes one attached display.
type Display struct {
	ID      string
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// Microphone describes one audio input device.
type Microphone struct {
	ID   string
	Name string
}

// ListDisplays enumerates attached displays with their geometry.
func ListDisplays() ([]Display, error) {
	out, err := exec.Command("xrandr", "--listmonitors").Output()
	if err != nil {
		return nil, errors.ErrDeviceNotFound("display", "any")
	}

	displays := parseMonitors(string(out))
	if len(displays) == 0 {
		return nil, errors.ErrDeviceNotFound("display", "any")
	}
	return displays, nil
}

// monitor lines look like " 0: +*eDP-1 1920/309x1080/173+0+0  eDP-1"
var monitorRe = regexp.MustCompile(`^\s*(\d+):\s+(\+?\*?)\S+\s+(\d+)/\d+x(\d+)/\d+\+(\d+)\+(\d+)\s+(\S+)`)

func parseMonitors(out string) []Display {
	var displays []Display
	for _, line := range strings.Split(out, "\n") {
		m := monitorRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		width, _ := strconv.Atoi(m[3])
		height, _ := strconv.Atoi(m[4])
		x, _ := strconv.Atoi(m[5])
		y, _ := strconv.Atoi(m[6])
		displays = append(displays, Display{
			ID:      m[7],
			X:       x,
			Y:       y,
			Width:   width,
			Height:  height,
			Primary: strings.Contains(m[2], "*"),
		})
	}
	return displays
}

// ListMicrophones enumerates audio sources through the gst device monitor.
func ListMicrophones() ([]Microphone, error) {
	gst.Init()

	monitor := gstreamer.NewDeviceMonitor()
	monitor.AddFilter("Audio/Source", nil)
	if !monitor.Start() {
		return nil, errors.ErrDeviceNotFound("microphone", "any")
	}
	defer monitor.Stop()

	var mics []Microphone
	for _, d := range monitor.GetDevices() {
		mic := Microphone{
			ID:   d.GetDisplayName(),
			Name: d.GetDisplayName(),
		}
		if props := d.GetProperties(); props != nil {
			if v, err := props.GetValue("node.name"); err == nil {
				if name, ok := v.(string); ok && name != "" {
					mic.ID = name
				}
			}
		}
		// monitor sources mirror outputs, they are not microphones
		if strings.HasSuffix(mic.ID, ".monitor") {
			continue
		}
		mics = append(mics, mic)
	}

	return mics, nil
}

// ResolveDisplay maps an options selector to a display descriptor. The
// selector is a display id, a 1-based position (the handle the boundary's
// display list hands out), or empty/"primary" for the primary display.
// Enumeration runs once per call.
func ResolveDisplay(selector string) (Display, error) {
	displays, err := ListDisplays()
	if err != nil {
		return Display{}, err
	}
	return resolveDisplayIn(displays, selector)
}

func resolveDisplayIn(displays []Display, selector string) (Display, error) {
	if selector == "" || selector == config.DisplayPrimary {
		for _, d := range displays {
			if d.Primary {
				return d, nil
			}
		}
		return displays[0], nil
	}

	if index, err := strconv.Atoi(selector); err == nil {
		if index < 1 || index > len(displays) {
			return Display{}, errors.ErrDeviceNotFound("display", selector)
		}
		return displays[index-1], nil
	}

	for _, d := range displays {
		if d.ID == selector {
			return d, nil
		}
	}
	return Display{}, errors.ErrDeviceNotFound("display", selector)
}

// ResolveMicrophone maps an options selector to a microphone descriptor.
func ResolveMicrophone(selector string) (Microphone, error) {
	if selector == "" || selector == config.MicrophoneDefault {
		return Microphone{ID: "", Name: "default"}, nil
	}

	mics, err := ListMicrophones()
	if err != nil {
		return Microphone{}, err
	}
	for _, m := range mics {
		if m.ID == selector || m.Name == selector {
			return m, nil
		}
	}
	return Microphone{}, errors.ErrDeviceNotFound("microphone", selector)
}
