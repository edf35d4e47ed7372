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
	"path/filepath"
	"time"

	"github.com/lumacast/lumacast/pkg/errors"
	"github.com/lumacast/lumacast/pkg/types"
)

const (
	DisplayPrimary    = "primary"
	MicrophoneDefault = "default"
)

// Rect is a crop rectangle in display pixels. Zero width/height means the
// full frame.
type Rect struct {
	X      int `yaml:"x" json:"x"`
	Y      int `yaml:"y" json:"y"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

func (r Rect) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// RecordingOptions configures a single recording session. Options are
// immutable once the session starts.
type RecordingOptions struct {
	OutputPath   string              `yaml:"output_path" json:"output_path"`     // output file, extension may imply container
	Container    types.ContainerKind `yaml:"container" json:"container"`         // mp4 or matroska
	VideoBitrate int                 `yaml:"video_bitrate" json:"video_bitrate"` // bits per second
	AudioBitrate int                 `yaml:"audio_bitrate" json:"audio_bitrate"` // bits per second
	Framerate    int                 `yaml:"framerate" json:"framerate"`
	ShowCursor   bool                `yaml:"show_cursor" json:"show_cursor"`
	Display      string              `yaml:"display" json:"display"` // display id, empty or "primary" for primary
	Crop         Rect                `yaml:"crop" json:"crop"`
	Microphone   string              `yaml:"microphone" json:"microphone"` // mic id, "default", or empty to disable
	SystemAudio  bool                `yaml:"system_audio" json:"system_audio"`
	MaxDuration  time.Duration       `yaml:"max_duration" json:"max_duration"` // 0 to disable
}

func (o *RecordingOptions) Validate() error {
	if o.OutputPath == "" {
		return errors.ErrInvalidInput("output_path")
	}
	if o.Framerate < 0 || o.Framerate > 240 {
		return errors.ErrInvalidInput("framerate")
	}
	if o.VideoBitrate < 0 {
		return errors.ErrInvalidInput("video_bitrate")
	}
	if o.Crop.Width < 0 || o.Crop.Height < 0 || o.Crop.X < 0 || o.Crop.Y < 0 {
		return errors.ErrInvalidInput("crop")
	}

	if o.Container == "" {
		ext := types.FileExtension(filepath.Ext(o.OutputPath))
		if kind, ok := types.ContainerForFileExtension[ext]; ok {
			o.Container = kind
		} else {
			o.Container = types.ContainerKindMP4
		}
	}
	if !o.Container.Valid() {
		return errors.ErrInvalidInput("container")
	}

	return nil
}

// MicrophoneRequested reports whether a microphone input was requested.
func (o *RecordingOptions) MicrophoneRequested() bool {
	return o.Microphone != ""
}

// PrimaryDisplay reports whether the primary display was selected.
func (o *RecordingOptions) PrimaryDisplay() bool {
	return o.Display == "" || o.Display == DisplayPrimary
}
