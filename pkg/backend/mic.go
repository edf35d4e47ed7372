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
	"context"
	"time"

	gstreamer "github.com/go-gst/go-gst/gst"

	"github.com/lumacast/lumacast/pkg/device"
	"github.com/lumacast/lumacast/pkg/errors"
	"github.com/lumacast/lumacast/pkg/gst"
	"github.com/lumacast/lumacast/pkg/media"
	"github.com/lumacast/lumacast/pkg/tracer"
	"github.com/lumacast/lumacast/pkg/types"
)

// MicrophoneAdapter captures a microphone on its own pipeline, separate
// from the screen capture backend. Start is synchronous: the adapter either
// reaches playing within the bound or reports why it could not.
type MicrophoneAdapter struct {
	mic       device.Microphone
	handler   media.Handler
	callbacks *gst.Callbacks

	p *gst.Pipeline
}

func NewMicrophoneAdapter(mic device.Microphone, handler media.Handler, callbacks *gst.Callbacks) *MicrophoneAdapter {
	return &MicrophoneAdapter{
		mic:       mic,
		handler:   handler,
		callbacks: callbacks,
	}
}

func (a *MicrophoneAdapter) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "MicrophoneAdapter.Start")
	defer span.End()

	p, err := gst.NewPipeline("microphone", a.callbacks)
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	a.p = p

	srcProps := map[string]interface{}{
		"do-timestamp": true,
	}
	if a.mic.ID != "" {
		srcProps["device"] = a.mic.ID
	}
	src, err := gst.BuildElement("pulsesrc", srcProps)
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	audioConvert, err := gst.BuildElement("audioconvert", nil)
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	audioResample, err := gst.BuildElement("audioresample", nil)
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	capsFilter, err := gst.BuildElement("capsfilter", map[string]interface{}{
		"caps": gstreamer.NewCapsFromString(
			"audio/x-raw,format=S16LE,layout=interleaved,rate=48000,channels=2",
		),
	})
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	sink, err := buildSampleSink(types.SampleKindAudio, a.handler)
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}

	if err = a.p.AddLinked(src, audioConvert, audioResample, capsFilter, sink); err != nil {
		return errors.ErrBackendStartFailure(err)
	}

	// a named device that fails to open means the device is gone; the
	// default device failing to open means capture access was denied
	if err = a.p.Start(); err != nil {
		return a.startFailure(err)
	}
	if err = a.p.AwaitPlaying(startTimeout); err != nil {
		return a.startFailure(err)
	}
	return nil
}

func (a *MicrophoneAdapter) startFailure(cause error) error {
	if a.mic.ID != "" {
		return errors.ErrDeviceNotFoundCause("microphone", a.mic.ID, cause)
	}
	return errors.ErrPermissionDeniedCause("microphone", cause)
}

func (a *MicrophoneAdapter) Stop() error {
	if a.p == nil {
		return nil
	}
	if a.p.Playing() {
		time.Sleep(stopGraceDelay)
	}
	return a.p.Stop()
}
