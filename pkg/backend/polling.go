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
	"fmt"
	"time"

	gstreamer "github.com/go-gst/go-gst/gst"

	"github.com/lumacast/lumacast/pkg/config"
	"github.com/lumacast/lumacast/pkg/device"
	"github.com/lumacast/lumacast/pkg/errors"
	"github.com/lumacast/lumacast/pkg/gst"
	"github.com/lumacast/lumacast/pkg/media"
	"github.com/lumacast/lumacast/pkg/tracer"
	"github.com/lumacast/lumacast/pkg/types"
)

// pollingBackend captures by polling the X root window. It is the fallback
// when stream capture is unavailable and can never record system audio.
type pollingBackend struct {
	opts      *config.RecordingOptions
	display   device.Display
	handler   media.Handler
	callbacks *gst.Callbacks

	p *gst.Pipeline
}

func newPollingBackend(opts *config.RecordingOptions, display device.Display, handler media.Handler, callbacks *gst.Callbacks) *pollingBackend {
	return &pollingBackend{
		opts:      opts,
		display:   display,
		handler:   handler,
		callbacks: callbacks,
	}
}

func (b *pollingBackend) Variant() types.BackendVariant {
	return types.BackendVariantPolling
}

// Start builds the polling pipeline and waits for it to reach playing.
// Unlike the stream variant there is no external negotiation to wait on, so
// failure to reach playing within the bound is an error.
func (b *pollingBackend) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "PollingBackend.Start")
	defer span.End()

	if b.opts.SystemAudio {
		return errors.ErrUnsupportedOS
	}

	p, err := gst.NewPipeline("capture", b.callbacks)
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	b.p = p

	src, err := gst.BuildElement("ximagesrc", b.sourceProperties())
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	videoRate, err := gst.BuildElement("videorate", nil)
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	videoConvert, err := gst.BuildElement("videoconvert", nil)
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	capsFilter, err := gst.BuildElement("capsfilter", map[string]interface{}{
		"caps": gstreamer.NewCapsFromString(fmt.Sprintf(
			"video/x-raw,format=BGRx,framerate=%d/1", b.opts.Framerate,
		)),
	})
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	sink, err := buildSampleSink(types.SampleKindVideo, b.handler)
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}

	if err = b.p.AddLinked(src, videoRate, videoConvert, capsFilter, sink); err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	if err = b.p.Start(); err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	if err = b.p.AwaitPlaying(startTimeout); err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	return nil
}

// sourceProperties selects the capture region in root window coordinates.
// The crop rect is relative to the resolved display.
func (b *pollingBackend) sourceProperties() map[string]interface{} {
	props := map[string]interface{}{
		"use-damage":   false,
		"do-timestamp": true,
		"show-pointer": b.opts.ShowCursor,
	}

	region := config.Rect{
		X:      b.display.X,
		Y:      b.display.Y,
		Width:  b.display.Width,
		Height: b.display.Height,
	}
	if crop := b.opts.Crop; !crop.Empty() {
		region.X += crop.X
		region.Y += crop.Y
		region.Width = crop.Width
		region.Height = crop.Height
	}
	if region.Empty() {
		return props
	}

	props["startx"] = uint(region.X)
	props["starty"] = uint(region.Y)
	props["endx"] = uint(region.X + region.Width - 1)
	props["endy"] = uint(region.Y + region.Height - 1)
	return props
}

func (b *pollingBackend) Stop() error {
	if b.p == nil {
		return nil
	}
	if b.p.Playing() {
		time.Sleep(stopGraceDelay)
	}
	return b.p.Stop()
}
