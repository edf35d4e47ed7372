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
	"github.com/lumacast/lumacast/pkg/logger"
	"github.com/lumacast/lumacast/pkg/media"
	"github.com/lumacast/lumacast/pkg/tracer"
	"github.com/lumacast/lumacast/pkg/types"
)

// streamBackend captures through the compositor's stream interface. Display
// selection happens inside the portal session, so the resolved display is
// only used for crop geometry.
type streamBackend struct {
	opts      *config.RecordingOptions
	display   device.Display
	handler   media.Handler
	callbacks *gst.Callbacks

	p *gst.Pipeline
}

func newStreamBackend(opts *config.RecordingOptions, display device.Display, handler media.Handler, callbacks *gst.Callbacks) *streamBackend {
	return &streamBackend{
		opts:      opts,
		display:   display,
		handler:   handler,
		callbacks: callbacks,
	}
}

func (b *streamBackend) Variant() types.BackendVariant {
	return types.BackendVariantStream
}

// Start brings the capture pipeline up and waits a bounded interval for it
// to reach playing. A timeout is treated as success so slow portal
// negotiation does not fail the session; errors after the bound flow through
// the callbacks' error path instead.
func (b *streamBackend) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "StreamBackend.Start")
	defer span.End()

	p, err := gst.NewPipeline("capture", b.callbacks)
	if err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	b.p = p

	if err = b.buildVideoBranch(); err != nil {
		return errors.ErrBackendStartFailure(err)
	}
	if b.opts.SystemAudio {
		if err = b.buildSystemAudioBranch(); err != nil {
			return errors.ErrBackendStartFailure(err)
		}
	}

	if err = b.p.Start(); err != nil {
		return errors.ErrBackendStartFailure(err)
	}

	if err = b.p.AwaitPlaying(startTimeout); err != nil {
		if errors.Is(err, gst.ErrStartTimeout) {
			logger.Warnw("capture start still pending, continuing optimistically", nil)
			return nil
		}
		return errors.ErrBackendStartFailure(err)
	}
	return nil
}

func (b *streamBackend) buildVideoBranch() error {
	src, err := gst.BuildElement("pipewiresrc", map[string]interface{}{
		"do-timestamp": true,
	})
	if err != nil {
		return err
	}

	elements := []*gstreamer.Element{src}

	if crop := b.opts.Crop; !crop.Empty() {
		videoCrop, err := gst.BuildElement("videocrop", map[string]interface{}{
			"left":   crop.X,
			"top":    crop.Y,
			"right":  b.display.Width - crop.X - crop.Width,
			"bottom": b.display.Height - crop.Y - crop.Height,
		})
		if err != nil {
			return err
		}
		elements = append(elements, videoCrop)
	}

	videoRate, err := gst.BuildElement("videorate", nil)
	if err != nil {
		return err
	}
	videoConvert, err := gst.BuildElement("videoconvert", nil)
	if err != nil {
		return err
	}
	capsFilter, err := gst.BuildElement("capsfilter", map[string]interface{}{
		"caps": gstreamer.NewCapsFromString(fmt.Sprintf(
			"video/x-raw,format=BGRx,framerate=%d/1", b.opts.Framerate,
		)),
	})
	if err != nil {
		return err
	}
	sink, err := buildSampleSink(types.SampleKindVideo, b.handler)
	if err != nil {
		return err
	}

	elements = append(elements, videoRate, videoConvert, capsFilter, sink)
	return b.p.AddLinked(elements...)
}

func (b *streamBackend) buildSystemAudioBranch() error {
	src, err := gst.BuildElement("pulsesrc", map[string]interface{}{
		"device":       "@DEFAULT_MONITOR@",
		"do-timestamp": true,
	})
	if err != nil {
		return err
	}
	audioConvert, err := gst.BuildElement("audioconvert", nil)
	if err != nil {
		return err
	}
	audioResample, err := gst.BuildElement("audioresample", nil)
	if err != nil {
		return err
	}
	capsFilter, err := gst.BuildElement("capsfilter", map[string]interface{}{
		"caps": gstreamer.NewCapsFromString(
			"audio/x-raw,format=S16LE,layout=interleaved,rate=48000,channels=2",
		),
	})
	if err != nil {
		return err
	}
	sink, err := buildSampleSink(types.SampleKindAudio, b.handler)
	if err != nil {
		return err
	}

	return b.p.AddLinked(src, audioConvert, audioResample, capsFilter, sink)
}

// Stop tears the capture pipeline down after a short grace delay so samples
// already queued in the sinks reach the handler. A pipeline that never
// reached playing has nothing to drain.
func (b *streamBackend) Stop() error {
	if b.p == nil {
		return nil
	}
	if b.p.Playing() {
		time.Sleep(stopGraceDelay)
	}
	return b.p.Stop()
}
