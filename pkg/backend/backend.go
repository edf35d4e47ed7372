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
	"github.com/go-gst/go-gst/gst/app"

	"github.com/lumacast/lumacast/pkg/config"
	"github.com/lumacast/lumacast/pkg/device"
	"github.com/lumacast/lumacast/pkg/errors"
	"github.com/lumacast/lumacast/pkg/gst"
	"github.com/lumacast/lumacast/pkg/media"
	"github.com/lumacast/lumacast/pkg/platform"
	"github.com/lumacast/lumacast/pkg/types"
)

const (
	// startTimeout bounds the wait for the asynchronous capture start.
	startTimeout = time.Second * 5

	// stopGraceDelay lets in-flight buffers drain before teardown.
	stopGraceDelay = time.Millisecond * 100
)

// Backend is one concrete capture strategy. Samples are delivered to the
// handler on the backend's own callback threads until Stop returns.
type Backend interface {
	Start(ctx context.Context) error
	Stop() error
	Variant() types.BackendVariant
}

// SelectVariant resolves the capture strategy from platform capability and
// the requested options. Selection is pure: it touches no capture resources.
// System audio requires the stream variant.
func SelectVariant(p platform.Platform, opts *config.RecordingOptions) (types.BackendVariant, error) {
	if p.StreamCaptureSupported() {
		return types.BackendVariantStream, nil
	}
	if opts.SystemAudio {
		return "", errors.ErrUnsupportedOS
	}
	if p.PollingCaptureSupported() {
		return types.BackendVariantPolling, nil
	}
	return "", errors.ErrUnsupportedOS
}

// New constructs the backend for a resolved variant.
func New(variant types.BackendVariant, opts *config.RecordingOptions, display device.Display, handler media.Handler, callbacks *gst.Callbacks) (Backend, error) {
	switch variant {
	case types.BackendVariantStream:
		return newStreamBackend(opts, display, handler, callbacks), nil
	case types.BackendVariantPolling:
		return newPollingBackend(opts, display, handler, callbacks), nil
	default:
		return nil, errors.ErrUnsupportedOS
	}
}

// buildSampleSink creates an appsink that converts pulled samples and routes
// them to the handler. The format descriptor is read from the caps of the
// first sample and reused for the rest of the stream.
func buildSampleSink(kind types.SampleKind, handler media.Handler) (*gstreamer.Element, error) {
	element, err := gst.BuildElement("appsink", map[string]interface{}{
		"sync": false,
		"drop": true,
	})
	if err != nil {
		return nil, err
	}

	var format *media.SampleFormat
	sink := app.SinkFromElement(element)
	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gstreamer.FlowReturn {
			sample := sink.PullSample()
			if sample == nil {
				return gstreamer.FlowEOS
			}

			buffer := sample.GetBuffer()
			if buffer == nil {
				return gstreamer.FlowOK
			}

			if format == nil {
				format = formatFromCaps(kind, sample.GetCaps())
			}

			mapInfo := buffer.Map(gstreamer.MapRead)
			data := make([]byte, len(mapInfo.Bytes()))
			copy(data, mapInfo.Bytes())
			buffer.Unmap()

			handler.HandleSample(&media.Sample{
				Kind:   kind,
				PTS:    time.Duration(buffer.PresentationTimestamp()),
				Data:   data,
				Format: format,
			})
			return gstreamer.FlowOK
		},
	})

	return element, nil
}

func formatFromCaps(kind types.SampleKind, caps *gstreamer.Caps) *media.SampleFormat {
	if caps == nil || caps.GetSize() == 0 {
		return nil
	}

	s := caps.GetStructureAt(0)
	format := &media.SampleFormat{}
	switch kind {
	case types.SampleKindVideo:
		if v, err := s.GetValue("width"); err == nil {
			format.Width, _ = v.(int)
		}
		if v, err := s.GetValue("height"); err == nil {
			format.Height, _ = v.(int)
		}
	case types.SampleKindAudio:
		if v, err := s.GetValue("channels"); err == nil {
			format.Channels, _ = v.(int)
		}
		if v, err := s.GetValue("rate"); err == nil {
			format.SampleRate, _ = v.(int)
		}
	}
	return format
}
