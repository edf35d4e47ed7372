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

package writer

import (
	"fmt"
	"os"
	"time"

	gstreamer "github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
	"github.com/linkdata/deadlock"

	"github.com/lumacast/lumacast/pkg/config"
	"github.com/lumacast/lumacast/pkg/errors"
	"github.com/lumacast/lumacast/pkg/gst"
	"github.com/lumacast/lumacast/pkg/logger"
	"github.com/lumacast/lumacast/pkg/media"
	"github.com/lumacast/lumacast/pkg/stats"
	"github.com/lumacast/lumacast/pkg/types"
)

const (
	pipelineName = "writer"
	eosTimeout   = time.Second * 30
)

type input struct {
	src      *app.Source
	elements []*gstreamer.Element
	format   media.SampleFormat
	ready    bool
}

// ContainerWriter owns the output container. It muxes at most one video and
// one audio input into a single file. Input branches are created up front
// from the requested options; each branch's format is negotiated from the
// first sample of its kind. The writer state moves strictly forward.
type ContainerWriter struct {
	mu deadlock.Mutex

	conf       *config.RecordingOptions
	outputPath string
	monitor    *stats.Monitor

	p      *gst.Pipeline
	mux    *gstreamer.Element
	inputs map[types.SampleKind]*input

	state       types.WriterState
	startPTS    time.Duration
	anchored    bool
	mismatchLog map[types.SampleKind]bool
}

// New builds the writer pipeline. expectAudio controls whether an audio
// branch is prepared; the mux needs all of its request pads before data
// starts flowing, so branches cannot be added after the first append.
func New(conf *config.RecordingOptions, outputPath string, expectAudio bool, monitor *stats.Monitor, callbacks *gst.Callbacks) (*ContainerWriter, error) {
	p, err := gst.NewPipeline(pipelineName, callbacks)
	if err != nil {
		return nil, err
	}

	w := &ContainerWriter{
		conf:        conf,
		outputPath:  outputPath,
		monitor:     monitor,
		p:           p,
		inputs:      make(map[types.SampleKind]*input),
		state:       types.WriterStateUnknown,
		mismatchLog: make(map[types.SampleKind]bool),
	}

	mux, err := gst.BuildElement(types.MuxForContainer[conf.Container], nil)
	if err != nil {
		return nil, err
	}
	if conf.Container == types.ContainerKindMP4 {
		if err = mux.SetProperty("faststart", true); err != nil {
			return nil, errors.ErrGstPipelineError(err)
		}
	}

	sink, err := gst.BuildElement("filesink", map[string]interface{}{
		"location": outputPath,
		"sync":     false,
	})
	if err != nil {
		return nil, err
	}

	if err = p.AddLinked(mux, sink); err != nil {
		return nil, err
	}
	w.mux = mux

	if err = w.buildVideoInput(); err != nil {
		return nil, err
	}
	if expectAudio {
		if err = w.buildAudioInput(); err != nil {
			return nil, err
		}
	}

	if err = p.Start(); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *ContainerWriter) buildVideoInput() error {
	src, err := gst.BuildElement("appsrc", map[string]interface{}{
		"is-live":      true,
		"do-timestamp": false,
	})
	if err != nil {
		return err
	}
	src.SetArg("format", "time")

	queue, err := gst.BuildElement("queue", map[string]interface{}{
		"max-size-time": uint64(time.Second * 3),
	})
	if err != nil {
		return err
	}

	convert, err := gst.BuildElement("videoconvert", nil)
	if err != nil {
		return err
	}

	enc, err := gst.BuildElement("x264enc", map[string]interface{}{
		"bitrate":     uint(w.conf.VideoBitrate / 1000),
		"key-int-max": uint(w.conf.Framerate * 2),
	})
	if err != nil {
		return err
	}
	enc.SetArg("speed-preset", "veryfast")
	enc.SetArg("tune", "zerolatency")

	parse, err := gst.BuildElement("h264parse", nil)
	if err != nil {
		return err
	}

	elements := []*gstreamer.Element{src, queue, convert, enc, parse}
	if err = w.p.AddLinked(elements...); err != nil {
		return err
	}
	if err = gst.LinkPads(
		"video parse", gst.GetSrcPad(elements),
		"mux", w.mux.GetRequestPad("video_%u"),
	); err != nil {
		return err
	}

	w.inputs[types.SampleKindVideo] = &input{
		src:      app.SrcFromElement(src),
		elements: elements,
	}
	return nil
}

func (w *ContainerWriter) buildAudioInput() error {
	src, err := gst.BuildElement("appsrc", map[string]interface{}{
		"is-live":      true,
		"do-timestamp": false,
	})
	if err != nil {
		return err
	}
	src.SetArg("format", "time")

	queue, err := gst.BuildElement("queue", map[string]interface{}{
		"max-size-time": uint64(time.Second * 3),
	})
	if err != nil {
		return err
	}

	convert, err := gst.BuildElement("audioconvert", nil)
	if err != nil {
		return err
	}

	resample, err := gst.BuildElement("audioresample", nil)
	if err != nil {
		return err
	}

	enc, err := gst.BuildElement("faac", map[string]interface{}{
		"bitrate": w.conf.AudioBitrate,
	})
	if err != nil {
		return err
	}

	parse, err := gst.BuildElement("aacparse", nil)
	if err != nil {
		return err
	}

	elements := []*gstreamer.Element{src, queue, convert, resample, enc, parse}
	if err = w.p.AddLinked(elements...); err != nil {
		return err
	}
	if err = gst.LinkPads(
		"audio parse", gst.GetSrcPad(elements),
		"mux", w.mux.GetRequestPad("audio_%u"),
	); err != nil {
		return err
	}

	w.inputs[types.SampleKindAudio] = &input{
		src:      app.SrcFromElement(src),
		elements: elements,
	}
	return nil
}

// AddInputIfNeeded negotiates the input for the given kind from the first
// observed format. Idempotent per kind: once an input is negotiated, later
// calls are no-ops returning true. Returns false if the writer has no branch
// for the kind or is already finalized.
func (w *ContainerWriter) AddInputIfNeeded(kind types.SampleKind, format *media.SampleFormat) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Terminal() {
		return false
	}

	in := w.inputs[kind]
	if in == nil {
		return false
	}
	if in.ready {
		return true
	}

	var caps string
	switch kind {
	case types.SampleKindVideo:
		width, height := w.videoDimensions(format)
		caps = fmt.Sprintf(
			"video/x-raw,format=BGRx,width=%d,height=%d,framerate=%d/1",
			width, height, w.conf.Framerate,
		)

	case types.SampleKindAudio:
		rate, channels := 48000, 2
		if format != nil {
			if format.SampleRate > 0 {
				rate = format.SampleRate
			}
			if format.Channels > 0 {
				channels = format.Channels
			}
		}
		caps = fmt.Sprintf(
			"audio/x-raw,format=S16LE,layout=interleaved,rate=%d,channels=%d",
			rate, channels,
		)
	}

	if err := in.src.Element.SetProperty("caps", gstreamer.NewCapsFromString(caps)); err != nil {
		logger.Errorw("could not set input caps", err, "kind", kind)
		return false
	}

	if format != nil {
		in.format = *format
	}
	in.ready = true
	logger.Debugw("input negotiated", "kind", kind, "caps", caps)
	return true
}

// videoDimensions prefers the first sample's format and falls back to the
// crop rectangle from the options.
func (w *ContainerWriter) videoDimensions(format *media.SampleFormat) (int, int) {
	if format != nil && format.Width > 0 && format.Height > 0 {
		return format.Width, format.Height
	}
	if !w.conf.Crop.Empty() {
		return w.conf.Crop.Width, w.conf.Crop.Height
	}
	return 1920, 1080
}

// Append pushes one sample. It never blocks: if the input is not ready for
// more data the sample is dropped and false is returned. The first appended
// sample of either kind anchors the session start time.
func (w *ContainerWriter) Append(s *media.Sample) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != types.WriterStateUnknown && w.state != types.WriterStateWriting {
		return false
	}

	in := w.inputs[s.Kind]
	if in == nil || !in.ready {
		return false
	}

	if s.Format != nil && !s.Format.Equal(&in.format) && !w.mismatchLog[s.Kind] {
		// first-wins: the original caps stay pinned
		logger.Warnw("sample format changed mid-stream", nil, "kind", s.Kind)
		w.mismatchLog[s.Kind] = true
	}

	if !w.anchored {
		w.startPTS = s.PTS
		w.anchored = true
	}

	pts := s.PTS - w.startPTS
	if pts < 0 {
		pts = 0
	}

	b := gstreamer.NewBufferFromBytes(s.Data)
	b.SetPresentationTimestamp(pts)

	if flow := in.src.PushBuffer(b); flow != gstreamer.FlowOK {
		logger.Debugw("buffer rejected", "kind", s.Kind, "flow", flow.String())
		return false
	}

	if w.state == types.WriterStateUnknown {
		w.state = types.WriterStateWriting
	}
	w.monitor.SampleAppended(string(s.Kind))
	return true
}

// State returns the current writer state.
func (w *ContainerWriter) State() types.WriterState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Finish marks all inputs finished and finalizes the container. If no sample
// was ever appended the writer is cancelled, the empty file is removed, and
// ErrInvalidFinalizeState is returned.
func (w *ContainerWriter) Finish() (string, error) {
	w.mu.Lock()
	if w.state.Terminal() {
		state := w.state
		path := w.outputPath
		w.mu.Unlock()
		if state == types.WriterStateCompleted {
			return path, nil
		}
		return "", errors.ErrInvalidState
	}
	if w.state != types.WriterStateWriting {
		w.state = types.WriterStateCancelled
		w.mu.Unlock()
		w.teardown(true)
		return "", errors.ErrInvalidFinalizeState
	}
	w.mu.Unlock()

	// end every branch, including never-negotiated ones, so the mux pad
	// does not keep waiting for data
	for kind, in := range w.inputs {
		if flow := in.src.EndStream(); flow != gstreamer.FlowOK {
			logger.Warnw("unexpected flow on end of stream", nil,
				"kind", kind,
				"flow", flow.String(),
			)
		}
	}

	if !w.p.AwaitEOS(eosTimeout) {
		w.mu.Lock()
		w.state = types.WriterStateFailed
		w.mu.Unlock()
		w.teardown(false)
		return "", errors.ErrPipelineFrozen
	}

	if err := w.p.Stop(); err != nil {
		w.mu.Lock()
		w.state = types.WriterStateFailed
		w.mu.Unlock()
		return "", err
	}

	w.mu.Lock()
	w.state = types.WriterStateCompleted
	w.mu.Unlock()

	logger.Infow("recording finalized", "path", w.outputPath)
	return w.outputPath, nil
}

// Cancel tears the writer down without finalizing; the partial file is
// removed. Used when the session fails before finalize.
func (w *ContainerWriter) Cancel() {
	w.mu.Lock()
	if w.state.Terminal() {
		w.mu.Unlock()
		return
	}
	w.state = types.WriterStateCancelled
	w.mu.Unlock()
	w.teardown(true)
}

func (w *ContainerWriter) teardown(removeFile bool) {
	if err := w.p.Stop(); err != nil {
		logger.Errorw("could not stop writer pipeline", err)
	}
	if removeFile {
		if err := os.Remove(w.outputPath); err != nil && !os.IsNotExist(err) {
			logger.Errorw("could not remove partial file", err, "path", w.outputPath)
		}
	}
}
