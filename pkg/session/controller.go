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

package session

import (
	"context"
	"time"

	"github.com/frostbyte73/core"
	"github.com/google/uuid"
	"github.com/linkdata/deadlock"
	"go.uber.org/atomic"

	"github.com/lumacast/lumacast/pkg/backend"
	"github.com/lumacast/lumacast/pkg/config"
	"github.com/lumacast/lumacast/pkg/device"
	"github.com/lumacast/lumacast/pkg/errors"
	"github.com/lumacast/lumacast/pkg/gst"
	"github.com/lumacast/lumacast/pkg/logger"
	"github.com/lumacast/lumacast/pkg/media"
	"github.com/lumacast/lumacast/pkg/platform"
	"github.com/lumacast/lumacast/pkg/stats"
	"github.com/lumacast/lumacast/pkg/tracer"
	"github.com/lumacast/lumacast/pkg/types"
	"github.com/lumacast/lumacast/pkg/writer"
)

// Result describes how a session ended. It is delivered exactly once per
// stopped or failed session.
type Result struct {
	SessionID    string
	OutputPath   string
	Error        error
	Duration     time.Duration
	VideoDropped uint64
	AudioDropped uint64
	LimitReached bool
}

// recordingWriter is the writer surface the controller depends on.
type recordingWriter interface {
	media.Writer
	Cancel()
}

type audioAdapter interface {
	Start(ctx context.Context) error
	Stop() error
}

// Controller runs at most one recording session at a time and owns its
// lifecycle from start through the terminal notification.
type Controller struct {
	conf     *config.ServiceConfig
	monitor  *stats.Monitor
	onResult func(*Result)

	newWriter      func(opts *config.RecordingOptions, outputPath string, expectAudio bool, callbacks *gst.Callbacks) (recordingWriter, error)
	newBackend     func(variant types.BackendVariant, opts *config.RecordingOptions, display device.Display, handler media.Handler, callbacks *gst.Callbacks) (backend.Backend, error)
	newMic         func(mic device.Microphone, handler media.Handler, callbacks *gst.Callbacks) audioAdapter
	resolveDisplay func(selector string) (device.Display, error)

	mu     deadlock.Mutex
	active *session
}

type session struct {
	id        string
	opts      *config.RecordingOptions
	startedAt time.Time

	backend backend.Backend
	mic     audioAdapter
	writer  recordingWriter
	router  *writer.Router

	state        atomic.String
	failure      atomic.Error
	limitReached atomic.Bool
	limitTimer   *time.Timer

	// stopTriggered requests finalization; finalized guards the single
	// result dispatch. Finalization always runs on the session's own
	// goroutine regardless of which path triggered it.
	stopTriggered core.Fuse
	finalized     core.Fuse
}

func NewController(conf *config.ServiceConfig, monitor *stats.Monitor, onResult func(*Result)) *Controller {
	c := &Controller{
		conf:     conf,
		monitor:  monitor,
		onResult: onResult,
	}
	c.newWriter = func(opts *config.RecordingOptions, outputPath string, expectAudio bool, callbacks *gst.Callbacks) (recordingWriter, error) {
		return writer.New(opts, outputPath, expectAudio, c.monitor, callbacks)
	}
	c.newBackend = backend.New
	c.newMic = func(mic device.Microphone, handler media.Handler, callbacks *gst.Callbacks) audioAdapter {
		return backend.NewMicrophoneAdapter(mic, handler, callbacks)
	}
	c.resolveDisplay = device.ResolveDisplay
	return c
}

// StartRecording validates the request, builds the capture and writer
// pipelines, and starts capturing. Errors during this window are returned
// synchronously and produce no terminal notification.
func (c *Controller) StartRecording(ctx context.Context, opts *config.RecordingOptions) (string, error) {
	ctx, span := tracer.Start(ctx, "Controller.StartRecording")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && !c.sessionDone(c.active) {
		return "", errors.ErrInvalidState
	}

	if err := opts.Validate(); err != nil {
		return "", err
	}
	c.conf.ApplyDefaults(opts)

	// path resolution falls back rather than failing
	outputPath := config.ResolveOutputPath(opts.OutputPath, opts.Container)

	if opts.MicrophoneRequested() {
		p := platform.Current()
		if !p.HasMicrophonePermission() {
			p.RequestMicrophonePermission()
			if !p.HasMicrophonePermission() {
				return "", errors.ErrPermissionDenied("microphone")
			}
		}
	}

	display, err := c.resolveDisplay(opts.Display)
	if err != nil {
		return "", err
	}

	variant, err := backend.SelectVariant(platform.Current(), opts)
	if err != nil {
		return "", err
	}

	var mic device.Microphone
	if opts.MicrophoneRequested() {
		if mic, err = device.ResolveMicrophone(opts.Microphone); err != nil {
			return "", err
		}
	}

	s := &session{
		id:   uuid.NewString(),
		opts: opts,
	}
	s.state.Store(string(types.SessionStateStarting))

	callbacks := &gst.Callbacks{}
	callbacks.SetOnError(func(err error) {
		logger.Errorw("pipeline failure", err, "sessionID", s.id)
		s.failure.CompareAndSwap(nil, err)
		s.stopTriggered.Break()
	})

	expectAudio := opts.SystemAudio || opts.MicrophoneRequested()
	if s.writer, err = c.newWriter(opts, outputPath, expectAudio, callbacks); err != nil {
		return "", err
	}
	s.router = writer.NewRouter(s.writer, c.monitor)

	if s.backend, err = c.newBackend(variant, opts, display, s.router, callbacks); err != nil {
		s.writer.Cancel()
		return "", err
	}
	if err = s.backend.Start(ctx); err != nil {
		s.writer.Cancel()
		return "", err
	}

	if opts.MicrophoneRequested() {
		s.mic = c.newMic(mic, s.router, callbacks)
		if err = s.mic.Start(ctx); err != nil {
			_ = s.backend.Stop()
			s.writer.Cancel()
			return "", err
		}
	}

	s.startedAt = time.Now()
	s.state.Store(string(types.SessionStateRecording))
	if opts.MaxDuration > 0 {
		s.limitTimer = time.AfterFunc(opts.MaxDuration, func() {
			s.limitReached.Store(true)
			s.stopTriggered.Break()
		})
	}

	c.active = s
	c.monitor.SessionStarted()
	logger.Infow("session started",
		"sessionID", s.id,
		"variant", variant,
		"outputPath", outputPath,
	)

	go c.run(s)
	return s.id, nil
}

// StopRecording requests finalization of the active session. Calling it
// when nothing is recording is a no-op.
func (c *Controller) StopRecording() {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()

	if s == nil || s.state.Load() != string(types.SessionStateRecording) {
		return
	}
	s.stopTriggered.Break()
}

// State reports the active session's state, or idle when there is none.
func (c *Controller) State() types.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return types.SessionStateIdle
	}
	return types.SessionState(c.active.state.Load())
}

// Close cancels any active session, removing its partial output. No result
// is dispatched for a cancelled session.
func (c *Controller) Close() {
	c.mu.Lock()
	s := c.active
	c.active = nil
	c.mu.Unlock()

	if s == nil || c.sessionDone(s) {
		return
	}

	s.finalized.Once(func() {
		s.teardownCapture()
		s.writer.Cancel()
		s.state.Store(string(types.SessionStateStopped))
		logger.Infow("session cancelled", "sessionID", s.id)
	})
	// release the run goroutine; finalized already guards its body
	s.stopTriggered.Break()
}

// run is the session's single execution context for finalization. It waits
// for a stop trigger, tears down capture, finalizes the writer, and
// dispatches the terminal notification exactly once.
func (c *Controller) run(s *session) {
	<-s.stopTriggered.Watch()

	s.finalized.Once(func() {
		s.state.Store(string(types.SessionStateStopping))
		duration := time.Since(s.startedAt)

		s.teardownCapture()

		outputPath, err := s.writer.Finish()
		if ferr := s.failure.Load(); ferr != nil {
			err = ferr
		}

		videoDropped, audioDropped := s.router.Dropped()
		res := &Result{
			SessionID:    s.id,
			OutputPath:   outputPath,
			Error:        err,
			Duration:     duration,
			VideoDropped: videoDropped,
			AudioDropped: audioDropped,
			LimitReached: s.limitReached.Load(),
		}

		status := string(types.SessionStateStopped)
		if err != nil {
			status = string(types.SessionStateFailed)
			logger.Errorw("session failed", err, "sessionID", s.id)
		} else {
			logger.Infow("session stopped",
				"sessionID", s.id,
				"outputPath", outputPath,
				"duration", duration,
				"videoDropped", videoDropped,
				"audioDropped", audioDropped,
			)
		}
		s.state.Store(status)
		c.monitor.SessionEnded(status, duration)

		if c.onResult != nil {
			c.onResult(res)
		}
	})
}

func (s *session) teardownCapture() {
	if s.limitTimer != nil {
		s.limitTimer.Stop()
	}
	if err := s.backend.Stop(); err != nil {
		logger.Warnw("backend stop failed", err, "sessionID", s.id)
	}
	if s.mic != nil {
		if err := s.mic.Stop(); err != nil {
			logger.Warnw("microphone stop failed", err, "sessionID", s.id)
		}
	}
}

func (c *Controller) sessionDone(s *session) bool {
	return types.SessionState(s.state.Load()).Terminal()
}
