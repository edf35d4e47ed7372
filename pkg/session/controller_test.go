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
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/lumacast/lumacast/pkg/backend"
	"github.com/lumacast/lumacast/pkg/config"
	"github.com/lumacast/lumacast/pkg/device"
	"github.com/lumacast/lumacast/pkg/errors"
	"github.com/lumacast/lumacast/pkg/gst"
	"github.com/lumacast/lumacast/pkg/media"
	"github.com/lumacast/lumacast/pkg/platform"
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

type fakeBackend struct {
	variant   types.BackendVariant
	startErr  error
	stopped   atomic.Bool
	callbacks *gst.Callbacks
}

func (f *fakeBackend) Start(ctx context.Context) error { return f.startErr }
func (f *fakeBackend) Stop() error {
	f.stopped.Store(true)
	return nil
}
func (f *fakeBackend) Variant() types.BackendVariant { return f.variant }

type fakeRecordingWriter struct {
	outputPath string
	finishErr  error

	finished  atomic.Int32
	cancelled atomic.Bool
}

func (f *fakeRecordingWriter) AddInputIfNeeded(kind types.SampleKind, format *media.SampleFormat) bool {
	return true
}
func (f *fakeRecordingWriter) Append(s *media.Sample) bool { return true }
func (f *fakeRecordingWriter) Finish() (string, error) {
	f.finished.Inc()
	return f.outputPath, f.finishErr
}
func (f *fakeRecordingWriter) Cancel() { f.cancelled.Store(true) }

type harness struct {
	controller *Controller
	backend    *fakeBackend
	writer     *fakeRecordingWriter
	results    chan *Result
}

func newHarness(t *testing.T, p platform.Platform) *harness {
	t.Helper()

	prev := platform.Current()
	platform.SetCurrent(p)
	t.Cleanup(func() { platform.SetCurrent(prev) })

	h := &harness{
		backend: &fakeBackend{variant: types.BackendVariantStream},
		writer:  &fakeRecordingWriter{outputPath: "/tmp/out.mp4"},
		results: make(chan *Result, 4),
	}
	h.controller = NewController(&config.ServiceConfig{}, nil, func(res *Result) {
		h.results <- res
	})
	h.controller.newWriter = func(opts *config.RecordingOptions, outputPath string, expectAudio bool, callbacks *gst.Callbacks) (recordingWriter, error) {
		return h.writer, nil
	}
	h.controller.newBackend = func(variant types.BackendVariant, opts *config.RecordingOptions, display device.Display, handler media.Handler, callbacks *gst.Callbacks) (backend.Backend, error) {
		h.backend.variant = variant
		h.backend.callbacks = callbacks
		return h.backend, nil
	}
	h.controller.resolveDisplay = func(selector string) (device.Display, error) {
		return device.Display{ID: "eDP-1", Width: 1920, Height: 1080, Primary: true}, nil
	}
	return h
}

func testOptions(t *testing.T) *config.RecordingOptions {
	return &config.RecordingOptions{
		OutputPath: filepath.Join(t.TempDir(), "capture.mp4"),
	}
}

func awaitResult(t *testing.T, h *harness) *Result {
	t.Helper()
	select {
	case res := <-h.results:
		return res
	case <-time.After(time.Second * 3):
		t.Fatal("no result delivered")
		return nil
	}
}

func TestStopDeliversResultOnce(t *testing.T) {
	h := newHarness(t, &fakePlatform{stream: true})

	id, err := h.controller.StartRecording(context.Background(), testOptions(t))
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, types.SessionStateRecording, h.controller.State())

	h.controller.StopRecording()
	res := awaitResult(t, h)
	require.Equal(t, id, res.SessionID)
	require.NoError(t, res.Error)
	require.Equal(t, "/tmp/out.mp4", res.OutputPath)
	require.True(t, h.backend.stopped.Load())

	// repeated stops must not deliver again
	h.controller.StopRecording()
	h.controller.StopRecording()
	time.Sleep(time.Millisecond * 100)
	require.Empty(t, h.results)
	require.Equal(t, int32(1), h.writer.finished.Load())
	require.Equal(t, types.SessionStateStopped, h.controller.State())
}

func TestStartWhileActive(t *testing.T) {
	h := newHarness(t, &fakePlatform{stream: true})

	_, err := h.controller.StartRecording(context.Background(), testOptions(t))
	require.NoError(t, err)

	_, err = h.controller.StartRecording(context.Background(), testOptions(t))
	require.ErrorIs(t, err, errors.ErrInvalidState)

	h.controller.StopRecording()
	awaitResult(t, h)

	// a terminal session no longer blocks new starts
	_, err = h.controller.StartRecording(context.Background(), testOptions(t))
	require.NoError(t, err)
}

func TestStopBeforeDataFails(t *testing.T) {
	h := newHarness(t, &fakePlatform{stream: true})
	h.writer.outputPath = ""
	h.writer.finishErr = errors.ErrInvalidFinalizeState

	_, err := h.controller.StartRecording(context.Background(), testOptions(t))
	require.NoError(t, err)

	h.controller.StopRecording()
	res := awaitResult(t, h)
	require.ErrorIs(t, res.Error, errors.ErrInvalidFinalizeState)
	require.Equal(t, types.SessionStateFailed, h.controller.State())
}

func TestUnsupportedComboFailsSynchronously(t *testing.T) {
	h := newHarness(t, &fakePlatform{polling: true})

	opts := testOptions(t)
	opts.SystemAudio = true
	_, err := h.controller.StartRecording(context.Background(), opts)
	require.ErrorIs(t, err, errors.ErrUnsupportedOS)

	// synchronous failures never notify
	time.Sleep(time.Millisecond * 50)
	require.Empty(t, h.results)
	require.Equal(t, types.SessionStateIdle, h.controller.State())
}

func TestBackendStartFailureCancelsWriter(t *testing.T) {
	h := newHarness(t, &fakePlatform{stream: true})
	h.backend.startErr = errors.ErrBackendStartFailure(errors.ErrGstPipelineError(nil))

	_, err := h.controller.StartRecording(context.Background(), testOptions(t))
	require.Error(t, err)
	require.True(t, errors.IsBackendStartFailure(err))
	require.True(t, h.writer.cancelled.Load())
	require.Empty(t, h.results)
}

func TestPipelineFailureFinalizes(t *testing.T) {
	h := newHarness(t, &fakePlatform{stream: true})

	_, err := h.controller.StartRecording(context.Background(), testOptions(t))
	require.NoError(t, err)

	cause := errors.ErrGstPipelineError(errors.ErrPipelineFrozen)
	h.backend.callbacks.OnError(cause)

	res := awaitResult(t, h)
	require.ErrorIs(t, res.Error, cause)
	require.Equal(t, types.SessionStateFailed, h.controller.State())
}

func TestSessionLimit(t *testing.T) {
	h := newHarness(t, &fakePlatform{stream: true})

	opts := testOptions(t)
	opts.MaxDuration = time.Millisecond * 50
	_, err := h.controller.StartRecording(context.Background(), opts)
	require.NoError(t, err)

	res := awaitResult(t, h)
	require.NoError(t, res.Error)
	require.True(t, res.LimitReached)
}

func TestCloseReleasesSessionGoroutine(t *testing.T) {
	h := newHarness(t, &fakePlatform{stream: true})

	before := runtime.NumGoroutine()
	for i := 0; i < 5; i++ {
		_, err := h.controller.StartRecording(context.Background(), testOptions(t))
		require.NoError(t, err)
		h.controller.Close()
	}

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+1
	}, time.Second*3, time.Millisecond*20, "session goroutines were not released")
	require.Empty(t, h.results)
}

func TestCloseCancelsWithoutResult(t *testing.T) {
	h := newHarness(t, &fakePlatform{stream: true})

	_, err := h.controller.StartRecording(context.Background(), testOptions(t))
	require.NoError(t, err)

	h.controller.Close()
	time.Sleep(time.Millisecond * 100)
	require.Empty(t, h.results)
	require.True(t, h.writer.cancelled.Load())
	require.True(t, h.backend.stopped.Load())
}
