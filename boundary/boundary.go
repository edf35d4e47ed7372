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

// Package main is the C ABI for embedding the recorder in host
// applications. Build with -buildmode=c-shared.
package main

/*
#include <stdint.h>
#include <stdbool.h>
#include <stdlib.h>

typedef struct {
	const char* output_path;
	int32_t     video_bitrate;
	int32_t     audio_bitrate;
	int32_t     framerate;
	bool        show_cursor;
	bool        system_audio;
	uint32_t    display_id;
	int32_t     crop_x;
	int32_t     crop_y;
	int32_t     crop_width;
	int32_t     crop_height;
	const char* microphone_id;
	int64_t     max_duration_ms;
} lumacast_options;

typedef struct {
	uint32_t id;
	int32_t  x;
	int32_t  y;
	int32_t  width;
	int32_t  height;
	bool     primary;
	char*    name;
} lumacast_display;

typedef struct {
	char* id;
	char* name;
} lumacast_microphone;

typedef void (*lumacast_result_callback)(
	uint64_t handle,
	bool success,
	const char* output_path,
	const char* error_message,
	void* userdata);

static void lumacast_invoke_result(
	lumacast_result_callback cb,
	uint64_t handle,
	bool success,
	const char* output_path,
	const char* error_message,
	void* userdata) {
	if (cb != NULL) {
		cb(handle, success, output_path, error_message, userdata);
	}
}
*/
import "C"

import (
	"context"
	"strconv"
	"time"
	"unsafe"

	"github.com/lumacast/lumacast/pkg/config"
	"github.com/lumacast/lumacast/pkg/device"
	"github.com/lumacast/lumacast/pkg/gst"
	"github.com/lumacast/lumacast/pkg/logger"
	"github.com/lumacast/lumacast/pkg/platform"
	"github.com/lumacast/lumacast/pkg/session"
	"github.com/lumacast/lumacast/pkg/stats"
	"github.com/lumacast/lumacast/pkg/types"
)

// gateway pairs a controller with the host's result callback. Terminal
// notifications cross back into C on the session's dispatch goroutine.
type gateway struct {
	handle     uint64
	controller *session.Controller
	callback   C.lumacast_result_callback
	userdata   unsafe.Pointer
}

var (
	gateways    = &handleTable[*gateway]{}
	serviceConf *config.ServiceConfig
)

// currentConfig covers hosts that skip lumacast_initialize.
func currentConfig() *config.ServiceConfig {
	if serviceConf == nil {
		conf, err := config.NewServiceConfig("")
		if err != nil {
			conf = &config.ServiceConfig{}
		}
		serviceConf = conf
	}
	return serviceConf
}

// lumacast_initialize loads optional yaml service configuration and brings
// the media runtime up. Safe to call once before any create.
//
//export lumacast_initialize
func lumacast_initialize(configYAML *C.char) C.bool {
	raw := ""
	if configYAML != nil {
		raw = C.GoString(configYAML)
	}

	conf, err := config.NewServiceConfig(raw)
	if err != nil {
		return C.bool(false)
	}
	if err = conf.InitLogger("service", "boundary"); err != nil {
		return C.bool(false)
	}
	serviceConf = conf

	gst.Init()
	return C.bool(true)
}

// lumacast_create allocates a recorder and returns its opaque handle.
// Handle ownership transfers to the caller until lumacast_destroy.
//
//export lumacast_create
func lumacast_create(callback C.lumacast_result_callback, userdata unsafe.Pointer) C.uint64_t {
	g := &gateway{
		callback: callback,
		userdata: userdata,
	}
	g.controller = session.NewController(currentConfig(), stats.Default(), func(res *session.Result) {
		g.dispatchResult(res)
	})
	g.handle = gateways.add(g)
	return C.uint64_t(g.handle)
}

//export lumacast_destroy
func lumacast_destroy(handle C.uint64_t) {
	g, ok := gateways.remove(uint64(handle))
	if !ok {
		return
	}
	g.controller.Close()
}

// lumacast_start begins recording with the given options. Returns false on
// any synchronous failure; asynchronous failures arrive via the callback.
//
//export lumacast_start
func lumacast_start(handle C.uint64_t, copts *C.lumacast_options) C.bool {
	g, ok := gateways.get(uint64(handle))
	if !ok || copts == nil {
		return C.bool(false)
	}

	opts := optionsFromC(copts)
	if _, err := g.controller.StartRecording(context.Background(), opts); err != nil {
		logger.Warnw("recording start failed", err)
		return C.bool(false)
	}
	return C.bool(true)
}

// lumacast_stop requests finalization. Completion is observed through the
// result callback, never through this call.
//
//export lumacast_stop
func lumacast_stop(handle C.uint64_t) {
	g, ok := gateways.get(uint64(handle))
	if !ok {
		return
	}
	g.controller.StopRecording()
}

//export lumacast_is_recording
func lumacast_is_recording(handle C.uint64_t) C.bool {
	g, ok := gateways.get(uint64(handle))
	if !ok {
		return C.bool(false)
	}
	return C.bool(g.controller.State() == types.SessionStateRecording)
}

//export lumacast_has_screen_recording_permission
func lumacast_has_screen_recording_permission() C.bool {
	return C.bool(platform.Current().HasScreenRecordingPermission())
}

//export lumacast_request_screen_recording_permission
func lumacast_request_screen_recording_permission() {
	platform.Current().RequestScreenRecordingPermission()
}

//export lumacast_has_microphone_permission
func lumacast_has_microphone_permission() C.bool {
	return C.bool(platform.Current().HasMicrophonePermission())
}

//export lumacast_request_microphone_permission
func lumacast_request_microphone_permission() {
	platform.Current().RequestMicrophonePermission()
}

// lumacast_get_displays_list enumerates displays into a heap array the
// caller must release with lumacast_free_displays_list exactly once.
// Display ids are 1-based positions; id 0 in options selects the primary.
//
//export lumacast_get_displays_list
func lumacast_get_displays_list(out **C.lumacast_display) C.int32_t {
	if out == nil {
		return 0
	}
	*out = nil

	displays, err := device.ListDisplays()
	if err != nil || len(displays) == 0 {
		return 0
	}

	array := (*C.lumacast_display)(C.malloc(C.size_t(len(displays)) * C.size_t(unsafe.Sizeof(C.lumacast_display{}))))
	entries := unsafe.Slice(array, len(displays))
	for i, d := range displays {
		entries[i] = C.lumacast_display{
			id:      C.uint32_t(i + 1),
			x:       C.int32_t(d.X),
			y:       C.int32_t(d.Y),
			width:   C.int32_t(d.Width),
			height:  C.int32_t(d.Height),
			primary: C.bool(d.Primary),
			name:    C.CString(d.ID),
		}
	}

	*out = array
	return C.int32_t(len(displays))
}

//export lumacast_free_displays_list
func lumacast_free_displays_list(array *C.lumacast_display, count C.int32_t) {
	if array == nil || count <= 0 {
		return
	}
	for _, d := range unsafe.Slice(array, int(count)) {
		C.free(unsafe.Pointer(d.name))
	}
	C.free(unsafe.Pointer(array))
}

// lumacast_get_microphones_list enumerates capture devices; release with
// lumacast_free_microphones_list exactly once.
//
//export lumacast_get_microphones_list
func lumacast_get_microphones_list(out **C.lumacast_microphone) C.int32_t {
	if out == nil {
		return 0
	}
	*out = nil

	mics, err := device.ListMicrophones()
	if err != nil || len(mics) == 0 {
		return 0
	}

	array := (*C.lumacast_microphone)(C.malloc(C.size_t(len(mics)) * C.size_t(unsafe.Sizeof(C.lumacast_microphone{}))))
	entries := unsafe.Slice(array, len(mics))
	for i, m := range mics {
		entries[i] = C.lumacast_microphone{
			id:   C.CString(m.ID),
			name: C.CString(m.Name),
		}
	}

	*out = array
	return C.int32_t(len(mics))
}

//export lumacast_free_microphones_list
func lumacast_free_microphones_list(array *C.lumacast_microphone, count C.int32_t) {
	if array == nil || count <= 0 {
		return
	}
	for _, m := range unsafe.Slice(array, int(count)) {
		C.free(unsafe.Pointer(m.id))
		C.free(unsafe.Pointer(m.name))
	}
	C.free(unsafe.Pointer(array))
}

func (g *gateway) dispatchResult(res *session.Result) {
	outputPath := C.CString(res.OutputPath)
	defer C.free(unsafe.Pointer(outputPath))

	var errMessage *C.char
	if res.Error != nil {
		errMessage = C.CString(res.Error.Error())
		defer C.free(unsafe.Pointer(errMessage))
	}

	C.lumacast_invoke_result(
		g.callback,
		C.uint64_t(g.handle),
		C.bool(res.Error == nil),
		outputPath,
		errMessage,
		g.userdata,
	)
}

func optionsFromC(copts *C.lumacast_options) *config.RecordingOptions {
	opts := &config.RecordingOptions{
		OutputPath:   C.GoString(copts.output_path),
		VideoBitrate: int(copts.video_bitrate),
		AudioBitrate: int(copts.audio_bitrate),
		Framerate:    int(copts.framerate),
		ShowCursor:   bool(copts.show_cursor),
		SystemAudio:  bool(copts.system_audio),
		Crop: config.Rect{
			X:      int(copts.crop_x),
			Y:      int(copts.crop_y),
			Width:  int(copts.crop_width),
			Height: int(copts.crop_height),
		},
	}

	if copts.microphone_id != nil {
		opts.Microphone = C.GoString(copts.microphone_id)
	}
	if copts.max_duration_ms > 0 {
		opts.MaxDuration = time.Duration(copts.max_duration_ms) * time.Millisecond
	}

	if copts.display_id == 0 {
		opts.Display = config.DisplayPrimary
	} else {
		// 1-based position from lumacast_get_displays_list; resolved by
		// the controller in a single enumeration pass
		opts.Display = strconv.FormatUint(uint64(copts.display_id), 10)
	}

	return opts
}

func main() {}
