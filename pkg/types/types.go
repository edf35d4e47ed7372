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

package types

type SampleKind string
type ContainerKind string
type BackendVariant string
type FileExtension string

const (
	// sample kinds
	SampleKindVideo SampleKind = "video"
	SampleKindAudio SampleKind = "audio"

	// container kinds
	ContainerKindMP4      ContainerKind = "mp4"
	ContainerKindMatroska ContainerKind = "matroska"

	// capture backend variants
	BackendVariantStream  BackendVariant = "stream"
	BackendVariantPolling BackendVariant = "polling"

	// file extensions
	FileExtensionMP4 FileExtension = ".mp4"
	FileExtensionMKV FileExtension = ".mkv"
)

var (
	FileExtensionForContainer = map[ContainerKind]FileExtension{
		ContainerKindMP4:      FileExtensionMP4,
		ContainerKindMatroska: FileExtensionMKV,
	}

	ContainerForFileExtension = map[FileExtension]ContainerKind{
		FileExtensionMP4: ContainerKindMP4,
		FileExtensionMKV: ContainerKindMatroska,
	}

	// mux element per container kind
	MuxForContainer = map[ContainerKind]string{
		ContainerKindMP4:      "mp4mux",
		ContainerKindMatroska: "matroskamux",
	}
)

func (k ContainerKind) Valid() bool {
	_, ok := FileExtensionForContainer[k]
	return ok
}

// SessionState is the controller lifecycle. Transitions are forward-only
// except Stopped/Failed, which are terminal.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateStarting  SessionState = "starting"
	SessionStateRecording SessionState = "recording"
	SessionStateStopping  SessionState = "stopping"
	SessionStateStopped   SessionState = "stopped"
	SessionStateFailed    SessionState = "failed"
)

func (s SessionState) Terminal() bool {
	return s == SessionStateStopped || s == SessionStateFailed
}

// WriterState tracks the container writer. Strictly forward: Unknown until
// the first sample is appended, then Writing, then exactly one of the
// terminal states.
type WriterState string

const (
	WriterStateUnknown   WriterState = "unknown"
	WriterStateWriting   WriterState = "writing"
	WriterStateCompleted WriterState = "completed"
	WriterStateFailed    WriterState = "failed"
	WriterStateCancelled WriterState = "cancelled"
)

func (s WriterState) Terminal() bool {
	switch s {
	case WriterStateCompleted, WriterStateFailed, WriterStateCancelled:
		return true
	default:
		return false
	}
}
