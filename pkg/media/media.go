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

package media

import (
	"time"

	"github.com/lumacast/lumacast/pkg/types"
)

// SampleFormat describes the raw format of a sample. Video samples carry
// Width/Height, audio samples carry Channels/SampleRate.
type SampleFormat struct {
	Width      int
	Height     int
	Channels   int
	SampleRate int
}

func (f *SampleFormat) Equal(o *SampleFormat) bool {
	if f == nil || o == nil {
		return f == o
	}
	return *f == *o
}

// Sample is one timestamped unit of captured media: a single raw video frame
// or one raw audio buffer. Samples are produced by capture backends and the
// microphone adapter and consumed exactly once by the router.
type Sample struct {
	Kind   types.SampleKind
	PTS    time.Duration // presentation timestamp from the producer's clock
	Data   []byte
	Format *SampleFormat
}

// Handler receives samples on the producer's callback thread. Implementations
// must be safe for concurrent use by independent producers.
type Handler interface {
	HandleSample(s *Sample)
}

// Writer is the container writer contract.
//
// AddInputIfNeeded is idempotent per kind: a second call for a kind that
// already has an input is a no-op returning true. Append implements
// backpressure by returning false instead of blocking when the input cannot
// take more data; refused samples are dropped by the caller. Finish finalizes
// the container and returns the output path, failing with
// ErrInvalidFinalizeState if no sample was ever appended.
type Writer interface {
	AddInputIfNeeded(kind types.SampleKind, format *SampleFormat) bool
	Append(s *Sample) bool
	Finish() (string, error)
}
