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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumacast/lumacast/pkg/media"
	"github.com/lumacast/lumacast/pkg/types"
)

type fakeWriter struct {
	mu        sync.Mutex
	inputs    map[types.SampleKind]int
	appended  map[types.SampleKind]int
	refuse    map[types.SampleKind]bool
	reentered bool
	busy      bool
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		inputs:   make(map[types.SampleKind]int),
		appended: make(map[types.SampleKind]int),
		refuse:   make(map[types.SampleKind]bool),
	}
}

func (w *fakeWriter) AddInputIfNeeded(kind types.SampleKind, _ *media.SampleFormat) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inputs[kind]++
	return !w.refuse[kind]
}

func (w *fakeWriter) Append(s *media.Sample) bool {
	w.mu.Lock()
	if w.busy {
		w.reentered = true
	}
	w.busy = true
	w.mu.Unlock()

	time.Sleep(time.Microsecond * 50)

	w.mu.Lock()
	w.busy = false
	refused := w.refuse[s.Kind]
	if !refused {
		w.appended[s.Kind]++
	}
	w.mu.Unlock()
	return !refused
}

func (w *fakeWriter) Finish() (string, error) {
	return "", nil
}

func TestRouterNegotiatesOnce(t *testing.T) {
	fw := newFakeWriter()
	r := NewRouter(fw, nil)

	for i := 0; i < 5; i++ {
		r.HandleSample(&media.Sample{
			Kind:   types.SampleKindVideo,
			PTS:    time.Duration(i) * time.Second / 30,
			Format: &media.SampleFormat{Width: 640, Height: 480},
		})
	}
	r.HandleSample(&media.Sample{
		Kind:   types.SampleKindAudio,
		Format: &media.SampleFormat{Channels: 2, SampleRate: 48000},
	})

	require.Equal(t, 1, fw.inputs[types.SampleKindVideo])
	require.Equal(t, 1, fw.inputs[types.SampleKindAudio])
	require.Equal(t, 5, fw.appended[types.SampleKindVideo])
	require.Equal(t, 1, fw.appended[types.SampleKindAudio])
}

func TestRouterCountsDrops(t *testing.T) {
	fw := newFakeWriter()
	fw.refuse[types.SampleKindAudio] = true
	r := NewRouter(fw, nil)

	r.HandleSample(&media.Sample{Kind: types.SampleKindVideo})
	r.HandleSample(&media.Sample{Kind: types.SampleKindAudio})
	r.HandleSample(&media.Sample{Kind: types.SampleKindAudio})

	video, audio := r.Dropped()
	require.EqualValues(t, 0, video)
	require.EqualValues(t, 2, audio)

	// negotiation failed, so it is retried on the next sample
	require.Equal(t, 2, fw.inputs[types.SampleKindAudio])
}

func TestRouterSerializesProducers(t *testing.T) {
	fw := newFakeWriter()
	r := NewRouter(fw, nil)

	var wg sync.WaitGroup
	for _, kind := range []types.SampleKind{types.SampleKindVideo, types.SampleKindAudio} {
		wg.Add(1)
		go func(kind types.SampleKind) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.HandleSample(&media.Sample{Kind: kind})
			}
		}(kind)
	}
	wg.Wait()

	require.False(t, fw.reentered, "writer was invoked concurrently")
	require.Equal(t, 100, fw.appended[types.SampleKindVideo])
	require.Equal(t, 100, fw.appended[types.SampleKindAudio])
}
