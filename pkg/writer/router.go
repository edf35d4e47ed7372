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
	"github.com/linkdata/deadlock"
	"go.uber.org/atomic"

	"github.com/lumacast/lumacast/pkg/media"
	"github.com/lumacast/lumacast/pkg/stats"
	"github.com/lumacast/lumacast/pkg/types"
)

// Router receives samples from independent producer threads (the capture
// backend's callbacks and the microphone adapter) and forwards them to the
// container writer. The first sample of each kind triggers input negotiation.
// Appends never block: writer finalize and append are not reentrant, so the
// router serializes all writer access, and a refused append is counted and
// discarded.
type Router struct {
	mu     deadlock.Mutex
	writer media.Writer

	negotiated map[types.SampleKind]bool
	monitor    *stats.Monitor

	stats routerStats
}

type routerStats struct {
	videoDropped atomic.Uint64
	audioDropped atomic.Uint64
}

func NewRouter(w media.Writer, monitor *stats.Monitor) *Router {
	return &Router{
		writer:     w,
		negotiated: make(map[types.SampleKind]bool),
		monitor:    monitor,
	}
}

// HandleSample implements media.Handler. Safe for concurrent use.
func (r *Router) HandleSample(s *media.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.negotiated[s.Kind] {
		if !r.writer.AddInputIfNeeded(s.Kind, s.Format) {
			r.drop(s.Kind)
			return
		}
		r.negotiated[s.Kind] = true
	}

	if !r.writer.Append(s) {
		r.drop(s.Kind)
	}
}

func (r *Router) drop(kind types.SampleKind) {
	switch kind {
	case types.SampleKindVideo:
		r.stats.videoDropped.Inc()
	case types.SampleKindAudio:
		r.stats.audioDropped.Inc()
	}
	r.monitor.SampleDropped(string(kind))
}

// Dropped returns the number of discarded samples per kind.
func (r *Router) Dropped() (video, audio uint64) {
	return r.stats.videoDropped.Load(), r.stats.audioDropped.Load()
}
