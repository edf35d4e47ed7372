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

package stats

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	defaultMonitor *Monitor
	defaultOnce    sync.Once
)

// Default returns the process-wide monitor. Collectors register on the
// default registry, so NewMonitor must not be called alongside it.
func Default() *Monitor {
	defaultOnce.Do(func() {
		defaultMonitor = NewMonitor()
	})
	return defaultMonitor
}

// Monitor exposes session and sample metrics. A nil Monitor is valid and
// records nothing.
type Monitor struct {
	sessionsStarted   prometheus.Counter
	sessionsCompleted *prometheus.CounterVec
	sessionsActive    prometheus.Gauge
	sessionDuration   prometheus.Histogram
	samplesAppended   *prometheus.CounterVec
	samplesDropped    *prometheus.CounterVec
}

func NewMonitor() *Monitor {
	m := &Monitor{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lumacast",
			Subsystem: "session",
			Name:      "started_total",
		}),
		sessionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lumacast",
			Subsystem: "session",
			Name:      "completed_total",
		}, []string{"status"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lumacast",
			Subsystem: "session",
			Name:      "active",
		}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lumacast",
			Subsystem: "session",
			Name:      "duration_seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		samplesAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lumacast",
			Subsystem: "writer",
			Name:      "samples_appended_total",
		}, []string{"kind"}),
		samplesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lumacast",
			Subsystem: "writer",
			Name:      "samples_dropped_total",
		}, []string{"kind"}),
	}

	prometheus.MustRegister(
		m.sessionsStarted,
		m.sessionsCompleted,
		m.sessionsActive,
		m.sessionDuration,
		m.samplesAppended,
		m.samplesDropped,
	)

	return m
}

func (m *Monitor) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
	m.sessionsActive.Inc()
}

func (m *Monitor) SessionEnded(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sessionsCompleted.With(prometheus.Labels{"status": status}).Inc()
	m.sessionsActive.Dec()
	m.sessionDuration.Observe(duration.Seconds())
}

func (m *Monitor) SampleAppended(kind string) {
	if m == nil {
		return
	}
	m.samplesAppended.With(prometheus.Labels{"kind": kind}).Inc()
}

func (m *Monitor) SampleDropped(kind string) {
	if m == nil {
		return
	}
	m.samplesDropped.With(prometheus.Labels{"kind": kind}).Inc()
}

// ListenAndServe serves the prometheus handler on the given port.
func ListenAndServe(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
