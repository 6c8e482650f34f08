// depth-recorder - record synchronised infrared, depth and colour frames
//  Copyright (C) 2020, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TheCacophonyProject/depth-recorder/stream"
)

const namespace = "depth_recorder"

// Reasons a frame is not queued.
const (
	DropGeometry = "geometry"
	DropOverrun  = "overrun"
	DropOrder    = "order"
)

// Metrics instruments the recording pipeline. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	fps         *prometheus.GaugeVec
	written     *prometheus.CounterVec
	writeErrors *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	queueDepth  *prometheus.GaugeVec
	sessions    *prometheus.CounterVec
	shots       prometheus.Counter
}

// New creates the collectors on a registry of their own.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fps",
			Help:      "Measured frames per second for each stream.",
		}, []string{"stream"}),
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_written_total",
			Help:      "Frames written to disk.",
		}, []string{"stream"}),
		writeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_errors_total",
			Help:      "Frames that could not be written.",
		}, []string{"stream"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Frames not queued for writing.",
		}, []string{"stream", "reason"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Frames waiting to be written.",
		}, []string{"stream"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Finished recording sessions by result.",
		}, []string{"result"}),
		shots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shots_total",
			Help:      "Calibration shots written.",
		}),
	}
	m.registry.MustRegister(
		m.fps,
		m.written,
		m.writeErrors,
		m.dropped,
		m.queueDepth,
		m.sessions,
		m.shots,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ListenAndServe serves metrics on addr at /metrics.
func (m *Metrics) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}

func (m *Metrics) SetFPS(kind stream.Kind, fps float64) {
	if m == nil {
		return
	}
	m.fps.WithLabelValues(kind.String()).Set(fps)
}

func (m *Metrics) FrameWritten(kind stream.Kind) {
	if m == nil {
		return
	}
	m.written.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) WriteFailed(kind stream.Kind) {
	if m == nil {
		return
	}
	m.writeErrors.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) FrameDropped(kind stream.Kind, reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(kind.String(), reason).Inc()
}

func (m *Metrics) SetQueueDepth(kind stream.Kind, n int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(kind.String()).Set(float64(n))
}

func (m *Metrics) SessionEnded(result string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(result).Inc()
}

func (m *Metrics) ShotTaken() {
	if m == nil {
		return
	}
	m.shots.Inc()
}
