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

package recorder

import (
	"time"

	"github.com/TheCacophonyProject/depth-recorder/frameloop"
	"github.com/TheCacophonyProject/depth-recorder/stream"
)

// Depth and colour frame rates are sampled every fpsSampleFrames frames.
// Infrared is sampled once per status interval.
const fpsSampleFrames = 30

// fpsMeter counts frames between samples. The first sample only starts
// the clock.
type fpsMeter struct {
	count int
	since time.Time
	fps   float64
	valid bool
}

func (m *fpsMeter) frame() {
	m.count++
}

// sample updates the rate and returns whether it's based on a full
// interval.
func (m *fpsMeter) sample(now time.Time) bool {
	if !m.since.IsZero() {
		if elapsed := now.Sub(m.since).Seconds(); elapsed > 0 {
			m.fps = float64(m.count) / elapsed
			m.valid = true
		}
	}
	m.count = 0
	m.since = now
	return m.valid
}

// due reports whether interval has passed since the last sample.
func (m *fpsMeter) due(now time.Time, interval time.Duration) bool {
	return m.since.IsZero() || now.Sub(m.since) >= interval
}

func (m *fpsMeter) reset() {
	*m = fpsMeter{}
}

// handler is the acquisition state of one stream.
type handler struct {
	stream  stream.Stream
	loop    *frameloop.FrameLoop
	preview []byte
	fps     fpsMeter

	// Session time of the last frame queued for writing.
	last     int64
	enqueued bool

	// Slot pinned for a calibration shot.
	shotSlot *frameloop.Slot
	shotTime int64
}

func newHandler(s stream.Stream) *handler {
	return &handler{
		stream:  s,
		loop:    frameloop.New(frameloop.BufferSize, s.NewSlot),
		preview: s.NewPreview(),
	}
}

// pin holds slot for a shot in place of any slot pinned before and moves
// the ring on so the pinned slot isn't overwritten.
func (h *handler) pin(slot *frameloop.Slot, ts int64) {
	h.unpin()
	slot.Hold()
	h.shotSlot = slot
	h.shotTime = ts
	h.loop.Move()
}

func (h *handler) pinned() bool {
	return h.shotSlot != nil
}

func (h *handler) unpin() {
	if h.shotSlot != nil {
		h.shotSlot.Release()
		h.shotSlot = nil
	}
}

// queued notes that the frame at session time ts was handed to the writer.
func (h *handler) queued(ts int64) {
	h.last = ts
	h.enqueued = true
	h.loop.Move()
}

// inOrder reports whether ts follows the last queued frame.
func (h *handler) inOrder(ts int64) bool {
	return !h.enqueued || ts > h.last
}

func (h *handler) startSession() {
	h.last = 0
	h.enqueued = false
}
