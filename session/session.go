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

package session

import (
	"sync"
	"time"

	"github.com/TheCacophonyProject/depth-recorder/stream"
)

// Session is one recording episode. The acquisition loop owns the anchor
// and destination; the writer appends to the recorded lists.
type Session struct {
	Dir     string
	Anchor  int64
	Started time.Time
	Ended   time.Time

	anchored bool
	mu       sync.Mutex
	recorded [stream.NumKinds][]int64
	failures [stream.NumKinds]int
	dropped  [stream.NumKinds]int
}

// New returns a session writing to dir. The anchor is set by the first
// infrared frame.
func New(dir string) *Session {
	return &Session{Dir: dir}
}

// SetAnchor makes ts time zero for the session.
func (s *Session) SetAnchor(ts int64) {
	s.Anchor = ts
	s.anchored = true
}

// Anchored reports whether the first infrared frame has been seen.
func (s *Session) Anchored() bool {
	return s.anchored
}

// Relative converts a device timestamp to session time.
func (s *Session) Relative(ts int64) int64 {
	return ts - s.Anchor
}

// AddRecorded notes that the frame for ts was written.
func (s *Session) AddRecorded(kind stream.Kind, ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded[kind] = append(s.recorded[kind], ts)
}

// AddFailure counts a frame that could not be written.
func (s *Session) AddFailure(kind stream.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[kind]++
}

// AddDropped counts a frame that was never queued.
func (s *Session) AddDropped(kind stream.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped[kind]++
}

// Recorded returns a copy of the timestamps written for kind.
func (s *Session) Recorded(kind stream.Kind) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.recorded[kind]...)
}

// Failures returns the number of failed writes for kind.
func (s *Session) Failures(kind stream.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[kind]
}

// Dropped returns the number of frames for kind that were never queued.
func (s *Session) Dropped(kind stream.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped[kind]
}

// Verify checks the written sequences line up.
func (s *Session) Verify() error {
	return Verify(s.Recorded(stream.Infrared), s.Recorded(stream.Depth), s.Recorded(stream.Color))
}
