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

package frameloop

import (
	"errors"
	"sync"
	"sync/atomic"
)

// BufferSize is the number of slots preallocated for each stream.
const BufferSize = 32

// ErrOverrun is returned when the slot due to be filled is still waiting
// to be written out.
var ErrOverrun = errors.New("frame loop overrun: slot still waiting to be written")

// Slot is a preallocated frame buffer. A slot is held while a reference to
// it is queued for writing and must not be filled again until every hold
// has been released.
type Slot struct {
	Index int
	Pix16 []uint16
	Pix   []byte
	holds int32
}

// Hold marks the slot as in flight.
func (s *Slot) Hold() {
	atomic.AddInt32(&s.holds, 1)
}

// Release drops one hold taken with Hold.
func (s *Slot) Release() {
	if atomic.AddInt32(&s.holds, -1) < 0 {
		panic("frameloop: slot released more times than held")
	}
}

// Held reports whether any hold on the slot is outstanding.
func (s *Slot) Held() bool {
	return atomic.LoadInt32(&s.holds) > 0
}

// New returns a FrameLoop of size slots, each allocated with newSlot.
func New(size int, newSlot func() *Slot) *FrameLoop {
	slots := make([]*Slot, size)
	for i := range slots {
		slots[i] = newSlot()
		slots[i].Index = i
	}
	return &FrameLoop{
		size:  size,
		slots: slots,
	}
}

// FrameLoop hands out slots round robin. The index only moves forward when
// the current slot has been handed off, so slot i is refilled only after
// the index has advanced size times.
type FrameLoop struct {
	size  int
	index int64
	slots []*Slot
	mu    sync.Mutex
}

// Current returns the slot the next frame should be written into, or
// ErrOverrun if that slot is still held.
func (fl *FrameLoop) Current() (*Slot, error) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	s := fl.slots[fl.index%int64(fl.size)]
	if s.Held() {
		return nil, ErrOverrun
	}
	return s, nil
}

// Move advances the index after the current slot has been handed off.
func (fl *FrameLoop) Move() {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.index++
}

// Index returns the number of slots handed off since the last Reset.
func (fl *FrameLoop) Index() int64 {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.index
}

// Reset moves the index back to the first slot.
func (fl *FrameLoop) Reset() {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.index = 0
}

// InFlight counts the slots currently held.
func (fl *FrameLoop) InFlight() int {
	n := 0
	for _, s := range fl.slots {
		if s.Held() {
			n++
		}
	}
	return n
}

// Size returns the number of slots in the loop.
func (fl *FrameLoop) Size() int {
	return fl.size
}
