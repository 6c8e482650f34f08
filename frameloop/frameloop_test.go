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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoop(size int) *FrameLoop {
	return New(size, func() *Slot {
		return &Slot{Pix16: make([]uint16, 1)}
	})
}

// fill writes id into the current slot, holds it and moves on.
func fill(t *testing.T, fl *FrameLoop, id uint16) *Slot {
	s, err := fl.Current()
	require.NoError(t, err)
	s.Pix16[0] = id
	s.Hold()
	fl.Move()
	return s
}

func TestFrameLoopLoopsRoundSlots(t *testing.T) {
	fl := newTestLoop(5)
	var indexes []int
	for i := 0; i < 7; i++ {
		s := fill(t, fl, uint16(i))
		indexes = append(indexes, s.Index)
		s.Release()
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 0, 1}, indexes)
	assert.Equal(t, int64(7), fl.Index())
}

func TestFrameLoopDoesNotMoveUntilHandedOff(t *testing.T) {
	fl := newTestLoop(5)
	a, err := fl.Current()
	require.NoError(t, err)
	b, err := fl.Current()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestFrameLoopOverrun(t *testing.T) {
	fl := newTestLoop(BufferSize)

	// A burst of BufferSize frames with a worker that has written nothing.
	slots := make([]*Slot, BufferSize)
	for i := range slots {
		slots[i] = fill(t, fl, uint16(i+1))
	}
	assert.Equal(t, BufferSize, fl.InFlight())

	// The next frame would land on slot 0, which still holds frame 1.
	_, err := fl.Current()
	assert.Equal(t, ErrOverrun, err)
	assert.Equal(t, uint16(1), slots[0].Pix16[0])

	// Once the worker has written slot 0 it can be reused.
	slots[0].Release()
	s := fill(t, fl, 33)
	assert.Same(t, slots[0], s)

	// Slot 1 is still in flight.
	_, err = fl.Current()
	assert.Equal(t, ErrOverrun, err)
}

func TestFrameLoopMultipleHolds(t *testing.T) {
	fl := newTestLoop(1)
	s := fill(t, fl, 1)
	s.Hold()

	s.Release()
	_, err := fl.Current()
	assert.Equal(t, ErrOverrun, err)

	s.Release()
	_, err = fl.Current()
	assert.NoError(t, err)
}

func TestFrameLoopReset(t *testing.T) {
	fl := newTestLoop(5)
	for i := 0; i < 3; i++ {
		fill(t, fl, uint16(i)).Release()
	}
	fl.Reset()
	assert.Equal(t, int64(0), fl.Index())
	s, err := fl.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Index)
}

func TestReleaseWithoutHoldPanics(t *testing.T) {
	s := &Slot{}
	assert.Panics(t, s.Release)
}
