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

package camera

import (
	"sync"

	"github.com/TheCacophonyProject/depth-recorder/stream"
)

// TestCamera is an in-memory Camera. Pushed frames are handed out in
// order, one per Acquire call.
type TestCamera struct {
	OpenErr error

	mu     sync.Mutex
	open   bool
	queued [stream.NumKinds][]*stream.Frame
}

func NewTestCamera() *TestCamera {
	return new(TestCamera)
}

func (c *TestCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.OpenErr != nil {
		return c.OpenErr
	}
	c.open = true
	return nil
}

func (c *TestCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

// IsOpen reports whether Open has been called without a matching Close.
func (c *TestCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Push queues frames to be acquired.
func (c *TestCamera) Push(frames ...*stream.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range frames {
		c.queued[f.Kind] = append(c.queued[f.Kind], f)
	}
}

// Queued returns the number of frames of kind not yet acquired.
func (c *TestCamera) Queued(kind stream.Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queued[kind])
}

func (c *TestCamera) AcquireLatestInfrared() (*stream.Frame, bool) {
	return c.pop(stream.Infrared)
}

func (c *TestCamera) AcquireLatestDepth() (*stream.Frame, bool) {
	return c.pop(stream.Depth)
}

func (c *TestCamera) AcquireLatestColor() (*stream.Frame, bool) {
	return c.pop(stream.Color)
}

func (c *TestCamera) pop(kind stream.Kind) (*stream.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open || len(c.queued[kind]) == 0 {
		return nil, false
	}
	f := c.queued[kind][0]
	c.queued[kind] = c.queued[kind][1:]
	return f, true
}

// MakeFrame returns a blank frame of kind taken at ts. Depth frames
// report every sample as reliable.
func MakeFrame(kind stream.Kind, ts int64, width, height int) *stream.Frame {
	f := &stream.Frame{
		Kind:   kind,
		Time:   ts,
		Width:  width,
		Height: height,
	}
	switch kind {
	case stream.Color:
		f.Pix = make([]byte, width*height*4)
	case stream.Depth:
		f.Pix16 = make([]uint16, width*height)
		f.MaxReliable = 0xffff
	default:
		f.Pix16 = make([]uint16, width*height)
	}
	return f
}
