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
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/TheCacophonyProject/depth-recorder/headers"
	"github.com/TheCacophonyProject/depth-recorder/stream"
)

// Frame packets sent by a camera bridge after its header:
//
//	kind      uint8
//	time      int64, 100 ns ticks
//	width     uint16
//	height    uint16
//	min, max  uint16, depth only
//	payload   width*height uint16 samples, or width*height BGRA pixels
//
// All integers are little endian.
const (
	packetHeaderSize = 1 + 8 + 2 + 2
	depthRangeSize   = 2 + 2
	maxPixels        = 4096 * 4096
	readBufferSize   = 1024 * 1024
)

// EncodeFrame writes f as a frame packet.
func EncodeFrame(w io.Writer, f *stream.Frame) error {
	var hdr [packetHeaderSize + depthRangeSize]byte
	hdr[0] = byte(f.Kind)
	binary.LittleEndian.PutUint64(hdr[1:], uint64(f.Time))
	binary.LittleEndian.PutUint16(hdr[9:], uint16(f.Width))
	binary.LittleEndian.PutUint16(hdr[11:], uint16(f.Height))
	n := packetHeaderSize
	if f.Kind == stream.Depth {
		binary.LittleEndian.PutUint16(hdr[13:], f.MinReliable)
		binary.LittleEndian.PutUint16(hdr[15:], f.MaxReliable)
		n += depthRangeSize
	}
	if _, err := w.Write(hdr[:n]); err != nil {
		return err
	}
	if f.Kind == stream.Color {
		_, err := w.Write(f.Pix)
		return err
	}
	return binary.Write(w, binary.LittleEndian, f.Pix16)
}

// NewSocketCamera returns a Camera reading frames sent by a camera bridge
// over conn.
func NewSocketCamera(conn io.ReadCloser) *SocketCamera {
	return &SocketCamera{
		conn: conn,
		done: make(chan struct{}),
	}
}

// SocketCamera keeps the latest frame of each stream received from a
// camera bridge. Frames are read on a goroutine of their own.
type SocketCamera struct {
	conn    io.ReadCloser
	header  *headers.HeaderInfo
	started bool
	done    chan struct{}

	mu       sync.Mutex
	latest   [stream.NumKinds]*stream.Frame
	held     [stream.NumKinds]*stream.Frame
	free     [stream.NumKinds][]*stream.Frame
	received [stream.NumKinds]int
	err      error
}

// Open reads the bridge's header and starts reading frames.
func (c *SocketCamera) Open() error {
	reader := bufio.NewReaderSize(c.conn, readBufferSize)
	h, err := headers.ReadHeaderInfo(reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoSensor, err)
	}
	c.header = h
	log.Printf("connection from %s %s (%dfps)", h.Brand(), h.Model(), h.FPS())
	for _, kind := range stream.Kinds {
		log.Printf("%s: %dx%d", kind, h.ResX(kind), h.ResY(kind))
	}
	c.started = true
	go c.readFrames(reader)
	return nil
}

// Header returns the header read by Open.
func (c *SocketCamera) Header() *headers.HeaderInfo {
	return c.header
}

// Close closes the connection and waits for the reader to finish.
func (c *SocketCamera) Close() error {
	err := c.conn.Close()
	if c.started {
		<-c.done
	}
	return err
}

// Done is closed once the connection has ended.
func (c *SocketCamera) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection.
func (c *SocketCamera) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Received returns the number of frames of kind read so far.
func (c *SocketCamera) Received(kind stream.Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.received[kind]
}

func (c *SocketCamera) AcquireLatestInfrared() (*stream.Frame, bool) {
	return c.acquire(stream.Infrared)
}

func (c *SocketCamera) AcquireLatestDepth() (*stream.Frame, bool) {
	return c.acquire(stream.Depth)
}

func (c *SocketCamera) AcquireLatestColor() (*stream.Frame, bool) {
	return c.acquire(stream.Color)
}

func (c *SocketCamera) acquire(kind stream.Kind) (*stream.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.latest[kind]
	if f == nil {
		return nil, false
	}
	c.latest[kind] = nil
	if c.held[kind] != nil {
		c.free[kind] = append(c.free[kind], c.held[kind])
	}
	c.held[kind] = f
	return f, true
}

func (c *SocketCamera) getFree(kind stream.Kind) *stream.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.free[kind])
	if n == 0 {
		return &stream.Frame{Kind: kind}
	}
	f := c.free[kind][n-1]
	c.free[kind] = c.free[kind][:n-1]
	return f
}

func (c *SocketCamera) publish(kind stream.Kind, f *stream.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.latest[kind] != nil {
		c.free[kind] = append(c.free[kind], c.latest[kind])
	}
	c.latest[kind] = f
	c.received[kind]++
}

func (c *SocketCamera) readFrames(reader *bufio.Reader) {
	defer close(c.done)
	err := c.readLoop(reader)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *SocketCamera) readLoop(reader *bufio.Reader) error {
	var hdr [packetHeaderSize]byte
	var rng [depthRangeSize]byte
	var raw []byte
	for {
		if _, err := io.ReadFull(reader, hdr[:]); err != nil {
			return err
		}
		kind := stream.Kind(hdr[0])
		if kind < 0 || kind >= stream.NumKinds {
			return fmt.Errorf("unknown stream kind %d", hdr[0])
		}
		width := int(binary.LittleEndian.Uint16(hdr[9:]))
		height := int(binary.LittleEndian.Uint16(hdr[11:]))
		pixels := width * height
		if pixels > maxPixels {
			return fmt.Errorf("%s frame too large: %dx%d", kind, width, height)
		}

		f := c.getFree(kind)
		f.Time = int64(binary.LittleEndian.Uint64(hdr[1:]))
		f.Width = width
		f.Height = height

		if kind == stream.Depth {
			if _, err := io.ReadFull(reader, rng[:]); err != nil {
				return err
			}
			f.MinReliable = binary.LittleEndian.Uint16(rng[0:])
			f.MaxReliable = binary.LittleEndian.Uint16(rng[2:])
		}

		if kind == stream.Color {
			f.Pix = growBytes(f.Pix, pixels*4)
			if _, err := io.ReadFull(reader, f.Pix); err != nil {
				return err
			}
		} else {
			raw = growBytes(raw, pixels*2)
			if _, err := io.ReadFull(reader, raw); err != nil {
				return err
			}
			if cap(f.Pix16) < pixels {
				f.Pix16 = make([]uint16, pixels)
			}
			f.Pix16 = f.Pix16[:pixels]
			for i := range f.Pix16 {
				f.Pix16[i] = binary.LittleEndian.Uint16(raw[i*2:])
			}
		}
		c.publish(kind, f)
	}
}

func growBytes(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}
