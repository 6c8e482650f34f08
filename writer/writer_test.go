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

package writer

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/depth-recorder/frameloop"
	"github.com/TheCacophonyProject/depth-recorder/output"
	"github.com/TheCacophonyProject/depth-recorder/session"
	"github.com/TheCacophonyProject/depth-recorder/stream"
)

func testStreams() [stream.NumKinds]stream.Stream {
	return [stream.NumKinds]stream.Stream{
		&stream.InfraredStream{Dims: stream.Dims{W: 4, H: 2}},
		&stream.DepthStream{Dims: stream.Dims{W: 4, H: 2}},
		&stream.ColorStream{Dims: stream.Dims{W: 4, H: 2}, Format: stream.PPM},
	}
}

// gatedStream only saves once it has been let through the gate.
type gatedStream struct {
	stream.Stream
	gate chan struct{}
}

func (g *gatedStream) Save(filename string, slot *frameloop.Slot) error {
	<-g.gate
	return g.Stream.Save(filename, slot)
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "writer-test")
	require.NoError(t, err)
	return dir
}

func waitIdle(t *testing.T, w *Writer) {
	require.Eventually(t, w.Idle, 5*time.Second, time.Millisecond)
}

func TestWritesInOrder(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	streams := testStreams()
	w := New(streams, time.Microsecond, nil)
	w.Start()
	defer w.Stop()

	sess := session.New(filepath.Join(dir, "2D", "wi_tr_1"))
	loops := make([]*frameloop.FrameLoop, stream.NumKinds)
	for _, kind := range stream.Kinds {
		loops[kind] = frameloop.New(frameloop.BufferSize, streams[kind].NewSlot)
	}

	times := []int64{0, 333333, 666667, 1000000}
	for i, ts := range times {
		for _, kind := range stream.Kinds {
			slot, err := loops[kind].Current()
			require.NoError(t, err)
			if slot.Pix16 != nil {
				slot.Pix16[0] = uint16(i + 1)
			}
			require.NoError(t, w.Enqueue(kind, Entry{Time: ts, Slot: slot, Session: sess}))
			loops[kind].Move()
		}
	}
	waitIdle(t, w)

	for _, kind := range stream.Kinds {
		assert.Equal(t, times, sess.Recorded(kind), kind.String())
		assert.Equal(t, 0, loops[kind].InFlight())
	}
	assert.NoError(t, sess.Verify())

	names, err := ioutil.ReadDir(filepath.Join(sess.Dir, "color"))
	require.NoError(t, err)
	require.Len(t, names, 4)
	assert.Equal(t, "0000.033333.ppm", names[1].Name())

	_, _, pix, err := output.LoadPGM(filepath.Join(sess.Dir, "ir", "0000.066667.pgm"))
	require.NoError(t, err)
	assert.Equal(t, uint16(3), pix[0])
}

func TestSlowWriterHoldsRing(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	streams := testStreams()
	gated := &gatedStream{Stream: streams[stream.Infrared], gate: make(chan struct{})}
	streams[stream.Infrared] = gated
	w := New(streams, time.Microsecond, nil)
	w.Start()
	defer w.Stop()

	sess := session.New(dir)
	loop := frameloop.New(frameloop.BufferSize, streams[stream.Infrared].NewSlot)

	// Burst of BufferSize frames while the writer is stuck on the first.
	for i := 0; i < frameloop.BufferSize; i++ {
		slot, err := loop.Current()
		require.NoError(t, err)
		slot.Pix16[0] = uint16(i)
		require.NoError(t, w.Enqueue(stream.Infrared, Entry{Time: int64(i) * 333333, Slot: slot, Session: sess}))
		loop.Move()
	}
	_, err := loop.Current()
	assert.Equal(t, frameloop.ErrOverrun, err)

	// Let the first file through; slot 0 frees only once it is on disk.
	gated.gate <- struct{}{}
	require.Eventually(t, func() bool {
		_, err := loop.Current()
		return err == nil
	}, 5*time.Second, time.Millisecond)
	_, _, pix, err := output.LoadPGM(filepath.Join(dir, "ir", "0000.000000.pgm"))
	require.NoError(t, err)
	assert.Equal(t, uint16(0), pix[0])

	slot, err := loop.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, slot.Index)

	close(gated.gate)
	waitIdle(t, w)
	assert.Len(t, sess.Recorded(stream.Infrared), frameloop.BufferSize)
}

func TestQueueFull(t *testing.T) {
	streams := testStreams()
	w := New(streams, time.Microsecond, nil) // not started
	sess := session.New("unused")
	slot := streams[stream.Depth].NewSlot()
	for i := 0; i < frameloop.BufferSize; i++ {
		require.NoError(t, w.Enqueue(stream.Depth, Entry{Time: int64(i), Slot: slot, Session: sess}))
	}
	assert.Equal(t, ErrQueueFull, w.Enqueue(stream.Depth, Entry{Time: 99, Slot: slot, Session: sess}))
	assert.Equal(t, frameloop.BufferSize, w.Pending(stream.Depth))
	assert.False(t, w.Idle())
}

func TestWriteFailureContinues(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	// A file where the session folder should be makes every write fail.
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, ioutil.WriteFile(blocked, nil, 0644))

	streams := testStreams()
	w := New(streams, time.Microsecond, nil)
	w.Start()
	defer w.Stop()

	bad := session.New(blocked)
	good := session.New(filepath.Join(dir, "good"))
	slot := streams[stream.Infrared].NewSlot()
	require.NoError(t, w.Enqueue(stream.Infrared, Entry{Time: 0, Slot: slot, Session: bad}))
	require.NoError(t, w.Enqueue(stream.Infrared, Entry{Time: 10, Slot: slot, Session: good}))
	waitIdle(t, w)

	assert.Equal(t, 1, bad.Failures(stream.Infrared))
	assert.Empty(t, bad.Recorded(stream.Infrared))
	assert.Equal(t, []int64{10}, good.Recorded(stream.Infrared))
	assert.False(t, slot.Held())
}

func TestStop(t *testing.T) {
	w := New(testStreams(), time.Microsecond, nil)
	w.Start()
	done := make(chan struct{})
	go func() {
		w.Stop()
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("writer did not stop")
	}
}
