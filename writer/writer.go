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
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TheCacophonyProject/depth-recorder/frameloop"
	"github.com/TheCacophonyProject/depth-recorder/loglimiter"
	"github.com/TheCacophonyProject/depth-recorder/metrics"
	"github.com/TheCacophonyProject/depth-recorder/session"
	"github.com/TheCacophonyProject/depth-recorder/stream"
)

// DefaultPoll is the pause between passes over the queues.
const DefaultPoll = 100 * time.Microsecond

// ErrQueueFull is returned by Enqueue when a stream's queue is full.
var ErrQueueFull = errors.New("write queue full")

// Entry is a slot waiting to be written. Time is relative to the
// session's anchor.
type Entry struct {
	Time    int64
	Slot    *frameloop.Slot
	Session *session.Session
}

// Writer drains one queue per stream on a single goroutine. Files of one
// stream are written in the order they were queued.
type Writer struct {
	streams  [stream.NumKinds]stream.Stream
	queues   [stream.NumKinds]chan Entry
	pending  [stream.NumKinds]int32
	poll     time.Duration
	metrics  *metrics.Metrics
	logs     *loglimiter.LogLimiter
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New returns a Writer for streams. Each queue holds up to
// frameloop.BufferSize entries.
func New(streams [stream.NumKinds]stream.Stream, poll time.Duration, m *metrics.Metrics) *Writer {
	w := &Writer{
		streams: streams,
		poll:    poll,
		metrics: m,
		logs:    loglimiter.New(10 * time.Second),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for i := range w.queues {
		w.queues[i] = make(chan Entry, frameloop.BufferSize)
	}
	return w
}

// Start runs the writer goroutine.
func (w *Writer) Start() {
	go w.run()
}

// Stop waits for the file being written to finish and ends the writer.
// Entries still queued are not written.
func (w *Writer) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

// Enqueue holds e.Slot and queues it for writing. It never blocks.
func (w *Writer) Enqueue(kind stream.Kind, e Entry) error {
	e.Slot.Hold()
	atomic.AddInt32(&w.pending[kind], 1)
	select {
	case w.queues[kind] <- e:
		w.metrics.SetQueueDepth(kind, w.Pending(kind))
		return nil
	default:
		atomic.AddInt32(&w.pending[kind], -1)
		e.Slot.Release()
		return ErrQueueFull
	}
}

// Pending returns the number of entries of kind queued or being written.
func (w *Writer) Pending(kind stream.Kind) int {
	return int(atomic.LoadInt32(&w.pending[kind]))
}

// Idle reports whether every queued entry has been written.
func (w *Writer) Idle() bool {
	for _, kind := range stream.Kinds {
		if w.Pending(kind) > 0 {
			return false
		}
	}
	return true
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		for _, kind := range stream.Kinds {
			select {
			case <-w.stop:
				return
			default:
			}
			select {
			case e := <-w.queues[kind]:
				w.write(kind, e)
			default:
			}
		}
		time.Sleep(w.poll)
	}
}

func (w *Writer) write(kind stream.Kind, e Entry) {
	defer func() {
		e.Slot.Release()
		atomic.AddInt32(&w.pending[kind], -1)
		w.metrics.SetQueueDepth(kind, w.Pending(kind))
	}()

	s := w.streams[kind]
	dir := filepath.Join(e.Session.Dir, kind.Subdir())
	err := os.MkdirAll(dir, 0755)
	if err == nil {
		err = s.Save(filepath.Join(dir, session.FrameFileName(e.Time, s.Ext())), e.Slot)
	}
	if err != nil {
		e.Session.AddFailure(kind)
		w.metrics.WriteFailed(kind)
		w.logs.Printf("write-"+kind.String(), "failed to write %s frame: %v", kind, err)
		return
	}
	e.Session.AddRecorded(kind, e.Time)
	w.metrics.FrameWritten(kind)
}
