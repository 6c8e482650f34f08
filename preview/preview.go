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

package preview

import (
	"errors"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/TheCacophonyProject/depth-recorder/stream"
)

const (
	stillSuffix           = "-still.png"
	allowedSnapshotPeriod = 500 * time.Millisecond
)

// Display receives preview frames. pix holds B, G, R, X bytes per pixel
// and is only valid for the duration of the call.
type Display interface {
	Draw(kind stream.Kind, width, height int, pix []byte)
}

// Discard is a Display that ignores every frame.
type Discard struct{}

func (Discard) Draw(stream.Kind, int, int, []byte) {}

// NewSnapshotter returns a Display that saves the next preview frame of
// each stream to dir when asked to.
func NewSnapshotter(dir string) *Snapshotter {
	return &Snapshotter{
		dir:     dir,
		nowFunc: time.Now,
	}
}

// Snapshotter writes preview stills as PNG files named after the stream,
// e.g. "depth-still.png".
type Snapshotter struct {
	dir     string
	nowFunc func() time.Time

	mu       sync.Mutex
	pending  [stream.NumKinds]bool
	previous time.Time
	wg       sync.WaitGroup
}

// Request asks for a still of each stream's next preview frame. Requests
// closer together than allowedSnapshotPeriod are ignored.
func (s *Snapshotter) Request() error {
	if s.dir == "" {
		return errors.New("no snapshot directory configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if now.Sub(s.previous) < allowedSnapshotPeriod {
		return nil
	}
	s.previous = now
	for i := range s.pending {
		s.pending[i] = true
	}
	return nil
}

func (s *Snapshotter) Draw(kind stream.Kind, width, height int, pix []byte) {
	s.mu.Lock()
	if !s.pending[kind] {
		s.mu.Unlock()
		return
	}
	s.pending[kind] = false
	s.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i+3 < len(pix) && i+3 < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = pix[i+2], pix[i+1], pix[i], 0xff
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.save(kind, img); err != nil {
			log.Printf("error saving %s snapshot: %v", kind, err)
		}
	}()
}

// Wait blocks until stills being written have been saved.
func (s *Snapshotter) Wait() {
	s.wg.Wait()
}

// Path returns the file a still of kind is written to.
func (s *Snapshotter) Path(kind stream.Kind) string {
	return filepath.Join(s.dir, kind.String()+stillSuffix)
}

func (s *Snapshotter) save(kind stream.Kind, img image.Image) error {
	tmp := s.Path(kind) + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.Path(kind))
}

// Delete removes any stills left from a previous run.
func (s *Snapshotter) Delete() {
	if s.dir == "" {
		return
	}
	for _, kind := range stream.Kinds {
		if err := os.Remove(s.Path(kind)); err != nil && !os.IsNotExist(err) {
			log.Printf("error deleting snapshot image: %v", err)
		}
	}
}
