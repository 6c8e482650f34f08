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
	"fmt"
	"os"
	"path/filepath"

	"github.com/TheCacophonyProject/depth-recorder/frameloop"
	"github.com/TheCacophonyProject/depth-recorder/session"
	"github.com/TheCacophonyProject/depth-recorder/status"
	"github.com/TheCacophonyProject/depth-recorder/stream"
)

const (
	calibrationDir = "calibration"
	shotNameFormat = "15-04-05"
)

// rendezvous reports whether a shot's three timestamps line up: infrared
// and depth from the same exposure and colour within MaxColorOffset.
func rendezvous(ir, depth, color int64) bool {
	offset := color - depth
	if offset < 0 {
		offset = -offset
	}
	return ir == depth && offset < session.MaxColorOffset
}

// irNeedsPin reports whether infrared should pin its latest frame for a
// shot. A pinned frame is kept until depth moves past it or colour misses
// the matched pair.
func (r *Recorder) irNeedsPin() bool {
	ir := r.handlers[stream.Infrared]
	depth := r.handlers[stream.Depth]
	if !ir.pinned() || r.shotMissed {
		return true
	}
	return depth.pinned() && depth.shotTime > ir.shotTime
}

// depthNeedsPin reports whether depth should pin its latest frame: only
// while infrared is pinned and depth doesn't already match it.
func (r *Recorder) depthNeedsPin() bool {
	ir := r.handlers[stream.Infrared]
	depth := r.handlers[stream.Depth]
	return ir.pinned() && !(depth.pinned() && depth.shotTime == ir.shotTime)
}

// tryShot writes the pinned infrared and depth slots with the colour slot
// if they line up. Otherwise it waits for the next frames.
func (r *Recorder) tryShot(colorTime int64, colorSlot *frameloop.Slot) {
	ir := r.handlers[stream.Infrared]
	depth := r.handlers[stream.Depth]
	if !rendezvous(ir.shotTime, depth.shotTime, colorTime) {
		if ir.shotTime == depth.shotTime && colorTime-depth.shotTime >= session.MaxColorOffset {
			r.shotMissed = true
		}
		return
	}

	name := r.nowFunc().Format(shotNameFormat)
	slots := [stream.NumKinds]*frameloop.Slot{ir.shotSlot, depth.shotSlot, colorSlot}
	err := r.saveShot(name, slots)
	r.cancelShot()
	if err != nil {
		r.notifier.Error(fmt.Errorf("failed to save shot: %w", err))
		return
	}
	r.metrics.ShotTaken()
	r.notifier.Info(status.ShotLine(r.calibrationRoot(), name), status.ShotHold)
}

func (r *Recorder) calibrationRoot() string {
	return filepath.Join(r.conf.PicturesDir, calibrationDir)
}

func (r *Recorder) saveShot(name string, slots [stream.NumKinds]*frameloop.Slot) error {
	for _, kind := range stream.Kinds {
		s := r.handlers[kind].stream
		dir := filepath.Join(r.calibrationRoot(), kind.Subdir())
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		filename := filepath.Join(dir, name+"."+s.ShotExt())
		if err := s.SaveShot(filename, slots[kind]); err != nil {
			return err
		}
	}
	return nil
}

// cancelShot releases pinned slots and rewinds idle frame loops.
func (r *Recorder) cancelShot() {
	if r.state != ShotArmed {
		return
	}
	for _, h := range r.handlers {
		h.unpin()
	}
	r.shotMissed = false
	for _, h := range r.handlers {
		if h.loop.InFlight() == 0 {
			h.loop.Reset()
		}
	}
	r.state = Idle
}
