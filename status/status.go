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

package status

import (
	"fmt"
	"sync"
	"time"

	"github.com/juju/ratelimit"
)

// How long a message holds off later unforced messages.
const (
	SelectionHold = 500 * time.Millisecond
	FPSHold       = time.Second
	ShotHold      = 3 * time.Second
	ErrorHold     = 10 * time.Second
)

// NoSensor is shown when no camera could be opened.
const NoSensor = "No ready sensor found!"

// Line formats the regular status line.
func Line(folder string, fps [3]float64) string {
	return fmt.Sprintf(" Save Folder: %s    FPS(Infrared, Depth, Color) = (%0.2f,  %0.2f,  %0.2f)",
		folder, fps[0], fps[1], fps[2])
}

// ShotLine formats the message shown after a calibration shot.
func ShotLine(folder, name string) string {
	return fmt.Sprintf("Take a shot   [%s/xxx/%s.xxx]", folder, name)
}

// New returns a Reporter that accepts at most one unforced message per
// interval. Accepted messages are passed to sink, which may be nil.
func New(interval time.Duration, sink func(string)) *Reporter {
	return NewWithClock(interval, sink, new(realClock))
}

// NewWithClock is New with an explicit clock.
func NewWithClock(interval time.Duration, sink func(string), clock ratelimit.Clock) *Reporter {
	if sink == nil {
		sink = func(string) {}
	}
	return &Reporter{
		clock:  clock,
		bucket: ratelimit.NewBucketWithClock(interval, 1, clock),
		sink:   sink,
	}
}

// Reporter keeps the current status line.
type Reporter struct {
	mu        sync.Mutex
	clock     ratelimit.Clock
	bucket    *ratelimit.Bucket
	holdUntil time.Time
	text      string
	sink      func(string)
}

// Set shows msg and suppresses unforced messages for hold. An unforced
// message is dropped while an earlier one is held or the rate limit is
// used up. It returns whether msg was shown.
func (r *Reporter) Set(msg string, hold time.Duration, force bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if force {
		r.bucket.TakeAvailable(1)
	} else {
		if now.Before(r.holdUntil) {
			return false
		}
		if r.bucket.TakeAvailable(1) == 0 {
			return false
		}
	}
	r.text = msg
	r.holdUntil = now.Add(hold)
	r.sink(msg)
	return true
}

// Text returns the last message shown.
func (r *Reporter) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text
}

// realClock implements ratelimit.Clock in terms of standard time functions.
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
