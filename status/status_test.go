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
	"testing"
	"time"

	"github.com/juju/ratelimit"
	"github.com/stretchr/testify/assert"
)

func newTestReporter() (*Reporter, *testClock, *[]string) {
	clock := &testClock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	var shown []string
	r := NewWithClock(time.Second, func(s string) { shown = append(shown, s) }, clock)
	return r, clock, &shown
}

func TestFirstMessageShown(t *testing.T) {
	r, _, shown := newTestReporter()
	assert.True(t, r.Set("a", 0, false))
	assert.Equal(t, "a", r.Text())
	assert.Equal(t, []string{"a"}, *shown)
}

func TestAtMostOncePerSecond(t *testing.T) {
	r, clock, shown := newTestReporter()
	assert.True(t, r.Set("a", 0, false))
	clock.Sleep(500 * time.Millisecond)
	assert.False(t, r.Set("b", 0, false))
	clock.Sleep(500 * time.Millisecond)
	assert.True(t, r.Set("c", 0, false))
	assert.Equal(t, []string{"a", "c"}, *shown)
}

func TestHold(t *testing.T) {
	r, clock, _ := newTestReporter()
	assert.True(t, r.Set("shot", ShotHold, true))
	clock.Sleep(2 * time.Second)
	assert.False(t, r.Set("fps", FPSHold, false))
	assert.Equal(t, "shot", r.Text())
	clock.Sleep(time.Second)
	assert.True(t, r.Set("fps", FPSHold, false))
}

func TestForcedBypassesLimit(t *testing.T) {
	r, clock, shown := newTestReporter()
	assert.True(t, r.Set("a", FPSHold, false))
	assert.True(t, r.Set("b", SelectionHold, true))
	assert.True(t, r.Set("c", SelectionHold, true))
	assert.Equal(t, []string{"a", "b", "c"}, *shown)

	// A forced message uses up the rate limit too.
	clock.Sleep(600 * time.Millisecond)
	assert.False(t, r.Set("d", 0, false))
	clock.Sleep(400 * time.Millisecond)
	assert.True(t, r.Set("d", 0, false))
}

func TestLine(t *testing.T) {
	assert.Equal(t,
		" Save Folder: 2D/wi_tr_1    FPS(Infrared, Depth, Color) = (30.00,  29.97,  15.50)",
		Line("2D/wi_tr_1", [3]float64{30, 29.971, 15.5}))
	assert.Equal(t, "Take a shot   [calibration/xxx/10-04-05.xxx]", ShotLine("calibration", "10-04-05"))
}

var _ ratelimit.Clock = new(realClock)
var _ ratelimit.Clock = new(testClock)

// testClock implements a fake ratelimit.Clock for testing.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}
