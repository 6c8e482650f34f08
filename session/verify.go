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

package session

import (
	"errors"
	"fmt"
)

// MaxColorOffset is the largest allowed gap, in 100 ns ticks, between a
// colour frame and its infrared frame.
const MaxColorOffset = 100000

// ErrFrameDropping is returned when the recorded sequences don't line up.
var ErrFrameDropping = errors.New("frame dropping occurred")

// Verify checks that the three timestamp lists have the same length, that
// infrared and depth timestamps are equal and that each colour timestamp
// is within MaxColorOffset of its infrared timestamp.
func Verify(ir, depth, color []int64) error {
	if len(ir) != len(depth) || len(ir) != len(color) {
		return fmt.Errorf("%w: %d infrared, %d depth and %d color frames",
			ErrFrameDropping, len(ir), len(depth), len(color))
	}
	for i := range ir {
		if ir[i] != depth[i] {
			return fmt.Errorf("%w: frame %d infrared at %d but depth at %d",
				ErrFrameDropping, i, ir[i], depth[i])
		}
		if abs(color[i]-ir[i]) > MaxColorOffset {
			return fmt.Errorf("%w: frame %d color at %d is %d ticks from infrared",
				ErrFrameDropping, i, color[i], color[i]-ir[i])
		}
	}
	return nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
