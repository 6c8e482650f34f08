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
	"errors"

	"github.com/TheCacophonyProject/depth-recorder/stream"
)

// ErrNoSensor is returned by Open when no camera is ready.
var ErrNoSensor = errors.New("no ready sensor found")

// Camera supplies the most recent frame of each stream without blocking.
// A frame returned by an Acquire method stays valid until the next call
// to the same method.
type Camera interface {
	Open() error
	Close() error
	AcquireLatestInfrared() (*stream.Frame, bool)
	AcquireLatestDepth() (*stream.Frame, bool)
	AcquireLatestColor() (*stream.Frame, bool)
}

// AcquireLatest calls the Acquire method of c for kind.
func AcquireLatest(c Camera, kind stream.Kind) (*stream.Frame, bool) {
	switch kind {
	case stream.Infrared:
		return c.AcquireLatestInfrared()
	case stream.Depth:
		return c.AcquireLatestDepth()
	case stream.Color:
		return c.AcquireLatestColor()
	}
	return nil, false
}
