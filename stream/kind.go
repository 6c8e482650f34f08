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

package stream

import "fmt"

// Kind identifies one of the camera's image streams.
type Kind int

const (
	Infrared Kind = iota
	Depth
	Color
)

// NumKinds is the number of streams recorded.
const NumKinds = 3

// Kinds lists every stream in acquisition order.
var Kinds = [NumKinds]Kind{Infrared, Depth, Color}

// Native sensor geometry.
const (
	InfraredWidth  = 512
	InfraredHeight = 424
	DepthWidth     = 512
	DepthHeight    = 424
	ColorWidth     = 1920
	ColorHeight    = 1080
)

// TicksPerSecond is the number of camera clock ticks (100 ns) per second.
const TicksPerSecond = 10000000

func (k Kind) String() string {
	switch k {
	case Infrared:
		return "infrared"
	case Depth:
		return "depth"
	case Color:
		return "color"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Subdir is the folder the stream's files are written to.
func (k Kind) Subdir() string {
	switch k {
	case Infrared:
		return "ir"
	case Depth:
		return "depth"
	case Color:
		return "color"
	}
	return k.String()
}

// Frame is a decoded frame handed over by the camera. Pix16 holds
// infrared and depth samples, Pix holds BGRA colour pixels. MinReliable
// and MaxReliable are only set for depth frames.
type Frame struct {
	Kind        Kind
	Time        int64
	Width       int
	Height      int
	Pix16       []uint16
	Pix         []byte
	MinReliable uint16
	MaxReliable uint16
}
