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

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TheCacophonyProject/depth-recorder/frameloop"
	"github.com/TheCacophonyProject/depth-recorder/output"
)

// ErrGeometry is returned for frames that don't match the stream's size.
var ErrGeometry = errors.New("unexpected frame geometry")

// PreviewBytesPerPixel is the size of one B, G, R, X preview pixel.
const PreviewBytesPerPixel = 4

// Stream converts camera frames of one kind into slots and writes slots
// to disk.
type Stream interface {
	Kind() Kind
	Width() int
	Height() int
	NewSlot() *frameloop.Slot
	NewPreview() []byte
	// Transform mirrors f horizontally into slot and preview.
	Transform(f *Frame, slot *frameloop.Slot, preview []byte) error
	Ext() string
	Save(filename string, slot *frameloop.Slot) error
	ShotExt() string
	SaveShot(filename string, slot *frameloop.Slot) error
}

// Dims is the fixed geometry of a stream.
type Dims struct {
	W, H int
}

func (d Dims) Width() int  { return d.W }
func (d Dims) Height() int { return d.H }

func (d Dims) NewPreview() []byte {
	return make([]byte, d.W*d.H*PreviewBytesPerPixel)
}

func (d Dims) check(f *Frame, channels int, n int) error {
	if f.Width != d.W || f.Height != d.H || n != d.W*d.H*channels {
		return fmt.Errorf("%w: %s frame %dx%d, want %dx%d", ErrGeometry, f.Kind, f.Width, f.Height, d.W, d.H)
	}
	return nil
}

// ColorFormat selects how colour frames are persisted.
type ColorFormat int

const (
	PPM ColorFormat = iota
	BMP
)

func (c ColorFormat) String() string {
	if c == BMP {
		return "bmp"
	}
	return "ppm"
}

// ParseColorFormat accepts "bmp" or "ppm".
func ParseColorFormat(s string) (ColorFormat, error) {
	switch strings.ToLower(s) {
	case "ppm":
		return PPM, nil
	case "bmp":
		return BMP, nil
	}
	return PPM, fmt.Errorf("unknown color format %q", s)
}

// New returns the three streams at native sensor geometry.
func New(colorFormat ColorFormat) [NumKinds]Stream {
	return [NumKinds]Stream{
		&InfraredStream{Dims{InfraredWidth, InfraredHeight}},
		&DepthStream{Dims{DepthWidth, DepthHeight}},
		&ColorStream{Dims{ColorWidth, ColorHeight}, colorFormat},
	}
}

// InfraredStream handles 16 bit infrared frames.
type InfraredStream struct {
	Dims
}

const (
	infraredSourceMax    = 65535.0
	infraredSceneAverage = 0.08
	infraredSceneStdDevs = 3.0
	infraredOutputMin    = 0.01
	infraredOutputMax    = 1.0
)

var infraredLUT [65536]byte

func init() {
	for i := range infraredLUT {
		infraredLUT[i] = InfraredIntensity(uint16(i))
	}
}

// InfraredIntensity maps a raw infrared sample to a display intensity.
func InfraredIntensity(raw uint16) byte {
	r := float32(raw) / infraredSourceMax
	r /= infraredSceneAverage * infraredSceneStdDevs
	if r > infraredOutputMax {
		r = infraredOutputMax
	}
	if r < infraredOutputMin {
		r = infraredOutputMin
	}
	return byte(r * 255)
}

func (s *InfraredStream) Kind() Kind { return Infrared }

func (s *InfraredStream) NewSlot() *frameloop.Slot {
	return &frameloop.Slot{Pix16: make([]uint16, s.W*s.H)}
}

func (s *InfraredStream) Transform(f *Frame, slot *frameloop.Slot, preview []byte) error {
	if err := s.check(f, 1, len(f.Pix16)); err != nil {
		return err
	}
	w := s.W
	for y := 0; y < s.H; y++ {
		src := f.Pix16[y*w : (y+1)*w]
		dst := slot.Pix16[y*w : (y+1)*w]
		p := preview[y*w*4 : (y+1)*w*4]
		for x := range dst {
			v := src[w-1-x]
			dst[x] = v
			i := infraredLUT[v]
			p[x*4], p[x*4+1], p[x*4+2], p[x*4+3] = i, i, i, 0
		}
	}
	return nil
}

func (s *InfraredStream) Ext() string { return "pgm" }

func (s *InfraredStream) Save(filename string, slot *frameloop.Slot) error {
	return output.SavePGM(filename, s.W, s.H, slot.Pix16)
}

func (s *InfraredStream) ShotExt() string { return s.Ext() }

func (s *InfraredStream) SaveShot(filename string, slot *frameloop.Slot) error {
	return s.Save(filename, slot)
}

// DepthStream handles 16 bit depth frames. Samples outside the frame's
// reliable range are stored as zero.
type DepthStream struct {
	Dims
}

// Preview colour, as B, G, R, for unreliable depth samples.
var unreliableDepth = [3]byte{212, 132, 34}

func (s *DepthStream) Kind() Kind { return Depth }

func (s *DepthStream) NewSlot() *frameloop.Slot {
	return &frameloop.Slot{Pix16: make([]uint16, s.W*s.H)}
}

func (s *DepthStream) Transform(f *Frame, slot *frameloop.Slot, preview []byte) error {
	if err := s.check(f, 1, len(f.Pix16)); err != nil {
		return err
	}
	w := s.W
	for y := 0; y < s.H; y++ {
		src := f.Pix16[y*w : (y+1)*w]
		dst := slot.Pix16[y*w : (y+1)*w]
		p := preview[y*w*4 : (y+1)*w*4]
		for x := range dst {
			v := src[w-1-x]
			if v < f.MinReliable || v > f.MaxReliable {
				dst[x] = 0
				p[x*4], p[x*4+1], p[x*4+2], p[x*4+3] = unreliableDepth[0], unreliableDepth[1], unreliableDepth[2], 0
				continue
			}
			dst[x] = v
			i := byte(v)
			p[x*4], p[x*4+1], p[x*4+2], p[x*4+3] = i, i, i, 0
		}
	}
	return nil
}

func (s *DepthStream) Ext() string { return "pgm" }

func (s *DepthStream) Save(filename string, slot *frameloop.Slot) error {
	return output.SavePGM(filename, s.W, s.H, slot.Pix16)
}

func (s *DepthStream) ShotExt() string { return s.Ext() }

func (s *DepthStream) SaveShot(filename string, slot *frameloop.Slot) error {
	return s.Save(filename, slot)
}

// ColorStream handles BGRA colour frames, persisted as 24 bit BMP (BGR)
// or PPM (RGB).
type ColorStream struct {
	Dims
	Format ColorFormat
}

func (s *ColorStream) Kind() Kind { return Color }

func (s *ColorStream) NewSlot() *frameloop.Slot {
	return &frameloop.Slot{Pix: make([]byte, s.W*s.H*3)}
}

func (s *ColorStream) Transform(f *Frame, slot *frameloop.Slot, preview []byte) error {
	if err := s.check(f, 4, len(f.Pix)); err != nil {
		return err
	}
	w := s.W
	for y := 0; y < s.H; y++ {
		src := f.Pix[y*w*4 : (y+1)*w*4]
		dst := slot.Pix[y*w*3 : (y+1)*w*3]
		p := preview[y*w*4 : (y+1)*w*4]
		for x := 0; x < w; x++ {
			si := (w - 1 - x) * 4
			b, g, r := src[si], src[si+1], src[si+2]
			p[x*4], p[x*4+1], p[x*4+2], p[x*4+3] = b, g, r, src[si+3]
			if s.Format == BMP {
				dst[x*3], dst[x*3+1], dst[x*3+2] = b, g, r
			} else {
				dst[x*3], dst[x*3+1], dst[x*3+2] = r, g, b
			}
		}
	}
	return nil
}

func (s *ColorStream) Ext() string { return s.Format.String() }

func (s *ColorStream) Save(filename string, slot *frameloop.Slot) error {
	if s.Format == BMP {
		return output.SaveBMP(filename, s.W, s.H, slot.Pix)
	}
	return output.SavePPM(filename, s.W, s.H, slot.Pix)
}

// ShotExt is always bmp, whatever the recording format.
func (s *ColorStream) ShotExt() string { return "bmp" }

func (s *ColorStream) SaveShot(filename string, slot *frameloop.Slot) error {
	if s.Format == BMP {
		return output.SaveBMP(filename, s.W, s.H, slot.Pix)
	}
	return output.SaveBMPFromRGB(filename, s.W, s.H, slot.Pix)
}
