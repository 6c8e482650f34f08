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

package output

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	// MaxGrey16 is the maximum sample value written in 16 bit PGM headers.
	MaxGrey16 = 65535
	// MaxColor8 is the maximum sample value written in 8 bit PPM headers.
	MaxColor8 = 255

	bmpFileHeaderSize = 14
	bmpInfoHeaderSize = 40
)

// WritePGM writes a binary 16 bit greyscale PGM (P5) image. Samples are
// written most significant byte first.
func WritePGM(w io.Writer, width, height int, pix []uint16) error {
	if err := checkSize("pgm", len(pix), width, height, 1); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "P5\n%d %d\n%d\n", width, height, MaxGrey16); err != nil {
		return err
	}
	row := make([]byte, width*2)
	for y := 0; y < height; y++ {
		for x, v := range pix[y*width : (y+1)*width] {
			binary.BigEndian.PutUint16(row[x*2:], v)
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WritePPM writes a binary 24 bit PPM (P6) image from packed RGB bytes.
func WritePPM(w io.Writer, width, height int, rgb []byte) error {
	if err := checkSize("ppm", len(rgb), width, height, 3); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n%d\n", width, height, MaxColor8); err != nil {
		return err
	}
	_, err := w.Write(rgb)
	return err
}

type bmpHeader struct {
	Type          [2]byte
	FileSize      uint32
	Reserved      uint32
	OffBits       uint32
	InfoSize      uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// WriteBMP writes an uncompressed 24 bit BMP from packed BGR bytes. The
// height is stored negated so rows are written top down.
func WriteBMP(w io.Writer, width, height int, bgr []byte) error {
	return writeBMP(w, width, height, bgr, false)
}

// WriteBMPFromRGB is WriteBMP for packed RGB input. Channels are swapped
// while writing so the input is left untouched.
func WriteBMPFromRGB(w io.Writer, width, height int, rgb []byte) error {
	return writeBMP(w, width, height, rgb, true)
}

func writeBMP(w io.Writer, width, height int, pix []byte, swap bool) error {
	if err := checkSize("bmp", len(pix), width, height, 3); err != nil {
		return err
	}
	stride := bmpStride(width)
	sizeImage := stride * height
	h := bmpHeader{
		Type:        [2]byte{'B', 'M'},
		FileSize:    uint32(bmpFileHeaderSize + bmpInfoHeaderSize + sizeImage),
		OffBits:     bmpFileHeaderSize + bmpInfoHeaderSize,
		InfoSize:    bmpInfoHeaderSize,
		Width:       int32(width),
		Height:      -int32(height),
		Planes:      1,
		BitCount:    24,
		Compression: 0,
		SizeImage:   uint32(sizeImage),
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}

	row := make([]byte, stride)
	for y := 0; y < height; y++ {
		src := pix[y*width*3 : (y+1)*width*3]
		copy(row, src)
		if swap {
			for i := 0; i < len(src); i += 3 {
				row[i], row[i+2] = src[i+2], src[i]
			}
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// bmpStride is the row length in bytes, padded to a multiple of four.
func bmpStride(width int) int {
	return (width*3 + 3) &^ 3
}

func checkSize(format string, n, width, height, channels int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%s: invalid size %dx%d", format, width, height)
	}
	if n != width*height*channels {
		return fmt.Errorf("%s: have %d samples for %dx%dx%d image", format, n, width, height, channels)
	}
	return nil
}

var errBadPGM = errors.New("pgm: unsupported header")

// ReadPGM reads a binary 16 bit PGM as written by WritePGM.
func ReadPGM(r io.Reader) (width, height int, pix []uint16, err error) {
	br := bufio.NewReader(r)
	var fields [4]string
	for i := range fields {
		if fields[i], err = readToken(br); err != nil {
			return 0, 0, nil, err
		}
	}
	if fields[0] != "P5" {
		return 0, 0, nil, errBadPGM
	}
	if width, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, nil, errBadPGM
	}
	if height, err = strconv.Atoi(fields[2]); err != nil {
		return 0, 0, nil, errBadPGM
	}
	if fields[3] != strconv.Itoa(MaxGrey16) || width <= 0 || height <= 0 {
		return 0, 0, nil, errBadPGM
	}

	raw := make([]byte, width*height*2)
	if _, err := io.ReadFull(br, raw); err != nil {
		return 0, 0, nil, err
	}
	pix = make([]uint16, width*height)
	for i := range pix {
		pix[i] = binary.BigEndian.Uint16(raw[i*2:])
	}
	return width, height, pix, nil
}

// readToken reads one whitespace delimited header token and consumes the
// single whitespace byte that ends it.
func readToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, c)
		}
	}
}
