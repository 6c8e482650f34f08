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
	"io"
	"os"
)

const fileBufferSize = 1024 * 1024

func newBufferedFile(filename string) (*bufferedFile, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &bufferedFile{
		f: f,
		w: bufio.NewWriterSize(f, fileBufferSize),
	}, nil
}

type bufferedFile struct {
	f *os.File
	w *bufio.Writer
}

func (bf *bufferedFile) Write(p []byte) (int, error) {
	return bf.w.Write(p)
}

func (bf *bufferedFile) Close() error {
	if err := bf.w.Flush(); err != nil {
		bf.f.Close()
		return err
	}
	return bf.f.Close()
}

// writeFile creates filename and fills it using encode. A partially
// written file is removed when encoding fails.
func writeFile(filename string, encode func(io.Writer) error) error {
	f, err := newBufferedFile(filename)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		os.Remove(filename)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(filename)
		return err
	}
	return nil
}

// SavePGM writes pix to filename as a 16 bit PGM.
func SavePGM(filename string, width, height int, pix []uint16) error {
	return writeFile(filename, func(w io.Writer) error {
		return WritePGM(w, width, height, pix)
	})
}

// SavePPM writes packed RGB bytes to filename as a PPM.
func SavePPM(filename string, width, height int, rgb []byte) error {
	return writeFile(filename, func(w io.Writer) error {
		return WritePPM(w, width, height, rgb)
	})
}

// SaveBMP writes packed BGR bytes to filename as a 24 bit BMP.
func SaveBMP(filename string, width, height int, bgr []byte) error {
	return writeFile(filename, func(w io.Writer) error {
		return WriteBMP(w, width, height, bgr)
	})
}

// SaveBMPFromRGB writes packed RGB bytes to filename as a 24 bit BMP.
func SaveBMPFromRGB(filename string, width, height int, rgb []byte) error {
	return writeFile(filename, func(w io.Writer) error {
		return WriteBMPFromRGB(w, width, height, rgb)
	})
}

// LoadPGM reads a 16 bit PGM written by SavePGM.
func LoadPGM(filename string) (width, height int, pix []uint16, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, 0, nil, err
	}
	defer f.Close()
	return ReadPGM(f)
}
